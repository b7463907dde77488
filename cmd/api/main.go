package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/cache"
	"digiarchive/internal/config"
	"digiarchive/internal/consistency"
	"digiarchive/internal/database"
	"digiarchive/internal/database/migration"
	"digiarchive/internal/event"
	"digiarchive/internal/http/handler"
	"digiarchive/internal/http/middleware"
	"digiarchive/internal/index"
	"digiarchive/internal/jobs"
	"digiarchive/internal/notify"
	"digiarchive/internal/otel"
	"digiarchive/internal/repository/postgres"
	"digiarchive/internal/search"
	"digiarchive/internal/service"
	"digiarchive/internal/storage"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc := time.Local

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// PostgreSQL connection (pgx stdlib driver with otelsql instrumentation)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	// S3-compatible object storage (MinIO)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize object storage")
	}

	// Repositories
	docRepo := postgres.NewDocumentPostgres(db)
	deptRepo := postgres.NewDepartmentPostgres(db)
	folderRepo := postgres.NewFolderPostgres(db)
	tagRepo := postgres.NewTagPostgres(db)
	auditRepo := postgres.NewAuditLogPostgres(db)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Secondary search index and its synchronizer
	engine := index.NewEngine()
	sync := index.NewSynchronizer(engine, &index.StoreLoader{Docs: docRepo, Folders: folderRepo}, index.Config{
		QueueSize:   cfg.Index.QueueSize,
		MaxRetries:  cfg.Index.MaxRetries,
		RetryDelay:  cfg.Index.RetryDelay,
		RebuildPage: cfg.Index.RebuildPage,
	}, log, reg)
	sync.Start()
	defer sync.Close()

	if _, err := sync.Rebuild(ctx); err != nil {
		log.WithError(err).Warn("initial index rebuild failed, index will fill from events")
	}

	// Consistency guard over the folder/department pairing
	guard := consistency.NewGuard(docRepo, folderRepo, log)

	// Optional collaborators degrade to no-ops when unconfigured
	var docCache cache.DocumentCache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		docCache = cache.NewRedis(cfg.Redis, log)
	}
	var notifier notify.Notifier = notify.Noop{}
	if cfg.Kafka.Brokers != "" {
		kafkaNotifier, err := notify.NewKafka(cfg.Kafka, log)
		if err != nil {
			log.WithError(err).Fatal("failed to initialize kafka producer")
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	// Services
	docSvc := service.NewDocumentService(objStore, docRepo, tagRepo, deptRepo, guard, docCache)
	resolver := search.NewResolver(folderRepo, cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	searchSvc := service.NewSearchService(resolver, docRepo, engine, docRepo, tagRepo,
		cfg.Index.QueryTimeout, log, reg)
	deptSvc := service.NewDepartmentService(deptRepo)
	folderSvc := service.NewFolderService(folderRepo, deptRepo, docRepo)
	tagSvc := service.NewTagService(tagRepo)

	// Event fan-out: index sync, audit trail, external notifications
	dispatcher := event.NewFanOut(log,
		service.NewIndexSubscriber(sync),
		service.NewAuditSubscriber(auditRepo),
		service.NewNotifySubscriber(notifier),
	)

	// Background maintenance: consistency sweep and index lag probe
	runner := jobs.NewRunner(log,
		jobs.NewConsistencySweep(guard, cfg.Jobs.SweepSchedule, log, reg),
		jobs.NewIndexLagProbe(engine, docRepo, cfg.Jobs.IndexProbeSchedule, log, reg),
	)
	if err := runner.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduled jobs")
	}
	defer runner.Stop()

	app := fiber.New(fiber.Config{
		ErrorHandler: handler.ErrorHandler(),
	})

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.WithError(err).Fatal("failed to register http metrics")
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())
	app.Use(promMW.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	h := &handler.Handler{
		DB:          db,
		Docs:        docSvc,
		Search:      searchSvc,
		Departments: deptSvc,
		Folders:     folderSvc,
		Tags:        tagSvc,
		Audit:       auditRepo,
		Guard:       guard,
		Sync:        sync,
		Dispatcher:  dispatcher,
		Log:         log,
	}
	h.RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	addr := ":" + cfg.Port
	if err := app.Listen(addr); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}
