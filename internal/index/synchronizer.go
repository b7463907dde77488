package index

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"digiarchive/internal/apperr"
)

// Loader supplies index entries from the system of record. The store is the
// source of truth; the index is always rebuildable from it.
type Loader interface {
	// Entry returns the indexable view of one document, or a NotFound error
	// when the document no longer exists.
	Entry(ctx context.Context, id string) (*Entry, error)
	// IDs pages all document ids in ascending order for rebuild.
	IDs(ctx context.Context, afterID string, limit int) ([]string, error)
}

type op struct {
	id     string
	remove bool
}

// Config bounds the synchronizer's queue and retry behavior.
type Config struct {
	QueueSize   int
	MaxRetries  int
	RetryDelay  time.Duration
	RebuildPage int
}

// Synchronizer mirrors store mutations into the Engine. Enqueueing never
// blocks the mutating request; the single worker applies operations in order
// and retries transient failures instead of dropping them.
type Synchronizer struct {
	engine *Engine
	loader Loader
	cfg    Config
	log    *logrus.Logger

	queue chan op
	wg    sync.WaitGroup

	queueDepth prometheus.Gauge
	applied    prometheus.Counter
	dropped    prometheus.Counter
	failures   prometheus.Counter
}

// NewSynchronizer creates a Synchronizer and registers its metrics.
func NewSynchronizer(engine *Engine, loader Loader, cfg Config, log *logrus.Logger, reg prometheus.Registerer) *Synchronizer {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.RebuildPage <= 0 {
		cfg.RebuildPage = 500
	}
	s := &Synchronizer{
		engine: engine,
		loader: loader,
		cfg:    cfg,
		log:    log,
		queue:  make(chan op, cfg.QueueSize),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "index_sync_queue_depth",
			Help: "Pending index synchronization operations.",
		}),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "index_sync_applied_total",
			Help: "Index operations applied successfully.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "index_sync_dropped_total",
			Help: "Index operations dropped because the queue was full.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "index_sync_failures_total",
			Help: "Index operations abandoned after exhausting retries.",
		}),
	}
	if reg != nil {
		reg.MustRegister(s.queueDepth, s.applied, s.dropped, s.failures)
	}
	return s
}

// Start launches the worker goroutine.
func (s *Synchronizer) Start() {
	s.wg.Add(1)
	go s.run()
}

// Close drains the queue and stops the worker.
func (s *Synchronizer) Close() {
	close(s.queue)
	s.wg.Wait()
}

// EnqueueUpsert schedules a re-index of the document. Never blocks; a full
// queue is counted and logged, and a later rebuild repairs the divergence.
func (s *Synchronizer) EnqueueUpsert(id string) {
	s.enqueue(op{id: id})
}

// EnqueueRemove schedules removal of the document from the index.
func (s *Synchronizer) EnqueueRemove(id string) {
	s.enqueue(op{id: id, remove: true})
}

func (s *Synchronizer) enqueue(o op) {
	select {
	case s.queue <- o:
		s.queueDepth.Set(float64(len(s.queue)))
	default:
		s.dropped.Inc()
		s.log.WithFields(logrus.Fields{"document_id": o.id, "remove": o.remove}).
			Error("index sync queue full, operation dropped")
	}
}

func (s *Synchronizer) run() {
	defer s.wg.Done()
	for o := range s.queue {
		s.queueDepth.Set(float64(len(s.queue)))
		s.apply(o)
	}
}

func (s *Synchronizer) apply(o op) {
	if o.remove {
		s.engine.Remove(o.id)
		s.applied.Inc()
		return
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.cfg.RetryDelay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		entry, err := s.loader.Entry(ctx, o.id)
		cancel()
		if err != nil {
			if apperr.IsNotFound(err) {
				// Deleted between enqueue and apply.
				s.engine.Remove(o.id)
				s.applied.Inc()
				return
			}
			lastErr = err
			continue
		}
		s.engine.Upsert(entry)
		s.applied.Inc()
		return
	}

	s.failures.Inc()
	s.log.WithField("document_id", o.id).WithError(lastErr).
		Error("index sync abandoned after retries")
}

// Rebuild re-derives the entire index from the store. It is idempotent, safe
// to run concurrently with live traffic (readers see pre- or post-rebuild
// state per document), and cancellable through ctx. Returns the number of
// documents indexed.
func (s *Synchronizer) Rebuild(ctx context.Context) (int, error) {
	seen := make(map[string]bool)
	afterID := ""
	for {
		if err := ctx.Err(); err != nil {
			return len(seen), err
		}
		ids, err := s.loader.IDs(ctx, afterID, s.cfg.RebuildPage)
		if err != nil {
			return len(seen), err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return len(seen), err
			}
			entry, err := s.loader.Entry(ctx, id)
			if err != nil {
				if apperr.IsNotFound(err) {
					continue
				}
				return len(seen), err
			}
			s.engine.Upsert(entry)
			seen[id] = true
		}
		afterID = ids[len(ids)-1]
	}
	s.engine.Sweep(seen)
	s.log.WithField("documents", len(seen)).Info("index rebuild complete")
	return len(seen), nil
}
