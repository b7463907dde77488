package config

import (
	"os"
	"strconv"
	"time"
)

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig holds the document cache settings. An empty Addr disables the
// cache entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// KafkaConfig holds the notification transport settings. Empty Brokers
// disables publishing.
type KafkaConfig struct {
	Brokers string
	Topic   string
}

// IndexConfig controls the secondary search index synchronizer.
type IndexConfig struct {
	QueueSize    int
	MaxRetries   int
	RetryDelay   time.Duration
	QueryTimeout time.Duration
	RebuildPage  int
}

// SearchConfig bounds search pagination.
type SearchConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// JobsConfig schedules background maintenance work.
type JobsConfig struct {
	SweepSchedule      string
	IndexProbeSchedule string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	Database DatabaseConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Index    IndexConfig
	Search   SearchConfig
	Jobs     JobsConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost: getEnv("APP_HOST", "localhost:8080"),
		Port:    getEnv("PORT", "8080"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      getEnvDuration("REDIS_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getEnv("KAFKA_BROKERS", ""),
			Topic:   getEnv("KAFKA_TOPIC", "digiarchive.events"),
		},
		Index: IndexConfig{
			QueueSize:    getEnvInt("INDEX_QUEUE_SIZE", 1024),
			MaxRetries:   getEnvInt("INDEX_MAX_RETRIES", 3),
			RetryDelay:   getEnvDuration("INDEX_RETRY_DELAY", 500*time.Millisecond),
			QueryTimeout: getEnvDuration("INDEX_QUERY_TIMEOUT", 2*time.Second),
			RebuildPage:  getEnvInt("INDEX_REBUILD_PAGE", 500),
		},
		Search: SearchConfig{
			DefaultPageSize: getEnvInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:     getEnvInt("SEARCH_MAX_PAGE_SIZE", 100),
		},
		Jobs: JobsConfig{
			SweepSchedule:      getEnv("JOBS_SWEEP_SCHEDULE", "@every 10m"),
			IndexProbeSchedule: getEnv("JOBS_INDEX_PROBE_SCHEDULE", "@every 5m"),
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
