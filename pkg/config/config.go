// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Indexer, Storage, Search, Postgres, Redis, Kafka, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Indexer  IndexerConfig  `yaml:"indexer"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// IndexerConfig controls where the corpus comes from and how the built index
// is pruned.
type IndexerConfig struct {
	CorpusPath             string `yaml:"corpusPath"`
	CorpusFormat           string `yaml:"corpusFormat"`
	Sheet                  string `yaml:"sheet"`
	FrequentTermPruneCount int    `yaml:"frequentTermPruneCount"`
	Rebuild                bool   `yaml:"rebuild"`
}

// StorageConfig selects the persistence backend for the index and document
// directory.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	DataDir string `yaml:"dataDir"`
}

// SearchConfig controls query resolution.
type SearchConfig struct {
	Strategy   string `yaml:"strategy"`
	MaxResults int    `yaml:"maxResults"`
}

// PostgresConfig holds PostgreSQL connection parameters for the corpus
// loader.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	CorpusTable     string        `yaml:"corpusTable"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig holds Redis connection, storage and caching parameters.
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"poolSize"`
	KeyPrefix    string        `yaml:"keyPrefix"`
	CacheEnabled bool          `yaml:"cacheEnabled"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings for analytics events.
// BatchSize and FlushInterval bound how long the analytics collector holds
// events before publishing them in one write.
type KafkaConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Brokers       []string      `yaml:"brokers"`
	ConsumerGroup string        `yaml:"consumerGroup"`
	BatchSize     int           `yaml:"batchSize"`
	FlushInterval time.Duration `yaml:"flushInterval"`
	Topics        KafkaTopics   `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Storage backends.
const (
	BackendSegment = "segment"
	BackendBolt    = "bolt"
	BackendBadger  = "badger"
	BackendRedis   = "redis"
)

// Corpus formats.
const (
	FormatXLSX     = "xlsx"
	FormatCSV      = "csv"
	FormatTSV      = "tsv"
	FormatPostgres = "postgres"
)

// Query merge strategies.
const (
	StrategyUnion = "union"
	StrategyKWay  = "kway"
)

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated fields and numeric bounds.
func (c *Config) Validate() error {
	if c.Indexer.FrequentTermPruneCount < 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput,
			"indexer.frequentTermPruneCount must be >= 0, got %d", c.Indexer.FrequentTermPruneCount)
	}
	switch c.Indexer.CorpusFormat {
	case FormatXLSX, FormatCSV, FormatTSV, FormatPostgres:
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown indexer.corpusFormat %q", c.Indexer.CorpusFormat)
	}
	switch c.Storage.Backend {
	case BackendSegment, BackendBolt, BackendBadger, BackendRedis:
	default:
		return apperrors.Newf(apperrors.ErrUnsupportedBackend, "%q", c.Storage.Backend)
	}
	switch c.Search.Strategy {
	case StrategyUnion, StrategyKWay:
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, "unknown search.strategy %q", c.Search.Strategy)
	}
	if c.Kafka.BatchSize < 0 || c.Kafka.FlushInterval < 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput,
			"kafka.batchSize and kafka.flushInterval must be >= 0, got %d and %s", c.Kafka.BatchSize, c.Kafka.FlushInterval)
	}
	if c.Search.MaxResults < 0 {
		return apperrors.Newf(apperrors.ErrInvalidInput, "search.maxResults must be >= 0, got %d", c.Search.MaxResults)
	}
	return nil
}

// defaultConfig returns a Config with defaults for local runs.
func defaultConfig() *Config {
	return &Config{
		Indexer: IndexerConfig{
			CorpusPath:             "data/corpus.xlsx",
			CorpusFormat:           FormatXLSX,
			FrequentTermPruneCount: 50,
		},
		Storage: StorageConfig{
			Backend: BackendSegment,
			DataDir: "data/index",
		},
		Search: SearchConfig{
			Strategy: StrategyUnion,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "corpus",
			User:            "corpus",
			Password:        "localdev",
			SSLMode:         "disable",
			CorpusTable:     "documents",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "corpus-search:",
			CacheTTL:  60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "corpus-analytics",
			BatchSize:     100,
			FlushInterval: time.Second,
			Topics: KafkaTopics{
				AnalyticsEvents: "corpus-search-events",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads CS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CS_CORPUS_PATH"); v != "" {
		cfg.Indexer.CorpusPath = v
	}
	if v := os.Getenv("CS_CORPUS_FORMAT"); v != "" {
		cfg.Indexer.CorpusFormat = v
	}
	if v := os.Getenv("CS_PRUNE_COUNT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.FrequentTermPruneCount = k
		}
	}
	if v := os.Getenv("CS_REBUILD"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Indexer.Rebuild = b
		}
	}
	if v := os.Getenv("CS_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("CS_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("CS_SEARCH_STRATEGY"); v != "" {
		cfg.Search.Strategy = v
	}
	if v := os.Getenv("CS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CS_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.CacheEnabled = b
		}
	}
	if v := os.Getenv("CS_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("CS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
