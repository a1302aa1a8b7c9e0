// Package config loads service configuration from defaults, an optional
// config file and environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends
const (
	BackendMongoDB = "mongodb"
	BackendBadger  = "badger"
)

// Config holds application configuration
type Config struct {
	ServiceName        string           `mapstructure:"service_name"`
	Environment        string           `mapstructure:"environment"`
	ContractValidation bool             `mapstructure:"contract_validation"`
	Server             ServerConfig     `mapstructure:"server"`
	Log                LogConfig        `mapstructure:"log"`
	Store              StoreConfig      `mapstructure:"store"`
	MongoDB            MongoDBConfig    `mapstructure:"mongodb"`
	Kafka              KafkaConfig      `mapstructure:"kafka"`
	Outbox             OutboxConfig     `mapstructure:"outbox"`
	Tracing            TracingConfig    `mapstructure:"tracing"`
	Production         ProductionConfig `mapstructure:"production"`
	Notify             NotifyConfig     `mapstructure:"notify"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type StoreConfig struct {
	Backend        string `mapstructure:"backend"`
	BadgerPath     string `mapstructure:"badger_path"`
	BadgerInMemory bool   `mapstructure:"badger_in_memory"`
}

type MongoDBConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ReplicaSet     string        `mapstructure:"replica_set"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
}

type KafkaConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
}

type OutboxConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
}

type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Endpoint   string  `mapstructure:"endpoint"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// ProductionConfig holds the floor rules
type ProductionConfig struct {
	ManagerOverrideCode   string `mapstructure:"manager_override_code"`
	OperatorDirectoryFile string `mapstructure:"operator_directory_file"`
	ConflictRetries       int    `mapstructure:"conflict_retries"`
}

type NotifyConfig struct {
	TeamsWebhookURL string        `mapstructure:"teams_webhook_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// envBindings maps configuration keys onto their environment variables
var envBindings = map[string]string{
	"service_name":                       "SERVICE_NAME",
	"environment":                        "ENVIRONMENT",
	"contract_validation":                "CONTRACT_VALIDATION",
	"server.addr":                        "SERVER_ADDR",
	"log.level":                          "LOG_LEVEL",
	"store.backend":                      "STORE_BACKEND",
	"store.badger_path":                  "BADGER_PATH",
	"store.badger_in_memory":             "BADGER_IN_MEMORY",
	"mongodb.uri":                        "MONGODB_URI",
	"mongodb.database":                   "MONGODB_DATABASE",
	"mongodb.replica_set":                "MONGODB_REPLICA_SET",
	"kafka.enabled":                      "KAFKA_ENABLED",
	"kafka.brokers":                      "KAFKA_BROKERS",
	"kafka.consumer_group":               "KAFKA_CONSUMER_GROUP",
	"tracing.enabled":                    "TRACING_ENABLED",
	"tracing.endpoint":                   "OTEL_EXPORTER_OTLP_ENDPOINT",
	"production.manager_override_code":   "MANAGER_OVERRIDE_CODE",
	"production.operator_directory_file": "OPERATOR_DIRECTORY_FILE",
	"notify.teams_webhook_url":           "TEAMS_WEBHOOK_URL",
	"notify.timeout":                     "NOTIFY_TIMEOUT",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "production-service")
	v.SetDefault("environment", "development")
	v.SetDefault("contract_validation", true)

	v.SetDefault("server.addr", ":8010")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("store.backend", BackendMongoDB)
	v.SetDefault("store.badger_path", "./data/badger")
	v.SetDefault("store.badger_in_memory", false)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "production_db")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.max_pool_size", 100)
	v.SetDefault("mongodb.min_pool_size", 10)

	v.SetDefault("kafka.enabled", true)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.consumer_group", "production-service")

	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("production.operator_directory_file", "./config/operators.yaml")
	v.SetDefault("production.conflict_retries", 5)

	v.SetDefault("notify.timeout", 5*time.Second)
}

// Load reads configuration. path may be empty, in which case CONFIG_FILE is
// consulted and, failing that, only defaults and the environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Kafka.Brokers = splitBrokers(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitBrokers accepts both list values and a single comma separated string
func splitBrokers(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, b := range strings.Split(item, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	var errs []error
	if c.Production.ManagerOverrideCode == "" {
		errs = append(errs, errors.New("production.manager_override_code (MANAGER_OVERRIDE_CODE) is required"))
	}
	switch c.Store.Backend {
	case BackendMongoDB:
		if c.MongoDB.URI == "" {
			errs = append(errs, errors.New("mongodb.uri is required for the mongodb backend"))
		}
	case BackendBadger:
		if !c.Store.BadgerInMemory && c.Store.BadgerPath == "" {
			errs = append(errs, errors.New("store.badger_path is required for the badger backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q", BackendMongoDB, BackendBadger, c.Store.Backend))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers is required when kafka is enabled"))
	}
	if c.Production.ConflictRetries < 1 {
		errs = append(errs, errors.New("production.conflict_retries must be at least 1"))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, errors.New("notify.timeout must be positive"))
	}
	return errors.Join(errs...)
}
