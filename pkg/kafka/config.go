package kafka

import (
	"time"
)

// Config holds Kafka configuration
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	// Producer settings
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int // 0: no ack, 1: leader ack, -1: all replicas ack
	WriteTimeout time.Duration

	// Consumer settings
	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	CommitInterval time.Duration
	// RetryBackoff is the pause after a handler error before the message is redelivered
	RetryBackoff time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Brokers:       []string{"localhost:9092"},
		ConsumerGroup: "production-service",
		ClientID:      "production-service",

		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
		WriteTimeout: 10 * time.Second,

		MinBytes:     1,
		MaxBytes:     10e6,
		MaxWait:      500 * time.Millisecond,
		RetryBackoff: 2 * time.Second,
	}
}

// Topics used by the production service
var Topics = struct {
	JobsEvents         string
	JobsInbound        string
	TestPrintDecisions string
}{
	JobsEvents:         "production.jobs.events",
	JobsInbound:        "production.jobs.inbound",
	TestPrintDecisions: "production.testprints.decisions",
}
