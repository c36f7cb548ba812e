// Package config loads every configuration surface this module needs from
// the environment, in the teacher's getEnv/getIntEnv/getDurationEnv style,
// extended to cover the saga's timeouts, the sweeper and outbox publisher
// cadences, the payment/notification port settings, and PNR generation
// (spec §6).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Tracing      TracingConfig
	App          AppConfig
	Saga         SagaConfig
	Sweeper      SweeperConfig
	Outbox       OutboxConfig
	Payment      PaymentConfig
	Notification NotificationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Redacted returns a copy with Password masked, for safe logging.
func (c DatabaseConfig) Redacted() DatabaseConfig {
	c.Password = "***"
	return c
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Redacted returns a copy with Password masked, for safe logging.
func (c RedisConfig) Redacted() RedisConfig {
	c.Password = "***"
	return c
}

// KafkaConfig holds Kafka configuration. Topic fields name the three
// event-family topics the outbox publisher (C7) dispatches onto.
type KafkaConfig struct {
	Brokers            []string
	TopicInventory     string
	TopicBooking       string
	TopicTicketing     string
	GroupID            string
}

// TracingConfig configures the OTLP exporter (teacher's pkg/tracing).
type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	Environment  string
	OTLPEndpoint string
	SampleRatio  float64
}

// AppConfig holds application-specific configuration: the availability
// read-cache TTL and the inventory engine's queue capacity (spec §4.1, §5).
// LockTTL and MaxCacheEntries are loaded but no component reads them.
type AppConfig struct {
	CacheTTL             time.Duration
	LockTTL              time.Duration
	MaxCacheEntries      int
	InventoryQueueDepth  int
}

// SagaConfig mirrors saga.Config's fields for env-var loading (spec §4.3/§5),
// plus PnrAlphabet and PnrLength, which no component reads: PNR generation
// uses domain.PnrAlphabet and domain.PnrLength.
type SagaConfig struct {
	HoldDuration            time.Duration
	CheckoutPollInterval    time.Duration
	CheckoutPollMaxDuration time.Duration
	PaymentAttemptTimeout   time.Duration
	PaymentMaxAttempts      int
	NotificationTimeout     time.Duration
	NotificationMaxAttempts int
	ConfirmOCCMaxRetries    int
	PnrAlphabet             string
	PnrLength               int
}

// SweeperConfig mirrors sweeper.Config's fields (spec §4.4).
type SweeperConfig struct {
	Interval time.Duration
	PageSize int
}

// OutboxConfig mirrors outbox.Config's fields (spec §4.5).
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

// PaymentConfig holds the dev-mock/real payment gateway's settings (spec §6).
type PaymentConfig struct {
	BaseURL       string
	APIKey        string
	SettleAfter   time.Duration // dev-mock only: simulated processing delay
}

// Redacted returns a copy with APIKey masked, for safe logging.
func (c PaymentConfig) Redacted() PaymentConfig {
	c.APIKey = "***"
	return c
}

// NotificationConfig holds the dev-mock/real notification gateway's
// settings (spec §6).
type NotificationConfig struct {
	BaseURL string
	APIKey  string
}

// Redacted returns a copy with APIKey masked, for safe logging.
func (c NotificationConfig) Redacted() NotificationConfig {
	c.APIKey = "***"
	return c
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "airline_booking"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			TopicInventory: getEnv("KAFKA_TOPIC_INVENTORY", "flight-inventory-events"),
			TopicBooking:   getEnv("KAFKA_TOPIC_BOOKING", "booking-events"),
			TopicTicketing: getEnv("KAFKA_TOPIC_TICKETING", "ticketing-events"),
			GroupID:        getEnv("KAFKA_GROUP_ID", "booking-service"),
		},
		Tracing: TracingConfig{
			Enabled:      getBoolEnv("TRACING_ENABLED", false),
			ServiceName:  getEnv("TRACING_SERVICE_NAME", "airline-booking-system"),
			Environment:  getEnv("TRACING_ENVIRONMENT", "development"),
			OTLPEndpoint: getEnv("TRACING_OTLP_ENDPOINT", "http://localhost:4318"),
			SampleRatio:  getFloatEnv("TRACING_SAMPLE_RATIO", 1.0),
		},
		App: AppConfig{
			CacheTTL:            getDurationEnv("CACHE_TTL", time.Hour),
			LockTTL:             getDurationEnv("LOCK_TTL", 5*time.Minute),
			MaxCacheEntries:     getIntEnv("MAX_CACHE_ENTRIES", 1000),
			InventoryQueueDepth: getIntEnv("INVENTORY_QUEUE_DEPTH", 500),
		},
		Saga: SagaConfig{
			HoldDuration:            getDurationEnv("SAGA_HOLD_DURATION", 30*time.Minute),
			CheckoutPollInterval:    getDurationEnv("SAGA_CHECKOUT_POLL_INTERVAL", 2*time.Second),
			CheckoutPollMaxDuration: getDurationEnv("SAGA_CHECKOUT_POLL_MAX_DURATION", 30*time.Minute),
			PaymentAttemptTimeout:   getDurationEnv("SAGA_PAYMENT_ATTEMPT_TIMEOUT", 30*time.Second),
			PaymentMaxAttempts:      getIntEnv("SAGA_PAYMENT_MAX_ATTEMPTS", 3),
			NotificationTimeout:     getDurationEnv("SAGA_NOTIFICATION_TIMEOUT", 10*time.Second),
			NotificationMaxAttempts: getIntEnv("SAGA_NOTIFICATION_MAX_ATTEMPTS", 3),
			ConfirmOCCMaxRetries:    getIntEnv("SAGA_CONFIRM_OCC_MAX_RETRIES", 3),
			PnrAlphabet:             getEnv("SAGA_PNR_ALPHABET", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"),
			PnrLength:               getIntEnv("SAGA_PNR_LENGTH", 6),
		},
		Sweeper: SweeperConfig{
			Interval: getDurationEnv("SWEEPER_INTERVAL", 60*time.Second),
			PageSize: getIntEnv("SWEEPER_PAGE_SIZE", 100),
		},
		Outbox: OutboxConfig{
			PollInterval: getDurationEnv("OUTBOX_POLL_INTERVAL", 5*time.Second),
			BatchSize:    getIntEnv("OUTBOX_BATCH_SIZE", 100),
			MaxRetries:   getIntEnv("OUTBOX_MAX_RETRIES", 3),
		},
		Payment: PaymentConfig{
			BaseURL:     getEnv("PAYMENT_BASE_URL", ""),
			APIKey:      getEnv("PAYMENT_API_KEY", ""),
			SettleAfter: getDurationEnv("PAYMENT_DEV_MOCK_SETTLE_AFTER", 0),
		},
		Notification: NotificationConfig{
			BaseURL: getEnv("NOTIFICATION_BASE_URL", ""),
			APIKey:  getEnv("NOTIFICATION_API_KEY", ""),
		},
	}
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable with a default value.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getFloatEnv gets a float environment variable with a default value.
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable with a default value.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable with a default value.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
