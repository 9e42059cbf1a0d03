package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all settings for the quiz generation service.
type Config struct {
	// HTTP server
	Port        string `envconfig:"SERVER_PORT" default:"8000"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	// Comma-separated origins allowed by CORS; * allows any.
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`

	// Upload limits
	MaxUploadBytes int64 `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	// Minimum usable length (in runes) of extracted text.
	MinTextLength int `envconfig:"MIN_TEXT_LENGTH" default:"150"`

	// AI provider
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://api.groq.com/openai/v1"`
	AIModel          string        `envconfig:"AI_MODEL" default:"llama-3.3-70b-versatile"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIMaxTokens      int           `envconfig:"AI_MAX_TOKENS" default:"4096"`
	AITemperature    float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	MaxSourceTokens  int           `envconfig:"MAX_SOURCE_TOKENS" default:"6000"`
	GenMaxAttempts   int           `envconfig:"GEN_MAX_ATTEMPTS" default:"2"`
	GenBaseRetryWait time.Duration `envconfig:"GEN_BASE_RETRY_WAIT" default:"1s"`
	// Secret field, loaded without an envconfig tag.
	AIAPIKey string

	// Background jobs
	WorkerCount  int           `envconfig:"WORKER_COUNT" default:"4"`
	QueueSize    int           `envconfig:"QUEUE_SIZE" default:"64"`
	JobTimeout   time.Duration `envconfig:"JOB_TIMEOUT" default:"5m"`
	JobRetention time.Duration `envconfig:"JOB_RETENTION" default:"30m"`
	// memory or redis
	JobStore string `envconfig:"JOB_STORE" default:"memory"`

	// Redis (used only when JOB_STORE=redis)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Secret field, loaded without an envconfig tag.
	RedisPassword string

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"quizai"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret field, loaded without an envconfig tag.
	DBPassword string

	// RabbitMQ; the completion notifier is disabled when the URL is empty.
	RabbitMQURL       string `envconfig:"RABBITMQ_URL" default:""`
	NotificationQueue string `envconfig:"NOTIFICATION_QUEUE" default:"quiz_generation_updates"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// MaskedDSN returns the DSN with the password hidden, for logging.
func (c *Config) MaskedDSN() string {
	return fmt.Sprintf("postgres://%s:********@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// AllowedOrigins splits CORSOrigins into a slice.
func (c *Config) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig reads configuration from the environment and secret files.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var err error
	cfg.AIAPIKey, err = readSecret("ai_api_key", "AI_API_KEY")
	if err != nil {
		return nil, err
	}

	cfg.DBPassword, err = readSecret("db_password", "DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// Redis auth is optional; ignore a missing secret.
	cfg.RedisPassword, _ = readSecret("redis_password", "REDIS_PASSWORD")

	if cfg.GenMaxAttempts < 1 {
		return nil, fmt.Errorf("GEN_MAX_ATTEMPTS must be at least 1, got %d", cfg.GenMaxAttempts)
	}
	switch cfg.JobStore {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("unknown JOB_STORE %q (expected memory or redis)", cfg.JobStore)
	}

	return &cfg, nil
}
