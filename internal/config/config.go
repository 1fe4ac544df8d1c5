package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the engine.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Workflow     WorkflowConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines host credential parameters for the event webhook.
type AuthConfig struct {
	JWTSecret           string
	HostTokenTTLMinutes int
}

// SESConfig holds AWS SES transport credentials.
type SESConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// SMTPConfig holds plain SMTP transport values.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
}

// NotificationConfig selects and configures the notification transport and the
// fixed system sender identity.
type NotificationConfig struct {
	Provider      string
	SenderAddress string
	SenderName    string
	SES           SESConfig
	SMTP          SMTPConfig
}

// WorkflowConfig carries engine tunables: the ticket classification tag and the
// re-entrancy depth limits for each trigger kind.
type WorkflowConfig struct {
	TicketCategory        string
	AccountTriggerDepth   int
	TicketTriggerDepth    int
	AccountLeaseEnabled   bool
	AccountLeaseTTLMillis int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "email-approval-engine"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("AUTH_JWT_SECRET", "dev-secret"),
			HostTokenTTLMinutes: getEnvAsInt("AUTH_HOST_TOKEN_TTL_MINUTES", 60),
		},
		Notification: NotificationConfig{
			Provider:      getEnv("NOTIFY_PROVIDER", "noop"),
			SenderAddress: getEnv("NOTIFY_SENDER_ADDRESS", "noreply@example.com"),
			SenderName:    getEnv("NOTIFY_SENDER_NAME", "Customer Service"),
			SES: SESConfig{
				Region:          getEnv("NOTIFY_SES_REGION", "us-east-1"),
				AccessKeyID:     os.Getenv("NOTIFY_SES_ACCESS_KEY_ID"),
				SecretAccessKey: os.Getenv("NOTIFY_SES_SECRET_ACCESS_KEY"),
			},
			SMTP: SMTPConfig{
				Host:     getEnv("NOTIFY_SMTP_HOST", "localhost"),
				Port:     getEnv("NOTIFY_SMTP_PORT", "587"),
				Username: os.Getenv("NOTIFY_SMTP_USERNAME"),
				Password: os.Getenv("NOTIFY_SMTP_PASSWORD"),
			},
		},
		Workflow: WorkflowConfig{
			TicketCategory:        getEnv("WORKFLOW_TICKET_CATEGORY", "email_change_request"),
			AccountTriggerDepth:   getEnvAsInt("WORKFLOW_ACCOUNT_TRIGGER_DEPTH", 1),
			TicketTriggerDepth:    getEnvAsInt("WORKFLOW_TICKET_TRIGGER_DEPTH", 2),
			AccountLeaseEnabled:   getEnvAsBool("WORKFLOW_ACCOUNT_LEASE_ENABLED", true),
			AccountLeaseTTLMillis: getEnvAsInt("WORKFLOW_ACCOUNT_LEASE_TTL_MILLIS", 10000),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// AccountLeaseTTL returns the configured lease duration.
func (w WorkflowConfig) AccountLeaseTTL() time.Duration {
	if w.AccountLeaseTTLMillis <= 0 {
		return 10 * time.Second
	}
	return time.Duration(w.AccountLeaseTTLMillis) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
