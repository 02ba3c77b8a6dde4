package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"suritec/ms_facturasend_connector/internal/core/tenant"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App         AppSettings
	HTTP        HTTPSettings
	Auth        AuthSettings
	Log         LogSettings
	Database    DatabaseSettings
	FacturaSend FacturaSendSettings
	SMTP        SMTPSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
}

// FacturaSendSettings mirrors the tenant configuration of the e-invoicing
// provider. API key and tenant id are mandatory.
type FacturaSendSettings struct {
	BaseURL             string
	TenantID            string
	APIKey              string
	Establecimiento     string
	PuntoExpedicion     string
	MaxRetries          int
	StatusCheckInterval time.Duration
	PollBatchLimit      int
	APITimeout          time.Duration
	NotifyOnError       bool
	NotificationEmails  []string
}

// SMTPSettings configures the error-notification mailer.
type SMTPSettings struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// Tenant converts the provider settings into the tenant value passed to the
// application services.
func (f FacturaSendSettings) Tenant() tenant.Settings {
	return tenant.Settings{
		BaseURL:             f.BaseURL,
		TenantID:            f.TenantID,
		APIKey:              f.APIKey,
		Establecimiento:     f.Establecimiento,
		PuntoExpedicion:     f.PuntoExpedicion,
		MaxRetries:          f.MaxRetries,
		StatusCheckInterval: f.StatusCheckInterval,
		PollBatchLimit:      f.PollBatchLimit,
		APITimeout:          f.APITimeout,
		NotifyOnError:       f.NotifyOnError,
		NotificationEmails:  f.NotificationEmails,
	}
}

// Load resolves the application configuration from environment variables.
// A .env file is honored when present; real environment variables take
// precedence.
func Load() (AppConfig, error) {
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_facturasend_connector"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "erp"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MinIdleConns:    getEnvAsInt("DB_MIN_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		FacturaSend: FacturaSendSettings{
			BaseURL:             getEnv("FACTURASEND_BASE_URL", "https://api.facturasend.com.py"),
			TenantID:            strings.TrimSpace(os.Getenv("FACTURASEND_TENANT_ID")),
			APIKey:              strings.TrimSpace(os.Getenv("FACTURASEND_API_KEY")),
			Establecimiento:     getEnv("FACTURASEND_ESTABLECIMIENTO", "001"),
			PuntoExpedicion:     getEnv("FACTURASEND_PUNTO_EXPEDICION", "001"),
			MaxRetries:          getEnvAsInt("FACTURASEND_MAX_RETRIES", 3),
			StatusCheckInterval: getEnvAsDuration("FACTURASEND_STATUS_CHECK_INTERVAL", 5*time.Minute),
			PollBatchLimit:      getEnvAsInt("FACTURASEND_POLL_BATCH_LIMIT", 100),
			APITimeout:          getEnvAsDuration("FACTURASEND_API_TIMEOUT", 30*time.Second),
			NotifyOnError:       getEnvAsBool("FACTURASEND_NOTIFY_ON_ERROR", true),
			NotificationEmails:  getEnvAsCSV("FACTURASEND_NOTIFICATION_EMAILS", nil),
		},
		SMTP: SMTPSettings{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			From:     strings.TrimSpace(os.Getenv("SMTP_FROM")),
			Username: strings.TrimSpace(os.Getenv("SMTP_USERNAME")),
			Password: strings.TrimSpace(os.Getenv("SMTP_PASSWORD")),
		},
	}

	if cfg.FacturaSend.TenantID == "" {
		return cfg, errors.New("invalid config: FACTURASEND_TENANT_ID is required")
	}
	if cfg.FacturaSend.APIKey == "" {
		return cfg, errors.New("invalid config: FACTURASEND_API_KEY is required")
	}
	if cfg.FacturaSend.MaxRetries <= 0 {
		return cfg, errors.New("invalid config: FACTURASEND_MAX_RETRIES must be greater than 0")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
