// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Database struct {
		Host       string `json:"host"`
		Port       string `json:"port"`
		User       string `json:"user"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		SSLMode    string `json:"sslmode"`
		SearchPath string `json:"schema"`
	} `json:"database"`
	JWT struct {
		Secret string `json:"secret"`
	} `json:"jwt"`
	Server struct {
		Port         string        `json:"port"`
		ReadTimeout  time.Duration `json:"read_timeout"`
		WriteTimeout time.Duration `json:"write_timeout"`
	}
	Email struct {
		// Provider selects the outbound delivery path: "sendgrid" or
		// "smtp".
		Provider string `json:"provider"`
		From     string `json:"from"`
	} `json:"email"`
	Sendgrid struct {
		APIKey string `json:"api_key"`
	} `json:"sendgrid"`
	SMTP struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"smtp"`
	Invitations struct {
		// Validity is the window between creation and expiry.
		Validity time.Duration `json:"validity"`
		// Retention is how long terminal invitations are kept before the
		// purge sweep hard-deletes them.
		Retention time.Duration `json:"retention"`
		// SweepEvery is the recurring schedule for the expiry/purge sweeps.
		SweepEvery time.Duration `json:"sweep_every"`
	} `json:"invitations"`
	BaseURL string `json:"base_url"`
}

func Load() *Config {
	cfg := &Config{}

	// Database configuration
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "sponsorgrid")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.SearchPath = getEnv("DB_SCHEMA", "public")

	// JWT configuration (validation only; tokens are issued by the identity
	// provider)
	cfg.JWT.Secret = getEnv("JWT_SECRET", "your-secret-key")

	// Outbound email
	cfg.Email.Provider = getEnv("EMAIL_PROVIDER", "sendgrid")
	cfg.Email.From = getEnv("EMAIL_FROM", getEnv("SENDGRID_FROM", ""))
	cfg.Sendgrid.APIKey = getEnv("SENDGRID_API_KEY", "")
	cfg.SMTP.Host = getEnv("SMTP_HOST", "localhost")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")

	// Server configuration
	cfg.Server.Port = getEnv("SERVER_PORT", "8080")
	cfg.Server.ReadTimeout = time.Second * 15
	cfg.Server.WriteTimeout = time.Second * 15

	// Invitation lifecycle
	cfg.Invitations.Validity = getEnvDuration("INVITE_VALIDITY", 7*24*time.Hour)
	cfg.Invitations.Retention = getEnvDuration("INVITE_RETENTION", 30*24*time.Hour)
	cfg.Invitations.SweepEvery = getEnvDuration("INVITE_SWEEP_EVERY", time.Hour)

	cfg.BaseURL = getEnv("BASE_URL", "http://localhost:3000")

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if days, err := strconv.Atoi(value); err == nil {
		return time.Duration(days) * 24 * time.Hour
	}
	return defaultValue
}
