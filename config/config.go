// File: /config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	DatabaseURL string `yaml:"database_url"`
	JWTSecret   string `yaml:"jwt_secret"`
	SessionKey  string `yaml:"session_key"`
	LogFormat   string `yaml:"log_format"` // text|json

	// How often stored event activity flags are recomputed. Zero disables the job.
	ActivityRefreshInterval time.Duration `yaml:"activity_refresh_interval"`

	// Login attempts allowed per client IP per minute
	LoginRateLimit int `yaml:"login_rate_limit"`

	// Email Configuration
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUsername string `yaml:"smtp_username"`
	SMTPPassword string `yaml:"smtp_password"`
	FromEmail    string `yaml:"from_email"`
	FromName     string `yaml:"from_name"`
}

// Default returns the development configuration
func Default() *Config {
	return &Config{
		Port:                    "8080",
		Environment:             "development",
		DatabaseURL:             "user:password@tcp(localhost:3306)/raceday?charset=utf8mb4&parseTime=True&loc=UTC",
		JWTSecret:               "your-secret-key",
		SessionKey:              "change-me-session-key-32-bytes!!",
		LogFormat:               "text",
		ActivityRefreshInterval: 10 * time.Minute,
		LoginRateLimit:          10,
		SMTPHost:                "",
		SMTPPort:                2525,
		FromEmail:               "noreply@raceday.local",
		FromName:                "Raceday",
	}
}

// Load reads the YAML file at path when it exists and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.SessionKey = getEnv("SESSION_KEY", cfg.SessionKey)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	cfg.SMTPHost = getEnv("SMTP_HOST", cfg.SMTPHost)
	cfg.SMTPUsername = getEnv("SMTP_USERNAME", cfg.SMTPUsername)
	cfg.SMTPPassword = getEnv("SMTP_PASSWORD", cfg.SMTPPassword)
	cfg.FromEmail = getEnv("FROM_EMAIL", cfg.FromEmail)
	cfg.FromName = getEnv("FROM_NAME", cfg.FromName)

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
		cfg.SMTPPort = port
	}
	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOGIN_RATE_LIMIT %q: %w", v, err)
		}
		cfg.LoginRateLimit = limit
	}
	if v := os.Getenv("ACTIVITY_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ACTIVITY_REFRESH_INTERVAL %q: %w", v, err)
		}
		cfg.ActivityRefreshInterval = d
	}
	return nil
}

// IsProduction reports whether cookies and logs should use production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// MailEnabled reports whether an SMTP relay is configured
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
