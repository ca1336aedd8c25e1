// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config is the complete runtime configuration of the service.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
	Events      EventsConfig
	Admin       AdminBootstrapConfig
	Environment string
}

type ServerConfig struct {
	Host          string
	Port          int
	AllowedOrigin string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	JWTIssuer string
}

type RateLimitConfig struct {
	LoginPer15Minutes int
	PublicPerMinute   int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type EventsConfig struct {
	DefaultMaxAttendees int
}

// AdminBootstrapConfig optionally seeds one administrator at startup.
type AdminBootstrapConfig struct {
	Email    string
	Password string
	Name     string
}

// Enabled reports whether an administrator should be bootstrapped.
func (a AdminBootstrapConfig) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

const minSecretLength = 32

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:          getEnv("SERVER_HOST", "0.0.0.0"),
			Port:          getEnvInt("SERVER_PORT", getEnvInt("PORT", 8080)),
			AllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		},
		Database: loadDatabase(),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			JWTIssuer: getEnv("JWT_ISSUER", "event-admission"),
		},
		RateLimit: RateLimitConfig{
			LoginPer15Minutes: getEnvInt("RATE_LIMIT_LOGIN_PER_15_MINUTES", 5),
			PublicPerMinute:   getEnvInt("RATE_LIMIT_PUBLIC_PER_MINUTE", 120),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Events: EventsConfig{
			DefaultMaxAttendees: getEnvInt("DEFAULT_MAX_ATTENDEES", 50),
		},
		Admin: AdminBootstrapConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Name:     getEnv("ADMIN_NAME", "Administrator"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Environment != "development" && cfg.Environment != "test" && len(cfg.Auth.JWTSecret) < minSecretLength {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength)
	}
	if cfg.Auth.JWTExpiry <= 0 {
		return Config{}, fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if cfg.Events.DefaultMaxAttendees <= 0 {
		return Config{}, fmt.Errorf("DEFAULT_MAX_ATTENDEES must be positive")
	}
	return cfg, nil
}

// LoadDatabase reads only the database settings, for commands that do not
// serve traffic.
func LoadDatabase() (DatabaseConfig, error) {
	db := loadDatabase()
	if err := db.Validate(); err != nil {
		return DatabaseConfig{}, err
	}
	return db, nil
}

// Validate reports whether a database location was configured.
func (d DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}
	return nil
}

func loadDatabase() DatabaseConfig {
	db := DatabaseConfig{
		URL:            getEnv("DATABASE_URL", ""),
		MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 20),
	}
	if db.URL == "" {
		db.URL = databaseURLFromParts()
	}
	return db
}

// databaseURLFromParts builds a postgres URL from the DB_* variables.
func databaseURLFromParts() string {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(getEnv("DB_USER", "postgres"), getEnv("DB_PASSWORD", "postgres")),
		Host:   fmt.Sprintf("%s:%s", host, getEnv("DB_PORT", "5432")),
		Path:   "/" + getEnv("DB_NAME", "eventbooking"),
	}
	q := u.Query()
	q.Set("sslmode", getEnv("DB_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
