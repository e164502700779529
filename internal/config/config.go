/**
 * @description
 * Configuration loader for the Alertdesk backend.
 * Reads environment variables (optionally from a .env file), applies defaults and validates.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 *
 * @notes
 * - Fails fast if the database cannot be addressed.
 * - DATABASE_URL wins over the discrete DB_HOST/DB_USER/DB_PASS/DB_NAME variables.
 */

package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Log    LogConfig
	Worker WorkerConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port             string
	Env              string // "development", "staging", "production" or "test"
	CORSAllowOrigins string
}

// DBConfig holds PostgreSQL and connection pool settings
type DBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	MinConns        int
	MaxConns        int
	AcquireTimeout  time.Duration // 0 blocks until a connection frees up
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis settings. An empty URL disables alert change events.
type RedisConfig struct {
	URL string
}

// WorkerConfig holds background worker settings
type WorkerConfig struct {
	NotesInterval time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (containers inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:             getEnv("PORT", "5005"),
			Env:              getEnv("GO_ENV", "development"),
			CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		DB: DBConfig{
			URL:             getEnv("DATABASE_URL", ""),
			Host:            getEnv("DB_HOST", ""),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", ""),
			Password:        sanitizeCredential(getEnv("DB_PASS", "")),
			Name:            getEnv("DB_NAME", ""),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			AcquireTimeout:  getEnvAsDuration("DB_ACQUIRE_TIMEOUT", 0),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Worker: WorkerConfig{
			NotesInterval: getEnvAsDuration("WORKER_NOTES_INTERVAL", 5*time.Minute),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DSN returns the connection string for PostgreSQL.
func (c DBConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	return u.String()
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" && (cfg.DB.Host == "" || cfg.DB.Name == "") {
		return fmt.Errorf("DATABASE_URL or DB_HOST and DB_NAME are required")
	}
	if cfg.DB.MinConns < 1 {
		return fmt.Errorf("DB_MIN_CONNS must be at least 1, got %d", cfg.DB.MinConns)
	}
	if cfg.DB.MaxConns < cfg.DB.MinConns {
		return fmt.Errorf("DB_MAX_CONNS (%d) must not be below DB_MIN_CONNS (%d)", cfg.DB.MaxConns, cfg.DB.MinConns)
	}
	if cfg.DB.AcquireTimeout < 0 {
		return fmt.Errorf("DB_ACQUIRE_TIMEOUT must not be negative")
	}
	if cfg.Worker.NotesInterval <= 0 {
		return fmt.Errorf("WORKER_NOTES_INTERVAL must be positive")
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}

// Helper to get env var as int
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

// Helper to get env var as duration ("5s", "2m"). Bare integers are read as seconds.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
