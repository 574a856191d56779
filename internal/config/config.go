package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters; components receive
// the sections they need at construction time.
type Config struct {
	Port         string
	Env          string
	JWTSecret    string
	IngestSecret string

	DB     DatabaseConfig
	Redis  RedisConfig
	Match  MatchConfig
	Worker WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MatchConfig contains the decision thresholds and batch parameters of the
// matching pipeline. Thresholds are scores on the 0-100 similarity scale.
type MatchConfig struct {
	AutoThreshold        int
	PotentialThreshold   int
	BatchSize            int
	ReviewExpirationDays int
	Strategy             string
}

// WorkerConfig contains scheduling and retry configuration for the task
// queue runtime.
type WorkerConfig struct {
	Concurrency         int
	MaxRetries          int
	MatchInterval       time.Duration
	ExpireSweepInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.IngestSecret = getEnv("INGEST_WEBHOOK_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Matching thresholds and batching
	cfg.Match = MatchConfig{
		AutoThreshold:        getEnvInt("MATCH_AUTO_THRESHOLD", 95),
		PotentialThreshold:   getEnvInt("MATCH_POTENTIAL_THRESHOLD", 70),
		BatchSize:            getEnvInt("MATCH_BATCH_SIZE", 100),
		ReviewExpirationDays: getEnvInt("MATCH_REVIEW_EXPIRATION_DAYS", 30),
		Strategy:             getEnv("MATCH_STRATEGY", "token"),
	}
	if cfg.Match.AutoThreshold < cfg.Match.PotentialThreshold {
		return nil, fmt.Errorf("MATCH_AUTO_THRESHOLD (%d) must be >= MATCH_POTENTIAL_THRESHOLD (%d)",
			cfg.Match.AutoThreshold, cfg.Match.PotentialThreshold)
	}
	if cfg.Match.BatchSize <= 0 {
		return nil, errors.New("MATCH_BATCH_SIZE must be positive")
	}

	// Workers
	cfg.Worker = WorkerConfig{
		Concurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		MaxRetries:  getEnvInt("TASK_MAX_RETRIES", 3),
	}
	var err error
	if cfg.Worker.MatchInterval, err = parseDurationEnv("MATCH_INTERVAL", "1m"); err != nil {
		return nil, fmt.Errorf("invalid MATCH_INTERVAL: %w", err)
	}
	if cfg.Worker.ExpireSweepInterval, err = parseDurationEnv("EXPIRE_SWEEP_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid EXPIRE_SWEEP_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters - keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for admin token validation")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
