package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port         int
	LogLevel     string
	LogFormat    string
	ServiceName  string
	DBUser       string
	DBPassword   string
	DBHost       string
	DBPort       string
	DBName       string
	APIKey       string // admin API key for the HTTP surface
	DiscordToken string // bot token for the chat front end
	RedisURL     string // optional; enables the Redis-backed job runner
	WorkerCount  int
	JobQueueSize int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		ServiceName:  getEnv("SERVICE_NAME", "drawbot"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", "postgres"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBName:       getEnv("DB_NAME", "drawbot"),
		APIKey:       getEnv("API_KEY", ""),
		DiscordToken: getEnv("DISCORD_TOKEN", ""),
		RedisURL:     getEnv("REDIS_URL", ""),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	workers, err := strconv.Atoi(getEnv("WORKER_COUNT", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_COUNT value: %w", err)
	}
	cfg.WorkerCount = workers

	queueSize, err := strconv.Atoi(getEnv("JOB_QUEUE_SIZE", "64"))
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_QUEUE_SIZE value: %w", err)
	}
	cfg.JobQueueSize = queueSize

	// Validate API key is set
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY environment variable must be set for security")
	}

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}
