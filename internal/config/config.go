package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	BotTokens []string
	Server    ServerConfig
	Database  DatabaseConfig
	Pool      PoolConfig
	Parser    ParserConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// PoolConfig holds credential pool tuning
type PoolConfig struct {
	ErrorThreshold   int
	CooldownWindow   time.Duration
	RateLimitBackoff time.Duration
}

// ParserConfig holds enumeration driver tuning
type ParserConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
	BatchSize   int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotTokens: splitTokens(os.Getenv("TELEGRAM_BOT_TOKENS")),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "tg_parser"),
			User:     getEnv("DB_USER", "tg_parser"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Pool: PoolConfig{
			ErrorThreshold:   getEnvInt("POOL_ERROR_THRESHOLD", 3),
			CooldownWindow:   getEnvDuration("POOL_COOLDOWN_WINDOW", 15*time.Minute),
			RateLimitBackoff: getEnvDuration("POOL_RATE_LIMIT_BACKOFF", 30*time.Second),
		},
		Parser: ParserConfig{
			MaxAttempts: getEnvInt("PARSER_MAX_ATTEMPTS", 3),
			RetryDelay:  getEnvDuration("PARSER_RETRY_DELAY", 2*time.Second),
			BatchSize:   getEnvInt("PARSER_BATCH_SIZE", 50),
		},
	}

	// Validate required fields
	if len(cfg.BotTokens) == 0 {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKENS is required")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// splitTokens parses a comma-separated token list, dropping empty entries
func splitTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
