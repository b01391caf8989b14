package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all configuration for the pouch server
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Store  StoreConfig
	Puzzle PuzzleConfig
	CORS   CORSConfig

	// BackfillOnStart runs a coverage backfill over every stored solution
	// before the server starts listening.
	BackfillOnStart bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig holds zerolog settings
type LogConfig struct {
	Level  string
	Format string // "json" or "console"
}

// StoreConfig selects and configures the persistence backend
type StoreConfig struct {
	Driver string

	SQLitePath string

	PostgresDSN string
	MaxConns    int

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// PuzzleConfig holds daily puzzle settings
type PuzzleConfig struct {
	Timezone  string
	Location  *time.Location
	SeedSalt  string
	ItemsFile string
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	Origins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("HOST", ""),
			Port:           getEnvAsInt("PORT", 6868),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Store: StoreConfig{
			Driver:        strings.ToLower(getEnv("STORE_DRIVER", DriverSQLite)),
			SQLitePath:    getEnv("DATABASE_PATH", "./data/pouch.db"),
			PostgresDSN:   getEnv("DATABASE_DSN", ""),
			MaxConns:      getEnvAsInt("DATABASE_MAX_CONNS", 10),
			RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			RedisPrefix:   getEnv("REDIS_PREFIX", "pouch"),
		},
		Puzzle: PuzzleConfig{
			Timezone:  getEnv("PUZZLE_TIMEZONE", "Europe/Madrid"),
			SeedSalt:  getEnv("DAILY_SEED_SALT", ""),
			ItemsFile: getEnv("ITEMS_FILE", ""),
		},
		CORS: CORSConfig{
			Origins: getEnvAsList("CLIENT_ORIGINS", []string{"*"}),
		},
		BackfillOnStart: getEnvAsBool("BACKFILL_ON_START", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration and resolves the puzzle location
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("database DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}

	if c.Store.Driver == DriverSQLite && c.Store.SQLitePath == "" {
		return fmt.Errorf("database path is required for the sqlite driver")
	}

	loc, err := time.LoadLocation(c.Puzzle.Timezone)
	if err != nil {
		return fmt.Errorf("invalid puzzle timezone %q: %w", c.Puzzle.Timezone, err)
	}
	c.Puzzle.Location = loc

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
