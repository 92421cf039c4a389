package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig
	Travelpayouts TravelpayoutsConfig
	Catalog       CatalogConfig
	Postgres      PostgresConfig
	Logging       LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// TravelpayoutsConfig holds fare-search API configuration
type TravelpayoutsConfig struct {
	Token   string
	APIBase string
	Timeout int // seconds, per outbound call
}

// CatalogConfig holds the reference data endpoints loaded at startup
type CatalogConfig struct {
	CitiesURL   string
	AirlinesURL string
	Timeout     int // seconds
}

// PostgresConfig holds the optional turn-log database configuration.
// An empty DSN disables turn logging entirely.
type PostgresConfig struct {
	DSN                string
	MaxConnections     int
	MaxIdleConnections int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Travelpayouts: TravelpayoutsConfig{
			Token:   getEnv("TP_TOKEN", ""),
			APIBase: getEnv("TP_API_BASE", "http://api.travelpayouts.com"),
			Timeout: getEnvAsInt("TP_TIMEOUT", 10),
		},
		Catalog: CatalogConfig{
			CitiesURL:   getEnv("TP_CITIES_URL", "http://api.travelpayouts.com/data/ru/cities.json"),
			AirlinesURL: getEnv("TP_AIRLINES_URL", "http://api.travelpayouts.com/data/ru/airlines.json"),
			Timeout:     getEnvAsInt("TP_CATALOG_TIMEOUT", 30),
		},
		Postgres: PostgresConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 2),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if cfg.Travelpayouts.Token == "" {
		return nil, fmt.Errorf("TP_TOKEN is required: the fare-search API cannot be queried without it")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}
