// Package config loads tracker configuration. Environment variables are the
// primary source, with optional overrides from a YAML file named by
// CONFIG_FILE. A .env file, when present, is folded into the environment
// before anything is read.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP server
	Port            int           `yaml:"port" validate:"gte=0,lte=65535"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Storage. DatabaseURL selects Postgres; empty means the JSON document
	// store rooted at DataDir.
	DataDir     string `yaml:"data_dir"`
	DatabaseURL string `yaml:"database_url"`

	// Status publishing over NATS. Empty URL disables publishing.
	NATSURL         string        `yaml:"nats_url"`
	PublishInterval time.Duration `yaml:"publish_interval" validate:"gte=0"`

	// Advent calendar
	AdventPath string `yaml:"advent_path"`
}

// Load reads configuration from environment variables with sensible
// defaults, then applies the YAML override file when CONFIG_FILE is set.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		CORSOrigins:     []string{getEnv("CORS_ORIGIN", "*")},
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT", 10)) * time.Second,

		DataDir:     getEnv("DATA_DIR", "./data"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		NATSURL:         getEnv("NATS_URL", ""),
		PublishInterval: time.Duration(getEnvInt("PUBLISH_INTERVAL", 30)) * time.Second,

		AdventPath: getEnv("ADVENT_PATH", ""),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
