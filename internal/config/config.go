package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	SQS      SQSConfig      `yaml:"sqs"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// RedisConfig holds Redis settings for the suppression velocity counter.
// Optional: an empty Addr disables velocity tracking.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SQSConfig holds the event queue settings. Optional: an empty queue URL
// means events are processed inline by the API.
type SQSConfig struct {
	Region         string `yaml:"region"`
	EventsQueueURL string `yaml:"events_queue_url"`
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes"`
}

// Load reads configuration from a YAML file, then applies environment
// variable overrides. A missing file is not an error; env-only deployments
// are supported. A .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	// Defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.SQS.Region == "" {
		cfg.SQS.Region = "us-east-1"
	}
	if cfg.Worker.CleanupIntervalMinutes == 0 {
		cfg.Worker.CleanupIntervalMinutes = 60
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database url is required (set database.url or DATABASE_URL)")
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.SQS.Region = v
	}
	if v := os.Getenv("SQS_EVENTS_QUEUE_URL"); v != "" {
		cfg.SQS.EventsQueueURL = v
	}
	if v := os.Getenv("CLEANUP_INTERVAL_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			cfg.Worker.CleanupIntervalMinutes = m
		}
	}
}
