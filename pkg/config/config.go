package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/Koyo-os/form-studio/pkg/logger"
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	DriverSqlite = "sqlite"
	DriverMysql  = "mysql"
)

type Config struct {
	Logger logger.Config `yaml:"logger"`
	Server struct {
		Addr         string   `yaml:"addr" env:"SERVER_ADDR"`
		HealthAddr   string   `yaml:"health_addr" env:"HEALTH_ADDR"`
		AllowOrigins []string `yaml:"allow_origins" env:"ALLOW_ORIGINS" envSeparator:","`
		RateLimit    float64  `yaml:"rate_limit" env:"RATE_LIMIT"` // submits per second per client, 0 disables
		RateBurst    int      `yaml:"rate_burst" env:"RATE_BURST"`
	} `yaml:"server"`
	Gateway struct {
		BaseURL       string        `yaml:"base_url" env:"GATEWAY_URL"`
		Timeout       time.Duration `yaml:"timeout" env:"GATEWAY_TIMEOUT"`
		FetchRetries  uint8         `yaml:"fetch_retries" env:"GATEWAY_FETCH_RETRIES"`
		RetryInterval uint          `yaml:"retry_interval" env:"GATEWAY_RETRY_INTERVAL"` // seconds
	} `yaml:"gateway"`
	Store struct {
		Backend    string        `yaml:"backend" env:"STORE_BACKEND"`
		SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
		FormTTL    time.Duration `yaml:"form_ttl" env:"FORM_TTL"`
	} `yaml:"store"`
	Database struct {
		Driver string `yaml:"driver" env:"DB_DRIVER"`
		DSN    string `yaml:"dsn" env:"DB_DSN"`
	} `yaml:"database"`
	Urls struct {
		Redis    string `yaml:"redis" env:"REDIS_URL"`
		Rabbitmq string `yaml:"rabbitmq" env:"RABBITMQ_URL"`
	} `yaml:"urls"`
	Exchange struct {
		Request string `yaml:"request" env:"EXCHANGE_REQUEST"`
		Output  string `yaml:"output" env:"EXCHANGE_OUTPUT"`
	} `yaml:"exchange"`
	Queue struct {
		Request string `yaml:"request" env:"QUEUE_REQUEST"`
	} `yaml:"queue"`
	Reqs struct {
		FormUpdatedType string `yaml:"form_updated_type" env:"FORM_UPDATED_TYPE"`
		FormDeletedType string `yaml:"form_deleted_type" env:"FORM_DELETED_TYPE"`
	} `yaml:"reqs"`
	Events struct {
		FormSubmitted     string `yaml:"form_submitted" env:"EVENT_FORM_SUBMITTED"`
		ResponseSubmitted string `yaml:"response_submitted" env:"EVENT_RESPONSE_SUBMITTED"`
		FormDeleted       string `yaml:"form_deleted" env:"EVENT_FORM_DELETED"`
	} `yaml:"events"`
}

// Default returns a configuration that runs with no external services
func Default() *Config {
	var cfg Config

	cfg.Logger = logger.Config{LogLevel: "info", AppName: "form-studio"}
	cfg.Server.Addr = ":8080"
	cfg.Server.HealthAddr = ":8081"
	cfg.Server.AllowOrigins = []string{"*"}
	cfg.Server.RateBurst = 1
	cfg.Gateway.BaseURL = "http://localhost:8080/api"
	cfg.Gateway.Timeout = 10 * time.Second
	cfg.Gateway.FetchRetries = 3
	cfg.Gateway.RetryInterval = 1
	cfg.Store.Backend = StoreMemory
	cfg.Store.SessionTTL = 2 * time.Hour
	cfg.Store.FormTTL = 10 * time.Minute
	cfg.Database.Driver = DriverSqlite
	cfg.Database.DSN = "form-studio.db"
	cfg.Exchange.Request = "forms"
	cfg.Exchange.Output = "form-studio"
	cfg.Queue.Request = "form-studio.forms"
	cfg.Reqs.FormUpdatedType = "form.updated"
	cfg.Reqs.FormDeletedType = "form.deleted"
	cfg.Events.FormSubmitted = "form.submitted"
	cfg.Events.ResponseSubmitted = "response.submitted"
	cfg.Events.FormDeleted = "form.deleted"

	return &cfg
}

// Init layers the YAML file at path over the defaults, loads envFiles into
// the process environment when they exist, and applies environment overrides.
// An empty path skips the YAML layer.
func Init(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("error open file: %w", err)
		}
		defer file.Close()

		if err = yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode error: %w", err)
		}
	}

	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreRedis:
		if c.Urls.Redis == "" {
			return errors.New("redis store needs urls.redis")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Database.Driver {
	case DriverSqlite, DriverMysql:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Gateway.BaseURL == "" {
		return errors.New("gateway.base_url is required")
	}

	return nil
}
