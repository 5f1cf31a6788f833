// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every variable name.
const Prefix = "PHOBHUB_"

type Config struct {
	// HTTP server
	Port            int           `env:"PORT" envDefault:"8080"`
	CORSOrigin      string        `env:"CORS_ORIGIN" envDefault:"http://localhost:5173"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Database
	DBPath string `env:"DB_PATH" envDefault:"./data/phobhub.db"`

	// Auth
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// Change events
	AMQPURL          string `env:"AMQP_URL"`
	AMQPExchange     string `env:"AMQP_EXCHANGE" envDefault:"phobhub.events"`
	EventBuffer      int    `env:"EVENT_BUFFER" envDefault:"256"`
	EventMaxAttempts int    `env:"EVENT_MAX_ATTEMPTS" envDefault:"3"`

	// Tracing
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads envFile, when it exists, into the process environment and then
// parses the configuration. Variables already set win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return parse(env.Options{Prefix: Prefix})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", c.Port))
	}
	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}
	if len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT secret must be at least 32 characters")
	}
	if c.TokenTTL <= 0 {
		problems = append(problems, fmt.Sprintf("invalid token TTL %v: must be positive", c.TokenTTL))
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange cannot be empty when an AMQP URL is set")
		}
	}

	if c.EventBuffer < 1 {
		problems = append(problems, fmt.Sprintf("invalid event buffer %d: must be at least 1", c.EventBuffer))
	}
	if c.EventMaxAttempts < 1 || c.EventMaxAttempts > 10 {
		problems = append(problems, fmt.Sprintf("invalid event max attempts %d: must be between 1 and 10", c.EventMaxAttempts))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
