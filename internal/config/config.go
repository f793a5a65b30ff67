// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port string

	// DataBackend is memory, sqlite or postgres.
	DataBackend string
	DBPath      string
	DatabaseURL string

	// IncludePayments makes recorded payments count towards balances.
	IncludePayments bool

	// EventsBackend is noop, kafka or amqp.
	EventsBackend string
	KafkaBrokers  []string
	KafkaTopic    string
	AMQPURL       string
	AMQPExchange  string

	// CacheBackend is noop or redis.
	CacheBackend string
	RedisAddr    string
	CacheTTL     time.Duration

	StaticPath string
	LogLevel   string
	LogFormat  string
}

var defaults = map[string]any{
	"PORT":             "8080",
	"DATA_BACKEND":     "memory",
	"DB_PATH":          "./data/tabsettle.db",
	"DATABASE_URL":     "",
	"INCLUDE_PAYMENTS": false,
	"EVENTS_BACKEND":   "noop",
	"KAFKA_BROKERS":    "localhost:9092",
	"KAFKA_TOPIC":      "tabsettle.transactions",
	"AMQP_URL":         "",
	"AMQP_EXCHANGE":    "tabsettle.events",
	"CACHE_BACKEND":    "noop",
	"REDIS_ADDR":       "localhost:6379",
	"CACHE_TTL":        "10m",
	"STATIC_PATH":      "",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "text",
}

// Load reads .env files (default ".env"; missing files are ignored), then the
// environment, over built-in defaults. Real environment variables win over
// .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	ttl, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL %q: %w", v.GetString("CACHE_TTL"), err)
	}

	cfg := &Config{
		Port:            v.GetString("PORT"),
		DataBackend:     strings.ToLower(v.GetString("DATA_BACKEND")),
		DBPath:          v.GetString("DB_PATH"),
		DatabaseURL:     v.GetString("DATABASE_URL"),
		IncludePayments: v.GetBool("INCLUDE_PAYMENTS"),
		EventsBackend:   strings.ToLower(v.GetString("EVENTS_BACKEND")),
		KafkaBrokers:    splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:      v.GetString("KAFKA_TOPIC"),
		AMQPURL:         v.GetString("AMQP_URL"),
		AMQPExchange:    v.GetString("AMQP_EXCHANGE"),
		CacheBackend:    strings.ToLower(v.GetString("CACHE_BACKEND")),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		CacheTTL:        ttl,
		StaticPath:      v.GetString("STATIC_PATH"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	problems = append(problems, oneOf("data backend", c.DataBackend, "memory", "sqlite", "postgres")...)
	switch c.DataBackend {
	case "sqlite":
		if c.DBPath == "" {
			problems = append(problems, "DB_PATH cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when using postgres backend")
		}
	}

	problems = append(problems, oneOf("events backend", c.EventsBackend, "noop", "kafka", "amqp")...)
	switch c.EventsBackend {
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			problems = append(problems, "KAFKA_BROKERS is required when using kafka events backend")
		}
		if c.KafkaTopic == "" {
			problems = append(problems, "KAFKA_TOPIC is required when using kafka events backend")
		}
	case "amqp":
		if c.AMQPURL == "" {
			problems = append(problems, "AMQP_URL is required when using amqp events backend")
		} else if u, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when using amqp events backend")
		}
	}

	problems = append(problems, oneOf("cache backend", c.CacheBackend, "noop", "redis")...)
	if c.CacheBackend == "redis" {
		if c.RedisAddr == "" {
			problems = append(problems, "REDIS_ADDR is required when using redis cache backend")
		}
		if c.CacheTTL <= 0 {
			problems = append(problems, fmt.Sprintf("invalid CACHE_TTL %s: must be positive", c.CacheTTL))
		}
	}

	problems = append(problems, oneOf("log level", c.LogLevel, "debug", "info", "warn", "error")...)
	problems = append(problems, oneOf("log format", c.LogFormat, "text", "json")...)

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func oneOf(what, value string, valid ...string) []string {
	if slices.Contains(valid, value) {
		return nil
	}
	return []string{fmt.Sprintf("invalid %s '%s': must be one of %v", what, value, valid)}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
