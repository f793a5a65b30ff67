package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Port:          "8080",
		DataBackend:   "memory",
		EventsBackend: "noop",
		CacheBackend:  "noop",
		CacheTTL:      time.Minute,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		errorString string
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{
			name:   "sqlite with path",
			modify: func(c *Config) { c.DataBackend = "sqlite"; c.DBPath = "./data/test.db" },
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			modify:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown data backend",
			modify:      func(c *Config) { c.DataBackend = "sheets" },
			errorString: "invalid data backend 'sheets'",
		},
		{
			name:        "postgres without url",
			modify:      func(c *Config) { c.DataBackend = "postgres" },
			errorString: "DATABASE_URL is required",
		},
		{
			name:        "kafka without topic",
			modify:      func(c *Config) { c.EventsBackend = "kafka"; c.KafkaBrokers = []string{"k:9092"} },
			errorString: "KAFKA_TOPIC is required",
		},
		{
			name: "amqp with bad scheme",
			modify: func(c *Config) {
				c.EventsBackend = "amqp"
				c.AMQPURL = "http://localhost:5672"
				c.AMQPExchange = "x"
			},
			errorString: "invalid AMQP URL scheme 'http'",
		},
		{
			name:        "redis with zero ttl",
			modify:      func(c *Config) { c.CacheBackend = "redis"; c.RedisAddr = "r:6379"; c.CacheTTL = 0 },
			errorString: "invalid CACHE_TTL",
		},
		{
			name:        "unknown log format",
			modify:      func(c *Config) { c.LogFormat = "xml" },
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateAggregates(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.CacheBackend = "memcached"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port")
	assert.Contains(t, err.Error(), "invalid cache backend")
}

func TestLoad_Defaults(t *testing.T) {
	for key := range defaults {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DataBackend)
	assert.Equal(t, "noop", cfg.EventsBackend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.False(t, cfg.IncludePayments)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvAndDotEnv(t *testing.T) {
	for key := range defaults {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DATA_BACKEND=sqlite\nDB_PATH=/tmp/from-dotenv.db\nPORT=9000\n"), 0644))
	t.Setenv("PORT", "9100")
	t.Setenv("INCLUDE_PAYMENTS", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("CACHE_TTL", "30s")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DataBackend)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DBPath)
	assert.Equal(t, "9100", cfg.Port, "environment wins over .env")
	assert.True(t, cfg.IncludePayments)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
