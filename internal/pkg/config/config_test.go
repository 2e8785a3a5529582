package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multiEndpointYAML представляет современный формат конфигурации с несколькими конечными точками.
const multiEndpointYAML = `
server:
  host: "127.0.0.1"
  port: 8081
  shutdown_timeout: 15s
  max_upload_size_mb: 20
  daemon:
    enabled: true
    pid_file: "/tmp/wrapped.pid"
    log_file: "/tmp/wrapped.log"
rate_limit:
  requests_per_second: 2.5
  burst: 4
generator:
  endpoints:
    - api_key: "key1"
      model: "gemini-2.5-flash"
      requests_per_minute: 10
    - api_key: "key2"
      base_url: "http://localhost:9999"
      timeout: 5s
  health_check_interval: 60s
persona:
  operation_timeout: 30s
  max_attempts: 3
  retry_pause: 1s
processing:
  task_timeout: 120s
  cache_ttl: 30m
  task_ttl: 10m
analyzer:
  timezone: "UTC"
  sample_seed: 42
logging:
  level: "info"
  format: "text"
`

// legacyYAML представляет устаревший формат с одним ключом для проверки обратной совместимости.
const legacyYAML = `
generator:
  api_key: "legacy_key"
  model: "legacy-model"
logging:
  level: "debug"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err)
	return path
}

func TestLoadFromYAML(t *testing.T) {
	t.Run("success with multi-endpoint format", func(t *testing.T) {
		path := createTempConfigFile(t, multiEndpointYAML)
		cfg := defaultConfig()
		err := loadFromYAML(path, cfg)
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 8081, cfg.Server.Port)
		assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
		assert.Equal(t, DefaultReadTimeout, cfg.Server.ReadTimeout, "незаданные поля сохраняют значения по умолчанию")
		assert.Equal(t, int64(20), cfg.Server.MaxUploadSizeMB)
		assert.True(t, cfg.Server.Daemon.Enabled)
		assert.Equal(t, "/tmp/wrapped.pid", cfg.Server.Daemon.PIDFile)
		assert.Equal(t, "127.0.0.1:8081", cfg.Address())

		assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
		assert.Equal(t, 4, cfg.RateLimit.Burst)

		require.Len(t, cfg.Generator.Endpoints, 2)
		assert.Equal(t, "key1", cfg.Generator.Endpoints[0].APIKey)
		assert.Equal(t, 10, cfg.Generator.Endpoints[0].RequestsPerMinute)
		assert.Equal(t, 5*time.Second, cfg.Generator.Endpoints[1].Timeout)
		assert.Equal(t, 60*time.Second, cfg.Generator.HealthCheckInterval)

		assert.Equal(t, 30*time.Second, cfg.Persona.OperationTimeout)
		assert.Equal(t, 3, cfg.Persona.MaxAttempts)
		assert.Equal(t, time.Second, cfg.Persona.RetryPause)

		assert.Equal(t, 120*time.Second, cfg.Processing.TaskTimeout)
		assert.Equal(t, 30*time.Minute, cfg.Processing.CacheTTL)
		assert.Equal(t, 10*time.Minute, cfg.Processing.TaskTTL)

		assert.Equal(t, "UTC", cfg.Analyzer.Timezone)
		assert.Equal(t, uint64(42), cfg.Analyzer.SampleSeed)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "text", cfg.Logging.Format)
	})

	t.Run("file not found is not an error", func(t *testing.T) {
		cfg := defaultConfig()
		err := loadFromYAML("non_existent_file.yml", cfg)
		assert.NoError(t, err)
		assert.Equal(t, defaultConfig(), cfg)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := createTempConfigFile(t, "invalid yaml: {")
		cfg := defaultConfig()
		err := loadFromYAML(path, cfg)
		assert.Error(t, err)
	})
}

func TestGetGeneratorEndpoints(t *testing.T) {
	t.Run("from modern config", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, loadFromYAML(createTempConfigFile(t, multiEndpointYAML), cfg))

		endpoints := cfg.GetGeneratorEndpoints()
		require.Len(t, endpoints, 2)
		assert.Equal(t, "key1", endpoints[0].APIKey)
		assert.Equal(t, DefaultGeneratorTimeout, endpoints[0].Timeout)
		assert.Equal(t, DefaultGeneratorModel, endpoints[1].Model)
		assert.Equal(t, "http://localhost:9999", endpoints[1].BaseURL)
	})

	t.Run("from legacy config", func(t *testing.T) {
		cfg := defaultConfig()
		require.NoError(t, loadFromYAML(createTempConfigFile(t, legacyYAML), cfg))

		endpoints := cfg.GetGeneratorEndpoints()
		require.Len(t, endpoints, 1)
		assert.Equal(t, "legacy_key", endpoints[0].APIKey)
		assert.Equal(t, "legacy-model", endpoints[0].Model)
	})

	t.Run("empty config returns nil", func(t *testing.T) {
		cfg := &Config{}
		assert.Nil(t, cfg.GetGeneratorEndpoints())
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SERVER_HOST", "10.0.0.1")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_MODEL", "env-model")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("TASK_TIMEOUT", "45s")

	cfg := defaultConfig()
	require.NoError(t, applyEnv(cfg))

	assert.Equal(t, "10.0.0.1:9090", cfg.Address())
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 5*time.Minute, cfg.Processing.CacheTTL)
	assert.Equal(t, 45*time.Second, cfg.Processing.TaskTimeout)

	endpoints := cfg.GetGeneratorEndpoints()
	require.Len(t, endpoints, 1)
	assert.Equal(t, "env-key", endpoints[0].APIKey)
	assert.Equal(t, "env-model", endpoints[0].Model)

	t.Run("invalid values", func(t *testing.T) {
		for key, value := range map[string]string{"SERVER_PORT": "abc", "CACHE_TTL": "soon", "TASK_TIMEOUT": "1x"} {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				assert.Error(t, applyEnv(defaultConfig()))
			})
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	path := createTempConfigFile(t, multiEndpointYAML)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port, "переменные окружения имеют приоритет над файлом")
	assert.NoError(t, cfg.Validate())
}

func TestLocation(t *testing.T) {
	cfg := defaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Analyzer.Timezone = "UTC"
	loc, err = cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Analyzer.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	validConfig := func(t *testing.T) *Config {
		cfg := defaultConfig()
		err := loadFromYAML(createTempConfigFile(t, multiEndpointYAML), cfg)
		require.NoError(t, err)
		return cfg
	}

	testCases := []struct {
		name    string
		mutator func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"defaults without generator", func(c *Config) { *c = *defaultConfig() }, false},
		{"empty endpoint api_key", func(c *Config) { c.Generator.Endpoints[0].APIKey = "" }, true},
		{"negative requests_per_minute", func(c *Config) { c.Generator.Endpoints[1].RequestsPerMinute = -1 }, true},
		{"invalid health_check", func(c *Config) { c.Generator.HealthCheckInterval = 0 }, true},
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, true},
		{"invalid shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }, true},
		{"invalid upload size", func(c *Config) { c.Server.MaxUploadSizeMB = 0 }, true},
		{"daemon without pid file", func(c *Config) { c.Server.Daemon.PIDFile = "" }, true},
		{"negative rps", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }, true},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }, true},
		{"rate limit disabled", func(c *Config) { c.RateLimit = RateLimit{} }, false},
		{"invalid operation_timeout", func(c *Config) { c.Persona.OperationTimeout = 0 }, true},
		{"invalid max_attempts", func(c *Config) { c.Persona.MaxAttempts = 0 }, true},
		{"invalid retry_pause", func(c *Config) { c.Persona.RetryPause = -time.Second }, true},
		{"invalid task_timeout", func(c *Config) { c.Processing.TaskTimeout = -1 }, true},
		{"unlimited task_timeout", func(c *Config) { c.Processing.TaskTimeout = 0 }, false},
		{"invalid cache_ttl", func(c *Config) { c.Processing.CacheTTL = 0 }, true},
		{"invalid task_ttl", func(c *Config) { c.Processing.TaskTTL = 0 }, true},
		{"invalid cleanup interval", func(c *Config) { c.Processing.CleanupInterval = 0 }, true},
		{"invalid timezone", func(c *Config) { c.Analyzer.Timezone = "Nowhere/City" }, true},
		{"invalid logging level", func(c *Config) { c.Logging.Level = "wrong" }, true},
		{"invalid logging format", func(c *Config) { c.Logging.Format = "xml" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutator(cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
