// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Daemon содержит параметры запуска сервера в фоне
type Daemon struct {
	Enabled bool   `yaml:"enabled"`
	PIDFile string `yaml:"pid_file"`
	LogFile string `yaml:"log_file"`
	WorkDir string `yaml:"work_dir"`
}

// Server содержит конфигурацию сервера
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxUploadSizeMB int64         `yaml:"max_upload_size_mb"`
	Daemon          Daemon        `yaml:"daemon"`
}

// RateLimit содержит ограничения частоты запросов к API по IP клиента
type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"` // 0 - без ограничений
	Burst             int     `yaml:"burst"`
}

// GeneratorEndpoint содержит конфигурацию одной конечной точки генеративной модели
type GeneratorEndpoint struct {
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

// Generator содержит конфигурацию генеративной модели
type Generator struct {
	// Для обратной совместимости. Используйте Endpoints.
	APIKey  string `yaml:"api_key,omitempty"`
	Model   string `yaml:"model,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`

	Endpoints []GeneratorEndpoint `yaml:"endpoints"`

	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// Persona содержит конфигурацию генерации персоны
type Persona struct {
	OperationTimeout time.Duration `yaml:"operation_timeout"`
	MaxAttempts      int           `yaml:"max_attempts"`
	RetryPause       time.Duration `yaml:"retry_pause"`
}

// Processing содержит конфигурацию обработки
type Processing struct {
	TaskTimeout     time.Duration `yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	TaskTTL         time.Duration `yaml:"task_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Analyzer содержит конфигурацию анализатора
type Analyzer struct {
	// Timezone — зона для гистограммы часов ("Local", "UTC", "Europe/Moscow").
	Timezone string `yaml:"timezone"`
	// SampleSeed фиксирует выборку текста. 0 - случайная выборка.
	SampleSeed uint64 `yaml:"sample_seed"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server     Server     `yaml:"server"`
	RateLimit  RateLimit  `yaml:"rate_limit"`
	Generator  Generator  `yaml:"generator"`
	Persona    Persona    `yaml:"persona"`
	Processing Processing `yaml:"processing"`
	Analyzer   Analyzer   `yaml:"analyzer"`
	Logging    Logging    `yaml:"logging"`
}

// defaultConfig возвращает конфигурацию со значениями по умолчанию
func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			IdleTimeout:     DefaultIdleTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxUploadSizeMB: DefaultMaxUploadSizeMB,
			Daemon: Daemon{
				PIDFile: DefaultPIDFile,
				LogFile: DefaultLogFile,
			},
		},
		RateLimit: RateLimit{
			RequestsPerSecond: DefaultRequestsPerSecond,
			Burst:             DefaultBurst,
		},
		Generator: Generator{
			HealthCheckInterval: DefaultHealthCheckInterval,
		},
		Persona: Persona{
			OperationTimeout: DefaultPersonaOperationTimeout,
			MaxAttempts:      DefaultPersonaMaxAttempts,
			RetryPause:       DefaultPersonaRetryPause,
		},
		Processing: Processing{
			TaskTimeout:     DefaultTaskTimeout,
			CacheTTL:        DefaultCacheTTL,
			TaskTTL:         DefaultTaskTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Analyzer: Analyzer{
			Timezone: "Local",
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// GetGeneratorEndpoints возвращает список конечных точек модели,
// обеспечивая обратную совместимость со старым форматом с одним ключом.
func (c *Config) GetGeneratorEndpoints() []GeneratorEndpoint {
	if len(c.Generator.Endpoints) > 0 {
		endpoints := make([]GeneratorEndpoint, len(c.Generator.Endpoints))
		for i, ep := range c.Generator.Endpoints {
			if ep.Model == "" {
				ep.Model = DefaultGeneratorModel
			}
			if ep.Timeout == 0 {
				ep.Timeout = DefaultGeneratorTimeout
			}
			endpoints[i] = ep
		}
		return endpoints
	}
	// Поддержка старого формата с ключом в корне generator
	if c.Generator.APIKey != "" {
		model := c.Generator.Model
		if model == "" {
			model = DefaultGeneratorModel
		}
		return []GeneratorEndpoint{
			{
				APIKey:  c.Generator.APIKey,
				Model:   model,
				BaseURL: c.Generator.BaseURL,
				Timeout: DefaultGeneratorTimeout,
			},
		}
	}
	return nil
}

// LoadConfig загружает конфигурацию: значения по умолчанию, затем YAML-файл
// (если он есть), затем .env и переменные окружения.
func LoadConfig(path string) (*Config, error) {
	// .env не обязателен, переменные окружения могут быть заданы напрямую
	_ = godotenv.Load()

	cfg := defaultConfig()
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось применить переменные окружения: %w", err)
	}

	return cfg, nil
}

// loadFromYAML накладывает значения из YAML-файла на cfg.
// Отсутствие файла ошибкой не считается.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}

	return nil
}

// applyEnv переопределяет значения конфигурации переменными окружения
func applyEnv(cfg *Config) error {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Generator.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Generator.Model = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый CACHE_TTL: %w", err)
		}
		cfg.Processing.CacheTTL = d
	}
	if v := os.Getenv("TASK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("недопустимый TASK_TIMEOUT: %w", err)
		}
		cfg.Processing.TaskTimeout = d
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Location возвращает часовой пояс анализатора
func (c *Config) Location() (*time.Location, error) {
	switch c.Analyzer.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		loc, err := time.LoadLocation(c.Analyzer.Timezone)
		if err != nil {
			return nil, fmt.Errorf("недопустимый analyzer.timezone %q: %w", c.Analyzer.Timezone, err)
		}
		return loc, nil
	}
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	for i, ep := range c.Generator.Endpoints {
		if ep.APIKey == "" {
			return fmt.Errorf("generator.endpoints[%d].api_key не может быть пустым", i)
		}
		if ep.RequestsPerMinute < 0 {
			return fmt.Errorf("generator.endpoints[%d].requests_per_minute должно быть неотрицательным", i)
		}
	}

	if len(c.GetGeneratorEndpoints()) > 0 && c.Generator.HealthCheckInterval <= 0 {
		return fmt.Errorf("generator.health_check_interval должно быть положительным")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}

	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb должно быть положительным")
	}

	if c.Server.Daemon.Enabled && c.Server.Daemon.PIDFile == "" {
		return fmt.Errorf("server.daemon.pid_file не может быть пустым в режиме демона")
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate_limit.requests_per_second должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit.burst должно быть положительным")
	}

	if c.Persona.OperationTimeout <= 0 {
		return fmt.Errorf("persona.operation_timeout должно быть положительным")
	}

	if c.Persona.MaxAttempts <= 0 {
		return fmt.Errorf("persona.max_attempts должно быть положительным")
	}

	if c.Persona.RetryPause < 0 {
		return fmt.Errorf("persona.retry_pause должно быть неотрицательным")
	}

	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}

	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}

	if c.Processing.TaskTTL <= 0 {
		return fmt.Errorf("processing.task_ttl должно быть положительным")
	}

	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// all good
	default:
		return fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}
