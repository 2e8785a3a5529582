// Package config загружает конфигурацию Telegram-бота.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"chat-wrapped/internal/adapters/exporter"
)

// BotConfig содержит конфигурацию для Telegram-бота
type BotConfig struct {
	Token                  string          `yaml:"token"`
	BackendURL             string          `yaml:"backend_url"`
	PollingIntervalSeconds int             `yaml:"polling_interval_seconds"`
	PollTimeoutSeconds     int             `yaml:"poll_timeout_seconds"`
	ExcelThreshold         int             `yaml:"excel_threshold"`
	HTTPTimeoutSeconds     int             `yaml:"http_timeout_seconds"`
	MaxFileSizeMB          int             `yaml:"max_file_size_mb"`
	Render                 exporter.Layout `yaml:"render"`
}

// Logging содержит конфигурацию логирования бота
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config является оберткой для соответствия структуре YAML файла.
type Config struct {
	Bot     BotConfig `yaml:"bot"`
	Logging Logging   `yaml:"logging"`
}

// LoadBotConfig загружает конфигурацию бота из указанного файла.
// Токен и адрес бэкенда можно переопределить переменными TELEGRAM_BOT_TOKEN и BACKEND_URL,
// в том числе через файл .env.
func LoadBotConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read bot config file %s: %w", filename, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot config: %w", err)
	}

	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}
	if url := os.Getenv("BACKEND_URL"); url != "" {
		cfg.Bot.BackendURL = url
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	b := &c.Bot
	b.BackendURL = strings.TrimRight(b.BackendURL, "/")
	if b.PollingIntervalSeconds == 0 {
		b.PollingIntervalSeconds = DefaultPollingIntervalSeconds
	}
	if b.PollTimeoutSeconds == 0 {
		b.PollTimeoutSeconds = DefaultPollTimeoutSeconds
	}
	if b.ExcelThreshold == 0 {
		b.ExcelThreshold = DefaultExcelThreshold
	}
	if b.HTTPTimeoutSeconds == 0 {
		b.HTTPTimeoutSeconds = DefaultHTTPTimeoutSeconds
	}
	if b.MaxFileSizeMB == 0 {
		b.MaxFileSizeMB = DefaultMaxFileSizeMB
	}
	if b.Render.Word == 0 {
		b.Render.Word = exporter.DefaultWordColumnWidth
	}
	if b.Render.Count == 0 {
		b.Render.Count = exporter.DefaultCountColumnWidth
	}
	if b.Render.Text == 0 {
		b.Render.Text = exporter.DefaultTextWidth
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate проверяет корректность конфигурации бота.
func (c *BotConfig) Validate() error {
	if c.Token == "" || c.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("bot.backend_url cannot be empty")
	}
	if c.PollingIntervalSeconds <= 0 {
		return fmt.Errorf("bot.polling_interval_seconds must be positive")
	}
	if c.PollTimeoutSeconds < c.PollingIntervalSeconds {
		return fmt.Errorf("bot.poll_timeout_seconds must not be less than polling interval")
	}
	if c.ExcelThreshold <= 0 {
		return fmt.Errorf("bot.excel_threshold must be positive")
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("bot.max_file_size_mb must be positive")
	}
	return nil
}

// ValidateFull проверяет всю конфигурацию, включая логирование.
func (c *Config) ValidateFull() error {
	if err := c.Bot.Validate(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}
