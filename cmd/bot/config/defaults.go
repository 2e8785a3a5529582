package config

// Значения конфигурации бота по умолчанию.
const (
	DefaultPollingIntervalSeconds = 2
	DefaultPollTimeoutSeconds     = 600
	DefaultExcelThreshold         = 500
	DefaultHTTPTimeoutSeconds     = 30
	DefaultMaxFileSizeMB          = 20
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "json"
)
