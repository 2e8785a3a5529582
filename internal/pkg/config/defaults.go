package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxUploadSizeMB = 50
	DefaultCleanupInterval = 10 * time.Minute

	// Daemon defaults
	DefaultPIDFile = "chat-wrapped.pid"
	DefaultLogFile = "chat-wrapped.log"

	// Rate limit defaults
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 10

	// Processing defaults
	DefaultTaskTimeout = 120 * time.Second
	DefaultCacheTTL    = 60 * time.Minute
	DefaultTaskTTL     = 30 * time.Minute

	// Generator defaults
	DefaultGeneratorModel      = "gemini-2.5-flash"
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultGeneratorTimeout    = 60 * time.Second

	// Persona defaults
	DefaultPersonaOperationTimeout = 90 * time.Second
	DefaultPersonaMaxAttempts      = 2
	DefaultPersonaRetryPause       = 2 * time.Second

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
