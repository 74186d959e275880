package config

import "time"

// Config is the root configuration structure for Hermes. It contains all
// configuration sections for the rule set, the orchestrator, the reasoner
// backend, the HR store, audit recording, and telemetry.
type Config struct {
	// Rules contains configuration for the authorization rule set,
	// including the rule file location and watch mode.
	Rules RulesConfig `yaml:"rules"`

	// Orchestrator contains configuration for the conversation loop.
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	// Reasoner contains configuration for the LLM reasoner backend.
	Reasoner ReasonerConfig `yaml:"reasoner"`

	// Store contains configuration for the HR data store.
	Store StoreConfig `yaml:"store"`

	// Audit contains configuration for audit recording and retention.
	Audit AuditConfig `yaml:"audit"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// RulesConfig contains configuration for the authorization rule set.
type RulesConfig struct {
	// Path is the rule file location.
	// Default: "./rules.yaml"
	Path string `yaml:"path"`

	// Watch enables automatic reloading when the rule file changes.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval coalesces rapid file events into one reload when
	// Watch is enabled.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// OrchestratorConfig contains configuration for the conversation loop.
type OrchestratorConfig struct {
	// MaxIterations is the maximum number of reasoner round-trips per
	// user turn.
	// Default: 5
	MaxIterations int `yaml:"max_iterations"`

	// IncompleteAnswer is the message returned when a turn hits the
	// iteration bound without a final answer. Empty uses the built-in
	// default.
	IncompleteAnswer string `yaml:"incomplete_answer"`
}

// ReasonerConfig contains configuration for the LLM reasoner backend.
type ReasonerConfig struct {
	// BaseURL is the base URL of the chat-completions endpoint.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the backend. This should
	// typically be supplied via HERMES_REASONER_API_KEY.
	APIKey string `yaml:"api_key"`

	// Model is the model name sent with completion requests.
	// Default: "gpt-4o-mini"
	Model string `yaml:"model"`

	// Timeout is the maximum duration for a completion request.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retry attempts for transient failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`

	// MaxHistoryMessages bounds how much conversation history is rendered
	// into prompts. 0 renders everything.
	MaxHistoryMessages int `yaml:"max_history_messages"`
}

// StoreConfig contains configuration for the HR data store.
type StoreConfig struct {
	// Path is the SQLite database file path. ":memory:" gives an
	// ephemeral store.
	// Default: "data/hr.db"
	Path string `yaml:"path"`

	// Seed populates the store with the demo organization when the
	// database is empty.
	// Default: true
	Seed bool `yaml:"seed"`
}

// AuditConfig contains configuration for audit recording.
type AuditConfig struct {
	// Enabled turns audit recording on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLitePath is the audit database file path when Backend is "sqlite".
	// Default: "data/audit.db"
	SQLitePath string `yaml:"sqlite_path"`

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// Retention contains retention pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains audit retention settings.
type RetentionConfig struct {
	// Days is the number of days to retain records. 0 keeps forever.
	// Default: 90
	Days int `yaml:"days"`

	// MaxRecords caps the number of retained records. 0 means unlimited.
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a cron expression for scheduled pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	Schedule string `yaml:"schedule"`
}

// TelemetryConfig contains configuration for logging and metrics.
type TelemetryConfig struct {
	// Logging contains structured logging settings.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address the metrics server listens on.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path serving metrics.
	// Default: "/metrics"
	Path string `yaml:"path"`
}
