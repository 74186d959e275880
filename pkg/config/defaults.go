package config

import "time"

// Default values applied by ApplyDefaults.
const (
	DefaultRulesPath        = "./rules.yaml"
	DefaultDebounceInterval = 100 * time.Millisecond

	DefaultMaxIterations = 5

	DefaultReasonerModel      = "gpt-4o-mini"
	DefaultReasonerTimeout    = 60 * time.Second
	DefaultReasonerMaxRetries = 2

	DefaultStorePath = "data/hr.db"

	DefaultAuditBackend     = "sqlite"
	DefaultAuditSQLitePath  = "data/audit.db"
	DefaultAuditAsyncBuffer = 1000
	DefaultRetentionDays    = 90
	DefaultRetentionCron    = "0 3 * * *"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsAddress = "127.0.0.1:9090"
	DefaultMetricsPath    = "/metrics"
)

// NewDefaultConfig returns a configuration populated entirely with defaults.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Seed = true
	cfg.Audit.Enabled = true
	return cfg
}

// ApplyDefaults fills unset fields with default values. Explicitly
// configured values are left alone.
func ApplyDefaults(cfg *Config) {
	if cfg.Rules.Path == "" {
		cfg.Rules.Path = DefaultRulesPath
	}
	if cfg.Rules.DebounceInterval == 0 {
		cfg.Rules.DebounceInterval = DefaultDebounceInterval
	}

	if cfg.Orchestrator.MaxIterations == 0 {
		cfg.Orchestrator.MaxIterations = DefaultMaxIterations
	}

	if cfg.Reasoner.Model == "" {
		cfg.Reasoner.Model = DefaultReasonerModel
	}
	if cfg.Reasoner.Timeout == 0 {
		cfg.Reasoner.Timeout = DefaultReasonerTimeout
	}
	if cfg.Reasoner.MaxRetries == 0 {
		cfg.Reasoner.MaxRetries = DefaultReasonerMaxRetries
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}

	if cfg.Audit.Backend == "" {
		cfg.Audit.Backend = DefaultAuditBackend
	}
	if cfg.Audit.SQLitePath == "" {
		cfg.Audit.SQLitePath = DefaultAuditSQLitePath
	}
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.Retention.Days == 0 {
		cfg.Audit.Retention.Days = DefaultRetentionDays
	}
	if cfg.Audit.Retention.Schedule == "" {
		cfg.Audit.Retention.Schedule = DefaultRetentionCron
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
