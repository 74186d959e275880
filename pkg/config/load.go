package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// HERMES_SECTION_FIELD (e.g. HERMES_REASONER_API_KEY) and always take
// precedence over file values.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// DefaultWithEnvOverrides builds a configuration from defaults and
// environment variable overrides alone, for callers that have no
// configuration file.
func DefaultWithEnvOverrides() (*Config, error) {
	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Rules overrides
	if val := os.Getenv("HERMES_RULES_PATH"); val != "" {
		cfg.Rules.Path = val
	}
	if val := os.Getenv("HERMES_RULES_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Rules.Watch = b
		}
	}
	if val := os.Getenv("HERMES_RULES_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Rules.DebounceInterval = d
		}
	}

	// Orchestrator overrides
	if val := os.Getenv("HERMES_ORCHESTRATOR_MAX_ITERATIONS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Orchestrator.MaxIterations = i
		}
	}
	if val := os.Getenv("HERMES_ORCHESTRATOR_INCOMPLETE_ANSWER"); val != "" {
		cfg.Orchestrator.IncompleteAnswer = val
	}

	// Reasoner overrides
	if val := os.Getenv("HERMES_REASONER_BASE_URL"); val != "" {
		cfg.Reasoner.BaseURL = val
	}
	if val := os.Getenv("HERMES_REASONER_API_KEY"); val != "" {
		cfg.Reasoner.APIKey = val
	}
	if val := os.Getenv("HERMES_REASONER_MODEL"); val != "" {
		cfg.Reasoner.Model = val
	}
	if val := os.Getenv("HERMES_REASONER_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Reasoner.Timeout = d
		}
	}
	if val := os.Getenv("HERMES_REASONER_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Reasoner.MaxRetries = i
		}
	}
	if val := os.Getenv("HERMES_REASONER_MAX_HISTORY_MESSAGES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Reasoner.MaxHistoryMessages = i
		}
	}

	// Store overrides
	if val := os.Getenv("HERMES_STORE_PATH"); val != "" {
		cfg.Store.Path = val
	}
	if val := os.Getenv("HERMES_STORE_SEED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Store.Seed = b
		}
	}

	// Audit overrides
	if val := os.Getenv("HERMES_AUDIT_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Audit.Enabled = b
		}
	}
	if val := os.Getenv("HERMES_AUDIT_BACKEND"); val != "" {
		cfg.Audit.Backend = val
	}
	if val := os.Getenv("HERMES_AUDIT_SQLITE_PATH"); val != "" {
		cfg.Audit.SQLitePath = val
	}
	if val := os.Getenv("HERMES_AUDIT_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Audit.Retention.Days = i
		}
	}
	if val := os.Getenv("HERMES_AUDIT_RETENTION_SCHEDULE"); val != "" {
		cfg.Audit.Retention.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("HERMES_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("HERMES_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("HERMES_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("HERMES_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("HERMES_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
