package main

import (
	"testing"

	"mercator-hq/hermes/pkg/config"
)

func TestApplyLogFlags(t *testing.T) {
	tests := []struct {
		name     string
		verbose  bool
		logLevel string
		want     string
	}{
		{name: "defaults untouched", want: config.DefaultLogLevel},
		{name: "verbose enables debug", verbose: true, want: "debug"},
		{name: "log-level alone", logLevel: "warn", want: "warn"},
		{name: "log-level wins over verbose", verbose: true, logLevel: "error", want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origVerbose, origLevel := verbose, chatFlags.logLevel
			defer func() {
				verbose, chatFlags.logLevel = origVerbose, origLevel
			}()
			verbose = tt.verbose
			chatFlags.logLevel = tt.logLevel

			cfg := config.NewDefaultConfig()
			applyLogFlags(cfg)

			if got := cfg.Telemetry.Logging.Level; got != tt.want {
				t.Errorf("log level = %q, want %q", got, tt.want)
			}
		})
	}
}
