package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hermes",
	Short: "Hermes - policy-gated HR assistant",
	Long: `Hermes is a policy-gated conversational HR assistant.

An LLM reasoner proposes actions against an HR data store; every proposed
action is authorized against a declarative rule set before execution, and
tagged results (success, denied, failed) are fed back into the conversation.
Unauthorized requests are denied by default and the denial is explained to
the user rather than silently swallowed.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
