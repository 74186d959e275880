package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mercator-hq/hermes/pkg/actions"
	"mercator-hq/hermes/pkg/audit"
	"mercator-hq/hermes/pkg/config"
	"mercator-hq/hermes/pkg/conversation"
	"mercator-hq/hermes/pkg/hr"
	"mercator-hq/hermes/pkg/identity"
	"mercator-hq/hermes/pkg/orchestrator"
	"mercator-hq/hermes/pkg/policy/engine"
	"mercator-hq/hermes/pkg/policy/rules"
	"mercator-hq/hermes/pkg/policy/source"
	"mercator-hq/hermes/pkg/reasoner"
	"mercator-hq/hermes/pkg/telemetry/logging"
	"mercator-hq/hermes/pkg/telemetry/metrics"
)

var chatFlags struct {
	asEmail   string
	sessionID string
	logLevel  string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start an interactive chat session as a given employee.

The assistant answers HR questions by invoking actions against the HR store.
Every action the reasoner requests is authorized against the rule set for
the identity given with --as; denied actions are reported, never executed.

Examples:
  # Chat as an engineer
  hermes chat --as alex.kim@acme.com

  # Chat as the head of people with a custom rule set
  HERMES_RULES_PATH=rules/hr.yaml hermes chat --as mina.patel@acme.com`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatFlags.asEmail, "as", "", "employee email to chat as (required)")
	chatCmd.Flags().StringVar(&chatFlags.sessionID, "session", "", "resume or name a session")
	chatCmd.Flags().StringVar(&chatFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	chatCmd.MarkFlagRequired("as")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyLogFlags(cfg)

	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return fmt.Errorf("telemetry.logging: %w", err)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// HR store and action registry.
	store, err := hr.NewStore(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	defer store.Close()
	if cfg.Store.Seed {
		if err := store.Seed(ctx); err != nil {
			return fmt.Errorf("chat: %w", err)
		}
	}

	registry := actions.NewMap()
	if err := hr.RegisterActions(registry, store); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	// Authorization engine with the store as the reporting-line directory.
	preds := engine.NewPredicates(store)
	set, err := rules.LoadFile(cfg.Rules.Path, preds.Names())
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	eng, err := engine.New(set, preds, logger)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	// Observers: metrics and audit.
	var observers []orchestrator.Observer

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(nil)
		observers = append(observers, collector)
		go serveMetrics(cfg.Telemetry.Metrics, collector, logger)
	}

	if cfg.Audit.Enabled {
		storage, err := openAuditStorage(cfg, logger)
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		defer storage.Close()

		recorder := audit.NewRecorder(storage, &audit.RecorderConfig{
			AsyncBuffer:  cfg.Audit.AsyncBuffer,
			WriteTimeout: audit.DefaultRecorderConfig().WriteTimeout,
		}, logger)
		defer recorder.Close()
		observers = append(observers, recorder)

		if cfg.Audit.Retention.Schedule != "" {
			pruner := audit.NewPruner(storage, &audit.PrunerConfig{
				RetentionDays: cfg.Audit.Retention.Days,
				MaxRecords:    cfg.Audit.Retention.MaxRecords,
				PruneSchedule: cfg.Audit.Retention.Schedule,
			}, logger)
			if err := pruner.Start(ctx); err != nil {
				logger.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
			}
		}
	}

	// Rule set hot reload.
	if cfg.Rules.Watch {
		watcher, err := source.NewWatcher(&source.WatcherConfig{
			Path:             cfg.Rules.Path,
			DebounceInterval: cfg.Rules.DebounceInterval,
		}, logger)
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, func() error {
				next, err := rules.LoadFile(cfg.Rules.Path, preds.Names())
				if err != nil {
					if collector != nil {
						collector.RecordRuleReload("error")
					}
					return err
				}
				eng.Swap(next)
				if collector != nil {
					collector.RecordRuleReload("success")
				}
				return nil
			})
			if err != nil && ctx.Err() == nil {
				logger.Error("rule watcher stopped", "error", err)
			}
		}()
	}

	// Reasoner backend.
	llm, err := reasoner.NewLLM(reasoner.LLMConfig{
		BaseURL:            cfg.Reasoner.BaseURL,
		APIKey:             cfg.Reasoner.APIKey,
		Model:              cfg.Reasoner.Model,
		Timeout:            cfg.Reasoner.Timeout,
		MaxRetries:         cfg.Reasoner.MaxRetries,
		MaxHistoryMessages: cfg.Reasoner.MaxHistoryMessages,
	}, registry, logger)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	orch, err := orchestrator.New(eng, registry, llm, conversation.NewStore(), &orchestrator.Config{
		MaxIterations:    cfg.Orchestrator.MaxIterations,
		IncompleteAnswer: cfg.Orchestrator.IncompleteAnswer,
	}, logger, observers...)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	ic, err := resolveIdentity(ctx, store, chatFlags.asEmail)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	return chatLoop(ctx, orch, ic)
}

// resolveIdentity looks up the employee for --as and builds the identity
// context all authorization decisions run under.
func resolveIdentity(ctx context.Context, store *hr.Store, email string) (identity.Context, error) {
	emp, err := store.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return identity.Context{}, fmt.Errorf("unknown employee %q: %w", email, err)
	}
	return identity.Context{
		RequesterID:    emp.ID,
		RequesterEmail: emp.Email,
		RequesterRole:  emp.Role,
	}, nil
}

func chatLoop(ctx context.Context, orch *orchestrator.Orchestrator, ic identity.Context) error {
	fmt.Printf("Chatting as %s (%s). Type \"exit\" to quit.\n\n", ic.RequesterEmail, ic.RequesterRole)

	sessionID := chatFlags.sessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	scanner := bufio.NewScanner(os.Stdin)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		answer, err := orch.Advance(ctx, sessionID, ic, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", answer)
	}
}

// applyLogFlags resolves the log level from the persistent --verbose flag
// and the chat --log-level flag. An explicit --log-level wins over --verbose.
func applyLogFlags(cfg *config.Config) {
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if chatFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = chatFlags.logLevel
	}
}

func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		// No config file: defaults plus environment overrides.
		return config.DefaultWithEnvOverrides()
	}
	return config.LoadWithEnvOverrides(cfgFile)
}

func openAuditStorage(cfg *config.Config, logger *slog.Logger) (audit.Storage, error) {
	switch cfg.Audit.Backend {
	case "sqlite":
		return audit.NewSQLiteStorage(&audit.SQLiteConfig{
			Path:        cfg.Audit.SQLitePath,
			BusyTimeout: audit.DefaultSQLiteConfig().BusyTimeout,
		}, logger)
	case "memory":
		return audit.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}
}

func serveMetrics(cfg config.MetricsConfig, collector *metrics.Collector, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, collector.Handler())
	logger.Info("metrics server listening", "address", cfg.ListenAddress, "path", cfg.Path)
	if err := http.ListenAndServe(cfg.ListenAddress, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}
