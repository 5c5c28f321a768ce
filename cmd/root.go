package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/forensiq/internal/config"
	"github.com/abhisek/forensiq/internal/llm"
	"github.com/abhisek/forensiq/internal/logging"
	"github.com/abhisek/forensiq/internal/metrics"
	"github.com/abhisek/forensiq/internal/scenario"
	"github.com/abhisek/forensiq/internal/session"
	"github.com/abhisek/forensiq/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "forensiq",
	Short: "Crime scene investigation training engine",
	Long:  "forensiq runs and scores VR crime scene training modules: photography, latent prints and firearms.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsole(cmd)
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides FORENSIQ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/forensiq/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// env is what every command needs: settings and a logger.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

// loadEnv reads the config file named by --config, or the default one,
// and builds the logger.
func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then db.path from the config, then FORENSIQ_DB, then the
// default XDG path.
func (e *env) resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if e.cfg.DB.Path != "" {
		return e.cfg.DB.Path, store.EnsureDir(e.cfg.DB.Path)
	}
	return store.DefaultDBPath()
}

func (e *env) openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := e.resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// provider builds the configured LLM provider, falling back to API key
// discovery. It returns nil when none is available; AI features are then
// skipped.
func (e *env) provider(ctx context.Context, log llm.RequestLog) llm.Provider {
	cfg := e.cfg.LLM
	if discovered, ok := llm.Discover(cfg, os.Getenv); ok {
		cfg = discovered.WithDefaults()
	}
	if !cfg.Enabled() {
		return nil
	}
	p, err := llm.New(ctx, cfg, log, e.logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Debriefs will use the plain report.")
		return nil
	}
	return p
}

func (e *env) metrics() *metrics.Metrics {
	if !e.cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

func (e *env) sessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.Duration = e.cfg.Session.Duration
	return cfg
}

func (e *env) scenarioOptions(m *metrics.Metrics) scenario.Options {
	opts := scenario.Options{
		SkipPenalty: float64(e.cfg.Penalties.Skip),
		MissPenalty: e.cfg.Penalties.Miss,
		Logger:      e.logger,
	}
	if m != nil {
		opts.Observers = append(opts.Observers, m)
	}
	return opts
}

// exportMetrics writes the metrics textfile when one is configured.
func (e *env) exportMetrics(m *metrics.Metrics) {
	if m == nil || e.cfg.Metrics.Textfile == "" {
		return
	}
	if err := m.WriteTextfile(e.cfg.Metrics.Textfile); err != nil {
		e.logger.Warn("metrics export failed", zap.Error(err))
	}
}
