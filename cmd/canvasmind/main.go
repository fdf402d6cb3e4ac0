// Package main provides the canvasmind CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"canvasmind/internal/config"
	"canvasmind/internal/logging"
	"canvasmind/internal/orchestrator"
	"canvasmind/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Workspace layout for state kept between invocations.
const (
	stateDir       = ".canvasmind"
	configFileName = "config.yaml"
	dbFileName     = "projects.db"
	usageFileName  = "usage.json"
)

var (
	// Global flags
	verbose    bool
	configPath string
	dbPath     string
	workspace  string
	timeout    time.Duration

	// Logger
	logger *zap.Logger

	// engine is built once per invocation by PersistentPreRunE.
	engine      *orchestrator.Engine
	engineClose func() error
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "canvasmind",
	Short: "canvasmind - creative request analysis engine",
	Long: `canvasmind analyzes natural-language requests for visual assets.

It classifies each request into a creative domain, matches its intent,
routes it to a project of the session and predicts the likely next steps.

Projects and statistics are kept under .canvasmind/ in the workspace.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := initLogger(cfg); err != nil {
			return err
		}
		e, closeFn, err := openEngine(cfg)
		if err != nil {
			return err
		}
		engine, engineClose = e, closeFn
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if engineClose != nil {
			if err := engineClose(); err != nil && logger != nil {
				logger.Warn("failed to close engine", zap.Error(err))
			}
			engine, engineClose = nil, nil
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/.canvasmind/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Project database (default: <workspace>/.canvasmind/projects.db)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	analyzeCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	analyzeCmd.Flags().StringArrayVarP(&contextPairs, "context", "c", nil, "Request context entry as key=value (repeatable)")
	analyzeCmd.Flags().StringArrayVar(&recentQueries, "recent", nil, "Earlier query of the session (repeatable, oldest first)")
	analyzeCmd.Flags().StringVarP(&outputFormat, "format", "f", formatText, "Output format: text, json or markdown")

	artifactAddCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	artifactAddCmd.Flags().StringVarP(&artifactType, "type", "t", "", "Artifact type (image, vector, embroidery, mockup, document)")
	artifactAddCmd.Flags().StringVarP(&artifactDesc, "desc", "d", "", "Artifact description")
	_ = artifactAddCmd.MarkFlagRequired("type")
	artifactCmd.AddCommand(artifactAddCmd)

	suggestCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	suggestCmd.Flags().StringArrayVar(&recentQueries, "recent", nil, "Earlier query of the session (repeatable, oldest first)")
	suggestCmd.Flags().StringVarP(&outputFormat, "format", "f", formatText, "Output format: text or json")

	summaryCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID")
	summaryCmd.Flags().StringVarP(&outputFormat, "format", "f", formatText, "Output format: text or json")

	statsCmd.Flags().StringVarP(&outputFormat, "format", "f", formatText, "Output format: text or json")

	chatCmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID (default: new session)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(artifactCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the workspace directory, defaulting to the cwd.
func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// loadConfig reads the config file and applies flag overrides. State paths
// left empty by the file are placed under the workspace.
func loadConfig() (*config.Config, error) {
	ws := resolveWorkspace()
	path := configPath
	if path == "" {
		path = filepath.Join(ws, stateDir, configFileName)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.Projects.DatabasePath = dbPath
	}
	if cfg.Projects.DatabasePath == "" {
		cfg.Projects.DatabasePath = filepath.Join(ws, stateDir, dbFileName)
	}
	if cfg.Usage.Path == "" {
		cfg.Usage.Path = filepath.Join(ws, stateDir, usageFileName)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// initLogger builds the CLI zap logger and installs it as the root of the
// categorized loggers.
func initLogger(cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	// Results go to stdout; keep stderr quiet unless asked.
	if !verbose && level < zapcore.WarnLevel {
		level = zapcore.WarnLevel
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Logging.Format == "console" {
		zcfg.Encoding = "console"
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if cfg.Logging.File != "" {
		zcfg.OutputPaths = []string{cfg.Logging.File}
	}
	logger, err = zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.Use(logger, cfg.Logging.Categories)
	return nil
}

// openEngine opens the project database and builds the engine on top of it.
// The returned func closes both.
func openEngine(cfg *config.Config) (*orchestrator.Engine, func() error, error) {
	st, err := store.NewProjectStore(cfg.Projects.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open project store: %w", err)
	}
	e, err := orchestrator.New(cfg, orchestrator.WithPersistence(st))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if logger != nil {
		logger.Debug("engine ready",
			zap.String("db", cfg.Projects.DatabasePath),
			zap.Strings("enrichers", cfg.Modules.Enrichers))
	}

	closeFn := func() error {
		saveErr := e.Close()
		if err := st.Close(); err != nil {
			return err
		}
		return saveErr
	}
	return e, closeFn, nil
}

// newContext returns the per-command context bounded by --timeout.
func newContext() (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
