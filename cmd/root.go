package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/mathtutor/internal/config"
	"github.com/abhisek/mathtutor/internal/store"
)

var (
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mathtutor",
	Short: "Conversational math tutor",
	Long: `mathtutor is a conversational math tutor.

It asks what you want to learn, checks what you already know, and then
teaches toward mastery before switching to practice problems.

Run without arguments to start a new chat session.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal.
		_ = godotenv.Load()

		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}
		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}

		logger, err = newLogger(cfg.Logging.Level, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, chatOptions{})
	},
}

// newLogger builds the stderr logger. Chat shares the terminal with it, so
// the level comes from config (warn by default) and --verbose switches to
// the console encoder at debug.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("parse log level: %w", err)
		}
		zc.Level = lvl
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger, nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides MATHTUTOR_DB env var)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (overrides MATHTUTOR_CONFIG env var)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("owner", "", "Student id sessions belong to (defaults to the configured owner)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the config file, then MATHTUTOR_DB env var and the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.DBPath != "" {
		return cfg.DBPath, store.EnsureDir(cfg.DBPath)
	}
	return store.DefaultDBPath()
}

// resolveOwner returns the --owner flag or the configured owner.
func resolveOwner(cmd *cobra.Command) string {
	if o, _ := cmd.Flags().GetString("owner"); o != "" {
		return o
	}
	return cfg.Owner
}

// openStore resolves the database path and opens it.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
