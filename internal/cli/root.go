package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/lazypower/reprise/internal/config"
	"github.com/lazypower/reprise/internal/engine"
	"github.com/lazypower/reprise/internal/fsrs"
	"github.com/lazypower/reprise/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string

	// Populated by loadConfig before any subcommand runs.
	cfg    = config.Default()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:   "reprise",
	Short: "Spaced-repetition scheduling for learning items and reading",
	Long: "Reprise schedules reviews of question/answer items and reading documents, " +
		"flags leeches and keeps priorities fresh. Single Go binary backed by SQLite.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/reprise/config.toml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(leechesCmd)
	rootCmd.AddCommand(treatCmd)
	rootCmd.AddCommand(maintainCmd)
	rootCmd.AddCommand(importCmd)
}

// loadConfig reads .env (optional), the config file and REPRISE_* overrides.
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	l, err := newLogger(c, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

func newLogger(c config.Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch c.Log.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
}

// openDB is a helper that opens the database for CLI commands.
func openDB() (*store.DB, string, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, "", fmt.Errorf("resolve db path: %w", err)
		}
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, "", fmt.Errorf("open database: %w", err)
	}
	return db, dbPath, nil
}

func newEngine(db *store.DB) *engine.Engine {
	p := cfg.Parameters()
	schedOpts := []fsrs.Option{fsrs.WithLogger(logger)}
	if !cfg.Scheduler.Jitter {
		schedOpts = append(schedOpts, fsrs.WithoutJitter())
	}
	return engine.New(db, p,
		engine.WithLogger(logger),
		engine.WithLeechConfig(cfg.Leech),
		engine.WithScheduler(fsrs.NewScheduler(p, schedOpts...)),
	)
}

// withEngine opens the database, runs fn and closes it again.
func withEngine(fn func(eng *engine.Engine) error) error {
	db, _, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(newEngine(db))
}
