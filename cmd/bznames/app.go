package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/CTAG07/bznames/pkg/store"
	"github.com/spf13/cobra"
)

// App bundles what every command needs: the configuration, a logger and the
// model store.
type App struct {
	Config *Config
	Logger *slog.Logger
	DB     *sql.DB
	Store  *store.Store
}

// loadConfig reads the config file named by --config and applies the
// persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*Config, error) {
	path, _ := cmd.Flags().GetString("config")
	config, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		config.LogLevel = level
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		config.DatabasePath = db
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// newApp loads the configuration, sets up logging and opens the store.
func newApp(cmd *cobra.Command) (*App, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr, config.LogLevel)

	if config.DataDir != "" {
		if err := os.MkdirAll(filepath.Clean(config.DataDir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := initDB(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := store.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set up schema: %w", err)
	}
	s, err := store.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	s.SetLogger(logger)

	logger.Debug("Application initialized",
		slog.String("database", config.DatabasePath),
		slog.String("log_level", config.LogLevel),
	)
	return &App{Config: config, Logger: logger, DB: db, Store: s}, nil
}

// Close releases the store and the database connection.
func (a *App) Close() {
	a.Store.Close()
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Failed to close database", "error", err)
	}
}
