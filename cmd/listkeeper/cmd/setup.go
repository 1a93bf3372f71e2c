package cmd

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/solatis/listkeeper/internal/core/config"
	"github.com/solatis/listkeeper/internal/core/db"
	"github.com/solatis/listkeeper/internal/core/logging"
	"github.com/solatis/listkeeper/internal/rules"
)

const Version = "0.1.0"

// loadConfig applies the persistent-flag overrides on top of file and
// environment configuration.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat), nil
}

// openDatabase validates the URL and opens the pooled connection.
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL required (--db-url flag, database.url config, or LK_DATABASE_URL)")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// newEngine builds the rules engine from the deployment configuration.
func newEngine(cfg *config.Config, log zerolog.Logger) *rules.Engine {
	return rules.NewEngine(rules.Options{
		CollectionNamePrefix: cfg.Engine.CollectionNamePrefix,
		CollectionNameSuffix: cfg.Engine.CollectionNameSuffix,
		DefaultUserID:        cfg.Engine.DefaultUserID,
	}, log)
}
