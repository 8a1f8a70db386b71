package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/labconnect/medtest-booking/internal/config"
	"github.com/labconnect/medtest-booking/internal/database"
)

// loadConfig reads .env and the environment and builds the logger.
func loadConfig() (config.Config, zerolog.Logger, error) {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if err := config.LoadDotEnv(); err != nil {
		boot.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, boot, err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("env", cfg.Env).Logger()
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	return database.Open(ctx, cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name, database.PoolConfig{
		MaxOpen:     cfg.DB.MaxOpenConns,
		MaxIdle:     cfg.DB.MaxIdleConns,
		MaxLifetime: cfg.DB.ConnMaxLifetime,
	})
}
