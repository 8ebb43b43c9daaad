package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"poolArbitrage/internal/config"
	"poolArbitrage/internal/model"
	"poolArbitrage/internal/storage/postgres"
	"poolArbitrage/internal/storage/sqlite"
)

type directionCounter interface {
	CountByDirection(ctx context.Context) (map[string]int64, error)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	counter, closeFn, err := openCounter(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	counts, err := counter.CountByDirection(ctx)
	if err != nil {
		return err
	}
	return printJSON(counts)
}

// openCounter opens the configured journal for reading. Only the database
// sinks can be queried.
func openCounter(ctx context.Context, cfg config.Config) (directionCounter, func(), error) {
	switch cfg.Sink {
	case "postgres":
		if cfg.PGDSN == "" {
			return nil, nil, fmt.Errorf("sink postgres requires pg-dsn: %w", model.ErrConfiguration)
		}
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "sqlite":
		store, err := sqlite.NewStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("stats needs a postgres or sqlite sink, got %q: %w", cfg.Sink, model.ErrConfiguration)
	}
}
