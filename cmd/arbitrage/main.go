package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolArbitrage/internal/config"
	"poolArbitrage/internal/workflow"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "arbitrage",
		Short:        "Uniswap v4 reference/hook pool arbitrage monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("chain", "", "chain selector name, overrides evms[0].chainName")
	root.PersistentFlags().String("rpc", "", "RPC URL, overrides evms[0].rpcUrl")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate on the configured cron schedule",
		RunE:  runScheduler,
	}
	addWorkflowFlags(runCmd)
	runCmd.Flags().String("schedule", workflow.DefaultSchedule, "cron schedule, seconds field optional")
	root.AddCommand(runCmd)

	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single evaluation and print the record",
		RunE:  runOnce,
	}
	addWorkflowFlags(onceCmd)
	root.AddCommand(onceCmd)

	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Read one pool's state and spot price",
		RunE:  runPool,
	}
	poolCmd.Flags().String("which", "reference", "pool to read (reference, hook)")
	poolCmd.Flags().Bool("allow-custom-spacing", false, "accept non-canonical tick spacing")
	poolCmd.Flags().String("hooks", "", "hook pool hook address, overrides hook-pool.hooks")
	poolCmd.Flags().Bool("quote", false, "also quote amount-in against the pool")
	poolCmd.Flags().String("quote-mode", "swap", "quote mode (swap, spot)")
	poolCmd.Flags().String("amount-in", "1000000000000000000", "input amount in base-asset raw units")
	root.AddCommand(poolCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Count journaled evaluations by direction",
		RunE:  runStats,
	}
	statsCmd.Flags().String("sink", "", "journal to read (postgres, sqlite), defaults to the configured sink")
	statsCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	statsCmd.Flags().String("sqlite-path", "./data/evaluations.db", "SQLite journal path")
	root.AddCommand(statsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addWorkflowFlags(cmd *cobra.Command) {
	cmd.Flags().String("quote-mode", "swap", "quote mode (swap, spot)")
	cmd.Flags().String("amount-in", "1000000000000000000", "input amount in base-asset raw units")
	cmd.Flags().String("profit-threshold", "1000000", "minimum profit in quote-asset raw units")
	cmd.Flags().String("gas-cost-wei", "30000000000000", "fixed gas cost in wei")
	cmd.Flags().Uint64("gas-limit", 0, "price gas live as gas price * limit when > 0")
	cmd.Flags().String("hooks", "", "hook pool hook address, overrides hook-pool.hooks")
	cmd.Flags().Bool("allow-custom-spacing", false, "accept non-canonical tick spacing")
	cmd.Flags().Int("observers", 1, "redundant observations per price url")
	cmd.Flags().Int("quorum", 0, "successful observations required, 0 means majority")
	cmd.Flags().Duration("cooldown", 5*time.Minute, "suppress repeat signals for this long")
	cmd.Flags().String("redis-addr", "", "share cooldowns through redis")
	cmd.Flags().String("sink", "jsonl", "evaluation journal (jsonl, postgres, sqlite, none)")
	cmd.Flags().String("out", "./data/evaluations.jsonl", "JSONL journal path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("sqlite-path", "./data/evaluations.db", "SQLite journal path")
	cmd.Flags().Int("max-retries", 3, "maximum retry attempts for transport errors")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	scheduler, err := workflow.NewScheduler(cfg.Schedule, app.workflow, logger)
	if err != nil {
		return err
	}

	logger.Info("arbitrage start",
		zap.String("chain", app.network.Name),
		zap.String("schedule", cfg.Schedule),
		zap.String("quote_mode", cfg.QuoteMode),
		zap.String("reference_pool", app.referenceKey.String()),
		zap.String("hook_pool", app.hookKey.String()),
		zap.String("sink", cfg.Sink),
	)
	return scheduler.Run(ctx)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	res, err := app.workflow.Tick(ctx)
	if err != nil {
		return err
	}
	return printJSON(res.Record)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
