package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "lpscope",
		Short:        "Uniswap v3 position fee history and range simulation",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	feesCmd := &cobra.Command{
		Use:   "fees",
		Short: "Rebuild daily fee history of positions",
		RunE:  runFees,
	}

	addSourceFlags(feesCmd)
	feesCmd.Flags().StringSlice("position", nil, "position ids (comma-separated)")
	feesCmd.Flags().Int("workers", 4, "positions processed concurrently")
	feesCmd.Flags().String("out", "./data/fees.jsonl", "output JSONL path, empty disables")
	feesCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	feesCmd.Flags().String("state-file", "", "optional local progress file when no Postgres DSN is set")
	feesCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(feesCmd)

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate reserves and impermanent loss of price ranges",
		RunE:  runSimulate,
	}

	addSourceFlags(simulateCmd)
	simulateCmd.Flags().Float64("price0", 0, "current USD price of token0")
	simulateCmd.Flags().Float64("price1", 0, "current USD price of token1")
	simulateCmd.Flags().Float64("sim-price0", 0, "simulated USD price of token0 (defaults to current)")
	simulateCmd.Flags().Float64("sim-price1", 0, "simulated USD price of token1 (defaults to current)")
	simulateCmd.Flags().String("range-id", "", "id of the range given by flags")
	simulateCmd.Flags().Float64("price-min", 0, "range lower bound (token0/token1 price ratio)")
	simulateCmd.Flags().Float64("price-max", 0, "range upper bound (token0/token1 price ratio)")
	simulateCmd.Flags().Float64("investment", 1000, "investment in USD")
	simulateCmd.Flags().Bool("infinite", false, "full range position")
	simulateCmd.Flags().Bool("switch", false, "express ranges against the other token")
	simulateCmd.Flags().String("pool", "", "pool id; when set each range gets a fee estimate")
	simulateCmd.Flags().Int("days", 7, "fee estimate window in days")
	simulateCmd.Flags().String("out", "", "optional JSONL path for fee estimates")
	simulateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd)

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "Project daily fee income for a tick range",
		RunE:  runEstimate,
	}

	addSourceFlags(estimateCmd)
	estimateCmd.Flags().String("pool", "", "pool id")
	estimateCmd.Flags().Int32("tick-lower", 0, "lower tick")
	estimateCmd.Flags().Int32("tick-upper", 0, "upper tick")
	estimateCmd.Flags().Float64("liquidity-usd", 1000, "position size in USD")
	estimateCmd.Flags().Int("days", 7, "trailing window in days")
	estimateCmd.Flags().String("at", "", "end of the window (unix seconds or RFC3339), default latest")
	estimateCmd.Flags().String("out", "", "optional JSONL output path")
	estimateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	estimateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(estimateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("subgraph", "", "Uniswap v3 subgraph URL")
	cmd.Flags().String("blocks-subgraph", "", "blocks subgraph URL")
	cmd.Flags().String("rpc", "", "Ethereum RPC URL")
	cmd.Flags().String("source", "subgraph", "pool state source (subgraph or rpc)")
	cmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("redis-addr", "", "optional Redis address for the block cache")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().Duration("cache-ttl", 24*time.Hour, "block cache entry TTL")
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

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
