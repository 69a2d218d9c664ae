package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpScope/internal/config"
	"lpScope/internal/estimate"
	"lpScope/internal/model"
)

func runEstimate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEstimate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Pool == "" {
		return fmt.Errorf("pool is required")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("days must be positive")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx, cfg.Sources, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	sinks, store, err := openSinks(ctx, cfg.Out, cfg.PGDSN)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	est := estimate.NewEstimator(b.blocks, b.states, b.tokens, logger)
	if !cfg.At.IsZero() {
		est = est.At(cfg.At)
	}

	logger.Info("estimate start",
		zap.String("pool", cfg.Pool),
		zap.Int32("tick_lower", cfg.TickLower),
		zap.Int32("tick_upper", cfg.TickUpper),
		zap.Float64("liquidity_usd", cfg.LiquidityUSD),
		zap.Int("days", cfg.Days),
		zap.String("source", cfg.Source),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	result, err := est.Estimate(ctx, estimate.Request{
		PoolID:       cfg.Pool,
		LiquidityUSD: cfg.LiquidityUSD,
		TickLower:    cfg.TickLower,
		TickUpper:    cfg.TickUpper,
		WindowDays:   cfg.Days,
	})
	if err != nil {
		return err
	}

	if err := sinks.PutEstimates(ctx, []model.FeeEstimate{result}); err != nil {
		return fmt.Errorf("store estimate: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
