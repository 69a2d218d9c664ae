package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lpScope/internal/config"
	"lpScope/internal/history"
)

func runFees(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadFees(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Positions) == 0 {
		return fmt.Errorf("position list is required")
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
	var state history.StateStore
	switch {
	case store != nil:
		defer store.Close()
		state = store
	case cfg.StateFile != "":
		state = &history.FileState{Path: cfg.StateFile}
	}

	svc := history.NewService(history.Config{Workers: cfg.Workers}, b.graph, sinks, state, logger)

	logger.Info("fees start",
		zap.Int("positions", len(cfg.Positions)),
		zap.Int("workers", cfg.Workers),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("state_file", cfg.StateFile),
	)

	results, err := svc.Run(ctx, cfg.Positions)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "POSITION\tDAYS\tIN RANGE\tUNCOLLECTED USD\tERROR")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "%s\t-\t-\t-\t%v\n", r.PositionID, r.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%t\t%.2f\t\n", r.PositionID, len(r.Series), r.Overview.InRange, r.Overview.UncollectedUSD)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d positions failed", failed, len(results))
	}
	return nil
}
