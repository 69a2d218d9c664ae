package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lpScope/internal/config"
	"lpScope/internal/estimate"
	"lpScope/internal/model"
	"lpScope/internal/simulate"
	"lpScope/internal/storage"
)

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSimulate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if len(cfg.Ranges) == 0 {
		return fmt.Errorf("at least one range is required")
	}
	session, err := simulate.NewSession(cfg.Ranges...)
	if err != nil {
		return err
	}
	market := simulate.Market{CurrentPrices: cfg.CurrentPrices, SimulatedPrices: cfg.SimulatedPrices}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fees := map[string]float64{}
	if cfg.Pool != "" {
		if fees, err = estimateRanges(ctx, cfg, session, logger); err != nil {
			return err
		}
	}

	if cfg.Switch {
		session, market = session.Switch(), market.Switch()
	}

	logger.Info("simulate start",
		zap.Int("ranges", session.Len()),
		zap.Float64s("current_prices", market.CurrentPrices[:]),
		zap.Float64s("simulated_prices", market.SimulatedPrices[:]),
		zap.Bool("switch", cfg.Switch),
		zap.String("pool", cfg.Pool),
	)

	evals := session.Evaluate(market)
	for _, ev := range evals {
		if ev.Err != nil {
			logger.Warn("range not simulated", zap.String("range", ev.Range.ID), zap.Error(ev.Err))
		}
	}
	return printEvaluations(cmd.OutOrStdout(), evals, fees, cfg.Pool != "")
}

// estimateRanges projects daily fees for every range of the session against
// the pool. Ranges are in the pool's own orientation.
func estimateRanges(ctx context.Context, cfg config.SimulateConfig, session simulate.Session, logger *zap.Logger) (map[string]float64, error) {
	b, err := openBackend(ctx, cfg.Sources, logger)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	tokens, err := b.tokens.PoolTokens(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}
	spacing, err := b.spacing.TickSpacing(ctx, cfg.Pool)
	if err != nil {
		return nil, err
	}

	est := estimate.NewEstimator(b.blocks, b.states, b.tokens, logger)
	ranges := session.Ranges()
	results := make([]model.FeeEstimate, len(ranges))
	trackers := make(map[string]*estimate.Tracker, len(ranges))
	for _, r := range ranges {
		trackers[r.ID] = &estimate.Tracker{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, r := range ranges {
		i, r := i, r
		g.Go(func() error {
			lower, upper := simulate.RangeTicks(r, tokens[0].Decimals, tokens[1].Decimals, spacing)
			_, err := trackers[r.ID].Run(gctx, func(ctx context.Context) (float64, error) {
				res, err := est.Estimate(ctx, estimate.Request{
					PoolID:       cfg.Pool,
					LiquidityUSD: r.InvestmentUSD,
					TickLower:    lower,
					TickUpper:    upper,
					WindowDays:   cfg.Days,
				})
				results[i] = res
				return res.DailyFeeUSD, err
			})
			if err != nil && !errors.Is(err, estimate.ErrStale) {
				return fmt.Errorf("range %s: %w", r.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if cfg.Out != "" {
		if err := storage.NewJsonlStorage(cfg.Out).PutEstimates(ctx, results); err != nil {
			return nil, fmt.Errorf("store estimates: %w", err)
		}
	}

	out := make(map[string]float64, len(ranges))
	for i, r := range ranges {
		out[r.ID] = results[i].DailyFeeUSD
	}
	return out, nil
}

func printEvaluations(out io.Writer, evals []simulate.Evaluation, fees map[string]float64, withFees bool) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := "RANGE\tMIN\tMAX\tINVESTED USD\tEFFICIENCY\tRESERVES NOW\tRESERVES SIM\tIL USD\tIL %"
	if withFees {
		header += "\tFEES USD/DAY"
	}
	fmt.Fprintln(w, header)

	for _, ev := range evals {
		r := ev.Range
		bounds := []interface{}{r.ID, r.PriceMin, r.PriceMax}
		if r.InfiniteRange {
			bounds = []interface{}{r.ID, "0", "inf"}
		}
		fmt.Fprintf(w, "%v\t%v\t%v\t", bounds...)
		if ev.Err != nil || !ev.Result.Available() {
			fmt.Fprintf(w, "%.2f\t-\t-\t-\t-\t-", ev.EffectiveInvestmentUSD)
		} else {
			res := ev.Result
			fmt.Fprintf(w, "%.2f\t%.2fx\t%.6g / %.6g\t%.6g / %.6g\t%.2f\t%.2f%%",
				ev.EffectiveInvestmentUSD,
				ev.CapitalEfficiency,
				res.RealReservesCurrent[0], res.RealReservesCurrent[1],
				res.RealReservesSimulated[0], res.RealReservesSimulated[1],
				res.ILAbsolute,
				res.ILRelative*100,
			)
		}
		if withFees {
			fmt.Fprintf(w, "\t%.4f", fees[r.ID])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}
