package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lpScope/internal/feegrowth"
	"lpScope/internal/feeseries"
	"lpScope/internal/fixedpoint"
	"lpScope/internal/model"
	"lpScope/internal/storage"
)

// ErrNoSnapshots is returned for a position without any recorded snapshot.
var ErrNoSnapshots = errors.New("position has no snapshots")

// Source provides position and pool history.
type Source interface {
	Position(ctx context.Context, id string) (model.PositionInfo, error)
	PositionSnapshots(ctx context.Context, id string) ([]model.PositionSnapshot, error)
	PoolDays(ctx context.Context, pool string, from time.Time) ([]model.PoolSnapshot, error)
	TickHistory(ctx context.Context, pool string, tick int32, from time.Time) (model.TickHistory, error)
}

// StateStore remembers the last stored series day per position.
type StateStore interface {
	LoadState(ctx context.Context, name string) (time.Time, bool, error)
	SaveState(ctx context.Context, name string, at time.Time) error
}

// Config holds runtime settings for the service.
type Config struct {
	Workers int
}

// Result is the outcome for one position.
type Result struct {
	PositionID string
	Overview   model.PositionOverview
	Series     feeseries.Series
	Err        error
}

// Service rebuilds fee history for positions and writes it to a sink.
type Service struct {
	cfg     Config
	source  Source
	sink    storage.Sink
	state   StateStore
	builder *feeseries.Builder
	logger  *zap.Logger
}

// NewService builds a Service. sink and state may be nil.
func NewService(cfg Config, source Source, sink storage.Sink, state StateStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{
		cfg:     cfg,
		source:  source,
		sink:    sink,
		state:   state,
		builder: feeseries.NewBuilder(logger),
		logger:  logger,
	}
}

// Run processes positions concurrently. A failing position is reported in its
// Result and does not stop the others; only cancellation aborts the run.
func (s *Service) Run(ctx context.Context, ids []string) ([]Result, error) {
	if s.source == nil {
		return nil, fmt.Errorf("history source is nil")
	}
	results := make([]Result, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := s.Process(gctx, id)
			if res.Err != nil {
				s.logger.Warn("position failed", zap.String("position", id), zap.Error(res.Err))
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Process rebuilds and stores the fee history of one position.
func (s *Service) Process(ctx context.Context, id string) Result {
	res := Result{PositionID: id}

	info, err := s.source.Position(ctx, id)
	if err != nil {
		res.Err = err
		return res
	}
	snaps, err := s.source.PositionSnapshots(ctx, id)
	if err != nil {
		res.Err = err
		return res
	}
	if len(snaps) == 0 {
		res.Err = fmt.Errorf("position %s: %w", id, ErrNoSnapshots)
		return res
	}

	from := snaps[0].Timestamp.UTC().Truncate(24 * time.Hour)
	in := feeseries.Input{
		Snapshots: snaps,
		Token0:    info.Token0,
		Token1:    info.Token1,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		days, err := s.source.PoolDays(gctx, info.PoolID, from)
		in.Days = days
		return err
	})
	g.Go(func() error {
		h, err := s.source.TickHistory(gctx, info.PoolID, info.Pool.TickLower.Index, from)
		in.Lower = h
		return err
	})
	g.Go(func() error {
		h, err := s.source.TickHistory(gctx, info.PoolID, info.Pool.TickUpper.Index, from)
		in.Upper = h
		return err
	})
	if err := g.Wait(); err != nil {
		res.Err = err
		return res
	}

	series, err := s.builder.Build(in)
	if err != nil {
		res.Err = fmt.Errorf("position %s: %w", id, err)
		return res
	}
	res.Series = series

	overview, err := Overview(info, snaps[len(snaps)-1])
	if err != nil {
		res.Err = fmt.Errorf("position %s: %w", id, err)
		return res
	}
	res.Overview = overview

	if err := s.store(ctx, id, series, overview); err != nil {
		res.Err = fmt.Errorf("position %s: %w", id, err)
		return res
	}

	s.logger.Info("position complete",
		zap.String("position", id),
		zap.String("pool", info.PoolID),
		zap.Int("days", len(series)),
		zap.Bool("in_range", overview.InRange),
		zap.Float64("uncollected_usd", overview.UncollectedUSD),
	)
	return res
}

func (s *Service) store(ctx context.Context, id string, series feeseries.Series, overview model.PositionOverview) error {
	if s.sink == nil {
		return nil
	}
	name := "position:" + id
	pending := []model.DailyFee(series)
	if s.state != nil {
		last, ok, err := s.state.LoadState(ctx, name)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if ok {
			pending = after(series, last)
			s.logger.Debug("resume from state", zap.String("position", id), zap.Time("last", last), zap.Int("pending", len(pending)))
		}
	}

	if err := s.sink.PutDailyFees(ctx, id, pending); err != nil {
		return fmt.Errorf("store daily fees: %w", err)
	}
	if err := s.sink.PutOverview(ctx, overview); err != nil {
		return fmt.Errorf("store overview: %w", err)
	}

	if s.state != nil && len(pending) > 0 {
		if err := s.state.SaveState(ctx, name, pending[len(pending)-1].Date); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	return nil
}

// after returns the days from the marker day on. The marker day was still
// accruing when it was stored, so it is written again.
func after(series feeseries.Series, last time.Time) []model.DailyFee {
	for i, d := range series {
		if !d.Date.Before(last) {
			return series[i:]
		}
	}
	return nil
}

// Overview summarizes a position from its current pool state and its most
// recent snapshot.
func Overview(info model.PositionInfo, last model.PositionSnapshot) (model.PositionOverview, error) {
	fees, err := feegrowth.UncollectedFees(info.Pool, last)
	if err != nil {
		return model.PositionOverview{}, fmt.Errorf("uncollected fees: %w", err)
	}
	un0 := info.Token0.Human(fees.Amount0)
	un1 := info.Token1.Human(fees.Amount1)

	return model.PositionOverview{
		PositionID:     info.ID,
		PoolID:         info.PoolID,
		Token0:         info.Token0.Symbol,
		Token1:         info.Token1.Symbol,
		InRange:        feegrowth.InRange(info.Pool),
		Liquidity:      fixedpoint.String(info.Liquidity),
		Deposited0:     last.DepositedToken0,
		Deposited1:     last.DepositedToken1,
		Withdrawn0:     last.WithdrawnToken0,
		Withdrawn1:     last.WithdrawnToken1,
		Collected0:     last.CollectedFeesToken0,
		Collected1:     last.CollectedFeesToken1,
		Uncollected0:   un0,
		Uncollected1:   un1,
		UncollectedUSD: info.Token0.USD(un0) + info.Token1.USD(un1),
		LastActionAt:   last.Timestamp,
	}, nil
}
