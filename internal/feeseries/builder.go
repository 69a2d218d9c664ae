package feeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"lpScope/internal/feegrowth"
	"lpScope/internal/fixedpoint"
	"lpScope/internal/model"
)

// ErrMissingTick is returned when a boundary tick has no snapshot at or
// before a pool day and no fallback entry.
var ErrMissingTick = errors.New("no tick snapshot at or before day")

// Input is everything needed to rebuild one position's daily fees.
type Input struct {
	Days      []model.PoolSnapshot
	Lower     model.TickHistory
	Upper     model.TickHistory
	Snapshots []model.PositionSnapshot
	Token0    model.Token
	Token1    model.Token
}

// Series is an ordered daily fee series.
type Series []model.DailyFee

// ByDate indexes the series by day.
func (s Series) ByDate() map[time.Time]model.DailyFee {
	out := make(map[time.Time]model.DailyFee, len(s))
	for _, d := range s {
		out[d.Date] = d
	}
	return out
}

// Builder replays pool and tick snapshots into a daily fee series.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder returns a Builder. A nil logger discards output.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Build walks in.Days in order. The liquidity cursor only moves forward, the
// first accepted day is dropped, and each token is filtered independently.
func (b *Builder) Build(in Input) (Series, error) {
	if err := model.ValidatePoolSnapshots(in.Days); err != nil {
		return nil, err
	}
	if err := model.ValidatePositionSnapshots(in.Snapshots); err != nil {
		return nil, err
	}
	if err := model.ValidateTickHistory(in.Lower); err != nil {
		return nil, fmt.Errorf("lower tick: %w", err)
	}
	if err := model.ValidateTickHistory(in.Upper); err != nil {
		return nil, fmt.Errorf("upper tick: %w", err)
	}
	if len(in.Snapshots) == 0 {
		return nil, errors.New("position has no liquidity snapshots")
	}

	series := make(Series, 0, len(in.Days))
	last0 := fixedpoint.Clone(in.Snapshots[0].FeeGrowthInside0Last)
	last1 := fixedpoint.Clone(in.Snapshots[0].FeeGrowthInside1Last)
	var filter0, filter1 OutlierFilter
	cursor, replaced := 0, 0

	for _, day := range in.Days {
		for cursor+1 < len(in.Snapshots) && !in.Snapshots[cursor+1].Timestamp.After(day.Date) {
			cursor++
		}

		lower, err := tickAt(in.Lower, day.Date)
		if err != nil {
			return nil, fmt.Errorf("lower tick on %s: %w", day.Date.UTC().Format(time.DateOnly), err)
		}
		upper, err := tickAt(in.Upper, day.Date)
		if err != nil {
			return nil, fmt.Errorf("upper tick on %s: %w", day.Date.UTC().Format(time.DateOnly), err)
		}

		inside0, inside1 := feegrowth.FeeGrowthInside(lower, upper, day.CurrentTick, day.FeeGrowthGlobal0, day.FeeGrowthGlobal1)
		fees, err := feegrowth.AccruedFees(inside0, inside1, last0, last1, in.Snapshots[cursor].Liquidity)
		if err != nil {
			return nil, fmt.Errorf("fees on %s: %w", day.Date.UTC().Format(time.DateOnly), err)
		}
		last0, last1 = inside0, inside1

		warmup := filter0.Count() == 0

		var point model.DailyFee
		point.Date = day.Date
		filter0, point.Amount0, point.Outlier0 = filter0.Apply(in.Token0.Human(fees.Amount0))
		filter1, point.Amount1, point.Outlier1 = filter1.Apply(in.Token1.Human(fees.Amount1))
		if point.Outlier0 || point.Outlier1 {
			replaced++
			b.logger.Debug("fee outlier replaced",
				zap.Time("date", day.Date),
				zap.Bool("token0", point.Outlier0),
				zap.Bool("token1", point.Outlier1),
			)
		}

		if warmup {
			continue
		}
		series = append(series, point)
	}

	b.logger.Debug("fee series built",
		zap.Int("days", len(in.Days)),
		zap.Int("points", len(series)),
		zap.Int("outliers", replaced),
	)
	return series, nil
}

// tickAt returns the most recent tick entry dated on or before day, falling
// back to h.Before.
func tickAt(h model.TickHistory, day time.Time) (model.Tick, error) {
	i := sort.Search(len(h.Entries), func(i int) bool {
		return h.Entries[i].Date.After(day)
	})
	if i > 0 {
		return h.Entries[i-1].Tick, nil
	}
	if h.Before != nil && !h.Before.Date.After(day) {
		return h.Before.Tick, nil
	}
	return model.Tick{}, ErrMissingTick
}
