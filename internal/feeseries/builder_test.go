package feeseries

import (
	"errors"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpScope/internal/fixedpoint"
	"lpScope/internal/model"
)

var (
	usdc = model.Token{Symbol: "USDC", Decimals: 6}
	weth = model.Token{Symbol: "WETH", Decimals: 6}
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// growth returns n fee units per unit of liquidity in Q128.
func growth(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), fixedpoint.Q128)
}

func zeroTick(idx int32) model.Tick {
	return model.Tick{Index: idx, FeeGrowthOutside0: new(uint256.Int), FeeGrowthOutside1: new(uint256.Int)}
}

func flatHistory(idx int32) model.TickHistory {
	return model.TickHistory{Before: &model.TickSnapshot{Date: day(-30), Tick: zeroTick(idx)}}
}

// poolDays builds in-range pool days whose global growth increases by the
// given per-day deltas for each token.
func poolDays(start *uint256.Int, deltas0, deltas1 []uint64) []model.PoolSnapshot {
	g0 := new(uint256.Int).Set(start)
	g1 := new(uint256.Int).Set(start)
	out := make([]model.PoolSnapshot, len(deltas0))
	for i := range deltas0 {
		g0 = new(uint256.Int).Add(g0, growth(deltas0[i]))
		g1 = new(uint256.Int).Add(g1, growth(deltas1[i]))
		out[i] = model.PoolSnapshot{Date: day(i), CurrentTick: 0, FeeGrowthGlobal0: g0, FeeGrowthGlobal1: g1}
	}
	return out
}

func snapshot(ts time.Time, liquidity uint64, last *uint256.Int) model.PositionSnapshot {
	return model.PositionSnapshot{
		Timestamp:            ts,
		Liquidity:            uint256.NewInt(liquidity),
		FeeGrowthInside0Last: last,
		FeeGrowthInside1Last: last,
	}
}

func repeat(v uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestBuildStableInput(t *testing.T) {
	in := Input{
		Days:      poolDays(new(uint256.Int), repeat(5, 6), repeat(2, 6)),
		Lower:     flatHistory(-600),
		Upper:     flatHistory(600),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1_000_000, new(uint256.Int))},
		Token0:    usdc,
		Token1:    weth,
	}

	series, err := NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, series, 5)
	for i, p := range series {
		assert.Equal(t, day(i+1), p.Date)
		assert.True(t, p.Amount0.Equal(d("5")), "day %d amount0 %s", i+1, p.Amount0)
		assert.True(t, p.Amount1.Equal(d("2")), "day %d amount1 %s", i+1, p.Amount1)
		assert.False(t, p.Outlier0)
		assert.False(t, p.Outlier1)
	}
}

func TestBuildTwoDaysEmitsSecond(t *testing.T) {
	in := Input{
		Days:      poolDays(new(uint256.Int), []uint64{3, 3}, []uint64{1, 1}),
		Lower:     flatHistory(-60),
		Upper:     flatHistory(60),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1_000_000, new(uint256.Int))},
		Token0:    usdc,
		Token1:    weth,
	}

	series, err := NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, day(1), series[0].Date)
}

func TestBuildReplacesOutliersPerToken(t *testing.T) {
	in := Input{
		Days:      poolDays(new(uint256.Int), []uint64{1, 1, 1, 1}, []uint64{1, 1, 5000, 1}),
		Lower:     flatHistory(-60),
		Upper:     flatHistory(60),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1_000_000, new(uint256.Int))},
		Token0:    usdc,
		Token1:    weth,
	}

	series, err := NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, series, 3)

	spike := series.ByDate()[day(2)]
	assert.False(t, spike.Outlier0)
	assert.True(t, spike.Amount0.Equal(d("1")))
	assert.True(t, spike.Outlier1)
	assert.True(t, spike.Amount1.Equal(d("1")), "token1 replaced by average, got %s", spike.Amount1)
	assert.True(t, series.ByDate()[day(3)].Amount1.Equal(d("1")))
}

func TestBuildLiquidityCursorAdvances(t *testing.T) {
	in := Input{
		Days:  poolDays(new(uint256.Int), repeat(1, 4), repeat(1, 4)),
		Lower: flatHistory(-60),
		Upper: flatHistory(60),
		Snapshots: []model.PositionSnapshot{
			snapshot(day(-1), 1_000_000, new(uint256.Int)),
			snapshot(day(2), 3_000_000, growth(2)),
		},
		Token0: usdc,
		Token1: weth,
	}

	series, err := NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, series, 3)
	byDate := series.ByDate()
	assert.True(t, byDate[day(1)].Amount0.Equal(d("1")))
	assert.True(t, byDate[day(2)].Amount0.Equal(d("3")))
	assert.True(t, byDate[day(3)].Amount0.Equal(d("3")))
}

func TestBuildUsesLatestTickEntry(t *testing.T) {
	// the lower tick records outside growth from day 2 on, cutting the
	// inside growth by one unit per day from then.
	lower := model.TickHistory{
		Before: &model.TickSnapshot{Date: day(-5), Tick: zeroTick(-60)},
		Entries: []model.TickSnapshot{
			{Date: day(2), Tick: model.Tick{Index: -60, FeeGrowthOutside0: growth(1), FeeGrowthOutside1: new(uint256.Int)}},
			{Date: day(3), Tick: model.Tick{Index: -60, FeeGrowthOutside0: growth(2), FeeGrowthOutside1: new(uint256.Int)}},
		},
	}
	in := Input{
		Days:      poolDays(new(uint256.Int), repeat(4, 4), repeat(4, 4)),
		Lower:     lower,
		Upper:     flatHistory(60),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1_000_000, new(uint256.Int))},
		Token0:    usdc,
		Token1:    weth,
	}

	series, err := NewBuilder(nil).Build(in)
	require.NoError(t, err)
	byDate := series.ByDate()
	assert.True(t, byDate[day(1)].Amount0.Equal(d("4")))
	assert.True(t, byDate[day(2)].Amount0.Equal(d("3")))
	assert.True(t, byDate[day(3)].Amount0.Equal(d("3")))
	assert.True(t, byDate[day(3)].Amount1.Equal(d("4")))
}

func TestBuildWrapsGlobalGrowth(t *testing.T) {
	// start two units short of 2^256 so the counter wraps on day 1
	start := new(uint256.Int).Sub(new(uint256.Int), growth(2))
	seed := new(uint256.Int).Set(start)
	in := Input{
		Days:      poolDays(start, repeat(1, 4), repeat(1, 4)),
		Lower:     flatHistory(-60),
		Upper:     flatHistory(60),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1_000_000, seed)},
		Token0:    usdc,
		Token1:    weth,
	}

	series, err := NewBuilder(nil).Build(in)
	require.NoError(t, err)
	require.Len(t, series, 3)
	for _, p := range series {
		assert.True(t, p.Amount0.Equal(d("1")), "amount0 %s on %s", p.Amount0, p.Date)
	}
}

func TestBuildMissingTick(t *testing.T) {
	in := Input{
		Days:  poolDays(new(uint256.Int), repeat(1, 2), repeat(1, 2)),
		Lower: model.TickHistory{Entries: []model.TickSnapshot{{Date: day(1), Tick: zeroTick(-60)}}},
		Upper: flatHistory(60),
		Snapshots: []model.PositionSnapshot{
			snapshot(day(-1), 1, new(uint256.Int)),
		},
	}

	_, err := NewBuilder(nil).Build(in)
	assert.True(t, errors.Is(err, ErrMissingTick), "got %v", err)
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	days := poolDays(new(uint256.Int), repeat(1, 2), repeat(1, 2))
	days[1].Date = days[0].Date

	_, err := NewBuilder(nil).Build(Input{
		Days:      days,
		Lower:     flatHistory(-60),
		Upper:     flatHistory(60),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1, new(uint256.Int))},
	})
	assert.True(t, errors.Is(err, model.ErrUnordered))

	_, err = NewBuilder(nil).Build(Input{
		Days:  poolDays(new(uint256.Int), repeat(1, 2), repeat(1, 2)),
		Lower: flatHistory(-60),
		Upper: flatHistory(60),
	})
	assert.Error(t, err)
}

func TestBuildEmptyDays(t *testing.T) {
	series, err := NewBuilder(nil).Build(Input{
		Lower:     flatHistory(-60),
		Upper:     flatHistory(60),
		Snapshots: []model.PositionSnapshot{snapshot(day(-1), 1, new(uint256.Int))},
	})
	require.NoError(t, err)
	assert.Empty(t, series)
}
