package simulate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpScope/internal/model"
)

const tolerance = 1e-9

func TestSimulateAtTheMoney(t *testing.T) {
	res, err := Simulate(Input{
		CurrentPrices:   [2]float64{1, 1},
		SimulatedPrices: [2]float64{1, 1},
		PriceMin:        0.5,
		PriceMax:        2,
		InvestmentUSD:   10_000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0, res.ILAbsolute, tolerance)
	assert.InDelta(t, 0, res.ILRelative, tolerance)
	assert.True(t, res.Available())
}

func TestSimulateEndToEnd(t *testing.T) {
	in := Input{
		CurrentPrices:   [2]float64{1, 1500},
		SimulatedPrices: [2]float64{1, 1500},
		PriceMin:        1.0 / 2250,
		PriceMax:        1.0 / 1000,
		InvestmentUSD:   1_000_000,
	}
	res, err := Simulate(in)
	require.NoError(t, err)

	assert.Equal(t, res.RealReservesCurrent, res.RealReservesSimulated)
	assert.Equal(t, 0.0, res.ILAbsolute)
	assert.InDelta(t, 0, res.ILRelative, tolerance)

	k := 500_000 * (500_000.0 / 1500)
	want0 := 500_000 - math.Sqrt(k/in.PriceMax)
	want1 := 500_000.0/1500 - math.Sqrt(k*in.PriceMin)
	assert.InEpsilon(t, want0, res.RealReservesCurrent[0], 1e-12)
	assert.InEpsilon(t, want1, res.RealReservesCurrent[1], 1e-12)
}

func TestSimulateInfiniteRangeKeepsConstantProduct(t *testing.T) {
	for _, sim := range [][2]float64{{1, 1500}, {1, 900}, {1, 4000}, {2, 1500}} {
		res, err := Simulate(Input{
			CurrentPrices:   [2]float64{1, 1500},
			SimulatedPrices: sim,
			InvestmentUSD:   1_000_000,
			Infinite:        true,
		})
		require.NoError(t, err)
		k := 500_000 * (500_000.0 / 1500)
		got := res.RealReservesSimulated[0] * res.RealReservesSimulated[1]
		assert.InEpsilon(t, k, got, 1e-9, "simulated prices %v", sim)
		assert.GreaterOrEqual(t, res.ILAbsolute, -1e-6)
	}
}

func TestSimulateClampsOutOfRange(t *testing.T) {
	base := Input{
		CurrentPrices: [2]float64{1, 1},
		PriceMin:      0.8,
		PriceMax:      1.25,
		InvestmentUSD: 2,
	}
	k := 1.0
	width := 1 - math.Sqrt(0.8/1.25)

	above := base
	above.SimulatedPrices = [2]float64{2, 1}
	res, err := Simulate(above)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.RealReservesSimulated[0])
	assert.InDelta(t, math.Sqrt(k*1.25)*width, res.RealReservesSimulated[1], tolerance)

	below := base
	below.SimulatedPrices = [2]float64{1, 2}
	res, err = Simulate(below)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(k/0.8)*width, res.RealReservesSimulated[0], tolerance)
	assert.Equal(t, 0.0, res.RealReservesSimulated[1])
}

func TestSimulateClampIsContinuousAtBoundary(t *testing.T) {
	in := Input{
		CurrentPrices:   [2]float64{1, 1},
		SimulatedPrices: [2]float64{1.25, 1},
		PriceMin:        0.8,
		PriceMax:        1.25,
		InvestmentUSD:   2,
	}
	atEdge, err := Simulate(in)
	require.NoError(t, err)

	in.SimulatedPrices = [2]float64{1.2500001, 1}
	past, err := Simulate(in)
	require.NoError(t, err)

	assert.InDelta(t, atEdge.RealReservesSimulated[0], past.RealReservesSimulated[0], 1e-6)
	assert.InDelta(t, atEdge.RealReservesSimulated[1], past.RealReservesSimulated[1], 1e-6)
}

func TestSimulatePriceMoveCausesLoss(t *testing.T) {
	res, err := Simulate(Input{
		CurrentPrices:   [2]float64{1, 1500},
		SimulatedPrices: [2]float64{1, 1800},
		PriceMin:        1.0 / 2250,
		PriceMax:        1.0 / 1000,
		InvestmentUSD:   1_000_000,
	})
	require.NoError(t, err)
	assert.Greater(t, res.ILAbsolute, 0.0)
	assert.Greater(t, res.ILRelative, 0.0)
	assert.Less(t, res.ILRelative, 1.0)
}

func TestSimulateRejectsInvalidInput(t *testing.T) {
	prices := [2]float64{1, 1}
	cases := []struct {
		name string
		in   Input
		want error
	}{
		{"zero min", Input{CurrentPrices: prices, SimulatedPrices: prices, PriceMin: 0, PriceMax: 1}, ErrInvalidRange},
		{"equal bounds", Input{CurrentPrices: prices, SimulatedPrices: prices, PriceMin: 1, PriceMax: 1}, ErrInvalidRange},
		{"inverted", Input{CurrentPrices: prices, SimulatedPrices: prices, PriceMin: 2, PriceMax: 1}, ErrInvalidRange},
		{"infinite max", Input{CurrentPrices: prices, SimulatedPrices: prices, PriceMin: 1, PriceMax: math.Inf(1)}, ErrInvalidRange},
		{"nan", Input{CurrentPrices: prices, SimulatedPrices: prices, PriceMin: math.NaN(), PriceMax: 1}, ErrInvalidRange},
		{"zero price", Input{CurrentPrices: [2]float64{0, 1}, SimulatedPrices: prices, Infinite: true}, ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Simulate(tc.in)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestSimulateZeroInvestmentUnavailable(t *testing.T) {
	res, err := Simulate(Input{
		CurrentPrices:   [2]float64{1, 1},
		SimulatedPrices: [2]float64{1, 1},
		Infinite:        true,
	})
	require.NoError(t, err)
	assert.False(t, res.Available())
}

func TestCapitalEfficiency(t *testing.T) {
	assert.InDelta(t, 1, CapitalEfficiency(1e-16, 1), 1e-3)
	assert.Equal(t, 1.0, CapitalEfficiency(0, math.Inf(1)))
	assert.Greater(t, CapitalEfficiency(0.999999, 1), 1e5)
	assert.True(t, math.IsInf(CapitalEfficiency(1, 1), 1))

	prev := CapitalEfficiency(0.1, 1)
	for _, lo := range []float64{0.3, 0.5, 0.7, 0.9, 0.99} {
		next := CapitalEfficiency(lo, 1)
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestInvestmentIncreaseCoefficientRestoresToken0Exposure(t *testing.T) {
	prices := [2]float64{1, 1500}
	pMin, pMax := 1.0/2250, 1.0/1000
	coef, err := InvestmentIncreaseCoefficient(prices[0]/prices[1], pMin, pMax)
	require.NoError(t, err)
	assert.Greater(t, coef, 1.0)

	res, err := Simulate(Input{
		CurrentPrices:   prices,
		SimulatedPrices: prices,
		PriceMin:        pMin,
		PriceMax:        pMax,
		InvestmentUSD:   1_000_000 * coef,
	})
	require.NoError(t, err)
	assert.InEpsilon(t, 500_000, res.RealReservesCurrent[0], 1e-9)
}

func TestInvestmentIncreaseCoefficientOutOfRange(t *testing.T) {
	width := 1 - math.Sqrt(0.5)

	above, err := InvestmentIncreaseCoefficient(4, 1, 2)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2)/width, above, tolerance)

	below, err := InvestmentIncreaseCoefficient(0.25, 1, 2)
	require.NoError(t, err)
	assert.InDelta(t, 2/width, below, tolerance)

	_, err = InvestmentIncreaseCoefficient(1, 0, 2)
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestSwitchRange(t *testing.T) {
	r := model.Range{ID: "a", PriceMin: 0.5, PriceMax: 4, InvestmentUSD: 100}
	s := SwitchRange(r)
	assert.Equal(t, 0.25, s.PriceMin)
	assert.Equal(t, 2.0, s.PriceMax)
	assert.Equal(t, r, SwitchRange(s))

	inf := SwitchRange(model.Range{PriceMin: 3, PriceMax: 9, InfiniteRange: true})
	assert.Equal(t, 0.0, inf.PriceMin)
	assert.True(t, math.IsInf(inf.PriceMax, 1))

	// an unguarded zero bound inverts into an unbounded maximum
	open := SwitchRange(model.Range{PriceMin: 0, PriceMax: 2})
	assert.Equal(t, 0.5, open.PriceMin)
	assert.True(t, math.IsInf(open.PriceMax, 1))
}

func TestRangeTicks(t *testing.T) {
	lower, upper := RangeTicks(model.Range{PriceMin: 0.5, PriceMax: 2}, 18, 18, 60)
	assert.Equal(t, int32(-6960), lower)
	assert.Equal(t, int32(6900), upper)

	lower, upper = RangeTicks(model.Range{InfiniteRange: true}, 18, 18, 60)
	assert.Equal(t, int32(-887220), lower)
	assert.Equal(t, int32(887220), upper)

	lower, upper = RangeTicks(model.Range{PriceMin: 1, PriceMax: 1.00001}, 18, 18, 60)
	assert.Equal(t, lower+60, upper)
}
