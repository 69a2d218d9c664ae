package simulate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpScope/internal/model"
)

func TestSessionMutationsAreCopies(t *testing.T) {
	s0, err := NewSession(model.Range{ID: "narrow", PriceMin: 0.9, PriceMax: 1.1, InvestmentUSD: 1000})
	require.NoError(t, err)

	s1, err := s0.Add(model.Range{ID: "full", InfiniteRange: true, InvestmentUSD: 1000})
	require.NoError(t, err)
	assert.Equal(t, 1, s0.Len())
	assert.Equal(t, 2, s1.Len())

	s2, err := s1.Update(model.Range{ID: "narrow", PriceMin: 0.5, PriceMax: 2, InvestmentUSD: 5000})
	require.NoError(t, err)
	assert.Equal(t, 0.9, s1.Ranges()[0].PriceMin)
	assert.Equal(t, 0.5, s2.Ranges()[0].PriceMin)

	s3 := s2.Remove("narrow")
	assert.Equal(t, 2, s2.Len())
	require.Equal(t, 1, s3.Len())
	assert.Equal(t, "full", s3.Ranges()[0].ID)

	got := s3.Ranges()
	got[0].ID = "changed"
	assert.Equal(t, "full", s3.Ranges()[0].ID)
}

func TestSessionErrors(t *testing.T) {
	s, err := NewSession(model.Range{ID: "a", PriceMin: 1, PriceMax: 2})
	require.NoError(t, err)

	_, err = s.Add(model.Range{ID: "a"})
	assert.True(t, errors.Is(err, ErrDuplicateRange))

	_, err = s.Add(model.Range{})
	assert.Error(t, err)

	_, err = s.Update(model.Range{ID: "missing"})
	assert.True(t, errors.Is(err, ErrUnknownRange))

	assert.Equal(t, s, s.Remove("missing"))
}

func TestSessionEvaluate(t *testing.T) {
	s, err := NewSession(
		model.Range{ID: "full", InfiniteRange: true, InvestmentUSD: 1_000_000},
		model.Range{ID: "eth", PriceMin: 1.0 / 2250, PriceMax: 1.0 / 1000, InvestmentUSD: 1_000_000},
		model.Range{ID: "broken", PriceMin: 2, PriceMax: 1, InvestmentUSD: 1},
	)
	require.NoError(t, err)

	market := Market{CurrentPrices: [2]float64{1, 1500}, SimulatedPrices: [2]float64{1, 1500}}
	evals := s.Evaluate(market)
	require.Len(t, evals, 3)

	full := evals[0]
	require.NoError(t, full.Err)
	assert.Equal(t, 1.0, full.CapitalEfficiency)
	assert.Equal(t, 1_000_000.0, full.EffectiveInvestmentUSD)
	assert.InEpsilon(t, 500_000, full.Result.RealReservesCurrent[0], 1e-9)

	eth := evals[1]
	require.NoError(t, eth.Err)
	assert.Greater(t, eth.EffectiveInvestmentUSD, 1_000_000.0)
	assert.Greater(t, eth.CapitalEfficiency, 1.0)
	assert.InEpsilon(t, 500_000, eth.Result.RealReservesCurrent[0], 1e-9)
	assert.Equal(t, eth.Result.RealReservesCurrent, eth.Result.RealReservesSimulated)

	assert.True(t, errors.Is(evals[2].Err, ErrInvalidRange))
}

func TestSessionSwitch(t *testing.T) {
	s, err := NewSession(
		model.Range{ID: "a", PriceMin: 1.0 / 2000, PriceMax: 1.0 / 1000},
		model.Range{ID: "b", InfiniteRange: true},
	)
	require.NoError(t, err)

	switched := s.Switch()
	assert.InDelta(t, 1000, switched.Ranges()[0].PriceMin, 1e-9)
	assert.InDelta(t, 2000, switched.Ranges()[0].PriceMax, 1e-9)
	assert.True(t, math.IsInf(switched.Ranges()[1].PriceMax, 1))
	assert.Equal(t, 1.0/2000, s.Ranges()[0].PriceMin)

	m := Market{CurrentPrices: [2]float64{1, 1500}, SimulatedPrices: [2]float64{1, 1600}}
	assert.Equal(t, [2]float64{1500, 1}, m.Switch().CurrentPrices)
	assert.Equal(t, [2]float64{1600, 1}, m.Switch().SimulatedPrices)
}
