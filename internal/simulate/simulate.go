package simulate

import (
	"errors"
	"fmt"
	"math"

	"lpScope/internal/model"
	"lpScope/internal/tickmath"
)

var (
	ErrInvalidRange = errors.New("invalid price range")
	ErrInvalidPrice = errors.New("token prices must be positive and finite")
)

// Input describes one simulation. Prices are USD prices of token0 and
// token1; PriceMin and PriceMax bound the token0/token1 price ratio.
type Input struct {
	CurrentPrices   [2]float64
	SimulatedPrices [2]float64
	PriceMin        float64
	PriceMax        float64
	InvestmentUSD   float64
	Infinite        bool
}

type bounds struct {
	min, max float64
	infinite bool
}

func newBounds(min, max float64, infinite bool) (bounds, error) {
	if infinite {
		return bounds{min: 0, max: math.Inf(1), infinite: true}, nil
	}
	if !(min > 0) || !(max > min) || math.IsInf(max, 1) {
		return bounds{}, fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, min, max)
	}
	return bounds{min: min, max: max}, nil
}

// reserves returns the position's token amounts at ratio for the pool
// constant k. Outside the range the position holds a single token.
func (b bounds) reserves(k, ratio float64) [2]float64 {
	if b.infinite {
		return [2]float64{math.Sqrt(k / ratio), math.Sqrt(k * ratio)}
	}
	width := 1 - math.Sqrt(b.min/b.max)
	switch {
	case ratio > b.max:
		return [2]float64{0, math.Sqrt(k*b.max) * width}
	case ratio < b.min:
		return [2]float64{math.Sqrt(k/b.min) * width, 0}
	}
	return [2]float64{
		math.Sqrt(k/ratio) - math.Sqrt(k/b.max),
		math.Sqrt(k*ratio) - math.Sqrt(k*b.min),
	}
}

func validPrices(p [2]float64) bool {
	for _, v := range p {
		if !(v > 0) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Simulate computes the range-clipped reserves at the current and simulated
// prices and the impermanent loss between them. Infinite mode is the plain
// constant-product pool. Non-finite figures are left in the result and
// reported by its Available method.
func Simulate(in Input) (model.SimulationResult, error) {
	if !validPrices(in.CurrentPrices) || !validPrices(in.SimulatedPrices) {
		return model.SimulationResult{}, ErrInvalidPrice
	}
	b, err := newBounds(in.PriceMin, in.PriceMax, in.Infinite)
	if err != nil {
		return model.SimulationResult{}, err
	}

	currentRatio := in.CurrentPrices[0] / in.CurrentPrices[1]
	simulatedRatio := in.SimulatedPrices[0] / in.SimulatedPrices[1]

	half := in.InvestmentUSD / 2
	k := (half / in.CurrentPrices[0]) * (half / in.CurrentPrices[1])

	current := b.reserves(k, currentRatio)
	simulated := b.reserves(k, simulatedRatio)

	hold := current[0]*in.SimulatedPrices[0] + current[1]*in.SimulatedPrices[1]
	pool := simulated[0]*in.SimulatedPrices[0] + simulated[1]*in.SimulatedPrices[1]

	return model.SimulationResult{
		RealReservesCurrent:   current,
		RealReservesSimulated: simulated,
		ILAbsolute:            hold - pool,
		ILRelative:            1 - pool/hold,
	}, nil
}

// CapitalEfficiency returns 1 / (1 - (min/max)^(1/4)): the liquidity density
// of the range relative to a full-range position.
func CapitalEfficiency(priceMin, priceMax float64) float64 {
	return 1 / (1 - math.Pow(priceMin/priceMax, 0.25))
}

// InvestmentIncreaseCoefficient is the ratio of virtual to range-clipped
// exposure at the current price ratio. Inside the range it is measured on
// token0; out of range on the single token the position holds.
func InvestmentIncreaseCoefficient(currentRatio, priceMin, priceMax float64) (float64, error) {
	b, err := newBounds(priceMin, priceMax, false)
	if err != nil {
		return 0, err
	}
	width := 1 - math.Sqrt(b.min/b.max)
	switch {
	case currentRatio >= b.max:
		return math.Sqrt(currentRatio/b.max) / width, nil
	case currentRatio < b.min:
		return math.Sqrt(b.min/currentRatio) / width, nil
	}
	return 1 / (1 - math.Sqrt(currentRatio/b.max)), nil
}

// SwitchRange re-expresses r against the other token: the ratio bounds are
// inverted and swapped. 1/0 and 1/Inf map onto each other, so an infinite
// range stays [0, Inf).
func SwitchRange(r model.Range) model.Range {
	out := r
	if r.InfiniteRange {
		out.PriceMin, out.PriceMax = 0, math.Inf(1)
		return out
	}
	out.PriceMin, out.PriceMax = 1/r.PriceMax, 1/r.PriceMin
	return out
}

// RangeTicks converts r into pool ticks aligned to spacing. Ratios are in
// token units; decimals adjust them to the pool's raw price.
func RangeTicks(r model.Range, decimals0, decimals1 uint8, spacing int32) (int32, int32) {
	if spacing <= 0 {
		spacing = 1
	}
	if r.InfiniteRange {
		top := tickmath.Floor(tickmath.MaxTick, spacing)
		return -top, top
	}
	lower := tickmath.Floor(tickmath.PriceToTick(r.PriceMin, decimals0, decimals1), spacing)
	upper := tickmath.Floor(tickmath.PriceToTick(r.PriceMax, decimals0, decimals1), spacing)
	if upper <= lower {
		upper = lower + spacing
	}
	return lower, upper
}
