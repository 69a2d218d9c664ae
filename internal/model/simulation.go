package model

import "math"

// Range is a hypothetical position entered for simulation. PriceMin and
// PriceMax are token0/token1 price ratios.
type Range struct {
	ID            string  `json:"id" mapstructure:"id"`
	PriceMin      float64 `json:"price_min" mapstructure:"price_min"`
	PriceMax      float64 `json:"price_max" mapstructure:"price_max"`
	InvestmentUSD float64 `json:"investment_usd" mapstructure:"investment_usd"`
	InfiniteRange bool    `json:"infinite_range" mapstructure:"infinite_range"`
}

// SimulationResult holds the reserves and impermanent loss of a range.
type SimulationResult struct {
	RealReservesCurrent   [2]float64 `json:"real_reserves_current"`
	RealReservesSimulated [2]float64 `json:"real_reserves_simulated"`
	ILAbsolute            float64    `json:"il_absolute"`
	ILRelative            float64    `json:"il_relative"`
}

// Available reports whether every figure is finite.
func (r SimulationResult) Available() bool {
	values := []float64{
		r.RealReservesCurrent[0], r.RealReservesCurrent[1],
		r.RealReservesSimulated[0], r.RealReservesSimulated[1],
		r.ILAbsolute, r.ILRelative,
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
