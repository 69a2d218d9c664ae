package model

import (
	"encoding/json"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// FeeAmount is the fee attributable to one interval, in raw token units.
type FeeAmount struct {
	Amount0 *uint256.Int
	Amount1 *uint256.Int
}

// MarshalJSON encodes amounts as base-10 strings.
func (f FeeAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount0 string `json:"amount0"`
		Amount1 string `json:"amount1"`
	}{
		Amount0: decimalString(f.Amount0),
		Amount1: decimalString(f.Amount1),
	})
}

func decimalString(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.ToBig().String()
}

// DailyFee is one point of a position's daily fee series, in token units.
// OutlierN is set when the day's value was replaced by the running average.
type DailyFee struct {
	Date     time.Time       `json:"date"`
	Amount0  decimal.Decimal `json:"amount0"`
	Amount1  decimal.Decimal `json:"amount1"`
	Outlier0 bool            `json:"outlier0,omitempty"`
	Outlier1 bool            `json:"outlier1,omitempty"`
}

// FeeEstimate is a projected daily fee income for a hypothetical range.
type FeeEstimate struct {
	PoolID       string    `json:"pool_id"`
	TickLower    int32     `json:"tick_lower"`
	TickUpper    int32     `json:"tick_upper"`
	LiquidityUSD float64   `json:"liquidity_usd"`
	WindowDays   int       `json:"window_days"`
	Liquidity    string    `json:"liquidity"`
	DailyFeeUSD  float64   `json:"daily_fee_usd"`
	ComputedAt   time.Time `json:"computed_at"`
}
