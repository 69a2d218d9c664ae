package model

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// Token captures ERC20 metadata and a USD price.
type Token struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol"`
	Decimals uint8   `json:"decimals"`
	PriceUSD float64 `json:"price_usd"`
}

// Human converts a raw token amount into token units.
func (t Token) Human(raw *uint256.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw.ToBig(), -int32(t.Decimals))
}

// USD values a human amount at the token's price.
func (t Token) USD(amount decimal.Decimal) float64 {
	f, _ := amount.Float64()
	return f * t.PriceUSD
}
