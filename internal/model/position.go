package model

import (
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// PositionSnapshot is emitted whenever a position's liquidity or fee
// collection state changes. Liquidity stays active until the next snapshot.
type PositionSnapshot struct {
	Timestamp            time.Time
	Liquidity            *uint256.Int
	DepositedToken0      decimal.Decimal
	DepositedToken1      decimal.Decimal
	WithdrawnToken0      decimal.Decimal
	WithdrawnToken1      decimal.Decimal
	CollectedFeesToken0  decimal.Decimal
	CollectedFeesToken1  decimal.Decimal
	FeeGrowthInside0Last *uint256.Int
	FeeGrowthInside1Last *uint256.Int
}

// PositionInfo is the current state of a position and its pool.
type PositionInfo struct {
	ID        string
	Owner     string
	PoolID    string
	FeeTier   uint32
	Token0    Token
	Token1    Token
	Liquidity *uint256.Int
	CreatedAt time.Time
	Pool      PoolState
}

// ValidatePositionSnapshots checks that snapshots are ascending by timestamp.
func ValidatePositionSnapshots(snaps []PositionSnapshot) error {
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Timestamp.Before(snaps[i-1].Timestamp) {
			return fmt.Errorf("%w: position snapshot %d", ErrUnordered, i)
		}
	}
	return nil
}

// PositionOverview summarizes a position since its last user action.
type PositionOverview struct {
	PositionID     string          `json:"position_id"`
	PoolID         string          `json:"pool_id"`
	Token0         string          `json:"token0"`
	Token1         string          `json:"token1"`
	InRange        bool            `json:"in_range"`
	Liquidity      string          `json:"liquidity"`
	Deposited0     decimal.Decimal `json:"deposited0"`
	Deposited1     decimal.Decimal `json:"deposited1"`
	Withdrawn0     decimal.Decimal `json:"withdrawn0"`
	Withdrawn1     decimal.Decimal `json:"withdrawn1"`
	Collected0     decimal.Decimal `json:"collected0"`
	Collected1     decimal.Decimal `json:"collected1"`
	Uncollected0   decimal.Decimal `json:"uncollected0"`
	Uncollected1   decimal.Decimal `json:"uncollected1"`
	UncollectedUSD float64         `json:"uncollected_usd"`
	LastActionAt   time.Time       `json:"last_action_at"`
}
