package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
)

// ErrUnordered marks a time series that is not strictly ascending.
var ErrUnordered = errors.New("series not strictly ascending")

// PoolSnapshot is the daily state of a pool.
type PoolSnapshot struct {
	Date             time.Time
	CurrentTick      int32
	FeeGrowthGlobal0 *uint256.Int
	FeeGrowthGlobal1 *uint256.Int
}

// PoolState is the fee-growth state of a pool and one tick pair at a block.
// Block is zero for the latest state.
type PoolState struct {
	Block            uint64
	CurrentTick      int32
	SqrtPriceX96     *uint256.Int
	FeeGrowthGlobal0 *uint256.Int
	FeeGrowthGlobal1 *uint256.Int
	TickLower        Tick
	TickUpper        Tick
}

// ValidatePoolSnapshots checks that dates are strictly increasing.
func ValidatePoolSnapshots(days []PoolSnapshot) error {
	for i := 1; i < len(days); i++ {
		if !days[i].Date.After(days[i-1].Date) {
			return fmt.Errorf("%w: pool day %d (%s) after %s", ErrUnordered, i, days[i].Date.UTC().Format(time.DateOnly), days[i-1].Date.UTC().Format(time.DateOnly))
		}
	}
	return nil
}

// ValidateTickHistory checks that entries are strictly increasing and that
// the fallback entry precedes them.
func ValidateTickHistory(h TickHistory) error {
	for i := 1; i < len(h.Entries); i++ {
		if !h.Entries[i].Date.After(h.Entries[i-1].Date) {
			return fmt.Errorf("%w: tick %d entry %d", ErrUnordered, h.Entries[i].Tick.Index, i)
		}
	}
	if h.Before != nil && len(h.Entries) > 0 && !h.Entries[0].Date.After(h.Before.Date) {
		return fmt.Errorf("%w: tick fallback entry is not before the window", ErrUnordered)
	}
	return nil
}
