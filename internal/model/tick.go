package model

import (
	"time"

	"github.com/holiman/uint256"
)

// Tick is a recorded fee-growth checkpoint on one side of a price boundary.
type Tick struct {
	Index             int32
	FeeGrowthOutside0 *uint256.Int
	FeeGrowthOutside1 *uint256.Int
}

// TickSnapshot is the state of a tick as of the end of a day.
type TickSnapshot struct {
	Date time.Time
	Tick Tick
}

// TickHistory holds ascending daily snapshots of one tick. Before is the
// closest snapshot preceding the first entry, used when a day has no entry yet.
type TickHistory struct {
	Before  *TickSnapshot
	Entries []TickSnapshot
}
