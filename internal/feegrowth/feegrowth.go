package feegrowth

import (
	"errors"

	"github.com/holiman/uint256"

	"lpScope/internal/fixedpoint"
	"lpScope/internal/model"
)

// ErrLiquidityTooLarge is returned for liquidity values outside uint128.
var ErrLiquidityTooLarge = errors.New("liquidity exceeds uint128")

// FeeGrowthInside returns the fee growth per unit of liquidity accumulated
// inside [lower, upper] for both tokens, using the pool's current tick and
// global fee growth. All subtractions wrap modulo 2^256.
func FeeGrowthInside(lower, upper model.Tick, currentTick int32, global0, global1 *uint256.Int) (*uint256.Int, *uint256.Int) {
	inside0 := inside(lower.Index, upper.Index, lower.FeeGrowthOutside0, upper.FeeGrowthOutside0, currentTick, global0)
	inside1 := inside(lower.Index, upper.Index, lower.FeeGrowthOutside1, upper.FeeGrowthOutside1, currentTick, global1)
	return inside0, inside1
}

func inside(lowerIdx, upperIdx int32, lowerOutside, upperOutside *uint256.Int, currentTick int32, global *uint256.Int) *uint256.Int {
	global = fixedpoint.Clone(global)
	lowerOutside = fixedpoint.Clone(lowerOutside)
	upperOutside = fixedpoint.Clone(upperOutside)

	below := lowerOutside
	if currentTick < lowerIdx {
		below = fixedpoint.SubWrapping(global, lowerOutside)
	}

	above := upperOutside
	if currentTick >= upperIdx {
		above = fixedpoint.SubWrapping(global, upperOutside)
	}

	return fixedpoint.SubWrapping(fixedpoint.SubWrapping(global, below), above)
}

// AccruedFees returns the fees earned by liquidity while fee growth inside
// moved from last to current: (current - last) * liquidity / 2^128 per token.
func AccruedFees(inside0, inside1, last0, last1, liquidity *uint256.Int) (model.FeeAmount, error) {
	liquidity = fixedpoint.Clone(liquidity)
	if !fixedpoint.FitsUint128(liquidity) {
		return model.FeeAmount{}, ErrLiquidityTooLarge
	}

	delta0 := fixedpoint.SubWrapping(fixedpoint.Clone(inside0), fixedpoint.Clone(last0))
	delta1 := fixedpoint.SubWrapping(fixedpoint.Clone(inside1), fixedpoint.Clone(last1))

	amount0, err := fixedpoint.MulDivFloor(delta0, liquidity, fixedpoint.Q128)
	if err != nil {
		return model.FeeAmount{}, err
	}
	amount1, err := fixedpoint.MulDivFloor(delta1, liquidity, fixedpoint.Q128)
	if err != nil {
		return model.FeeAmount{}, err
	}
	return model.FeeAmount{Amount0: amount0, Amount1: amount1}, nil
}

// UncollectedFees returns the fees a position earned since its last recorded
// action, given the pool state now.
func UncollectedFees(state model.PoolState, last model.PositionSnapshot) (model.FeeAmount, error) {
	inside0, inside1 := FeeGrowthInside(state.TickLower, state.TickUpper, state.CurrentTick, state.FeeGrowthGlobal0, state.FeeGrowthGlobal1)
	return AccruedFees(inside0, inside1, last.FeeGrowthInside0Last, last.FeeGrowthInside1Last, last.Liquidity)
}

// InRange reports whether the current tick lies inside [lower, upper).
func InRange(state model.PoolState) bool {
	return state.CurrentTick >= state.TickLower.Index && state.CurrentTick < state.TickUpper.Index
}
