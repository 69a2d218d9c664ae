package liquidity

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"lpScope/internal/fixedpoint"
)

// ErrTooLarge is returned when a liquidity value does not fit in 128 bits.
var ErrTooLarge = errors.New("liquidity exceeds uint128")

func sorted(a, b *uint256.Int) (*uint256.Int, *uint256.Int) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// ForAmount0 returns the liquidity received for amount0 between two sqrt prices.
func ForAmount0(sqrtA, sqrtB, amount0 *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = sorted(sqrtA, sqrtB)
	intermediate, err := fixedpoint.MulDivFloor(sqrtA, sqrtB, fixedpoint.Q96)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDivFloor(amount0, intermediate, new(uint256.Int).Sub(sqrtB, sqrtA))
}

// ForAmount1 returns the liquidity received for amount1 between two sqrt prices.
func ForAmount1(sqrtA, sqrtB, amount1 *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = sorted(sqrtA, sqrtB)
	return fixedpoint.MulDivFloor(amount1, fixedpoint.Q96, new(uint256.Int).Sub(sqrtB, sqrtA))
}

// ForAmounts returns the maximum liquidity supportable by amount0 and amount1
// at the current sqrt price for the range [sqrtA, sqrtB].
func ForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1 *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = sorted(sqrtA, sqrtB)
	if sqrtA.Eq(sqrtB) {
		return nil, fmt.Errorf("empty range: %w", fixedpoint.ErrDivisionByZero)
	}

	var (
		out *uint256.Int
		err error
	)
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		out, err = ForAmount0(sqrtA, sqrtB, amount0)
	case sqrtPrice.Cmp(sqrtB) < 0:
		l0, err0 := ForAmount0(sqrtPrice, sqrtB, amount0)
		if err0 != nil {
			return nil, err0
		}
		l1, err1 := ForAmount1(sqrtA, sqrtPrice, amount1)
		if err1 != nil {
			return nil, err1
		}
		out = l0
		if l1.Lt(l0) {
			out = l1
		}
	default:
		out, err = ForAmount1(sqrtA, sqrtB, amount1)
	}
	if err != nil {
		return nil, err
	}
	if !fixedpoint.FitsUint128(out) {
		return nil, ErrTooLarge
	}
	return out, nil
}

// Amount0 returns the token0 amount held by liquidity between two sqrt prices.
func Amount0(sqrtA, sqrtB, liquidity *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = sorted(sqrtA, sqrtB)
	if sqrtA.IsZero() {
		return nil, fixedpoint.ErrDivisionByZero
	}
	num := new(uint256.Int).Lsh(liquidity, 96)
	scaled, err := fixedpoint.MulDivFloor(num, new(uint256.Int).Sub(sqrtB, sqrtA), sqrtB)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(scaled, sqrtA), nil
}

// Amount1 returns the token1 amount held by liquidity between two sqrt prices.
func Amount1(sqrtA, sqrtB, liquidity *uint256.Int) (*uint256.Int, error) {
	sqrtA, sqrtB = sorted(sqrtA, sqrtB)
	return fixedpoint.MulDivFloor(liquidity, new(uint256.Int).Sub(sqrtB, sqrtA), fixedpoint.Q96)
}

// Amounts returns the token amounts held by liquidity at the current price.
func Amounts(sqrtPrice, sqrtA, sqrtB, liquidity *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	sqrtA, sqrtB = sorted(sqrtA, sqrtB)
	switch {
	case sqrtPrice.Cmp(sqrtA) <= 0:
		a0, err := Amount0(sqrtA, sqrtB, liquidity)
		return a0, new(uint256.Int), err
	case sqrtPrice.Cmp(sqrtB) < 0:
		a0, err := Amount0(sqrtPrice, sqrtB, liquidity)
		if err != nil {
			return nil, nil, err
		}
		a1, err := Amount1(sqrtA, sqrtPrice, liquidity)
		if err != nil {
			return nil, nil, err
		}
		return a0, a1, nil
	default:
		a1, err := Amount1(sqrtA, sqrtB, liquidity)
		return new(uint256.Int), a1, err
	}
}
