package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("uint256 overflow")
)

var (
	// Q128 is the scale of fee-growth values (2^128).
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	// Q96 is the scale of sqrt prices (2^96).
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)

	maxUint128 = new(uint256.Int).Sub(Q128, uint256.NewInt(1))
)

// SubWrapping returns (a - b) mod 2^256, mirroring unchecked Solidity subtraction.
func SubWrapping(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(a, b)
}

// Mul returns the exact product of a and b.
func Mul(a, b *uint256.Int) *big.Int {
	return new(big.Int).Mul(a.ToBig(), b.ToBig())
}

// DivFloor returns floor(n / d). The quotient must fit in 256 bits.
func DivFloor(n *big.Int, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative numerator: %s", n)
	}
	q := new(big.Int).Quo(n, d.ToBig())
	out, overflow := uint256.FromBig(q)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// MulDivFloor computes floor(a * b / d) with a 512-bit intermediate.
func MulDivFloor(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	out, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// FitsUint128 reports whether x < 2^128.
func FitsUint128(x *uint256.Int) bool {
	return x.Cmp(maxUint128) <= 0
}

// Parse reads a base-10 unsigned integer as emitted by the subgraph.
func Parse(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer")
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer: %s", s)
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("negative integer: %s", s)
	}
	out, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, s)
	}
	return out, nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) *uint256.Int {
	out, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return out
}

// String formats x in base 10.
func String(x *uint256.Int) string {
	if x == nil {
		return "0"
	}
	return x.ToBig().String()
}

// Clone returns a copy of x, treating nil as zero.
func Clone(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}
