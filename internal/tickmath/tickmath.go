package tickmath

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

const (
	MinTick int32 = -887272 // The minimum tick that can be used on any pool.
	MaxTick int32 = -MinTick
)

var (
	MinSqrtRatio = uint256.NewInt(4295128739)
	MaxSqrtRatio = uint256.MustFromHex("0xfffd8963efd1fc6a506488495d951d5263988d26")

	maxUint256 = new(uint256.Int).SetAllOne()
	q32        = uint256.NewInt(1 << 32)

	// sqrt(1.0001)^-(2^i) as Q128.128, for bit i of |tick| starting at bit 1.
	magic = []*uint256.Int{
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
	}
	ratioOdd  = uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001")
	ratioEven = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
)

// SqrtRatioAtTick returns sqrt(1.0001^tick) as a Q64.96 value, rounded up
// exactly like the pool contract.
func SqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	absTick := int64(tick)
	if absTick < 0 {
		absTick = -absTick
	}
	if absTick > int64(MaxTick) {
		return nil, fmt.Errorf("tick out of range: %d", tick)
	}

	ratio := new(uint256.Int)
	if absTick&0x1 != 0 {
		ratio.Set(ratioOdd)
	} else {
		ratio.Set(ratioEven)
	}
	for i, m := range magic {
		if absTick&(int64(2)<<i) != 0 {
			ratio.Mul(ratio, m)
			ratio.Rsh(ratio, 128)
		}
	}
	if tick > 0 {
		ratio.Div(maxUint256, ratio)
	}

	out := new(uint256.Int).Rsh(ratio, 32)
	if !new(uint256.Int).Mod(ratio, q32).IsZero() {
		out.AddUint64(out, 1)
	}
	return out, nil
}

// TickToPrice returns the token1-per-token0 price of a tick in token units.
func TickToPrice(tick int32, decimals0, decimals1 uint8) float64 {
	return math.Pow(1.0001, float64(tick)) * math.Pow10(int(decimals0)-int(decimals1))
}

// PriceToTick returns the greatest tick whose price does not exceed price,
// clamped to the valid tick range.
func PriceToTick(price float64, decimals0, decimals1 uint8) int32 {
	if price <= 0 || math.IsNaN(price) {
		return MinTick
	}
	if math.IsInf(price, 1) {
		return MaxTick
	}
	raw := price / math.Pow10(int(decimals0)-int(decimals1))
	tick := math.Floor(math.Log(raw) / math.Log(1.0001))
	if tick < float64(MinTick) {
		return MinTick
	}
	if tick > float64(MaxTick) {
		return MaxTick
	}
	return int32(tick)
}

// Floor rounds tick down to a multiple of spacing.
func Floor(tick, spacing int32) int32 {
	if spacing <= 0 {
		return tick
	}
	q := tick / spacing
	if tick%spacing != 0 && tick < 0 {
		q--
	}
	return q * spacing
}
