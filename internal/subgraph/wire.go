package subgraph

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"lpScope/internal/fixedpoint"
	"lpScope/internal/model"
)

type wireToken struct {
	ID         string `json:"id"`
	Symbol     string `json:"symbol"`
	Decimals   string `json:"decimals"`
	DerivedETH string `json:"derivedETH"`
}

type wireTick struct {
	TickIdx               string `json:"tickIdx"`
	FeeGrowthOutside0X128 string `json:"feeGrowthOutside0X128"`
	FeeGrowthOutside1X128 string `json:"feeGrowthOutside1X128"`
}

type wirePool struct {
	ID                   string  `json:"id"`
	FeeTier              string  `json:"feeTier"`
	Tick                 *string `json:"tick"`
	SqrtPrice            string  `json:"sqrtPrice"`
	FeeGrowthGlobal0X128 string  `json:"feeGrowthGlobal0X128"`
	FeeGrowthGlobal1X128 string  `json:"feeGrowthGlobal1X128"`
}

type wireBundle struct {
	EthPriceUSD string `json:"ethPriceUSD"`
}

type wirePosition struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Liquidity   string    `json:"liquidity"`
	Pool        wirePool  `json:"pool"`
	Token0      wireToken `json:"token0"`
	Token1      wireToken `json:"token1"`
	TickLower   wireTick  `json:"tickLower"`
	TickUpper   wireTick  `json:"tickUpper"`
	Transaction struct {
		Timestamp string `json:"timestamp"`
	} `json:"transaction"`
}

type wireSnapshot struct {
	Timestamp                string `json:"timestamp"`
	Liquidity                string `json:"liquidity"`
	DepositedToken0          string `json:"depositedToken0"`
	DepositedToken1          string `json:"depositedToken1"`
	WithdrawnToken0          string `json:"withdrawnToken0"`
	WithdrawnToken1          string `json:"withdrawnToken1"`
	CollectedFeesToken0      string `json:"collectedFeesToken0"`
	CollectedFeesToken1      string `json:"collectedFeesToken1"`
	FeeGrowthInside0LastX128 string `json:"feeGrowthInside0LastX128"`
	FeeGrowthInside1LastX128 string `json:"feeGrowthInside1LastX128"`
}

type wirePoolDay struct {
	Date                 int64   `json:"date"`
	Tick                 *string `json:"tick"`
	FeeGrowthGlobal0X128 string  `json:"feeGrowthGlobal0X128"`
	FeeGrowthGlobal1X128 string  `json:"feeGrowthGlobal1X128"`
}

type wireTickDay struct {
	Date                  int64  `json:"date"`
	FeeGrowthOutside0X128 string `json:"feeGrowthOutside0X128"`
	FeeGrowthOutside1X128 string `json:"feeGrowthOutside1X128"`
}

type wireBlock struct {
	Number    string `json:"number"`
	Timestamp string `json:"timestamp"`
}

func parseInt32(field, s string) (int32, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return int32(v), nil
}

func parseUnix(field, s string) (time.Time, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", field, err)
	}
	return time.Unix(v, 0).UTC(), nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func parseFixed(field, s string) (*uint256.Int, error) {
	v, err := fixedpoint.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}

func parseToken(w wireToken, ethPriceUSD decimal.Decimal) (model.Token, error) {
	decimals, err := strconv.ParseUint(strings.TrimSpace(w.Decimals), 10, 8)
	if err != nil {
		return model.Token{}, fmt.Errorf("token %s decimals: %w", w.ID, err)
	}
	derived, err := parseDecimal("derivedETH", w.DerivedETH)
	if err != nil {
		return model.Token{}, fmt.Errorf("token %s: %w", w.ID, err)
	}
	price, _ := derived.Mul(ethPriceUSD).Float64()
	return model.Token{
		Address:  w.ID,
		Symbol:   w.Symbol,
		Decimals: uint8(decimals),
		PriceUSD: price,
	}, nil
}

func parseTick(w wireTick) (model.Tick, error) {
	idx, err := parseInt32("tickIdx", w.TickIdx)
	if err != nil {
		return model.Tick{}, err
	}
	out0, err := parseFixed("feeGrowthOutside0X128", w.FeeGrowthOutside0X128)
	if err != nil {
		return model.Tick{}, fmt.Errorf("tick %d: %w", idx, err)
	}
	out1, err := parseFixed("feeGrowthOutside1X128", w.FeeGrowthOutside1X128)
	if err != nil {
		return model.Tick{}, fmt.Errorf("tick %d: %w", idx, err)
	}
	return model.Tick{Index: idx, FeeGrowthOutside0: out0, FeeGrowthOutside1: out1}, nil
}

func parseTickDay(index int32, w wireTickDay) (model.TickSnapshot, error) {
	out0, err := parseFixed("feeGrowthOutside0X128", w.FeeGrowthOutside0X128)
	if err != nil {
		return model.TickSnapshot{}, err
	}
	out1, err := parseFixed("feeGrowthOutside1X128", w.FeeGrowthOutside1X128)
	if err != nil {
		return model.TickSnapshot{}, err
	}
	return model.TickSnapshot{
		Date: time.Unix(w.Date, 0).UTC(),
		Tick: model.Tick{Index: index, FeeGrowthOutside0: out0, FeeGrowthOutside1: out1},
	}, nil
}

// parsePoolState fills the pool-level fields of a state. Tick pairs are set
// by the caller.
func parsePoolState(w wirePool, block uint64) (model.PoolState, error) {
	if w.Tick == nil {
		return model.PoolState{}, fmt.Errorf("pool %s has no current tick", w.ID)
	}
	tick, err := parseInt32("tick", *w.Tick)
	if err != nil {
		return model.PoolState{}, err
	}
	sqrt, err := parseFixed("sqrtPrice", w.SqrtPrice)
	if err != nil {
		return model.PoolState{}, err
	}
	g0, err := parseFixed("feeGrowthGlobal0X128", w.FeeGrowthGlobal0X128)
	if err != nil {
		return model.PoolState{}, err
	}
	g1, err := parseFixed("feeGrowthGlobal1X128", w.FeeGrowthGlobal1X128)
	if err != nil {
		return model.PoolState{}, err
	}
	return model.PoolState{
		Block:            block,
		CurrentTick:      tick,
		SqrtPriceX96:     sqrt,
		FeeGrowthGlobal0: g0,
		FeeGrowthGlobal1: g1,
	}, nil
}

func parseSnapshot(w wireSnapshot) (model.PositionSnapshot, error) {
	var (
		out model.PositionSnapshot
		err error
	)
	if out.Timestamp, err = parseUnix("timestamp", w.Timestamp); err != nil {
		return out, err
	}
	if out.Liquidity, err = parseFixed("liquidity", w.Liquidity); err != nil {
		return out, err
	}
	if !fixedpoint.FitsUint128(out.Liquidity) {
		return out, fmt.Errorf("liquidity exceeds uint128: %s", w.Liquidity)
	}
	decimals := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"depositedToken0", w.DepositedToken0, &out.DepositedToken0},
		{"depositedToken1", w.DepositedToken1, &out.DepositedToken1},
		{"withdrawnToken0", w.WithdrawnToken0, &out.WithdrawnToken0},
		{"withdrawnToken1", w.WithdrawnToken1, &out.WithdrawnToken1},
		{"collectedFeesToken0", w.CollectedFeesToken0, &out.CollectedFeesToken0},
		{"collectedFeesToken1", w.CollectedFeesToken1, &out.CollectedFeesToken1},
	}
	for _, d := range decimals {
		if *d.dst, err = parseDecimal(d.name, d.raw); err != nil {
			return out, err
		}
	}
	if out.FeeGrowthInside0Last, err = parseFixed("feeGrowthInside0LastX128", w.FeeGrowthInside0LastX128); err != nil {
		return out, err
	}
	if out.FeeGrowthInside1Last, err = parseFixed("feeGrowthInside1LastX128", w.FeeGrowthInside1LastX128); err != nil {
		return out, err
	}
	return out, nil
}

func parsePoolDay(w wirePoolDay) (model.PoolSnapshot, error) {
	tick, err := parseInt32("tick", *w.Tick)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	g0, err := parseFixed("feeGrowthGlobal0X128", w.FeeGrowthGlobal0X128)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	g1, err := parseFixed("feeGrowthGlobal1X128", w.FeeGrowthGlobal1X128)
	if err != nil {
		return model.PoolSnapshot{}, err
	}
	return model.PoolSnapshot{
		Date:             time.Unix(w.Date, 0).UTC(),
		CurrentTick:      tick,
		FeeGrowthGlobal0: g0,
		FeeGrowthGlobal1: g1,
	}, nil
}

// TickID is the subgraph id of a tick entity.
func TickID(pool string, index int32) string {
	return fmt.Sprintf("%s#%d", strings.ToLower(pool), index)
}

var tickSpacings = map[uint32]int32{100: 1, 500: 10, 3000: 60, 10000: 200}

// TickSpacingForFee returns the tick spacing the factory assigns to a fee
// tier.
func TickSpacingForFee(fee uint32) (int32, error) {
	spacing, ok := tickSpacings[fee]
	if !ok {
		return 0, fmt.Errorf("unknown fee tier %d", fee)
	}
	return spacing, nil
}

func zero() *uint256.Int {
	return new(uint256.Int)
}
