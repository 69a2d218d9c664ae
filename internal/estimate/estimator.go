package estimate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lpScope/internal/feegrowth"
	"lpScope/internal/fixedpoint"
	"lpScope/internal/liquidity"
	"lpScope/internal/model"
	"lpScope/internal/tickmath"
)

// BlockResolver maps a timestamp to the block height at that time.
type BlockResolver interface {
	BlockNumberAt(ctx context.Context, at time.Time) (uint64, error)
}

// StateSource returns the fee-growth state of a pool and a tick pair.
// Block zero means latest.
type StateSource interface {
	PoolState(ctx context.Context, pool string, tickLower, tickUpper int32, block uint64) (model.PoolState, error)
}

// TokenSource returns a pool's tokens with current USD prices.
type TokenSource interface {
	PoolTokens(ctx context.Context, pool string) ([2]model.Token, error)
}

// Request describes a hypothetical position to project fees for.
type Request struct {
	PoolID       string
	LiquidityUSD float64
	TickLower    int32
	TickUpper    int32
	WindowDays   int
}

// Estimator projects daily fee income from the fee growth observed over a
// trailing window.
type Estimator struct {
	blocks BlockResolver
	states StateSource
	tokens TokenSource
	logger *zap.Logger
	now    func() time.Time
	at     time.Time
}

// NewEstimator builds an Estimator over its data sources.
func NewEstimator(blocks BlockResolver, states StateSource, tokens TokenSource, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{
		blocks: blocks,
		states: states,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}
}

// At returns a copy of e whose trailing window ends at t instead of the
// latest block.
func (e *Estimator) At(t time.Time) *Estimator {
	c := *e
	c.at = t
	c.now = func() time.Time { return t }
	return &c
}

// EstimateDailyFeeUSD returns the projected USD fees per day. Inconsistent
// tick ordering yields zero without an error.
func (e *Estimator) EstimateDailyFeeUSD(ctx context.Context, poolID string, liquidityUSD float64, tickLower, tickUpper int32, windowDays int) (float64, error) {
	est, err := e.Estimate(ctx, Request{
		PoolID:       poolID,
		LiquidityUSD: liquidityUSD,
		TickLower:    tickLower,
		TickUpper:    tickUpper,
		WindowDays:   windowDays,
	})
	if err != nil {
		return 0, err
	}
	return est.DailyFeeUSD, nil
}

// Estimate runs the projection and returns it with its inputs.
func (e *Estimator) Estimate(ctx context.Context, req Request) (model.FeeEstimate, error) {
	now := e.now()
	out := model.FeeEstimate{
		PoolID:       req.PoolID,
		TickLower:    req.TickLower,
		TickUpper:    req.TickUpper,
		LiquidityUSD: req.LiquidityUSD,
		WindowDays:   req.WindowDays,
		Liquidity:    "0",
		ComputedAt:   now.UTC(),
	}
	if req.PoolID == "" {
		return out, errors.New("pool id is required")
	}
	if req.WindowDays <= 0 {
		return out, fmt.Errorf("window days must be positive, got %d", req.WindowDays)
	}
	if req.TickLower >= req.TickUpper {
		e.logger.Warn("inverted tick range", zap.String("pool", req.PoolID), zap.Int32("tick_lower", req.TickLower), zap.Int32("tick_upper", req.TickUpper))
		return out, nil
	}

	block, err := e.blocks.BlockNumberAt(ctx, now.Add(-time.Duration(req.WindowDays)*24*time.Hour))
	if err != nil {
		return out, fmt.Errorf("resolve block: %w", err)
	}
	var end uint64
	if !e.at.IsZero() {
		if end, err = e.blocks.BlockNumberAt(ctx, e.at); err != nil {
			return out, fmt.Errorf("resolve end block: %w", err)
		}
	}
	current, err := e.states.PoolState(ctx, req.PoolID, req.TickLower, req.TickUpper, end)
	if err != nil {
		return out, fmt.Errorf("current pool state: %w", err)
	}
	past, err := e.states.PoolState(ctx, req.PoolID, req.TickLower, req.TickUpper, block)
	if err != nil {
		return out, fmt.Errorf("pool state at block %d: %w", block, err)
	}
	for _, s := range []model.PoolState{current, past} {
		if s.TickLower.Index >= s.TickUpper.Index {
			e.logger.Warn("inconsistent tick pair",
				zap.String("pool", req.PoolID),
				zap.Uint64("block", s.Block),
				zap.Int32("tick_lower", s.TickLower.Index),
				zap.Int32("tick_upper", s.TickUpper.Index),
			)
			return out, nil
		}
	}

	tokens, err := e.tokens.PoolTokens(ctx, req.PoolID)
	if err != nil {
		return out, fmt.Errorf("pool tokens: %w", err)
	}

	liq, err := liquidityForUSD(req.LiquidityUSD, current, tokens)
	if err != nil {
		return out, err
	}
	out.Liquidity = fixedpoint.String(liq)

	nowInside0, nowInside1 := feegrowth.FeeGrowthInside(current.TickLower, current.TickUpper, current.CurrentTick, current.FeeGrowthGlobal0, current.FeeGrowthGlobal1)
	thenInside0, thenInside1 := feegrowth.FeeGrowthInside(past.TickLower, past.TickUpper, past.CurrentTick, past.FeeGrowthGlobal0, past.FeeGrowthGlobal1)
	fees, err := feegrowth.AccruedFees(nowInside0, nowInside1, thenInside0, thenInside1, liq)
	if err != nil {
		return out, fmt.Errorf("accrued fees: %w", err)
	}

	usd := tokens[0].USD(tokens[0].Human(fees.Amount0)) + tokens[1].USD(tokens[1].Human(fees.Amount1))
	out.DailyFeeUSD = usd / float64(req.WindowDays)

	e.logger.Debug("fee estimate",
		zap.String("pool", req.PoolID),
		zap.Uint64("from_block", block),
		zap.String("liquidity", out.Liquidity),
		zap.Float64("daily_fee_usd", out.DailyFeeUSD),
	)
	return out, nil
}

// liquidityForUSD splits usd between the tokens by where the current tick
// sits in the range and returns the liquidity those amounts support.
func liquidityForUSD(usd float64, state model.PoolState, tokens [2]model.Token) (*uint256.Int, error) {
	lower, upper := state.TickLower.Index, state.TickUpper.Index
	usd0, usd1 := usd, 0.0
	switch {
	case state.CurrentTick <= lower:
	case state.CurrentTick >= upper:
		usd0, usd1 = 0, usd
	default:
		share1 := float64(state.CurrentTick-lower) / float64(upper-lower)
		usd1 = usd * share1
		usd0 = usd - usd1
	}

	amount0, err := rawAmount(usd0, tokens[0])
	if err != nil {
		return nil, err
	}
	amount1, err := rawAmount(usd1, tokens[1])
	if err != nil {
		return nil, err
	}

	sqrtA, err := tickmath.SqrtRatioAtTick(lower)
	if err != nil {
		return nil, err
	}
	sqrtB, err := tickmath.SqrtRatioAtTick(upper)
	if err != nil {
		return nil, err
	}
	// The side is decided by tick. SqrtPriceX96 can sit just above sqrtA
	// while the tick still equals the lower bound.
	switch {
	case state.CurrentTick <= lower:
		return liquidity.ForAmount0(sqrtA, sqrtB, amount0)
	case state.CurrentTick >= upper:
		return liquidity.ForAmount1(sqrtA, sqrtB, amount1)
	}
	sqrtPrice := state.SqrtPriceX96
	if sqrtPrice == nil || sqrtPrice.IsZero() {
		if sqrtPrice, err = tickmath.SqrtRatioAtTick(state.CurrentTick); err != nil {
			return nil, err
		}
	}
	return liquidity.ForAmounts(sqrtPrice, sqrtA, sqrtB, amount0, amount1)
}

// rawAmount converts a USD value into raw token units, rounding down.
func rawAmount(usd float64, token model.Token) (*uint256.Int, error) {
	if usd <= 0 {
		return new(uint256.Int), nil
	}
	if token.PriceUSD <= 0 {
		return nil, fmt.Errorf("no usd price for token %s", token.Symbol)
	}
	units := decimal.NewFromFloat(usd / token.PriceUSD).Shift(int32(token.Decimals)).Floor()
	out, overflow := uint256.FromBig(units.BigInt())
	if overflow {
		return nil, fmt.Errorf("amount of %s overflows", token.Symbol)
	}
	return out, nil
}
