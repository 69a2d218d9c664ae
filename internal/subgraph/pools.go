package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"lpScope/internal/model"
)

func ethPrice(bundle *wireBundle) (decimal.Decimal, error) {
	if bundle == nil {
		return decimal.Zero, fmt.Errorf("bundle: %w", ErrNotFound)
	}
	return parseDecimal("ethPriceUSD", bundle.EthPriceUSD)
}

// PoolDays returns the pool's daily snapshots dated on or after from. Days
// without a recorded tick are skipped.
func (c *Client) PoolDays(ctx context.Context, pool string, from time.Time) ([]model.PoolSnapshot, error) {
	pool = strings.ToLower(pool)
	var out []model.PoolSnapshot
	for skip := 0; ; skip += pageSize {
		var resp struct {
			PoolDayDatas []wirePoolDay `json:"poolDayDatas"`
		}
		vars := map[string]interface{}{"pool": pool, "from": from.Unix(), "first": pageSize, "skip": skip}
		if err := c.query(ctx, c.opts.URL, poolDaysQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("pool %s days: %w", pool, err)
		}
		for _, w := range resp.PoolDayDatas {
			if w.Tick == nil {
				c.logger.Debug("pool day without tick", zap.String("pool", pool), zap.Int64("date", w.Date))
				continue
			}
			day, err := parsePoolDay(w)
			if err != nil {
				return nil, fmt.Errorf("pool %s day %d: %w", pool, w.Date, err)
			}
			out = append(out, day)
		}
		if len(resp.PoolDayDatas) < pageSize {
			break
		}
	}
	if err := model.ValidatePoolSnapshots(out); err != nil {
		return nil, err
	}
	return out, nil
}

// TickHistory returns the daily snapshots of one tick dated on or after
// from, plus the closest snapshot before from.
func (c *Client) TickHistory(ctx context.Context, pool string, tick int32, from time.Time) (model.TickHistory, error) {
	id := TickID(pool, tick)
	var out model.TickHistory
	for skip := 0; ; skip += pageSize {
		var resp struct {
			Entries []wireTickDay `json:"entries"`
			Before  []wireTickDay `json:"before"`
		}
		vars := map[string]interface{}{"tick": id, "from": from.Unix(), "first": pageSize, "skip": skip}
		if err := c.query(ctx, c.opts.URL, tickDaysQuery, vars, &resp); err != nil {
			return model.TickHistory{}, fmt.Errorf("tick %s days: %w", id, err)
		}
		if skip == 0 && len(resp.Before) > 0 {
			before, err := parseTickDay(tick, resp.Before[0])
			if err != nil {
				return model.TickHistory{}, fmt.Errorf("tick %s: %w", id, err)
			}
			out.Before = &before
		}
		for _, w := range resp.Entries {
			entry, err := parseTickDay(tick, w)
			if err != nil {
				return model.TickHistory{}, fmt.Errorf("tick %s day %d: %w", id, w.Date, err)
			}
			out.Entries = append(out.Entries, entry)
		}
		if len(resp.Entries) < pageSize {
			break
		}
	}
	if err := model.ValidateTickHistory(out); err != nil {
		return model.TickHistory{}, fmt.Errorf("tick %s: %w", id, err)
	}
	return out, nil
}

// PoolState returns the pool and tick-pair fee-growth state at block, or the
// latest state when block is zero.
func (c *Client) PoolState(ctx context.Context, pool string, tickLower, tickUpper int32, block uint64) (model.PoolState, error) {
	pool = strings.ToLower(pool)
	vars := map[string]interface{}{
		"pool":  pool,
		"lower": TickID(pool, tickLower),
		"upper": TickID(pool, tickUpper),
		"block": nil,
	}
	if block > 0 {
		vars["block"] = map[string]interface{}{"number": block}
	}

	var resp struct {
		Pool  *wirePool `json:"pool"`
		Lower *wireTick `json:"lower"`
		Upper *wireTick `json:"upper"`
	}
	if err := c.query(ctx, c.opts.URL, poolStateQuery, vars, &resp); err != nil {
		return model.PoolState{}, fmt.Errorf("pool %s state: %w", pool, err)
	}
	if resp.Pool == nil {
		return model.PoolState{}, fmt.Errorf("pool %s: %w", pool, ErrNotFound)
	}
	resp.Pool.ID = pool

	state, err := parsePoolState(*resp.Pool, block)
	if err != nil {
		return model.PoolState{}, err
	}
	// an uninitialized tick has never been crossed and has no entity
	state.TickLower, err = tickOrEmpty(resp.Lower, tickLower)
	if err != nil {
		return model.PoolState{}, err
	}
	state.TickUpper, err = tickOrEmpty(resp.Upper, tickUpper)
	if err != nil {
		return model.PoolState{}, err
	}
	return state, nil
}

func tickOrEmpty(w *wireTick, index int32) (model.Tick, error) {
	if w == nil {
		return model.Tick{Index: index, FeeGrowthOutside0: zero(), FeeGrowthOutside1: zero()}, nil
	}
	return parseTick(*w)
}

// PoolTokens returns the pool's tokens priced in USD through the ETH bundle.
func (c *Client) PoolTokens(ctx context.Context, pool string) ([2]model.Token, error) {
	var out [2]model.Token
	resp, err := c.poolTokens(ctx, pool)
	if err != nil {
		return out, err
	}
	eth, err := ethPrice(resp.Bundle)
	if err != nil {
		return out, err
	}
	if out[0], err = parseToken(resp.Pool.Token0, eth); err != nil {
		return out, err
	}
	if out[1], err = parseToken(resp.Pool.Token1, eth); err != nil {
		return out, err
	}
	return out, nil
}

// TickSpacing derives the pool's tick spacing from its fee tier.
func (c *Client) TickSpacing(ctx context.Context, pool string) (int32, error) {
	resp, err := c.poolTokens(ctx, pool)
	if err != nil {
		return 0, err
	}
	fee, err := strconv.ParseUint(strings.TrimSpace(resp.Pool.FeeTier), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("feeTier: %w", err)
	}
	return TickSpacingForFee(uint32(fee))
}

type poolTokensResponse struct {
	Pool *struct {
		FeeTier string    `json:"feeTier"`
		Token0  wireToken `json:"token0"`
		Token1  wireToken `json:"token1"`
	} `json:"pool"`
	Bundle *wireBundle `json:"bundle"`
}

func (c *Client) poolTokens(ctx context.Context, pool string) (poolTokensResponse, error) {
	pool = strings.ToLower(pool)
	var resp poolTokensResponse
	if err := c.query(ctx, c.opts.URL, poolTokensQuery, map[string]interface{}{"pool": pool}, &resp); err != nil {
		return resp, fmt.Errorf("pool %s tokens: %w", pool, err)
	}
	if resp.Pool == nil {
		return resp, fmt.Errorf("pool %s: %w", pool, ErrNotFound)
	}
	return resp, nil
}
