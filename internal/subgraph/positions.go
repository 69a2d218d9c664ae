package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"lpScope/internal/model"
)

// Position returns the position with its tokens priced in USD and the
// current fee-growth state of its pool and ticks.
func (c *Client) Position(ctx context.Context, id string) (model.PositionInfo, error) {
	var resp struct {
		Position *wirePosition `json:"position"`
		Bundle   *wireBundle   `json:"bundle"`
	}
	if err := c.query(ctx, c.opts.URL, positionQuery, map[string]interface{}{"id": id}, &resp); err != nil {
		return model.PositionInfo{}, fmt.Errorf("position %s: %w", id, err)
	}
	if resp.Position == nil {
		return model.PositionInfo{}, fmt.Errorf("position %s: %w", id, ErrNotFound)
	}
	info, err := parsePosition(*resp.Position, resp.Bundle)
	if err != nil {
		return model.PositionInfo{}, fmt.Errorf("position %s: %w", id, err)
	}
	return info, nil
}

func parsePosition(w wirePosition, bundle *wireBundle) (model.PositionInfo, error) {
	eth, err := ethPrice(bundle)
	if err != nil {
		return model.PositionInfo{}, err
	}
	info := model.PositionInfo{ID: w.ID, Owner: w.Owner, PoolID: w.Pool.ID}

	fee, err := strconv.ParseUint(strings.TrimSpace(w.Pool.FeeTier), 10, 32)
	if err != nil {
		return info, fmt.Errorf("feeTier: %w", err)
	}
	info.FeeTier = uint32(fee)
	if info.Token0, err = parseToken(w.Token0, eth); err != nil {
		return info, err
	}
	if info.Token1, err = parseToken(w.Token1, eth); err != nil {
		return info, err
	}
	if info.Liquidity, err = parseFixed("liquidity", w.Liquidity); err != nil {
		return info, err
	}
	if info.CreatedAt, err = parseUnix("transaction.timestamp", w.Transaction.Timestamp); err != nil {
		return info, err
	}
	if info.Pool, err = parsePoolState(w.Pool, 0); err != nil {
		return info, err
	}
	if info.Pool.TickLower, err = parseTick(w.TickLower); err != nil {
		return info, err
	}
	if info.Pool.TickUpper, err = parseTick(w.TickUpper); err != nil {
		return info, err
	}
	return info, nil
}

// PositionSnapshots returns every snapshot of a position in ascending order.
func (c *Client) PositionSnapshots(ctx context.Context, id string) ([]model.PositionSnapshot, error) {
	var out []model.PositionSnapshot
	for skip := 0; ; skip += pageSize {
		var resp struct {
			PositionSnapshots []wireSnapshot `json:"positionSnapshots"`
		}
		vars := map[string]interface{}{"id": id, "first": pageSize, "skip": skip}
		if err := c.query(ctx, c.opts.URL, positionSnapshotsQuery, vars, &resp); err != nil {
			return nil, fmt.Errorf("position %s snapshots: %w", id, err)
		}
		for i, w := range resp.PositionSnapshots {
			snap, err := parseSnapshot(w)
			if err != nil {
				return nil, fmt.Errorf("position %s snapshot %d: %w", id, skip+i, err)
			}
			out = append(out, snap)
		}
		if len(resp.PositionSnapshots) < pageSize {
			break
		}
	}
	if err := model.ValidatePositionSnapshots(out); err != nil {
		return nil, err
	}
	c.logger.Debug("position snapshots loaded", zap.String("position", id), zap.Int("count", len(out)))
	return out, nil
}
