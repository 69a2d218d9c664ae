package subgraph

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// BlockNumberAt returns the last block at or before at from the blocks
// subgraph.
func (c *Client) BlockNumberAt(ctx context.Context, at time.Time) (uint64, error) {
	if c.opts.BlocksURL == "" {
		return 0, errors.New("blocks subgraph url is not configured")
	}
	var resp struct {
		Blocks []wireBlock `json:"blocks"`
	}
	vars := map[string]interface{}{"ts": strconv.FormatInt(at.Unix(), 10)}
	if err := c.query(ctx, c.opts.BlocksURL, blockQuery, vars, &resp); err != nil {
		return 0, fmt.Errorf("block at %s: %w", at.UTC().Format(time.RFC3339), err)
	}
	if len(resp.Blocks) == 0 {
		return 0, fmt.Errorf("block at %s: %w", at.UTC().Format(time.RFC3339), ErrNotFound)
	}
	n, err := strconv.ParseUint(resp.Blocks[0].Number, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", err)
	}
	return n, nil
}
