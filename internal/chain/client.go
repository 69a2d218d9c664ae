package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Client wraps go-ethereum RPC with a block timestamp cache.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client

	mu      sync.RWMutex
	tsCache map[uint64]uint64
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   make(map[uint64]uint64),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// HeaderByNumber returns the block header by number.
func (c *Client) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return c.ethClient.HeaderByNumber(ctx, number)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.tsCache[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, err
	}

	ts = header.Time
	c.mu.Lock()
	c.tsCache[number] = ts
	c.mu.Unlock()

	return ts, nil
}

// BlockNumberAt returns the last block mined at or before at.
func (c *Client) BlockNumberAt(ctx context.Context, at time.Time) (uint64, error) {
	latest, err := c.LatestBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}
	return SearchBlock(ctx, latest, at, c.BlockTimestamp)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// SearchBlock binary-searches [0, latest] for the greatest block whose
// timestamp is not after at. Timestamps must be non-decreasing.
func SearchBlock(ctx context.Context, latest uint64, at time.Time, timestampOf func(context.Context, uint64) (uint64, error)) (uint64, error) {
	if at.Unix() < 0 {
		return 0, fmt.Errorf("timestamp before epoch: %s", at)
	}
	target := uint64(at.Unix())

	ts, err := timestampOf(ctx, latest)
	if err != nil {
		return 0, err
	}
	if ts <= target {
		return latest, nil
	}
	ts, err = timestampOf(ctx, 0)
	if err != nil {
		return 0, err
	}
	if ts > target {
		return 0, fmt.Errorf("no block at or before %s", at.UTC().Format(time.RFC3339))
	}

	lo, hi := uint64(0), latest
	for hi-lo > 1 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		mid := lo + (hi-lo)/2
		ts, err := timestampOf(ctx, mid)
		if err != nil {
			return 0, fmt.Errorf("block %d: %w", mid, err)
		}
		if ts <= target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, nil
}
