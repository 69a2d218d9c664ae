package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Store keeps block numbers by key.
type Store interface {
	Get(ctx context.Context, key string) (uint64, bool, error)
	Set(ctx context.Context, key string, block uint64) error
}

// Resolver maps a timestamp to a block number.
type Resolver interface {
	BlockNumberAt(ctx context.Context, at time.Time) (uint64, error)
}

// Blocks caches timestamp lookups of another resolver. Timestamps are
// truncated to resolution so nearby lookups share an entry. Keys carry a
// namespace so resolvers for different networks can share one store.
type Blocks struct {
	namespace  string
	next       Resolver
	store      Store
	resolution time.Duration
	logger     *zap.Logger
}

// NewBlocks wraps next with a cache in store. namespace identifies the
// network next resolves against; see Namespace. A non-positive resolution
// means one minute.
func NewBlocks(namespace string, next Resolver, store Store, resolution time.Duration, logger *zap.Logger) *Blocks {
	if resolution <= 0 {
		resolution = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Blocks{namespace: namespace, next: next, store: store, resolution: resolution, logger: logger}
}

// Namespace derives a short stable key prefix from a resolver endpoint.
func Namespace(endpoint string) string {
	sum := sha256.Sum256([]byte(strings.TrimRight(strings.TrimSpace(endpoint), "/")))
	return hex.EncodeToString(sum[:6])
}

func blockKey(namespace string, at time.Time) string {
	return "block:" + namespace + ":" + strconv.FormatInt(at.Unix(), 10)
}

// BlockNumberAt returns a cached block when present. Store failures are
// logged and fall through to the wrapped resolver.
func (b *Blocks) BlockNumberAt(ctx context.Context, at time.Time) (uint64, error) {
	at = at.Truncate(b.resolution)
	key := blockKey(b.namespace, at)

	block, ok, err := b.store.Get(ctx, key)
	if err != nil {
		b.logger.Warn("block cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return block, nil
	}

	block, err = b.next.BlockNumberAt(ctx, at)
	if err != nil {
		return 0, err
	}
	if err := b.store.Set(ctx, key, block); err != nil {
		b.logger.Warn("block cache write failed", zap.String("key", key), zap.Error(err))
	}
	return block, nil
}
