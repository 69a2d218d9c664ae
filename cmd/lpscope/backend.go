package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lpScope/internal/cache"
	"lpScope/internal/chain"
	"lpScope/internal/config"
	"lpScope/internal/dex"
	"lpScope/internal/estimate"
	"lpScope/internal/model"
	"lpScope/internal/storage"
	"lpScope/internal/storage/postgres"
	"lpScope/internal/subgraph"
)

// spacingSource returns a pool's tick spacing.
type spacingSource interface {
	TickSpacing(ctx context.Context, pool string) (int32, error)
}

// backend holds the data sources a command reads from. In rpc mode pool
// state, token metadata and tick spacing come from the chain and only USD
// prices from the subgraph.
type backend struct {
	graph   *subgraph.Client
	chain   *chain.Client
	reader  *dex.PoolReader
	redis   *cache.Redis
	blocks  estimate.BlockResolver
	states  estimate.StateSource
	tokens  estimate.TokenSource
	spacing spacingSource
}

func openBackend(ctx context.Context, src config.Sources, logger *zap.Logger) (*backend, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	b := &backend{}
	graph, err := subgraph.NewClient(subgraph.Options{
		URL:          src.SubgraphURL,
		BlocksURL:    src.BlocksURL,
		Timeout:      src.Timeout,
		MaxRetries:   src.MaxRetries,
		RetryBackoff: src.RetryBackoff,
	}, logger)
	if err != nil {
		return nil, err
	}
	b.graph = graph
	b.states = graph
	b.tokens = graph
	b.spacing = graph

	if src.RPCURL != "" {
		b.chain, err = chain.NewClient(ctx, src.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
	}
	if src.Source == "rpc" {
		b.reader = dex.NewPoolReader(b.chain, logger)
		b.states = b.reader
		b.tokens = pricedTokens{onchain: b.reader, prices: graph}
		b.spacing = b.reader
	}

	var resolver cache.Resolver = graph
	namespace := cache.Namespace(src.BlocksURL)
	if src.BlocksURL == "" {
		resolver = b.chain
		namespace = cache.Namespace(src.RPCURL)
	}

	var store cache.Store = cache.NewMemory()
	if src.RedisAddr != "" {
		b.redis, err = cache.NewRedis(ctx, src.RedisAddr, src.RedisPassword, src.RedisDB, src.CacheTTL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		store = b.redis
	}
	b.blocks = cache.NewBlocks(namespace, resolver, store, time.Minute, logger)

	logger.Debug("backend ready",
		zap.String("source", src.Source),
		zap.Bool("rpc", b.chain != nil),
		zap.Bool("redis", b.redis != nil),
		zap.Bool("blocks_subgraph", src.BlocksURL != ""),
	)
	return b, nil
}

// pricedTokens reads token metadata from one source and USD prices from
// another, matching tokens by address.
type pricedTokens struct {
	onchain estimate.TokenSource
	prices  estimate.TokenSource
}

func (p pricedTokens) PoolTokens(ctx context.Context, pool string) ([2]model.Token, error) {
	tokens, err := p.onchain.PoolTokens(ctx, pool)
	if err != nil {
		return tokens, err
	}
	priced, err := p.prices.PoolTokens(ctx, pool)
	if err != nil {
		return tokens, fmt.Errorf("token prices: %w", err)
	}
	for i := range tokens {
		if !strings.EqualFold(tokens[i].Address, priced[i].Address) {
			return tokens, fmt.Errorf("token%d mismatch: chain %s, subgraph %s", i, tokens[i].Address, priced[i].Address)
		}
		tokens[i].PriceUSD = priced[i].PriceUSD
		if tokens[i].Symbol == "" {
			tokens[i].Symbol = priced[i].Symbol
		}
	}
	return tokens, nil
}

func (b *backend) Close() {
	if b.chain != nil {
		b.chain.Close()
	}
	if b.redis != nil {
		_ = b.redis.Close()
	}
}

// openSinks returns the configured sinks and the Postgres store when a DSN
// is set. The caller closes the store.
func openSinks(ctx context.Context, out, dsn string) (storage.Multi, *postgres.Store, error) {
	var sinks storage.Multi
	if out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(out))
	}
	if dsn == "" {
		return sinks, nil, nil
	}
	store, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}
	return append(sinks, store), store, nil
}
