package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpScope/internal/model"
)

type staticTokens [2]model.Token

func (s staticTokens) PoolTokens(context.Context, string) ([2]model.Token, error) {
	return s, nil
}

func TestPricedTokensTakesMetadataFromChain(t *testing.T) {
	onchain := staticTokens{
		{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", Decimals: 6},
		{Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18},
	}
	graph := staticTokens{
		{Address: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", Decimals: 0, PriceUSD: 1},
		{Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Symbol: "WETH", Decimals: 0, PriceUSD: 3000},
	}

	tokens, err := pricedTokens{onchain: onchain, prices: graph}.PoolTokens(context.Background(), "0xpool")
	require.NoError(t, err)

	assert.Equal(t, uint8(6), tokens[0].Decimals)
	assert.Equal(t, uint8(18), tokens[1].Decimals)
	assert.Equal(t, 1.0, tokens[0].PriceUSD)
	assert.Equal(t, 3000.0, tokens[1].PriceUSD)
	assert.Equal(t, "WETH", tokens[1].Symbol)
	assert.Equal(t, onchain[0].Address, tokens[0].Address)
}

func TestPricedTokensRejectsMismatchedPool(t *testing.T) {
	onchain := staticTokens{{Address: "0x01", Decimals: 6}, {Address: "0x02", Decimals: 18}}
	graph := staticTokens{{Address: "0x02", PriceUSD: 1}, {Address: "0x01", PriceUSD: 3000}}

	_, err := pricedTokens{onchain: onchain, prices: graph}.PoolTokens(context.Background(), "0xpool")
	assert.ErrorContains(t, err, "token0 mismatch")
}
