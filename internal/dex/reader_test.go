package dex

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	poolAddr = common.HexToAddress("0x88e6A0c2dDD26FEEb64F039a2c41296FcB3f5640")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	mkrAddr  = common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
)

type fakeChain struct {
	tick    int64
	sqrt    *big.Int
	global0 *big.Int
	global1 *big.Int
	outside map[int64][2]*big.Int
	blocks  []*big.Int
	calls   int
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	f.calls++
	f.blocks = append(f.blocks, block)
	switch *msg.To {
	case poolAddr:
		return f.pool(msg.Data)
	case usdcAddr:
		return f.erc20(msg.Data, "USDC", 6, false)
	case mkrAddr:
		return f.erc20(msg.Data, "MKR", 18, true)
	}
	return nil, fmt.Errorf("unknown contract %s", msg.To.Hex())
}

func (f *fakeChain) pool(data []byte) ([]byte, error) {
	poolABI, err := V3PoolABI()
	if err != nil {
		return nil, err
	}
	method, err := poolABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "slot0":
		return method.Outputs.Pack(f.sqrt, big.NewInt(f.tick), uint16(0), uint16(1), uint16(1), uint8(0), true)
	case "feeGrowthGlobal0X128":
		return method.Outputs.Pack(f.global0)
	case "feeGrowthGlobal1X128":
		return method.Outputs.Pack(f.global1)
	case "tickSpacing":
		return method.Outputs.Pack(big.NewInt(10))
	case "token0":
		return method.Outputs.Pack(usdcAddr)
	case "token1":
		return method.Outputs.Pack(mkrAddr)
	case "ticks":
		args, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		idx := args[0].(*big.Int).Int64()
		out, ok := f.outside[idx]
		if !ok {
			out = [2]*big.Int{big.NewInt(0), big.NewInt(0)}
		}
		return method.Outputs.Pack(big.NewInt(1), big.NewInt(0), out[0], out[1], big.NewInt(0), big.NewInt(0), uint32(0), ok)
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

func (f *fakeChain) erc20(data []byte, symbol string, decimals uint8, bytes32Symbol bool) ([]byte, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, err
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "decimals":
		return method.Outputs.Pack(decimals)
	case "symbol":
		if bytes32Symbol {
			var raw [32]byte
			copy(raw[:], symbol)
			return raw[:], nil
		}
		return method.Outputs.Pack(symbol)
	}
	return nil, fmt.Errorf("unexpected method %s", method.Name)
}

func newFake() *fakeChain {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	return &fakeChain{
		tick:    -201000,
		sqrt:    big.NewInt(1_000_000),
		global0: huge,
		global1: big.NewInt(777),
		outside: map[int64][2]*big.Int{
			-201060: {big.NewInt(11), big.NewInt(12)},
			-200940: {big.NewInt(21), big.NewInt(22)},
		},
	}
}

func TestPoolStateAtBlock(t *testing.T) {
	fake := newFake()
	reader := NewPoolReader(fake, nil)

	state, err := reader.PoolState(context.Background(), poolAddr.Hex(), -201060, -200940, 19_000_000)
	require.NoError(t, err)

	assert.Equal(t, uint64(19_000_000), state.Block)
	assert.Equal(t, int32(-201000), state.CurrentTick)
	assert.Equal(t, uint64(1_000_000), state.SqrtPriceX96.Uint64())
	assert.Equal(t, fake.global0.String(), state.FeeGrowthGlobal0.ToBig().String())
	assert.Equal(t, uint64(777), state.FeeGrowthGlobal1.Uint64())
	assert.Equal(t, int32(-201060), state.TickLower.Index)
	assert.Equal(t, uint64(11), state.TickLower.FeeGrowthOutside0.Uint64())
	assert.Equal(t, uint64(22), state.TickUpper.FeeGrowthOutside1.Uint64())

	require.Len(t, fake.blocks, 5)
	for _, b := range fake.blocks {
		assert.Equal(t, int64(19_000_000), b.Int64())
	}
}

func TestPoolStateLatestUsesNilBlock(t *testing.T) {
	fake := newFake()
	_, err := NewPoolReader(fake, nil).PoolState(context.Background(), poolAddr.Hex(), -201060, -200940, 0)
	require.NoError(t, err)
	for _, b := range fake.blocks {
		assert.Nil(t, b)
	}
}

func TestPoolStateRejectsBadAddress(t *testing.T) {
	_, err := NewPoolReader(newFake(), nil).PoolState(context.Background(), "pool", 0, 10, 0)
	assert.Error(t, err)
}

func TestPoolStatePropagatesCallErrors(t *testing.T) {
	boom := errors.New("execution reverted")
	reader := NewPoolReader(callerFunc(func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
		return nil, boom
	}), nil)
	_, err := reader.PoolState(context.Background(), poolAddr.Hex(), 0, 10, 0)
	assert.True(t, errors.Is(err, boom))
}

type callerFunc func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error)

func (f callerFunc) CallContract(ctx context.Context, msg ethereum.CallMsg, block *big.Int) ([]byte, error) {
	return f(ctx, msg, block)
}

func TestPoolTokensCachesMetadata(t *testing.T) {
	fake := newFake()
	reader := NewPoolReader(fake, nil)

	tokens, err := reader.PoolTokens(context.Background(), poolAddr.Hex())
	require.NoError(t, err)
	assert.Equal(t, "USDC", tokens[0].Symbol)
	assert.Equal(t, uint8(6), tokens[0].Decimals)
	assert.Equal(t, usdcAddr.Hex(), tokens[0].Address)
	assert.Equal(t, "MKR", tokens[1].Symbol)
	assert.Equal(t, uint8(18), tokens[1].Decimals)

	before := fake.calls
	_, err = reader.PoolTokens(context.Background(), poolAddr.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls-before, "only token0/token1 lookups on a warm cache")
}

func TestTickSpacing(t *testing.T) {
	spacing, err := NewPoolReader(newFake(), nil).TickSpacing(context.Background(), poolAddr.Hex())
	require.NoError(t, err)
	assert.Equal(t, int32(10), spacing)
}

func TestInt24FromBig(t *testing.T) {
	v, err := int24FromBig(big.NewInt(-8388608))
	require.NoError(t, err)
	assert.Equal(t, int32(-8388608), v)
	_, err = int24FromBig(big.NewInt(8388608))
	assert.Error(t, err)
}
