package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"lpScope/internal/model"
)

// Caller performs eth_call against a block. A nil block means latest.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenCache caches token metadata by address.
type TokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{data: make(map[common.Address]model.Token)}
}

func (c *TokenCache) Get(address common.Address) (model.Token, bool) {
	c.mu.RLock()
	token, ok := c.data[address]
	c.mu.RUnlock()
	return token, ok
}

func (c *TokenCache) Set(address common.Address, token model.Token) {
	c.mu.Lock()
	c.data[address] = token
	c.mu.Unlock()
}

// PoolReader reads pool fee-growth state and token metadata over RPC.
type PoolReader struct {
	caller Caller
	tokens *TokenCache
	logger *zap.Logger
}

func NewPoolReader(caller Caller, logger *zap.Logger) *PoolReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolReader{caller: caller, tokens: NewTokenCache(), logger: logger}
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %q", s)
	}
	return common.HexToAddress(s), nil
}

func blockArg(block uint64) *big.Int {
	if block == 0 {
		return nil
	}
	return new(big.Int).SetUint64(block)
}

// PoolState loads slot0, global fee growth and both boundary ticks at block.
func (r *PoolReader) PoolState(ctx context.Context, pool string, tickLower, tickUpper int32, block uint64) (model.PoolState, error) {
	addr, err := parseAddress(pool)
	if err != nil {
		return model.PoolState{}, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.PoolState{}, fmt.Errorf("parse pool abi: %w", err)
	}
	at := blockArg(block)

	state := model.PoolState{Block: block}

	values, err := r.call(ctx, addr, poolABI, "slot0", at)
	if err != nil {
		return model.PoolState{}, err
	}
	if len(values) < 2 {
		return model.PoolState{}, fmt.Errorf("slot0: short result")
	}
	if state.SqrtPriceX96, err = asUint256(values[0]); err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 sqrt price: %w", err)
	}
	tick, err := asBigInt(values[1])
	if err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}
	if state.CurrentTick, err = int24FromBig(tick); err != nil {
		return model.PoolState{}, fmt.Errorf("slot0 tick: %w", err)
	}

	if state.FeeGrowthGlobal0, err = r.callUint256(ctx, addr, poolABI, "feeGrowthGlobal0X128", at); err != nil {
		return model.PoolState{}, err
	}
	if state.FeeGrowthGlobal1, err = r.callUint256(ctx, addr, poolABI, "feeGrowthGlobal1X128", at); err != nil {
		return model.PoolState{}, err
	}
	if state.TickLower, err = r.tick(ctx, addr, poolABI, tickLower, at); err != nil {
		return model.PoolState{}, err
	}
	if state.TickUpper, err = r.tick(ctx, addr, poolABI, tickUpper, at); err != nil {
		return model.PoolState{}, err
	}

	r.logger.Debug("pool state loaded",
		zap.String("pool", addr.Hex()),
		zap.Uint64("block", block),
		zap.Int32("tick", state.CurrentTick),
	)
	return state, nil
}

// TickSpacing returns the pool's tick spacing.
func (r *PoolReader) TickSpacing(ctx context.Context, pool string) (int32, error) {
	addr, err := parseAddress(pool)
	if err != nil {
		return 0, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return 0, fmt.Errorf("parse pool abi: %w", err)
	}
	values, err := r.call(ctx, addr, poolABI, "tickSpacing", nil)
	if err != nil {
		return 0, err
	}
	spacing, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("tick spacing: %w", err)
	}
	return int24FromBig(spacing)
}

// PoolTokens returns token0 and token1 with decimals and symbol. Prices are
// not available on chain and are left at zero.
func (r *PoolReader) PoolTokens(ctx context.Context, pool string) ([2]model.Token, error) {
	var out [2]model.Token
	addr, err := parseAddress(pool)
	if err != nil {
		return out, err
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return out, fmt.Errorf("parse pool abi: %w", err)
	}
	for i, method := range []string{"token0", "token1"} {
		values, err := r.call(ctx, addr, poolABI, method, nil)
		if err != nil {
			return out, err
		}
		tokenAddr, err := asAddress(values[0])
		if err != nil {
			return out, fmt.Errorf("%s: %w", method, err)
		}
		if out[i], err = r.token(ctx, tokenAddr); err != nil {
			return out, fmt.Errorf("%s: %w", method, err)
		}
	}
	return out, nil
}

func (r *PoolReader) token(ctx context.Context, addr common.Address) (model.Token, error) {
	if token, ok := r.tokens.Get(addr); ok {
		return token, nil
	}

	erc20, err := erc20ABIInstance()
	if err != nil {
		return model.Token{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	token := model.Token{Address: addr.Hex()}

	values, err := r.call(ctx, addr, erc20, "decimals", nil)
	if err != nil {
		return model.Token{}, err
	}
	if token.Decimals, err = asUint8(values[0]); err != nil {
		return model.Token{}, err
	}

	if values, err := r.call(ctx, addr, erc20, "symbol", nil); err == nil {
		if symbol, ok := values[0].(string); ok {
			token.Symbol = symbol
		}
	} else if legacy, abiErr := erc20Bytes32ABIInstance(); abiErr == nil {
		if values, err := r.call(ctx, addr, legacy, "symbol", nil); err == nil {
			token.Symbol, _ = bytes32ToString(values[0])
		} else {
			r.logger.Debug("symbol call failed", zap.String("token", addr.Hex()), zap.Error(err))
		}
	}

	r.tokens.Set(addr, token)
	return token, nil
}

func (r *PoolReader) tick(ctx context.Context, pool common.Address, poolABI abi.ABI, index int32, block *big.Int) (model.Tick, error) {
	values, err := r.call(ctx, pool, poolABI, "ticks", block, big.NewInt(int64(index)))
	if err != nil {
		return model.Tick{}, err
	}
	if len(values) < 4 {
		return model.Tick{}, fmt.Errorf("ticks(%d): short result", index)
	}
	out0, err := asUint256(values[2])
	if err != nil {
		return model.Tick{}, fmt.Errorf("ticks(%d) outside0: %w", index, err)
	}
	out1, err := asUint256(values[3])
	if err != nil {
		return model.Tick{}, fmt.Errorf("ticks(%d) outside1: %w", index, err)
	}
	return model.Tick{Index: index, FeeGrowthOutside0: out0, FeeGrowthOutside1: out1}, nil
}

func (r *PoolReader) callUint256(ctx context.Context, to common.Address, parsed abi.ABI, method string, block *big.Int) (*uint256.Int, error) {
	values, err := r.call(ctx, to, parsed, method, block)
	if err != nil {
		return nil, err
	}
	v, err := asUint256(values[0])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return v, nil
}

func (r *PoolReader) call(ctx context.Context, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := r.caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	case int32:
		return big.NewInt(int64(v)), nil
	case int64:
		return big.NewInt(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint256(value interface{}) (*uint256.Int, error) {
	b, err := asBigInt(value)
	if err != nil {
		return nil, err
	}
	if b.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s", b)
	}
	out, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("value overflows uint256: %s", b)
	}
	return out, nil
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}

func int24FromBig(value *big.Int) (int32, error) {
	lo := big.NewInt(-1 << 23)
	hi := big.NewInt((1 << 23) - 1)
	if value.Cmp(lo) < 0 || value.Cmp(hi) > 0 {
		return 0, fmt.Errorf("int24 overflow: %s", value.String())
	}
	return int32(value.Int64()), nil
}
