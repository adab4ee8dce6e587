package agent

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/contracts"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/oracle"
	"github.com/xueqianLu/ethtrader/internal/registry"
	"github.com/xueqianLu/ethtrader/internal/swap"
	"go.uber.org/zap"
)

// nativeDecimals is the decimals of the wrapped native token.
const nativeDecimals = 18

func (a *Agent) swap(ctx context.Context, req Swap) (*SwapReport, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in %v: %w", req.AmountIn, errno.ErrBadRequest)
	}
	if req.Token == (common.Address{}) {
		return nil, fmt.Errorf("zero token address: %w", errno.ErrBadRequest)
	}
	w, err := a.keys.Wallet()
	if err != nil {
		return nil, err
	}
	a.enter(KindSwap, stageIdle)

	chainID, err := a.chain.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	addrs, err := a.registry.Lookup(chainID)
	if err != nil {
		return nil, err
	}
	if req.Token == addrs.WETH {
		return nil, fmt.Errorf("token %s is the native wrapper: %w", req.Token, errno.ErrBadRequest)
	}

	token, err := a.tokenInfo(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	pool, err := a.poolPrice(ctx, addrs, token)
	if err != nil {
		return nil, err
	}
	a.log.Debug("pool price",
		zap.String("symbol", token.Symbol),
		zap.Stringer("pair", pool.pair),
		zap.Float64("token_per_native", pool.price.TokenPerNative),
		zap.Float64("native_per_token", pool.price.NativePerToken))

	path := []common.Address{addrs.WETH, req.Token}
	minOut, err := a.minAmountOut(ctx, addrs.Router, req, path, pool)
	if err != nil {
		return nil, err
	}
	built, err := swap.Build(swap.Params{
		Route:        swap.ExactETHForTokens,
		Router:       addrs.Router,
		Recipient:    w.Address(),
		Path:         path,
		AmountIn:     req.AmountIn,
		MinAmountOut: minOut,
		GasLimit:     a.cfg.SwapGasLimit,
	}, a.now())
	if err != nil {
		return nil, err
	}

	signed, params, err := a.buildAndSign(ctx, KindSwap, w, built.Request)
	if err != nil {
		return nil, err
	}
	hash, err := a.broadcast(ctx, KindSwap, signed)
	if err != nil {
		return nil, err
	}
	return &SwapReport{
		Token:        *token,
		Pair:         pool.pair,
		Price:        *pool.price,
		AmountIn:     new(big.Int).Set(req.AmountIn),
		MinAmountOut: minOut,
		Deadline:     built.Deadline,
		Nonce:        params.Nonce,
		GasPrice:     signed.Tx.GasPrice(),
		TxHash:       hash,
	}, nil
}

// tokenInfo reads decimals and symbol in two independent calls.
func (a *Agent) tokenInfo(ctx context.Context, token common.Address) (*contracts.TokenInfo, error) {
	data, err := contracts.PackDecimals()
	if err != nil {
		return nil, err
	}
	out, err := a.chain.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	decimals, err := contracts.UnpackDecimals(out)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", token, err)
	}

	if data, err = contracts.PackSymbol(); err != nil {
		return nil, err
	}
	if out, err = a.chain.Call(ctx, token, data); err != nil {
		return nil, err
	}
	symbol, err := contracts.UnpackSymbol(out)
	if err != nil {
		return nil, fmt.Errorf("token %s: %w", token, err)
	}
	return &contracts.TokenInfo{Address: token, Symbol: symbol, Decimals: decimals}, nil
}

// poolState is one reserve snapshot of the WETH/token pair.
type poolState struct {
	pair          common.Address
	price         *oracle.PriceQuote
	tokenReserve  *big.Int
	nativeReserve *big.Int
}

// poolPrice finds the WETH/token pair and prices the token from its reserves.
func (a *Agent) poolPrice(ctx context.Context, addrs registry.Contracts, token *contracts.TokenInfo) (*poolState, error) {
	var none common.Address
	data, err := contracts.PackGetPair(addrs.WETH, token.Address)
	if err != nil {
		return nil, err
	}
	out, err := a.chain.Call(ctx, addrs.Factory, data)
	if err != nil {
		return nil, err
	}
	pair, err := contracts.UnpackGetPair(out)
	if err != nil {
		return nil, err
	}
	if pair == none {
		return nil, fmt.Errorf("no pool for %s/%s: %w", addrs.WETH, token.Address, errno.ErrZeroReserve)
	}

	if data, err = contracts.PackToken0(); err != nil {
		return nil, err
	}
	if out, err = a.chain.Call(ctx, pair, data); err != nil {
		return nil, err
	}
	token0, err := contracts.UnpackToken0(out)
	if err != nil {
		return nil, err
	}
	if token0 != addrs.WETH && token0 != token.Address {
		return nil, fmt.Errorf("pair %s token0 %s matches neither side: %w", pair, token0, errno.ErrCodec)
	}

	if data, err = contracts.PackGetReserves(); err != nil {
		return nil, err
	}
	if out, err = a.chain.Call(ctx, pair, data); err != nil {
		return nil, err
	}
	reserves, err := contracts.UnpackGetReserves(out)
	if err != nil {
		return nil, err
	}
	tokenReserve, nativeReserve := reserves.Oriented(token0, token.Address)
	price, err := oracle.ComputePrice(tokenReserve, token.Decimals, nativeReserve, nativeDecimals)
	if err != nil {
		return nil, fmt.Errorf("pair %s: %w", pair, err)
	}
	return &poolState{
		pair:          pair,
		price:         price,
		tokenReserve:  tokenReserve,
		nativeReserve: nativeReserve,
	}, nil
}

// minAmountOut applies the slippage policy: an explicit bound in the request
// wins, otherwise the configured tolerance is taken off the router quote.
// With neither, the swap is refused rather than sent unprotected. The router
// quote is capped by the constant-product output of the pool snapshot.
func (a *Agent) minAmountOut(ctx context.Context, router common.Address, req Swap, path []common.Address, pool *poolState) (*big.Int, error) {
	if req.MinAmountOut != nil {
		if req.MinAmountOut.Sign() < 0 {
			return nil, fmt.Errorf("minimum amount out %v: %w", req.MinAmountOut, errno.ErrBadRequest)
		}
		return new(big.Int).Set(req.MinAmountOut), nil
	}
	if a.cfg.SlippageBps == 0 {
		return nil, fmt.Errorf("no minimum amount out given and no slippage tolerance configured: %w", errno.ErrConfig)
	}

	data, err := contracts.PackGetAmountsOut(req.AmountIn, path)
	if err != nil {
		return nil, err
	}
	out, err := a.chain.Call(ctx, router, data)
	if err != nil {
		return nil, err
	}
	amounts, err := contracts.UnpackGetAmountsOut(out)
	if err != nil {
		return nil, err
	}
	if len(amounts) != len(path) {
		return nil, fmt.Errorf("router quoted %d amounts for a %d-hop path: %w", len(amounts), len(path), errno.ErrCodec)
	}
	quoted := amounts[len(amounts)-1]

	local, err := oracle.AmountOut(req.AmountIn, pool.nativeReserve, pool.tokenReserve)
	if err != nil {
		return nil, err
	}
	if quoted.Cmp(local) > 0 {
		a.log.Warn("router quote exceeds pool output, using pool output",
			zap.Stringer("router", quoted), zap.Stringer("pool", local))
		quoted = local
	}
	return oracle.ApplySlippage(quoted, a.cfg.SlippageBps)
}
