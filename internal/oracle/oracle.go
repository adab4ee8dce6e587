// Package oracle derives spot prices from constant-product pool reserves.
package oracle

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// PriceQuote is a pair of spot prices read from one reserve snapshot.
// TokenPerNative is how many token units one native (WETH) unit buys and
// NativePerToken is the reverse. Both are computed independently from the
// adjusted reserves, so their product is only approximately 1.
type PriceQuote struct {
	TokenPerNative float64 `json:"token_per_native"`
	NativePerToken float64 `json:"native_per_token"`
}

// Adjust scales a raw on-chain amount down by 10^decimals.
func Adjust(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// ComputePrice returns the spot prices for a pool holding tokenReserve of a
// token with tokenDecimals and nativeReserve of an 18-decimal native wrapper
// (or any counter-asset with nativeDecimals).
func ComputePrice(tokenReserve *big.Int, tokenDecimals uint8, nativeReserve *big.Int, nativeDecimals uint8) (*PriceQuote, error) {
	if tokenReserve == nil || nativeReserve == nil || tokenReserve.Sign() <= 0 || nativeReserve.Sign() <= 0 {
		return nil, fmt.Errorf("reserves %v/%v: %w", tokenReserve, nativeReserve, errno.ErrZeroReserve)
	}
	tok := Adjust(tokenReserve, tokenDecimals).InexactFloat64()
	nat := Adjust(nativeReserve, nativeDecimals).InexactFloat64()
	return &PriceQuote{
		TokenPerNative: tok / nat,
		NativePerToken: nat / tok,
	}, nil
}

var (
	feeNumerator   = big.NewInt(997)
	feeDenominator = big.NewInt(1000)
)

// AmountOut is the output a pool returns for amountIn after the 0.3% fee,
// matching the router's getAmountOut.
func AmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in %v: %w", amountIn, errno.ErrBadRequest)
	}
	if reserveIn == nil || reserveOut == nil || reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("reserves %v/%v: %w", reserveIn, reserveOut, errno.ErrZeroReserve)
	}
	inWithFee := new(big.Int).Mul(amountIn, feeNumerator)
	num := new(big.Int).Mul(inWithFee, reserveOut)
	den := new(big.Int).Mul(reserveIn, feeDenominator)
	den.Add(den, inWithFee)
	return num.Quo(num, den), nil
}

// ApplySlippage returns amount reduced by bps basis points, rounded down.
func ApplySlippage(amount *big.Int, bps uint32) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %v: %w", amount, errno.ErrBadRequest)
	}
	if bps > 10000 {
		return nil, fmt.Errorf("slippage %d bps: %w", bps, errno.ErrConfig)
	}
	out := new(big.Int).Mul(amount, big.NewInt(int64(10000-bps)))
	return out.Quo(out, big.NewInt(10000)), nil
}
