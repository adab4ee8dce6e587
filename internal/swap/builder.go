// Package swap assembles Uniswap V2 router calls into transaction requests.
// It does not decide slippage; the minimum output is always supplied.
package swap

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/contracts"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/signer"
)

// DeadlineWindow is how long a built swap stays executable.
const DeadlineWindow = 20 * time.Minute

// Route selects the router method.
type Route int

const (
	// ExactETHForTokens spends native currency; the value field carries AmountIn.
	ExactETHForTokens Route = iota
	ExactTokensForTokens
	ExactTokensForETH
)

func (r Route) String() string {
	switch r {
	case ExactETHForTokens:
		return contracts.MethodSwapExactETHForTokens
	case ExactTokensForTokens:
		return contracts.MethodSwapExactTokensForTokens
	case ExactTokensForETH:
		return contracts.MethodSwapExactTokensForETH
	default:
		return "unknown"
	}
}

// Params describe one swap.
type Params struct {
	Route        Route
	Router       common.Address
	Recipient    common.Address
	Path         []common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
	// GasLimit defaults to signer.SwapGasLimit.
	GasLimit uint64
}

// Swap is a built router call.
type Swap struct {
	Request  signer.TxRequest
	Deadline uint64
}

// Deadline returns the unix deadline for a swap built at now.
func Deadline(now time.Time) uint64 {
	return uint64(now.Add(DeadlineWindow).Unix())
}

// Build encodes the router call for p. The resulting request targets the
// router and carries AmountIn as value only for native-in routes.
func Build(p Params, now time.Time) (*Swap, error) {
	if len(p.Path) < 2 {
		return nil, fmt.Errorf("swap path needs at least two tokens, got %d: %w", len(p.Path), errno.ErrBadRequest)
	}
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in %v: %w", p.AmountIn, errno.ErrBadRequest)
	}
	if p.MinAmountOut == nil || p.MinAmountOut.Sign() < 0 {
		return nil, fmt.Errorf("minimum amount out %v: %w", p.MinAmountOut, errno.ErrBadRequest)
	}
	if p.Router == (common.Address{}) {
		return nil, fmt.Errorf("zero router address: %w", errno.ErrConfig)
	}

	deadline := Deadline(now)
	dl := new(big.Int).SetUint64(deadline)
	var (
		data  []byte
		value = new(big.Int)
		err   error
	)
	switch p.Route {
	case ExactETHForTokens:
		data, err = contracts.PackSwapExactETHForTokens(p.MinAmountOut, p.Path, p.Recipient, dl)
		value.Set(p.AmountIn)
	case ExactTokensForTokens:
		data, err = contracts.PackSwapExactTokensForTokens(p.AmountIn, p.MinAmountOut, p.Path, p.Recipient, dl)
	case ExactTokensForETH:
		data, err = contracts.PackSwapExactTokensForETH(p.AmountIn, p.MinAmountOut, p.Path, p.Recipient, dl)
	default:
		return nil, fmt.Errorf("unknown swap route %d: %w", p.Route, errno.ErrBadRequest)
	}
	if err != nil {
		return nil, err
	}

	gas := p.GasLimit
	if gas == 0 {
		gas = signer.SwapGasLimit
	}
	return &Swap{
		Request: signer.TxRequest{
			Kind:     signer.KindContractCall,
			To:       p.Router,
			Value:    value,
			Data:     data,
			GasLimit: gas,
		},
		Deadline: deadline,
	}, nil
}
