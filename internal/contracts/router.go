package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

const (
	MethodSwapExactTokensForTokens = "swapExactTokensForTokens"
	MethodSwapTokensForExactTokens = "swapTokensForExactTokens"
	MethodSwapExactETHForTokens    = "swapExactETHForTokens"
	MethodSwapTokensForExactETH    = "swapTokensForExactETH"
	MethodSwapExactTokensForETH    = "swapExactTokensForETH"
	MethodSwapETHForExactTokens    = "swapETHForExactTokens"
)

var swapMethods = map[string]bool{
	MethodSwapExactTokensForTokens: true,
	MethodSwapTokensForExactTokens: true,
	MethodSwapExactETHForTokens:    true,
	MethodSwapTokensForExactETH:    true,
	MethodSwapExactTokensForETH:    true,
	MethodSwapETHForExactTokens:    true,
}

func PackSwapExactTokensForTokens(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, MethodSwapExactTokensForTokens, amountIn, amountOutMin, path, to, deadline)
}

func PackSwapTokensForExactTokens(amountOut, amountInMax *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, MethodSwapTokensForExactTokens, amountOut, amountInMax, path, to, deadline)
}

func PackSwapExactETHForTokens(amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, MethodSwapExactETHForTokens, amountOutMin, path, to, deadline)
}

func PackSwapTokensForExactETH(amountOut, amountInMax *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, MethodSwapTokensForExactETH, amountOut, amountInMax, path, to, deadline)
}

func PackSwapExactTokensForETH(amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, MethodSwapExactTokensForETH, amountIn, amountOutMin, path, to, deadline)
}

func PackSwapETHForExactTokens(amountOut *big.Int, path []common.Address, to common.Address, deadline *big.Int) ([]byte, error) {
	return pack(RouterABI, MethodSwapETHForExactTokens, amountOut, path, to, deadline)
}

// UnpackSwapAmounts decodes the amounts array returned by any swap method.
func UnpackSwapAmounts(method string, data []byte) ([]*big.Int, error) {
	return unpackAmounts(RouterABI, method, data)
}

func PackGetAmountsOut(amountIn *big.Int, path []common.Address) ([]byte, error) {
	return pack(RouterABI, "getAmountsOut", amountIn, path)
}

func UnpackGetAmountsOut(data []byte) ([]*big.Int, error) {
	return unpackAmounts(RouterABI, "getAmountsOut", data)
}

func PackGetAmountsIn(amountOut *big.Int, path []common.Address) ([]byte, error) {
	return pack(RouterABI, "getAmountsIn", amountOut, path)
}

func UnpackGetAmountsIn(data []byte) ([]*big.Int, error) {
	return unpackAmounts(RouterABI, "getAmountsIn", data)
}

func PackQuote(amountA, reserveA, reserveB *big.Int) ([]byte, error) {
	return pack(RouterABI, "quote", amountA, reserveA, reserveB)
}

func UnpackQuote(data []byte) (*big.Int, error) {
	return unpackBig(RouterABI, "quote", data)
}

func PackGetAmountOut(amountIn, reserveIn, reserveOut *big.Int) ([]byte, error) {
	return pack(RouterABI, "getAmountOut", amountIn, reserveIn, reserveOut)
}

func UnpackGetAmountOut(data []byte) (*big.Int, error) {
	return unpackBig(RouterABI, "getAmountOut", data)
}

func PackGetAmountIn(amountOut, reserveIn, reserveOut *big.Int) ([]byte, error) {
	return pack(RouterABI, "getAmountIn", amountOut, reserveIn, reserveOut)
}

func UnpackGetAmountIn(data []byte) (*big.Int, error) {
	return unpackBig(RouterABI, "getAmountIn", data)
}

// SwapCall is decoded router swap calldata. Fields a method does not take
// are left nil.
type SwapCall struct {
	Method       string
	AmountIn     *big.Int
	AmountOutMin *big.Int
	AmountOut    *big.Int
	AmountInMax  *big.Int
	Path         []common.Address
	To           common.Address
	Deadline     *big.Int
}

// ParseSwapData decodes calldata for one of the router swap methods.
func ParseSwapData(data []byte) (*SwapCall, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("swap calldata too short (%d bytes): %w", len(data), errno.ErrCodec)
	}
	method, err := RouterABI.MethodById(data[:4])
	if err != nil {
		return nil, fmt.Errorf("unknown router selector %x: %w", data[:4], errno.ErrCodec)
	}
	if !swapMethods[method.Name] {
		return nil, fmt.Errorf("%s is not a swap method: %w", method.Name, errno.ErrCodec)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("unpack %s inputs: %v: %w", method.Name, err, errno.ErrCodec)
	}
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("%s: expected %d inputs, got %d: %w", method.Name, len(method.Inputs), len(args), errno.ErrCodec)
	}

	call := &SwapCall{Method: method.Name}
	for i, in := range method.Inputs {
		switch in.Name {
		case "amountIn":
			call.AmountIn, err = asBig(method.Name, args[i])
		case "amountOutMin":
			call.AmountOutMin, err = asBig(method.Name, args[i])
		case "amountOut":
			call.AmountOut, err = asBig(method.Name, args[i])
		case "amountInMax":
			call.AmountInMax, err = asBig(method.Name, args[i])
		case "deadline":
			call.Deadline, err = asBig(method.Name, args[i])
		case "to":
			call.To, err = asAddress(method.Name, args[i])
		case "path":
			call.Path, err = asAddresses(method.Name, args[i])
		}
		if err != nil {
			return nil, err
		}
	}
	return call, nil
}
