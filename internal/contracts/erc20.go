package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// TokenInfo describes an ERC20 token as read from the chain.
type TokenInfo struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
}

func PackDecimals() ([]byte, error) {
	return pack(ERC20ABI, "decimals")
}

// UnpackDecimals decodes a decimals() result. Values above 255 are rejected.
func UnpackDecimals(data []byte) (uint8, error) {
	out, err := unpack(ERC20ABI, "decimals", data, 1)
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: expected uint8 but got %T: %w", out[0], errno.ErrCodec)
	}
	return d, nil
}

func PackSymbol() ([]byte, error) {
	return pack(ERC20ABI, "symbol")
}

func UnpackSymbol(data []byte) (string, error) {
	out, err := unpack(ERC20ABI, "symbol", data, 1)
	if err != nil {
		return "", err
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol: expected string but got %T: %w", out[0], errno.ErrCodec)
	}
	return s, nil
}

func PackTotalSupply() ([]byte, error) {
	return pack(ERC20ABI, "totalSupply")
}

func UnpackTotalSupply(data []byte) (*big.Int, error) {
	return unpackBig(ERC20ABI, "totalSupply", data)
}

func PackBalanceOf(owner common.Address) ([]byte, error) {
	return pack(ERC20ABI, "balanceOf", owner)
}

func UnpackBalanceOf(data []byte) (*big.Int, error) {
	return unpackBig(ERC20ABI, "balanceOf", data)
}

func PackAllowance(owner, spender common.Address) ([]byte, error) {
	return pack(ERC20ABI, "allowance", owner, spender)
}

func UnpackAllowance(data []byte) (*big.Int, error) {
	return unpackBig(ERC20ABI, "allowance", data)
}

func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return pack(ERC20ABI, "transfer", to, amount)
}

func UnpackTransfer(data []byte) (bool, error) {
	return unpackBool(ERC20ABI, "transfer", data)
}

// PackTransferFrom encodes transferFrom(from, to, amount), spending an
// allowance granted by from.
func PackTransferFrom(from, to common.Address, amount *big.Int) ([]byte, error) {
	return pack(ERC20ABI, "transferFrom", from, to, amount)
}

func UnpackTransferFrom(data []byte) (bool, error) {
	return unpackBool(ERC20ABI, "transferFrom", data)
}

// PackApprove encodes approve(spender, amount). Token-in routes need the
// router approved for at least the input amount before they can execute.
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return pack(ERC20ABI, "approve", spender, amount)
}

func UnpackApprove(data []byte) (bool, error) {
	return unpackBool(ERC20ABI, "approve", data)
}
