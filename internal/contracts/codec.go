package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

func pack(a *abi.ABI, method string, args ...interface{}) ([]byte, error) {
	data, err := a.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %v: %w", method, err, errno.ErrCodec)
	}
	return data, nil
}

func unpack(a *abi.ABI, method string, data []byte, expOut int) ([]interface{}, error) {
	out, err := a.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %v: %w", method, err, errno.ErrCodec)
	}
	if len(out) != expOut {
		return nil, fmt.Errorf("unpack %s: expected %d values, got %d: %w", method, expOut, len(out), errno.ErrCodec)
	}
	return out, nil
}

func asBig(method string, v interface{}) (*big.Int, error) {
	b, ok := v.(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: expected *big.Int but got %T: %w", method, v, errno.ErrCodec)
	}
	return b, nil
}

func asAddress(method string, v interface{}) (common.Address, error) {
	a, ok := v.(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: expected common.Address but got %T: %w", method, v, errno.ErrCodec)
	}
	return a, nil
}

func asAddresses(method string, v interface{}) ([]common.Address, error) {
	a, ok := v.([]common.Address)
	if !ok {
		return nil, fmt.Errorf("%s: expected []common.Address but got %T: %w", method, v, errno.ErrCodec)
	}
	return a, nil
}

func unpackBig(a *abi.ABI, method string, data []byte) (*big.Int, error) {
	out, err := unpack(a, method, data, 1)
	if err != nil {
		return nil, err
	}
	return asBig(method, out[0])
}

func unpackAddress(a *abi.ABI, method string, data []byte) (common.Address, error) {
	out, err := unpack(a, method, data, 1)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(method, out[0])
}

func unpackBool(a *abi.ABI, method string, data []byte) (bool, error) {
	out, err := unpack(a, method, data, 1)
	if err != nil {
		return false, err
	}
	b, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected bool but got %T: %w", method, out[0], errno.ErrCodec)
	}
	return b, nil
}

func unpackAmounts(a *abi.ABI, method string, data []byte) ([]*big.Int, error) {
	out, err := unpack(a, method, data, 1)
	if err != nil {
		return nil, err
	}
	amounts, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: expected []*big.Int but got %T: %w", method, out[0], errno.ErrCodec)
	}
	return amounts, nil
}
