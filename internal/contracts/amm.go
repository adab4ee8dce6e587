package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// Reserves is a pair's getReserves() result, in token0/token1 order.
type Reserves struct {
	Reserve0           *big.Int
	Reserve1           *big.Int
	BlockTimestampLast uint32
}

func PackGetPair(tokenA, tokenB common.Address) ([]byte, error) {
	return pack(FactoryABI, "getPair", tokenA, tokenB)
}

// UnpackGetPair returns the pair address. The zero address means the factory
// has no pool for the two tokens.
func UnpackGetPair(data []byte) (common.Address, error) {
	return unpackAddress(FactoryABI, "getPair", data)
}

func PackToken0() ([]byte, error) {
	return pack(PairABI, "token0")
}

func UnpackToken0(data []byte) (common.Address, error) {
	return unpackAddress(PairABI, "token0", data)
}

func PackToken1() ([]byte, error) {
	return pack(PairABI, "token1")
}

func UnpackToken1(data []byte) (common.Address, error) {
	return unpackAddress(PairABI, "token1", data)
}

func PackGetReserves() ([]byte, error) {
	return pack(PairABI, "getReserves")
}

func UnpackGetReserves(data []byte) (*Reserves, error) {
	out, err := unpack(PairABI, "getReserves", data, 3)
	if err != nil {
		return nil, err
	}
	r0, err := asBig("getReserves", out[0])
	if err != nil {
		return nil, err
	}
	r1, err := asBig("getReserves", out[1])
	if err != nil {
		return nil, err
	}
	ts, ok := out[2].(uint32)
	if !ok {
		return nil, fmt.Errorf("getReserves: expected uint32 but got %T: %w", out[2], errno.ErrCodec)
	}
	return &Reserves{Reserve0: r0, Reserve1: r1, BlockTimestampLast: ts}, nil
}

// Oriented returns the reserves as (reserveOf(token), reserveOf(other))
// given the pair's token0.
func (r *Reserves) Oriented(token0, token common.Address) (tokenReserve, otherReserve *big.Int) {
	if token0 == token {
		return r.Reserve0, r.Reserve1
	}
	return r.Reserve1, r.Reserve0
}
