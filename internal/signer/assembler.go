package signer

import (
	"fmt"
	"math/big"

	"github.com/xueqianLu/ethtrader/internal/errno"
)

const (
	// DefaultGasPriceMultiplier is applied to the fetched network gas price
	// for contract calls, so swaps are not rejected as underpriced when the
	// price moves between the read and the broadcast.
	DefaultGasPriceMultiplier = 8

	// TransferGasLimit is the intrinsic gas of a plain value transfer.
	TransferGasLimit = 21000
	// SwapGasLimit covers a two-hop V2 router swap.
	SwapGasLimit = 220000
)

// Assembler turns transaction requests plus network parameters into unsigned
// transactions. It never reads the chain, retries or bumps nonces.
type Assembler struct {
	callGasMultiplier uint64
}

// NewAssembler creates an Assembler applying callGasMultiplier to the gas
// price of contract calls. Plain transfers use the network price unchanged.
func NewAssembler(callGasMultiplier uint64) (*Assembler, error) {
	if callGasMultiplier == 0 {
		return nil, fmt.Errorf("gas price multiplier must be positive: %w", errno.ErrConfig)
	}
	return &Assembler{callGasMultiplier: callGasMultiplier}, nil
}

// GasPriceFor returns the gas price used for a transaction of kind k given
// the network price.
func (a *Assembler) GasPriceFor(k Kind, networkPrice *big.Int) *big.Int {
	if k == KindContractCall {
		return new(big.Int).Mul(networkPrice, new(big.Int).SetUint64(a.callGasMultiplier))
	}
	return new(big.Int).Set(networkPrice)
}

// Assemble builds an unsigned transaction.
func (a *Assembler) Assemble(req TxRequest, p NetworkParams) (*UnsignedTx, error) {
	switch req.Kind {
	case KindTransfer:
		if len(req.Data) != 0 {
			return nil, fmt.Errorf("plain transfer with call data: %w", errno.ErrBadRequest)
		}
	case KindContractCall:
		if len(req.Data) == 0 {
			return nil, fmt.Errorf("contract call without call data: %w", errno.ErrBadRequest)
		}
	default:
		return nil, fmt.Errorf("unknown transaction kind %d: %w", req.Kind, errno.ErrBadRequest)
	}
	if req.GasLimit == 0 {
		return nil, fmt.Errorf("zero gas limit: %w", errno.ErrBadRequest)
	}
	if p.ChainID == nil || p.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("invalid chain id %v: %w", p.ChainID, errno.ErrConfig)
	}
	if p.GasPrice == nil || p.GasPrice.Sign() <= 0 {
		return nil, fmt.Errorf("invalid gas price %v: %w", p.GasPrice, errno.ErrBadRequest)
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s: %w", value, errno.ErrBadRequest)
	}

	return &UnsignedTx{
		Kind:     req.Kind,
		Nonce:    p.Nonce,
		GasPrice: a.GasPriceFor(req.Kind, p.GasPrice),
		GasLimit: req.GasLimit,
		To:       req.To,
		Value:    new(big.Int).Set(value),
		Data:     append([]byte(nil), req.Data...),
		ChainID:  new(big.Int).Set(p.ChainID),
	}, nil
}
