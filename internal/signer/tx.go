package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Kind distinguishes plain value transfers from contract calls.
type Kind int

const (
	KindTransfer Kind = iota
	KindContractCall
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindContractCall:
		return "contract-call"
	default:
		return "unknown"
	}
}

// TxRequest describes what a transaction does, independent of the network
// parameters it is eventually sent with.
type TxRequest struct {
	Kind     Kind
	To       common.Address
	Value    *big.Int
	Data     []byte
	GasLimit uint64
}

// NetworkParams are read from the chain once per request and never reused.
type NetworkParams struct {
	Nonce    uint64
	GasPrice *big.Int
	ChainID  *big.Int
}

// UnsignedTx is a fully specified legacy transaction awaiting a signature.
type UnsignedTx struct {
	Kind     Kind
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       common.Address
	Value    *big.Int
	Data     []byte
	ChainID  *big.Int
}

func (u *UnsignedTx) transaction() *types.Transaction {
	to := u.To
	return types.NewTx(&types.LegacyTx{
		Nonce:    u.Nonce,
		GasPrice: new(big.Int).Set(u.GasPrice),
		Gas:      u.GasLimit,
		To:       &to,
		Value:    new(big.Int).Set(u.Value),
		Data:     common.CopyBytes(u.Data),
	})
}

// SignedTx is the broadcast-ready artifact of a request.
type SignedTx struct {
	Tx   *types.Transaction
	Raw  []byte
	Hash common.Hash
}
