package signer

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Key is a single signing key. It abstracts where the private key lives so the
// assembler never touches raw key material.
type Key interface {
	// Address returns the Ethereum address derived from the key.
	Address() common.Address

	// SignTx signs tx for chainID using EIP-155 replay protection.
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)

	// SignMessage signs an arbitrary message following EIP-191.
	SignMessage(message []byte) ([]byte, error)
}
