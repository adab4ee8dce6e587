package signer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// Sign signs u with key and encodes it in the canonical form accepted by
// eth_sendRawTransaction. The recovered sender is checked against the key's
// address before anything is returned.
func Sign(u *UnsignedTx, key Key) (*SignedTx, error) {
	signedTx, err := key.SignTx(u.transaction(), u.ChainID)
	if err != nil {
		return nil, err
	}

	sender, err := types.Sender(types.NewEIP155Signer(u.ChainID), signedTx)
	if err != nil {
		return nil, fmt.Errorf("recover sender: %v: %w", err, errno.ErrSigning)
	}
	if sender != key.Address() {
		return nil, fmt.Errorf("signature recovers to %s, expected %s: %w", sender.Hex(), key.Address().Hex(), errno.ErrSigning)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signed transaction: %v: %w", err, errno.ErrSigning)
	}

	return &SignedTx{
		Tx:   signedTx,
		Raw:  raw,
		Hash: signedTx.Hash(),
	}, nil
}
