package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

// Wallet owns exactly one secp256k1 private key for the life of the process.
type Wallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

var _ Key = (*Wallet)(nil)

// NewWallet wraps an existing private key.
func NewWallet(key *ecdsa.PrivateKey) *Wallet {
	return &Wallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// GenerateWallet creates a wallet with a fresh random key.
func GenerateWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return NewWallet(key), nil
}

// WalletFromHex parses a hex private key, with or without 0x prefix.
func WalletFromHex(s string) (*Wallet, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	key, err := crypto.HexToECDSA(s)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v: %w", err, errno.ErrSigning)
	}
	return NewWallet(key), nil
}

// WalletFromBytes parses a raw 32-byte private key.
func WalletFromBytes(b []byte) (*Wallet, error) {
	key, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v: %w", err, errno.ErrSigning)
	}
	return NewWallet(key), nil
}

// WalletFromKeystore decrypts a go-ethereum V3 keystore JSON document.
func WalletFromKeystore(keyJSON []byte, password string) (*Wallet, error) {
	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, fmt.Errorf("keystore: %w", errno.ErrDecryption)
		}
		return nil, fmt.Errorf("keystore: %v: %w", err, errno.ErrBadRequest)
	}
	return NewWallet(key.PrivateKey), nil
}

// Address returns the wallet's on-chain address.
func (w *Wallet) Address() common.Address {
	return w.address
}

// Bytes returns the raw private key for encryption at rest. The caller owns
// the returned slice and should zero it when done.
func (w *Wallet) Bytes() []byte {
	return crypto.FromECDSA(w.key)
}

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() *ecdsa.PublicKey {
	return &w.key.PublicKey
}

// SignTx signs a transaction with the wallet key.
func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %v: %w", err, errno.ErrSigning)
	}
	return signedTx, nil
}

// SignMessage signs a message with the wallet key.
func (w *Wallet) SignMessage(message []byte) ([]byte, error) {
	// EIP-191: Signed Data Standard
	prefixedMessage := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	messageHash := crypto.Keccak256Hash([]byte(prefixedMessage))

	signature, err := crypto.Sign(messageHash.Bytes(), w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message: %v: %w", err, errno.ErrSigning)
	}

	// crypto.Sign returns V as 0 or 1; eth_sign callers expect 27 or 28.
	signature[64] += 27

	return signature, nil
}
