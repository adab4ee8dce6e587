// Package keyring manages the lifecycle of the trader's single signing key:
// absent, stored encrypted, or decrypted in memory.
package keyring

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/secretstore"
	"github.com/xueqianLu/ethtrader/internal/signer"
	"go.uber.org/zap"
)

// State is the wallet lifecycle state.
type State int

const (
	// StateNoSecret means no encrypted key has been stored yet.
	StateNoSecret State = iota
	// StateLocked means an encrypted key is stored but not decrypted.
	StateLocked
	// StateUnlocked means the key is in memory and can sign.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateNoSecret:
		return "no-secret"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Keyring holds at most one wallet. Once unlocked, the wallet stays in
// memory until the process exits.
type Keyring struct {
	store   secretstore.BlobStore
	crypter *secretstore.Crypter
	log     *zap.Logger

	mu     sync.RWMutex
	state  State
	blob   []byte
	wallet *signer.Wallet
}

// Open reads the stored blob, if any, and returns a keyring in the
// NoSecret or Locked state.
func Open(ctx context.Context, store secretstore.BlobStore, crypter *secretstore.Crypter, log *zap.Logger) (*Keyring, error) {
	if log == nil {
		log = zap.NewNop()
	}
	k := &Keyring{
		store:   store,
		crypter: crypter,
		log:     log.Named("keyring"),
	}
	blob, err := store.Load(ctx)
	switch {
	case errors.Is(err, errno.ErrNoSecret):
		k.state = StateNoSecret
	case err != nil:
		return nil, fmt.Errorf("failed to load secret: %w", err)
	default:
		k.state = StateLocked
		k.blob = blob
	}
	k.log.Info("keyring opened", zap.Stringer("state", k.state))
	return k, nil
}

func (k *Keyring) State() State {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

// Setup encrypts w under password, persists it and unlocks the keyring.
// It only succeeds when nothing is stored yet.
func (k *Keyring) Setup(ctx context.Context, w *signer.Wallet, password string) error {
	if password == "" {
		return fmt.Errorf("empty password: %w", errno.ErrBadRequest)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.state != StateNoSecret {
		return fmt.Errorf("a secret is already stored (%s): %w", k.state, errno.ErrBadRequest)
	}

	plain := w.Bytes()
	blob, err := k.crypter.Encrypt(plain, password)
	secretstore.Zero(plain)
	if err != nil {
		return err
	}
	if err := k.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("failed to persist secret: %w", err)
	}
	k.blob = blob
	k.wallet = w
	k.state = StateUnlocked
	k.log.Info("secret stored", zap.Stringer("address", w.Address()))
	return nil
}

// Unlock decrypts the stored key. A wrong password leaves the keyring
// locked and returns ErrDecryption. Unlocking an unlocked keyring is a no-op.
func (k *Keyring) Unlock(password string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	switch k.state {
	case StateUnlocked:
		return nil
	case StateNoSecret:
		return errno.ErrNoSecret
	}

	plain, err := k.crypter.Decrypt(k.blob, password)
	if err != nil {
		return err
	}
	w, err := signer.WalletFromBytes(plain)
	secretstore.Zero(plain)
	if err != nil {
		return err
	}
	k.wallet = w
	k.state = StateUnlocked
	k.log.Info("wallet unlocked", zap.Stringer("address", w.Address()))
	return nil
}

// Wallet returns the unlocked wallet.
func (k *Keyring) Wallet() (*signer.Wallet, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	switch k.state {
	case StateUnlocked:
		return k.wallet, nil
	case StateLocked:
		return nil, errno.ErrLocked
	default:
		return nil, errno.ErrNoSecret
	}
}
