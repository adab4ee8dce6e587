package keyring

import (
	"context"
	"errors"
	"fmt"

	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/signer"
	"go.uber.org/zap"
)

// DefaultAttempts bounds re-prompting in UnlockInteractive.
const DefaultAttempts = 3

// Prompter asks the operator for a secret value without echoing it.
type Prompter interface {
	PromptSecret(label string) (string, error)
}

// UnlockInteractive brings the keyring to the Unlocked state by asking the
// operator for input. With no stored secret it asks for a private key and a
// new password; otherwise it asks for the password. Invalid input is
// re-prompted up to attempts times.
func (k *Keyring) UnlockInteractive(ctx context.Context, p Prompter, attempts int) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var last error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch k.State() {
		case StateUnlocked:
			return nil
		case StateNoSecret:
			last = k.setupInteractive(ctx, p)
		case StateLocked:
			password, err := p.PromptSecret("Password")
			if err != nil {
				return err
			}
			last = k.Unlock(password)
		}
		if last == nil {
			return nil
		}
		if !errno.Recoverable(last) {
			return last
		}
		k.log.Warn("unlock attempt failed", zap.Int("attempt", i+1), zap.Error(last))
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, last)
}

func (k *Keyring) setupInteractive(ctx context.Context, p Prompter) error {
	hexKey, err := p.PromptSecret("Private key")
	if err != nil {
		return err
	}
	w, err := signer.WalletFromHex(hexKey)
	if err != nil {
		if errors.Is(err, errno.ErrSigning) {
			return fmt.Errorf("%v: %w", err, errno.ErrBadRequest)
		}
		return err
	}
	password, err := p.PromptSecret("New password")
	if err != nil {
		return err
	}
	confirm, err := p.PromptSecret("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match: %w", errno.ErrBadRequest)
	}
	return k.Setup(ctx, w, password)
}
