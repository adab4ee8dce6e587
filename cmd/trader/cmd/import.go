package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xueqianLu/ethtrader/internal/errno"
	"github.com/xueqianLu/ethtrader/internal/keyring"
	"github.com/xueqianLu/ethtrader/internal/signer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Encrypt and store the wallet's private key",
	Long: `import asks for a hex private key, decrypts a V3 keystore file given with
--keystore, or creates a fresh key with --generate. The key is sealed under a
new password in the configured secret store.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		kr, err := openKeyring(ctx)
		if err != nil {
			return err
		}
		if kr.State() != keyring.StateNoSecret {
			return fmt.Errorf("a secret is already stored: %w", errno.ErrBadRequest)
		}

		prompter := newTermPrompter()
		keystorePath, _ := cmd.Flags().GetString("keystore")
		generate, _ := cmd.Flags().GetBool("generate")
		if keystorePath == "" && !generate {
			if err := kr.UnlockInteractive(ctx, prompter, keyring.DefaultAttempts); err != nil {
				return err
			}
		} else {
			var w *signer.Wallet
			if generate {
				w, err = signer.GenerateWallet()
			} else {
				w, err = walletFromKeystore(keystorePath, prompter)
			}
			if err != nil {
				return err
			}
			password, err := newPassword(prompter)
			if err != nil {
				return err
			}
			if err := kr.Setup(ctx, w, password); err != nil {
				return err
			}
		}

		w, err := kr.Wallet()
		if err != nil {
			return err
		}
		fmt.Println(w.Address().Hex())
		return nil
	},
}

func walletFromKeystore(path string, p keyring.Prompter) (*signer.Wallet, error) {
	keyJSON, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}
	password, err := p.PromptSecret("Keystore password")
	if err != nil {
		return nil, err
	}
	return signer.WalletFromKeystore(keyJSON, password)
}

func newPassword(p keyring.Prompter) (string, error) {
	password, err := p.PromptSecret("New password")
	if err != nil {
		return "", err
	}
	confirm, err := p.PromptSecret("Confirm password")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match: %w", errno.ErrBadRequest)
	}
	return password, nil
}

func init() {
	importCmd.Flags().String("keystore", "", "path to a V3 keystore JSON file")
	importCmd.Flags().Bool("generate", false, "generate a new random key")
	importCmd.MarkFlagsMutuallyExclusive("keystore", "generate")
	rootCmd.AddCommand(importCmd)
}
