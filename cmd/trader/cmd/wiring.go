package cmd

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"github.com/xueqianLu/ethtrader/internal/agent"
	"github.com/xueqianLu/ethtrader/internal/chain"
	"github.com/xueqianLu/ethtrader/internal/config"
	"github.com/xueqianLu/ethtrader/internal/keyring"
	"github.com/xueqianLu/ethtrader/internal/metrics"
	"github.com/xueqianLu/ethtrader/internal/secretstore"
	"go.uber.org/zap"
)

func openStore(c config.Config) (secretstore.BlobStore, error) {
	switch c.Secret.Backend {
	case config.BackendVault:
		vaultConfig := api.DefaultConfig()
		if err := vaultConfig.ReadEnvironment(); err != nil {
			log.Warn("could not read Vault environment variables", zap.Error(err))
		}
		if c.Secret.Vault.Address != "" {
			vaultConfig.Address = c.Secret.Vault.Address
		}
		client, err := api.NewClient(vaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create Vault client: %w", err)
		}
		if c.Secret.Vault.Token != "" {
			client.SetToken(c.Secret.Vault.Token)
		}
		return secretstore.NewVaultStore(client, c.Secret.Vault.Mount, c.Secret.Vault.Path), nil
	default:
		return secretstore.NewFileStore(c.Secret.File), nil
	}
}

func openKeyring(ctx context.Context) (*keyring.Keyring, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	crypter, err := secretstore.NewCrypter(cfg.KDF())
	if err != nil {
		return nil, err
	}
	return keyring.Open(ctx, store, crypter, log)
}

// unlockedKeyring opens the keyring and prompts until it is unlocked.
func unlockedKeyring(ctx context.Context) (*keyring.Keyring, error) {
	kr, err := openKeyring(ctx)
	if err != nil {
		return nil, err
	}
	if err := kr.UnlockInteractive(ctx, newTermPrompter(), keyring.DefaultAttempts); err != nil {
		return nil, err
	}
	return kr, nil
}

func newAgent(ctx context.Context, kr *keyring.Keyring, m *metrics.Metrics) (*agent.Agent, func(), error) {
	client, err := chain.Dial(ctx, cfg.Chain.RPCURL, log)
	if err != nil {
		return nil, nil, err
	}
	reg, err := cfg.Registry()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	a, err := agent.New(cfg.Agent(), client, reg, kr, agent.WithLogger(log), agent.WithMetrics(m))
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return a, client.Close, nil
}
