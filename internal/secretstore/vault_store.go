package secretstore

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/vault/api"
	"github.com/xueqianLu/ethtrader/internal/errno"
)

const vaultBlobField = "blob"

// VaultStore keeps the blob in a HashiCorp Vault KV version 2 secret. The blob
// is already encrypted; Vault only provides durable, access-controlled storage.
type VaultStore struct {
	client *api.Client
	mount  string
	path   string
}

// NewVaultStore creates a VaultStore writing to <mount>/data/<path>.
func NewVaultStore(client *api.Client, mount, path string) *VaultStore {
	return &VaultStore{client: client, mount: mount, path: path}
}

func (s *VaultStore) dataPath() string {
	return fmt.Sprintf("%s/data/%s", s.mount, s.path)
}

// Load reads the blob from Vault.
func (s *VaultStore) Load(ctx context.Context) ([]byte, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.dataPath())
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", s.dataPath(), err)
	}
	if secret == nil || secret.Data["data"] == nil {
		return nil, fmt.Errorf("vault %s: %w", s.dataPath(), errno.ErrNoSecret)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected format for secret data at %s", s.dataPath())
	}
	encoded, ok := data[vaultBlobField].(string)
	if !ok || encoded == "" {
		return nil, fmt.Errorf("vault %s has no %q field: %w", s.dataPath(), vaultBlobField, errno.ErrNoSecret)
	}
	blob, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode blob from vault: %w", err)
	}
	return blob, nil
}

// Save writes the blob as a new version of the secret.
func (s *VaultStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.client.Logical().WriteWithContext(ctx, s.dataPath(), map[string]interface{}{
		"data": map[string]interface{}{
			vaultBlobField: base64.StdEncoding.EncodeToString(blob),
		},
	})
	if err != nil {
		return fmt.Errorf("vault write %s: %w", s.dataPath(), err)
	}
	return nil
}
