package walletstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/paperwall/paperwall-agent/interfaces"
)

const vaultWalletField = "wallet"

// VaultStore persists the wallet document in HashiCorp Vault's KV v2 engine.
// Authentication follows the standard Vault environment (VAULT_TOKEN and
// friends); the stored value is the same JSON document as every other
// backend.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault-backed store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount (e.g. "secret")
//   - dataPath: path within the mount (e.g. "paperwall/agent-1")
func NewVaultStore(address, mountPath, dataPath string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}

	mountPath = strings.Trim(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(address, "https://"), mountPath, dataPath),
	}, nil
}

// Load fetches and decodes the wallet document from Vault.
func (s *VaultStore) Load(ctx context.Context) (*interfaces.WalletDocument, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.secretPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read wallet from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrWalletNotFound
	}

	// KV v2 nests the payload under "data".
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, interfaces.ErrWalletNotFound
	}
	raw, ok := inner[vaultWalletField].(string)
	if !ok {
		return nil, interfaces.ErrWalletNotFound
	}

	var doc interfaces.WalletDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse wallet secret at %s: %w", s.secretPath(), err)
	}
	return &doc, nil
}

// Save writes the wallet document wholesale as a new secret version.
func (s *VaultStore) Save(ctx context.Context, doc *interfaces.WalletDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode wallet document: %w", err)
	}

	_, err = s.client.Logical().WriteWithContext(ctx, s.secretPath(), map[string]interface{}{
		"data": map[string]interface{}{
			vaultWalletField: string(data),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to store wallet in Vault: %w", err)
	}

	s.log.Debug("Stored wallet document", slog.String("path", s.secretPath()))
	return nil
}

// Available reports whether the Vault server responds to a health check.
func (s *VaultStore) Available(ctx context.Context) bool {
	health, err := s.client.Sys().HealthWithContext(ctx)
	if err != nil {
		s.log.Debug("Vault wallet store unavailable", "err", err)
		return false
	}
	return health.Initialized && !health.Sealed
}

// LocationURI identifies this store.
func (s *VaultStore) LocationURI() string {
	return s.locationURI
}

func (s *VaultStore) secretPath() string {
	return fmt.Sprintf("%s/data/%s", s.mountPath, s.dataPath)
}
