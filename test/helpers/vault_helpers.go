package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
)

const (
	// DefaultVaultAddr is the default Vault address for testing.
	DefaultVaultAddr = "http://127.0.0.1:8200"
	// DefaultVaultToken is the default Vault token for testing.
	DefaultVaultToken = "myroot"
	// DefaultKVMount is the default KV v2 mount path for testing.
	DefaultKVMount = "secret"
)

// GetVaultAddr returns the Vault address from environment or default.
func GetVaultAddr() string {
	if addr := os.Getenv("VAULT_ADDR"); addr != "" {
		return addr
	}
	return DefaultVaultAddr
}

// GetVaultToken returns the Vault token from environment or default.
func GetVaultToken() string {
	if token := os.Getenv("VAULT_TOKEN"); token != "" {
		return token
	}
	return DefaultVaultToken
}

// GetVaultKVMount returns the KV mount path from environment or default.
func GetVaultKVMount() string {
	if mount := os.Getenv("VAULT_KV_MOUNT"); mount != "" {
		return mount
	}
	return DefaultKVMount
}

// IsVaultAvailable checks if Vault is reachable and unsealed.
func IsVaultAvailable() bool {
	client, err := CreateVaultClient()
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	health, err := client.Sys().HealthWithContext(ctx)
	if err != nil {
		return false
	}

	return health.Initialized && !health.Sealed
}

// SkipIfVaultUnavailable skips the test if Vault is not available.
func SkipIfVaultUnavailable(t *testing.T) {
	t.Helper()

	if !IsVaultAvailable() {
		t.Skip("Vault not available at", GetVaultAddr(), "- skipping test")
	}
}

// CreateVaultClient creates a Vault client for testing.
func CreateVaultClient() (*vault.Client, error) {
	config := vault.DefaultConfig()
	config.Address = GetVaultAddr()

	client, err := vault.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	client.SetToken(GetVaultToken())

	return client, nil
}

// WriteKVSecret writes data at path in the KV v2 mount and removes every
// version when the test ends.
func WriteKVSecret(t *testing.T, client *vault.Client, path string, data map[string]interface{}) {
	t.Helper()

	kv := client.KVv2(GetVaultKVMount())
	if _, err := kv.Put(context.Background(), path, data); err != nil {
		t.Fatalf("failed to write vault secret %s: %v", path, err)
	}

	t.Cleanup(func() {
		_ = kv.DeleteMetadata(context.Background(), path)
	})
}
