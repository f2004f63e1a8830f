package secrets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Vault provider defaults.
const (
	DefaultVaultMountPath = "secret"
	DefaultVaultTimeout   = 10 * time.Second
)

// VaultProviderConfig holds configuration for the Vault secrets provider
type VaultProviderConfig struct {
	// Address is the Vault server address
	Address string
	// Token is the Vault token
	Token string
	// Namespace is the Vault namespace (Enterprise only)
	Namespace string
	// MountPath is the KV v2 secrets engine mount point
	MountPath string
	// Timeout is the request timeout
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *Metrics
}

// VaultProvider implements the Provider interface over a Vault KV v2 mount
type VaultProvider struct {
	kv        *vaultapi.KVv2
	mountPath string
	logger    *zap.Logger
	metrics   *Metrics
}

// NewVaultProvider creates a new Vault secrets provider
func NewVaultProvider(cfg *VaultProviderConfig) (*VaultProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("%w: vault address is required", ErrProviderNotConfigured)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: vault token is required", ErrProviderNotConfigured)
	}

	mountPath := strings.Trim(cfg.MountPath, "/")
	if mountPath == "" {
		mountPath = DefaultVaultMountPath
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultVaultTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	apiConfig := vaultapi.DefaultConfig()
	if apiConfig.Error != nil {
		return nil, fmt.Errorf("failed to build vault config: %w", apiConfig.Error)
	}
	apiConfig.Address = cfg.Address
	apiConfig.Timeout = timeout

	client, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	logger.Info("Vault secrets provider initialized",
		zap.String("address", cfg.Address),
		zap.String("mountPath", mountPath),
	)

	return &VaultProvider{
		kv:        client.KVv2(mountPath),
		mountPath: mountPath,
		logger:    logger,
		metrics:   cfg.Metrics,
	}, nil
}

// Type returns the provider type
func (p *VaultProvider) Type() ProviderType {
	return ProviderTypeVault
}

// GetSecret reads the latest version of the secret at path
func (p *VaultProvider) GetSecret(ctx context.Context, path string) (secret *Secret, err error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordOperation(p.Type(), "get", time.Since(start), err)
	}()

	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrInvalidPath
	}

	p.logger.Debug("Getting vault secret",
		zap.String("mountPath", p.mountPath),
		zap.String("path", path),
	)

	kvSecret, err := p.kv.Get(ctx, path)
	if err != nil {
		if errors.Is(err, vaultapi.ErrSecretNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, p.mountPath, path)
		}
		return nil, fmt.Errorf("failed to read vault secret %s/%s: %w", p.mountPath, path, err)
	}
	if kvSecret == nil || kvSecret.Data == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, p.mountPath, path)
	}

	data, err := decodeValues(kvSecret.Data)
	if err != nil {
		return nil, err
	}

	result := &Secret{
		Name:     path,
		Data:     data,
		Metadata: map[string]string{"source": "vault", "mountPath": p.mountPath},
	}
	if kvSecret.VersionMetadata != nil {
		result.Version = strconv.Itoa(kvSecret.VersionMetadata.Version)
	}
	return result, nil
}
