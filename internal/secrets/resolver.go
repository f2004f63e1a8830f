package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/aclgw/internal/config"
)

// Resolver resolves config.SecretRef values against the configured providers.
type Resolver struct {
	providers map[ProviderType]Provider
	logger    *zap.Logger
}

// NewResolver creates a resolver over providers. Later providers of the
// same type replace earlier ones.
func NewResolver(logger *zap.Logger, providers ...Provider) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Resolver{
		providers: make(map[ProviderType]Provider, len(providers)),
		logger:    logger,
	}
	for _, p := range providers {
		r.providers[p.Type()] = p
	}
	return r
}

// NewResolverFromConfig builds the providers named in cfg. A nil cfg
// yields a resolver that fails every reference.
func NewResolverFromConfig(cfg *config.SecretsConfig, logger *zap.Logger, metrics *Metrics) (*Resolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		return NewResolver(logger), nil
	}

	var providers []Provider

	if cfg.Env != nil {
		providers = append(providers, NewEnvProvider(&EnvProviderConfig{
			Prefix:  cfg.Env.Prefix,
			Logger:  logger,
			Metrics: metrics,
		}))
	}

	if cfg.Local != nil {
		p, err := NewLocalProvider(&LocalProviderConfig{
			BasePath: cfg.Local.BasePath,
			Logger:   logger,
			Metrics:  metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create local secrets provider: %w", err)
		}
		providers = append(providers, p)
	}

	if cfg.Vault != nil {
		p, err := NewVaultProvider(&VaultProviderConfig{
			Address:   cfg.Vault.Address,
			Token:     cfg.Vault.Token,
			Namespace: cfg.Vault.Namespace,
			MountPath: cfg.Vault.MountPath,
			Timeout:   cfg.Vault.Timeout.Duration(),
			Logger:    logger,
			Metrics:   metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create vault secrets provider: %w", err)
		}
		providers = append(providers, p)
	}

	return NewResolver(logger, providers...), nil
}

// Resolve returns the bytes stored under ref.Key in the referenced secret.
// An empty key selects EnvValueKey.
func (r *Resolver) Resolve(ctx context.Context, ref config.SecretRef) ([]byte, error) {
	providerType, err := ValidateProviderType(ref.Provider)
	if err != nil {
		return nil, err
	}

	provider, ok := r.providers[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, providerType)
	}

	secret, err := provider.GetSecret(ctx, ref.Path)
	if err != nil {
		return nil, err
	}

	key := ref.Key
	if key == "" {
		key = EnvValueKey
	}

	value, ok := secret.GetBytes(key)
	if !ok {
		r.logger.Debug("Secret key not found",
			zap.String("provider", string(providerType)),
			zap.String("path", ref.Path),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("%w: %s %s#%s", ErrKeyNotFound, providerType, ref.Path, key)
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}
