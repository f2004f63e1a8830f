package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultEnvPrefix is the default prefix for secret environment variables
const DefaultEnvPrefix = "ACLGW_SECRET_"

// EnvValueKey is the key under which a non-JSON variable value is stored
const EnvValueKey = "value"

// EnvProviderConfig holds configuration for the environment variable secrets provider
type EnvProviderConfig struct {
	// Prefix is prepended to the normalized secret path
	Prefix  string
	Logger  *zap.Logger
	Metrics *Metrics
}

// EnvProvider implements the Provider interface using environment variables.
// A variable holding a JSON object yields one key per member; any other
// value is stored under EnvValueKey.
type EnvProvider struct {
	prefix  string
	logger  *zap.Logger
	metrics *Metrics
	lookup  func(string) (string, bool)
}

// NewEnvProvider creates a new environment variable secrets provider
func NewEnvProvider(cfg *EnvProviderConfig) *EnvProvider {
	if cfg == nil {
		cfg = &EnvProviderConfig{}
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &EnvProvider{
		prefix:  prefix,
		logger:  logger,
		metrics: cfg.Metrics,
		lookup:  os.LookupEnv,
	}
}

// Type returns the provider type
func (p *EnvProvider) Type() ProviderType {
	return ProviderTypeEnv
}

// normalizeEnvName upper-cases path, maps '-', '.' and '/' to '_' and adds the prefix.
func (p *EnvProvider) normalizeEnvName(path string) string {
	name := strings.ToUpper(path)
	name = strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(name)
	return p.prefix + name
}

// GetSecret retrieves a secret from an environment variable
func (p *EnvProvider) GetSecret(_ context.Context, path string) (secret *Secret, err error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordOperation(p.Type(), "get", time.Since(start), err)
	}()

	if path == "" {
		return nil, ErrInvalidPath
	}

	envName := p.normalizeEnvName(path)

	p.logger.Debug("Getting secret from environment variable",
		zap.String("path", path),
		zap.String("envVar", envName),
	)

	value, exists := p.lookup(envName)
	if !exists {
		return nil, fmt.Errorf("%w: environment variable %s not set", ErrSecretNotFound, envName)
	}

	data := map[string][]byte{EnvValueKey: []byte(value)}

	var jsonData map[string]interface{}
	if json.Unmarshal([]byte(value), &jsonData) == nil {
		decoded, decodeErr := decodeValues(jsonData)
		if decodeErr != nil {
			return nil, decodeErr
		}
		data = decoded
	}

	return &Secret{
		Name:     path,
		Data:     data,
		Metadata: map[string]string{"source": "env", "envVar": envName},
	}, nil
}
