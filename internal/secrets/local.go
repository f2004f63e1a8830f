package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LocalProviderConfig holds configuration for the local file secrets provider
type LocalProviderConfig struct {
	// BasePath is the base directory for secrets
	BasePath string
	Logger   *zap.Logger
	Metrics  *Metrics
}

// LocalProvider implements the Provider interface using local files.
// Secrets are stored as:
// - base-path/secret-name/key (each key is a separate file)
// - base-path/secret-name.yaml or .yml (single file with all keys)
// - base-path/secret-name.json (single file with all keys)
type LocalProvider struct {
	basePath string
	logger   *zap.Logger
	metrics  *Metrics
}

// NewLocalProvider creates a new local file secrets provider
func NewLocalProvider(cfg *LocalProviderConfig) (*LocalProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrProviderNotConfigured)
	}
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("%w: base path is required", ErrProviderNotConfigured)
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: base path does not exist: %s", ErrProviderNotConfigured, cfg.BasePath)
		}
		return nil, fmt.Errorf("%w: failed to access base path: %w", ErrProviderNotConfigured, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: base path is not a directory: %s", ErrProviderNotConfigured, cfg.BasePath)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LocalProvider{
		basePath: cfg.BasePath,
		logger:   logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Type returns the provider type
func (p *LocalProvider) Type() ProviderType {
	return ProviderTypeLocal
}

// cleanPath rejects empty, absolute and escaping paths.
func cleanPath(path string) (string, error) {
	if path == "" {
		return "", ErrInvalidPath
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: path must be relative", ErrInvalidPath)
	}

	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: path escapes base directory", ErrInvalidPath)
	}
	return cleaned, nil
}

// GetSecret retrieves a secret by path. The directory layout wins over
// single files; YAML is tried before JSON.
func (p *LocalProvider) GetSecret(_ context.Context, path string) (secret *Secret, err error) {
	start := time.Now()
	defer func() {
		p.metrics.RecordOperation(p.Type(), "get", time.Since(start), err)
	}()

	name, err := cleanPath(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Getting local secret",
		zap.String("path", path),
		zap.String("basePath", p.basePath),
	)

	dirPath := filepath.Join(p.basePath, name)
	if info, statErr := os.Stat(dirPath); statErr == nil && info.IsDir() {
		return p.readSecretFromDirectory(dirPath, name)
	}

	formats := []struct {
		ext       string
		source    string
		unmarshal func([]byte, interface{}) error
	}{
		{".yaml", "yaml", yaml.Unmarshal},
		{".yml", "yaml", yaml.Unmarshal},
		{".json", "json", json.Unmarshal},
	}

	for _, format := range formats {
		filePath := filepath.Join(p.basePath, name+format.ext)
		content, readErr := os.ReadFile(filepath.Clean(filePath))
		if errors.Is(readErr, os.ErrNotExist) {
			continue
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read secret file %s: %w", filePath, readErr)
		}

		var raw map[string]interface{}
		if err := format.unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse secret file %s: %w", filePath, err)
		}

		data, err := decodeValues(raw)
		if err != nil {
			return nil, err
		}

		return &Secret{
			Name:     name,
			Data:     data,
			Metadata: map[string]string{"source": format.source, "file": filePath},
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
}

// readSecretFromDirectory reads a secret from a directory where each file is a key
func (p *LocalProvider) readSecretFromDirectory(dirPath, name string) (*Secret, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	data := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(filepath.Clean(filePath))
		if err != nil {
			p.logger.Warn("Failed to read key file",
				zap.String("file", filePath),
				zap.Error(err),
			)
			continue
		}

		// Trim trailing newline (common in secret files)
		data[entry.Name()] = []byte(strings.TrimRight(string(content), "\r\n"))
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no key files in %s", ErrSecretNotFound, dirPath)
	}

	return &Secret{
		Name:     name,
		Data:     data,
		Metadata: map[string]string{"source": "directory"},
	}, nil
}
