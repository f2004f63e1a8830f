package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMapEnvProvider(prefix string, env map[string]string) *EnvProvider {
	p := NewEnvProvider(&EnvProviderConfig{Prefix: prefix, Logger: zap.NewNop()})
	p.lookup = func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	return p
}

func TestNewEnvProvider(t *testing.T) {
	t.Parallel()

	provider := NewEnvProvider(nil)
	assert.Equal(t, DefaultEnvPrefix, provider.prefix)
	assert.Equal(t, ProviderTypeEnv, provider.Type())

	provider = NewEnvProvider(&EnvProviderConfig{Prefix: "CUSTOM_"})
	assert.Equal(t, "CUSTOM_", provider.prefix)
}

func TestEnvProvider_NormalizeEnvName(t *testing.T) {
	t.Parallel()

	p := NewEnvProvider(nil)

	tests := []struct {
		path string
		want string
	}{
		{path: "alice", want: "ACLGW_SECRET_ALICE"},
		{path: "batch-job", want: "ACLGW_SECRET_BATCH_JOB"},
		{path: "clients/batch.v2", want: "ACLGW_SECRET_CLIENTS_BATCH_V2"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, p.normalizeEnvName(tt.path))
		})
	}
}

func TestEnvProvider_GetSecret(t *testing.T) {
	t.Parallel()

	p := newMapEnvProvider("TEST_", map[string]string{
		"TEST_ALICE":  "s3cr3t",
		"TEST_BATCH":  `{"secret":"from-json","rotation":3}`,
		"TEST_BROKEN": `{"secret":`,
	})
	ctx := context.Background()

	t.Run("raw value", func(t *testing.T) {
		t.Parallel()

		secret, err := p.GetSecret(ctx, "alice")
		require.NoError(t, err)
		v, ok := secret.GetBytes(EnvValueKey)
		require.True(t, ok)
		assert.Equal(t, []byte("s3cr3t"), v)
		assert.Equal(t, "TEST_ALICE", secret.Metadata["envVar"])
	})

	t.Run("json object", func(t *testing.T) {
		t.Parallel()

		secret, err := p.GetSecret(ctx, "batch")
		require.NoError(t, err)
		v, _ := secret.GetBytes("secret")
		assert.Equal(t, []byte("from-json"), v)
		v, _ = secret.GetBytes("rotation")
		assert.Equal(t, []byte("3"), v)
		_, ok := secret.GetBytes(EnvValueKey)
		assert.False(t, ok)
	})

	t.Run("invalid json is a raw value", func(t *testing.T) {
		t.Parallel()

		secret, err := p.GetSecret(ctx, "broken")
		require.NoError(t, err)
		v, _ := secret.GetBytes(EnvValueKey)
		assert.Equal(t, []byte(`{"secret":`), v)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := p.GetSecret(ctx, "nobody")
		assert.ErrorIs(t, err, ErrSecretNotFound)
	})

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()

		_, err := p.GetSecret(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestEnvProvider_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("ACLGW_SECRET_SVC_ONE", "from-process")

	secret, err := NewEnvProvider(nil).GetSecret(context.Background(), "svc-one")
	require.NoError(t, err)
	v, _ := secret.GetBytes(EnvValueKey)
	assert.Equal(t, []byte("from-process"), v)
}
