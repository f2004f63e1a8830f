package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "aclgw.io/v1", cfg.APIVersion)
	assert.Equal(t, "Gateway", cfg.Kind)
	assert.Equal(t, "test-gateway", cfg.Metadata.Name)
	require.Len(t, cfg.Spec.ACL.Clients, 1)
	assert.Equal(t, "alice", cfg.Spec.ACL.Clients[0].ID)
	assert.Equal(t, "s3cr3t", cfg.Spec.ACL.Clients[0].Secret)
	assert.Equal(t, []string{"read", "write"}, cfg.Spec.ACL.Clients[0].Scopes)
	assert.Equal(t, "test", cfg.Spec.ACL.Realm)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig("/nonexistent/path/aclgw.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigFromReader_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFromReader(strings.NewReader("spec: [unclosed"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromReader(strings.NewReader(`
apiVersion: aclgw.io/v1
kind: Gateway
metadata:
  name: defaults
spec:
  listeners:
    grpc:
      enabled: true
  secrets:
    env: {}
    vault:
      address: http://vault:8200
  rateLimit:
    enabled: true
    requestsPerSecond: 10
    burst: 5
  observability:
    tracing:
      enabled: true
  acl:
    clients:
      - id: svc
        secret: x
        scopes: [read]
`))
	require.NoError(t, err)

	spec := cfg.Spec
	assert.Equal(t, DefaultHTTPAddress, spec.Listeners.HTTP.Address)
	assert.Equal(t, DefaultReadTimeout, spec.Listeners.HTTP.ReadTimeout.Duration())
	assert.Equal(t, DefaultMaxHeaderBytes, spec.Listeners.HTTP.MaxHeaderBytes)
	assert.Equal(t, DefaultGRPCAddress, spec.Listeners.GRPC.Address)
	assert.True(t, cfg.GRPCEnabled())
	assert.Equal(t, DefaultRealm, spec.ACL.Realm)
	assert.Equal(t, DefaultEnvPrefix, spec.Secrets.Env.Prefix)
	assert.Equal(t, DefaultVaultMountPath, spec.Secrets.Vault.MountPath)
	assert.Equal(t, DefaultVaultTimeout, spec.Secrets.Vault.Timeout.Duration())
	assert.Equal(t, DefaultClientTTL, spec.RateLimit.ClientTTL.Duration())
	assert.Equal(t, DefaultTraceHeader, spec.Observability.TraceHeader)
	assert.Equal(t, "info", spec.Observability.Logging.Level)
	assert.Equal(t, "json", spec.Observability.Logging.Format)
	assert.True(t, spec.Observability.Metrics.Enabled)
	assert.Equal(t, DefaultMetricsPort, spec.Observability.Metrics.Port)
	assert.Equal(t, DefaultMetricsPath, spec.Observability.Metrics.Path)
	assert.Equal(t, DefaultServiceName, spec.Observability.Tracing.ServiceName)
	assert.InDelta(t, 1.0, spec.Observability.Tracing.SamplingRate, 0.0001)
	assert.False(t, spec.Observability.Audit.Enabled)
	assert.Equal(t, DefaultAuditOutput, spec.Observability.Audit.Output)
	assert.Equal(t, DefaultAuditFormat, spec.Observability.Audit.Format)
	assert.Equal(t, &AuditEventsConfig{Authentication: true, Configuration: true}, spec.Observability.Audit.Events)

	require.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfig_EnvSubstitution(t *testing.T) {
	t.Setenv("ACLGW_TEST_SECRET", "from-env")

	cfg, err := LoadConfigFromReader(strings.NewReader(`
apiVersion: aclgw.io/v1
kind: Gateway
metadata:
  name: ${ACLGW_TEST_NAME:-fallback}
spec:
  listeners:
    http:
      address: ":8080"
      readTimeout: 5s
  acl:
    clients:
      - id: alice
        secret: ${ACLGW_TEST_SECRET}
        scopes: [read]
      - id: bob
        secret: pa$$word
        scopes: [read]
`))
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.Metadata.Name)
	assert.Equal(t, "from-env", cfg.Spec.ACL.Clients[0].Secret)
	assert.Equal(t, "pa$word", cfg.Spec.ACL.Clients[1].Secret)
	assert.Equal(t, 5*time.Second, cfg.Spec.Listeners.HTTP.ReadTimeout.Duration())
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("ACLGW_SUBST_SET", "value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "set variable", input: "${ACLGW_SUBST_SET}", want: "value"},
		{name: "unset without default", input: "a${ACLGW_SUBST_UNSET}b", want: "ab"},
		{name: "unset with default", input: "${ACLGW_SUBST_UNSET:-dflt}", want: "dflt"},
		{name: "set ignores default", input: "${ACLGW_SUBST_SET:-dflt}", want: "value"},
		{name: "escaped dollar", input: "$${ACLGW_SUBST_SET}", want: "${ACLGW_SUBST_SET}"},
		{name: "no pattern", input: "plain text", want: "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, substituteEnvVars(tt.input))
		})
	}
}

func TestLoadConfig_TraceHeader(t *testing.T) {
	t.Parallel()

	content := validConfigYAML + "  observability:\n    traceHeader: x-cdp-request-id\n"
	cfg, err := LoadConfig(writeConfig(t, content))
	require.NoError(t, err)
	require.NoError(t, ValidateConfig(cfg))

	assert.Equal(t, "x-cdp-request-id", cfg.Spec.Observability.TraceHeader)
}

func TestGatewayConfig_ClearSecrets(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Spec.ACL.Clients = append(cfg.Spec.ACL.Clients, ACLClient{
		ID:        "batch",
		SecretRef: &SecretRef{Provider: SecretProviderEnv, Path: "batch"},
		Scopes:    []string{"execute"},
	})

	cfg.ClearSecrets()

	for _, c := range cfg.Spec.ACL.Clients {
		assert.Empty(t, c.Secret, c.ID)
	}
	assert.Equal(t, "alice", cfg.Spec.ACL.Clients[0].ID)
	assert.Equal(t, []string{"read", "write"}, cfg.Spec.ACL.Clients[0].Scopes)
	assert.NotNil(t, cfg.Spec.ACL.Clients[1].SecretRef)
}
