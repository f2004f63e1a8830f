package config

import "time"

// Secret provider identifiers accepted in secretRef.provider.
const (
	SecretProviderEnv   = "env"
	SecretProviderLocal = "local"
	SecretProviderVault = "vault"
)

// Defaults applied by the loader.
const (
	DefaultHTTPAddress    = ":8080"
	DefaultGRPCAddress    = ":9090"
	DefaultMetricsPort    = 9091
	DefaultMetricsPath    = "/metrics"
	DefaultRealm          = "aclgw"
	DefaultServiceName    = "aclgw"
	DefaultMaxHeaderBytes = 8192
	DefaultEnvPrefix      = "ACLGW_SECRET_"
	DefaultVaultMountPath = "secret"
	DefaultAuditOutput    = "stdout"
	DefaultAuditFormat    = "json"
	DefaultTraceHeader    = "X-Request-ID"

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second
	DefaultVaultTimeout = 10 * time.Second
	DefaultClientTTL    = 10 * time.Minute
)

// GatewayConfig is the root configuration document.
type GatewayConfig struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Spec       GatewaySpec `yaml:"spec" json:"spec"`
}

// Metadata contains identifying information for the gateway.
type Metadata struct {
	Name   string            `yaml:"name" json:"name"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// GatewaySpec contains the gateway specification.
type GatewaySpec struct {
	Listeners     ListenersConfig      `yaml:"listeners" json:"listeners"`
	ACL           ACLConfig            `yaml:"acl" json:"acl"`
	Secrets       *SecretsConfig       `yaml:"secrets,omitempty" json:"secrets,omitempty"`
	RateLimit     *RateLimitConfig     `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty"`
	Observability *ObservabilityConfig `yaml:"observability,omitempty" json:"observability,omitempty"`
}

// ListenersConfig holds the HTTP and optional gRPC listeners.
type ListenersConfig struct {
	HTTP HTTPListener  `yaml:"http" json:"http"`
	GRPC *GRPCListener `yaml:"grpc,omitempty" json:"grpc,omitempty"`
}

// HTTPListener configures the HTTP server.
type HTTPListener struct {
	Address        string   `yaml:"address" json:"address"`
	ReadTimeout    Duration `yaml:"readTimeout,omitempty" json:"readTimeout,omitempty"`
	WriteTimeout   Duration `yaml:"writeTimeout,omitempty" json:"writeTimeout,omitempty"`
	IdleTimeout    Duration `yaml:"idleTimeout,omitempty" json:"idleTimeout,omitempty"`
	MaxHeaderBytes int      `yaml:"maxHeaderBytes,omitempty" json:"maxHeaderBytes,omitempty"`
}

// GRPCListener configures the gRPC server.
type GRPCListener struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	Address    string `yaml:"address" json:"address"`
	Reflection bool   `yaml:"reflection,omitempty" json:"reflection,omitempty"`
}

// ACLConfig is the static client access list.
type ACLConfig struct {
	// Realm is advertised in WWW-Authenticate challenges.
	Realm string `yaml:"realm,omitempty" json:"realm,omitempty"`

	// AnonymousPaths are HTTP paths (or route templates) served without credentials.
	AnonymousPaths []string `yaml:"anonymousPaths,omitempty" json:"anonymousPaths,omitempty"`

	// AnonymousMethods are full gRPC method names served without credentials.
	AnonymousMethods []string `yaml:"anonymousMethods,omitempty" json:"anonymousMethods,omitempty"`

	// TimingSafeCompare switches secret comparison to constant time.
	TimingSafeCompare bool `yaml:"timingSafeCompare,omitempty" json:"timingSafeCompare,omitempty"`

	Clients []ACLClient `yaml:"clients" json:"clients"`
}

// ACLClient is one registered client. Exactly one of Secret and SecretRef is set.
type ACLClient struct {
	ID        string     `yaml:"id" json:"id"`
	Secret    string     `yaml:"secret,omitempty" json:"-"`
	SecretRef *SecretRef `yaml:"secretRef,omitempty" json:"secretRef,omitempty"`
	Scopes    []string   `yaml:"scopes" json:"scopes"`
}

// SecretRef points at a secret held by a configured provider.
type SecretRef struct {
	Provider string `yaml:"provider" json:"provider"`
	Path     string `yaml:"path" json:"path"`
	Key      string `yaml:"key,omitempty" json:"key,omitempty"`
}

// SecretsConfig configures the providers used to resolve SecretRefs.
type SecretsConfig struct {
	Env   *EnvSecretsConfig   `yaml:"env,omitempty" json:"env,omitempty"`
	Local *LocalSecretsConfig `yaml:"local,omitempty" json:"local,omitempty"`
	Vault *VaultSecretsConfig `yaml:"vault,omitempty" json:"vault,omitempty"`
}

// EnvSecretsConfig configures the environment variable provider.
type EnvSecretsConfig struct {
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
}

// LocalSecretsConfig configures the local file provider.
type LocalSecretsConfig struct {
	BasePath string `yaml:"basePath" json:"basePath"`
}

// VaultSecretsConfig configures the Vault KV v2 provider.
type VaultSecretsConfig struct {
	Address   string   `yaml:"address" json:"address"`
	Token     string   `yaml:"token,omitempty" json:"-"`
	Namespace string   `yaml:"namespace,omitempty" json:"namespace,omitempty"`
	MountPath string   `yaml:"mountPath,omitempty" json:"mountPath,omitempty"`
	Timeout   Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// RateLimitConfig configures request rate limiting in front of authentication.
type RateLimitConfig struct {
	Enabled           bool     `yaml:"enabled" json:"enabled"`
	RequestsPerSecond float64  `yaml:"requestsPerSecond" json:"requestsPerSecond"`
	Burst             int      `yaml:"burst" json:"burst"`
	PerClient         bool     `yaml:"perClient,omitempty" json:"perClient,omitempty"`
	ClientTTL         Duration `yaml:"clientTTL,omitempty" json:"clientTTL,omitempty"`
}

// ObservabilityConfig groups logging, metrics, and tracing settings.
type ObservabilityConfig struct {
	// TraceHeader carries the correlation id on HTTP requests and, lower
	// cased, in gRPC metadata.
	TraceHeader string `yaml:"traceHeader,omitempty" json:"traceHeader,omitempty"`

	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Tracing *TracingConfig `yaml:"tracing,omitempty" json:"tracing,omitempty"`
	Audit   *AuditConfig   `yaml:"audit,omitempty" json:"audit,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// MetricsConfig configures the metrics listener. Authenticate requires
// ACL client credentials on the metrics endpoint.
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Port         int    `yaml:"port,omitempty" json:"port,omitempty"`
	Path         string `yaml:"path,omitempty" json:"path,omitempty"`
	Authenticate bool   `yaml:"authenticate,omitempty" json:"authenticate,omitempty"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlpEndpoint,omitempty" json:"otlpEndpoint,omitempty"`
	SamplingRate float64 `yaml:"samplingRate,omitempty" json:"samplingRate,omitempty"`
	ServiceName  string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// AuditConfig configures the authentication audit trail. Output is
// "stdout", "stderr" or a file path.
type AuditConfig struct {
	Enabled   bool               `yaml:"enabled" json:"enabled"`
	Output    string             `yaml:"output,omitempty" json:"output,omitempty"`
	Format    string             `yaml:"format,omitempty" json:"format,omitempty"`
	Events    *AuditEventsConfig `yaml:"events,omitempty" json:"events,omitempty"`
	SkipPaths []string           `yaml:"skipPaths,omitempty" json:"skipPaths,omitempty"`
}

// AuditEventsConfig selects the audited event types.
type AuditEventsConfig struct {
	Authentication bool `yaml:"authentication" json:"authentication"`
	Configuration  bool `yaml:"configuration" json:"configuration"`
}

// GRPCEnabled reports whether the gRPC listener should be started.
func (c *GatewayConfig) GRPCEnabled() bool {
	return c.Spec.Listeners.GRPC != nil && c.Spec.Listeners.GRPC.Enabled
}

// ClearSecrets drops the inline client secrets. Callers clear a
// configuration once its client table has been built so that the
// registry holds the only long-lived copy.
func (c *GatewayConfig) ClearSecrets() {
	for i := range c.Spec.ACL.Clients {
		c.Spec.ACL.Clients[i].Secret = ""
	}
}

// ApplyDefaults fills unset optional fields.
func (c *GatewayConfig) ApplyDefaults() {
	s := &c.Spec

	if s.Listeners.HTTP.Address == "" {
		s.Listeners.HTTP.Address = DefaultHTTPAddress
	}
	if s.Listeners.HTTP.ReadTimeout == 0 {
		s.Listeners.HTTP.ReadTimeout = Duration(DefaultReadTimeout)
	}
	if s.Listeners.HTTP.WriteTimeout == 0 {
		s.Listeners.HTTP.WriteTimeout = Duration(DefaultWriteTimeout)
	}
	if s.Listeners.HTTP.IdleTimeout == 0 {
		s.Listeners.HTTP.IdleTimeout = Duration(DefaultIdleTimeout)
	}
	if s.Listeners.HTTP.MaxHeaderBytes == 0 {
		s.Listeners.HTTP.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if g := s.Listeners.GRPC; g != nil && g.Address == "" {
		g.Address = DefaultGRPCAddress
	}

	if s.ACL.Realm == "" {
		s.ACL.Realm = DefaultRealm
	}

	if s.Secrets != nil {
		if s.Secrets.Env != nil && s.Secrets.Env.Prefix == "" {
			s.Secrets.Env.Prefix = DefaultEnvPrefix
		}
		if v := s.Secrets.Vault; v != nil {
			if v.MountPath == "" {
				v.MountPath = DefaultVaultMountPath
			}
			if v.Timeout == 0 {
				v.Timeout = Duration(DefaultVaultTimeout)
			}
		}
	}

	if rl := s.RateLimit; rl != nil && rl.ClientTTL == 0 {
		rl.ClientTTL = Duration(DefaultClientTTL)
	}

	if s.Observability == nil {
		s.Observability = &ObservabilityConfig{}
	}
	o := s.Observability
	if o.TraceHeader == "" {
		o.TraceHeader = DefaultTraceHeader
	}
	if o.Logging == nil {
		o.Logging = &LoggingConfig{}
	}
	if o.Logging.Level == "" {
		o.Logging.Level = "info"
	}
	if o.Logging.Format == "" {
		o.Logging.Format = "json"
	}
	if o.Metrics == nil {
		o.Metrics = &MetricsConfig{Enabled: true}
	}
	if o.Metrics.Port == 0 {
		o.Metrics.Port = DefaultMetricsPort
	}
	if o.Metrics.Path == "" {
		o.Metrics.Path = DefaultMetricsPath
	}
	if o.Tracing == nil {
		o.Tracing = &TracingConfig{}
	}
	if o.Tracing.ServiceName == "" {
		o.Tracing.ServiceName = DefaultServiceName
	}
	// an enabled tracer with no rate samples everything
	if o.Tracing.Enabled && o.Tracing.SamplingRate == 0 {
		o.Tracing.SamplingRate = 1.0
	}
	if o.Audit == nil {
		o.Audit = &AuditConfig{}
	}
	if o.Audit.Output == "" {
		o.Audit.Output = DefaultAuditOutput
	}
	if o.Audit.Format == "" {
		o.Audit.Format = DefaultAuditFormat
	}
	if o.Audit.Events == nil {
		o.Audit.Events = &AuditEventsConfig{Authentication: true, Configuration: true}
	}
}
