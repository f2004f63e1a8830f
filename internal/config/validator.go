package config

import (
	"fmt"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// APIVersionPrefix is the required apiVersion group.
const APIVersionPrefix = "aclgw.io/"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Path    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, e[i].Error())
	}
	return sb.String()
}

// HasErrors returns true if there are validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates gateway configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates a gateway configuration.
func ValidateConfig(config *GatewayConfig) error {
	return NewValidator().Validate(config)
}

// Validate validates the configuration and returns ValidationErrors when
// anything is wrong.
func (v *Validator) Validate(config *GatewayConfig) error {
	v.errors = nil

	if config == nil {
		v.addError("", "configuration is nil")
		return v.errors
	}

	v.validateRoot(config)
	v.validateListeners(&config.Spec.Listeners)
	v.validateACL(&config.Spec.ACL, config.Spec.Secrets)
	v.validateSecrets(config.Spec.Secrets)
	if config.Spec.RateLimit != nil {
		v.validateRateLimit(config.Spec.RateLimit)
	}
	if config.Spec.Observability != nil {
		v.validateObservability(config.Spec.Observability)
	}

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) validateRoot(config *GatewayConfig) {
	if config.APIVersion == "" {
		v.addError("apiVersion", "apiVersion is required")
	} else if !strings.HasPrefix(config.APIVersion, APIVersionPrefix) {
		v.addError("apiVersion", "apiVersion must start with '"+APIVersionPrefix+"'")
	}

	if config.Kind == "" {
		v.addError("kind", "kind is required")
	} else if config.Kind != "Gateway" {
		v.addError("kind", "kind must be 'Gateway'")
	}

	if config.Metadata.Name == "" {
		v.addError("metadata.name", "name is required")
	}
}

func (v *Validator) validateListeners(l *ListenersConfig) {
	if l.HTTP.Address == "" {
		v.addError("spec.listeners.http.address", "address is required")
	}
	if l.HTTP.ReadTimeout < 0 || l.HTTP.WriteTimeout < 0 || l.HTTP.IdleTimeout < 0 {
		v.addError("spec.listeners.http", "timeouts must be non-negative")
	}
	if l.HTTP.MaxHeaderBytes < 0 {
		v.addError("spec.listeners.http.maxHeaderBytes", "maxHeaderBytes must be non-negative")
	}
	if l.GRPC != nil && l.GRPC.Enabled && l.GRPC.Address == "" {
		v.addError("spec.listeners.grpc.address", "address is required when gRPC is enabled")
	}
}

func (v *Validator) validateACL(acl *ACLConfig, secrets *SecretsConfig) {
	if len(acl.Clients) == 0 {
		v.addError("spec.acl.clients", "at least one client is required")
	}

	seen := make(map[string]int, len(acl.Clients))
	for i := range acl.Clients {
		client := &acl.Clients[i]
		path := fmt.Sprintf("spec.acl.clients[%d]", i)

		switch {
		case client.ID == "":
			v.addError(path+".id", "id is required")
		case strings.Contains(client.ID, ":"):
			v.addError(path+".id", "id must not contain ':'")
		default:
			if prev, dup := seen[client.ID]; dup {
				v.addError(path+".id", fmt.Sprintf("duplicate client id %q (also at index %d)", client.ID, prev))
			} else {
				seen[client.ID] = i
			}
		}

		v.validateClientSecret(client, secrets, path)
		v.validateScopes(client.Scopes, path+".scopes")
	}

	for i, p := range acl.AnonymousPaths {
		if !strings.HasPrefix(p, "/") {
			v.addError(fmt.Sprintf("spec.acl.anonymousPaths[%d]", i), "path must start with '/'")
		}
	}
	for i, m := range acl.AnonymousMethods {
		if !strings.HasPrefix(m, "/") {
			v.addError(fmt.Sprintf("spec.acl.anonymousMethods[%d]", i), "method must be a full name like /pkg.Service/Method")
		}
	}
}

func (v *Validator) validateClientSecret(client *ACLClient, secrets *SecretsConfig, path string) {
	hasInline := client.Secret != ""
	hasRef := client.SecretRef != nil

	switch {
	case hasInline && hasRef:
		v.addError(path, "secret and secretRef are mutually exclusive")
		return
	case !hasInline && !hasRef:
		v.addError(path+".secret", "secret is required")
		return
	case hasInline:
		return
	}

	ref := client.SecretRef
	if ref.Path == "" {
		v.addError(path+".secretRef.path", "path is required")
	}

	var configured bool
	switch ref.Provider {
	case SecretProviderEnv:
		configured = secrets != nil && secrets.Env != nil
	case SecretProviderLocal:
		configured = secrets != nil && secrets.Local != nil
	case SecretProviderVault:
		configured = secrets != nil && secrets.Vault != nil
	default:
		v.addError(path+".secretRef.provider",
			fmt.Sprintf("unknown provider %q (want env, local or vault)", ref.Provider))
		return
	}
	if !configured {
		v.addError(path+".secretRef.provider",
			fmt.Sprintf("provider %q is not configured under spec.secrets", ref.Provider))
	}
}

func (v *Validator) validateScopes(scopes []string, path string) {
	if len(scopes) == 0 {
		v.addError(path, "at least one scope is required")
		return
	}

	seen := make(map[string]struct{}, len(scopes))
	for i, s := range scopes {
		if s == "" {
			v.addError(fmt.Sprintf("%s[%d]", path, i), "scope must not be empty")
			continue
		}
		if _, dup := seen[s]; dup {
			v.addError(fmt.Sprintf("%s[%d]", path, i), fmt.Sprintf("duplicate scope %q", s))
			continue
		}
		seen[s] = struct{}{}
	}
}

func (v *Validator) validateSecrets(secrets *SecretsConfig) {
	if secrets == nil {
		return
	}
	if secrets.Local != nil && secrets.Local.BasePath == "" {
		v.addError("spec.secrets.local.basePath", "basePath is required")
	}
	if secrets.Vault != nil {
		if secrets.Vault.Address == "" {
			v.addError("spec.secrets.vault.address", "address is required")
		}
		if secrets.Vault.Timeout < 0 {
			v.addError("spec.secrets.vault.timeout", "timeout must be non-negative")
		}
	}
}

func (v *Validator) validateRateLimit(rl *RateLimitConfig) {
	if !rl.Enabled {
		return
	}
	if rl.RequestsPerSecond <= 0 {
		v.addError("spec.rateLimit.requestsPerSecond", "requestsPerSecond must be positive")
	}
	if rl.Burst <= 0 {
		v.addError("spec.rateLimit.burst", "burst must be positive")
	}
}

func (v *Validator) validateObservability(o *ObservabilityConfig) {
	switch {
	case o.TraceHeader == "":
		v.addError("spec.observability.traceHeader", "traceHeader is required")
	case !httpguts.ValidHeaderFieldName(o.TraceHeader):
		v.addError("spec.observability.traceHeader", "traceHeader must be a valid HTTP header name")
	}
	if o.Logging != nil {
		switch o.Logging.Format {
		case "", "json", "console":
		default:
			v.addError("spec.observability.logging.format", "format must be 'json' or 'console'")
		}
	}
	if o.Metrics != nil && o.Metrics.Enabled {
		if o.Metrics.Port < 1 || o.Metrics.Port > 65535 {
			v.addError("spec.observability.metrics.port", "port must be between 1 and 65535")
		}
		if o.Metrics.Path != "" && !strings.HasPrefix(o.Metrics.Path, "/") {
			v.addError("spec.observability.metrics.path", "path must start with '/'")
		}
	}
	if o.Tracing != nil && (o.Tracing.SamplingRate < 0 || o.Tracing.SamplingRate > 1) {
		v.addError("spec.observability.tracing.samplingRate", "samplingRate must be between 0 and 1")
	}
	if o.Audit != nil {
		switch o.Audit.Format {
		case "", "json", "text":
		default:
			v.addError("spec.observability.audit.format", "format must be 'json' or 'text'")
		}
	}
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}
