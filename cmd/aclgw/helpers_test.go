package main

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/aclgw/internal/config"
	"github.com/vyrodovalexey/aclgw/internal/observability"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const baseConfigYAML = `
apiVersion: aclgw.io/v1
kind: Gateway
metadata:
  name: test-gateway
spec:
  listeners:
    http:
      address: "127.0.0.1:0"
  acl:
    realm: test
    anonymousPaths: [/public/*]
    clients:
      - id: alice
        secret: s3cr3t
        scopes: [read, write]
  observability:
    metrics:
      enabled: true
      port: 19091
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "aclgw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func parseConfig(t *testing.T, content string) *config.GatewayConfig {
	t.Helper()

	cfg, err := config.LoadConfigFromReader(strings.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, config.ValidateConfig(cfg))
	return cfg
}

func newTestApplication(t *testing.T, content string) *application {
	t.Helper()

	app, err := newApplication(context.Background(), parseConfig(t, content), observability.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		if app.rateLimiter != nil {
			app.rateLimiter.Stop()
		}
	})
	return app
}

func basicHeader(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}

type logEntry struct {
	level string
	msg   string
}

// recordingLogger keeps every message logged through it. With and
// WithContext return the same logger.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) messages(level, msg string) []logEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []logEntry
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

func (l *recordingLogger) Debug(msg string, _ ...observability.Field) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...observability.Field)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...observability.Field)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...observability.Field) { l.record("error", msg) }
func (l *recordingLogger) Fatal(msg string, _ ...observability.Field) { l.record("fatal", msg) }

func (l *recordingLogger) With(...observability.Field) observability.Logger { return l }

func (l *recordingLogger) WithContext(context.Context) observability.Logger { return l }

func (l *recordingLogger) Sync() error { return nil }
