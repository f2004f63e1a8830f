package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
apiVersion: aclgw.io/v1
kind: Gateway
metadata:
  name: test-gateway
spec:
  listeners:
    http:
      address: ":8080"
  acl:
    realm: test
    anonymousPaths: [/health]
    clients:
      - id: alice
        secret: s3cr3t
        scopes: [read, write]
`

const invalidConfigYAML = `
apiVersion: aclgw.io/v1
kind: Gateway
metadata:
  name: test-gateway
spec:
  acl:
    clients:
      - id: alice
        scopes: []
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "aclgw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
