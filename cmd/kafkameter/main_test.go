package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertiesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kafkameter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
kafka:
  brokers: broker:9093
  client_id: cli
  ssl_enabled: true
  ssl_keystore: /ks.p12
  ssl_keystore_password: secret
  ssl_truststore: /ca.pem
  ssl_truststore_password: secret2
  extra_configs:
    - key: acks
      value: all
`), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path, "properties"})
	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Contains(t, lines, "bootstrap.servers=broker:9093")
	assert.Contains(t, lines, "client.id=cli")
	assert.Contains(t, lines, "acks=all")
	assert.Contains(t, lines, "security.protocol=SSL")
	assert.Contains(t, lines, "ssl.keystore.password=********")
	assert.NotContains(t, out.String(), "secret")
}

func TestPropertiesCommandMissingFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "properties"})
	assert.Error(t, root.Execute())
}
