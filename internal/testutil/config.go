// Package testutil provides shared test harness helpers: configuration
// fixtures and in-memory stand-ins for the Vault and Argo CD HTTP APIs.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// WriteConfig marshals cfg to YAML in a test temp dir and returns the path.
func WriteConfig(t testing.TB, cfg map[string]any) string {
	t.Helper()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config fixture: %v", err)
	}
	return WriteRawConfig(t, string(data))
}

// WriteRawConfig writes content verbatim to a config.yml in a test temp dir
// and returns the path.
func WriteRawConfig(t testing.TB, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}
