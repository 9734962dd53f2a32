// Package testsupport holds fixtures and fakes shared by the package tests.
package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// FixturePath joins filename onto the calling package's testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// LoadFixture reads a fixture file. The path is relative to the test
// package directory.
func LoadFixture(t testing.TB, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}
	return data
}

// LoadFixtureJSON decodes a JSON fixture file into dest.
func LoadFixtureJSON(t testing.TB, path string, dest any) {
	t.Helper()

	if err := json.Unmarshal(LoadFixture(t, path), dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// WalletStateFixture returns a fresh copy of the embedded wallet fixture.
func WalletStateFixture(t testing.TB) WalletState {
	t.Helper()

	state, err := DefaultWalletState()
	if err != nil {
		t.Fatalf("failed to load wallet fixture: %v", err)
	}
	return state
}

// WriteConfigFile writes content to a temporary YAML file that is removed
// when the test ends.
func WriteConfigFile(t testing.TB, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file %s: %v", path, err)
	}
	return path
}
