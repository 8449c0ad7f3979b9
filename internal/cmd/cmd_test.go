package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postfinance/propeller/internal/testutil"
	"github.com/postfinance/propeller/internal/vault"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	root := NewRootCmd()
	outBuf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	root.SetOut(outBuf)
	root.SetErr(errBuf)
	root.SetArgs(args)

	err = root.Execute()
	return outBuf.String(), errBuf.String(), err
}

// testConfig returns a complete configuration pointing Vault at the fake.
func testConfig(t *testing.T, fake *testutil.FakeVault, secretPath string) string {
	t.Helper()

	return testutil.WriteConfig(t, map[string]any{
		"argo_cd": map[string]any{
			"application": "sut",
			"base_url":    "http://localhost:3100",
		},
		"postgres": map[string]any{
			"host":     "localhost",
			"port":     5432,
			"database": "demo",
		},
		"vault": map[string]any{
			"base_url": fake.Server.URL,
			"path":     secretPath,
		},
	})
}

func TestRootCmd_Commands(t *testing.T) {
	root := NewRootCmd()

	names := make([]string, 0)
	for _, sub := range root.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "init-vault")
	assert.Contains(t, names, "rotate")
}

func TestRootCmd_RequiresSubcommand(t *testing.T) {
	_, _, err := execute(t)
	require.Error(t, err)
}

func TestFlagDefaults(t *testing.T) {
	root := NewRootCmd()

	initVault, _, err := root.Find([]string{"init-vault"})
	require.NoError(t, err)
	assert.Equal(t, "config.yml", initVault.Flags().Lookup("config-path").DefValue)

	rotate, _, err := root.Find([]string{"rotate"})
	require.NoError(t, err)
	assert.Equal(t, "config.yml", rotate.Flags().Lookup("config-path").DefValue)
	assert.Equal(t, "20", rotate.Flags().Lookup("password-length").DefValue)
}

func TestInitVault(t *testing.T) {
	fake := testutil.NewFakeVault(t)
	t.Setenv(vault.TokenEnvVar, "root-token")

	stdout, _, err := execute(t, "init-vault", "-c", testConfig(t, fake, "rotate/secrets"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Successfully initialized Vault path 'rotate/secrets'")

	data, ok := fake.Get("rotate/secrets")
	require.True(t, ok)
	assert.Len(t, data, 6)
	for key, value := range data {
		assert.Equal(t, vault.Placeholder, value, "field %s", key)
	}
}

func TestInitVault_RefusesOverwrite(t *testing.T) {
	fake := testutil.NewFakeVault(t)
	fake.Set("rotate/secrets", map[string]any{"postgresql_active_user": "user1"})
	t.Setenv(vault.TokenEnvVar, "root-token")

	_, _, err := execute(t, "init-vault", "-c", testConfig(t, fake, "rotate/secrets"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitVault_MissingToken(t *testing.T) {
	fake := testutil.NewFakeVault(t)
	t.Setenv(vault.TokenEnvVar, "")

	_, _, err := execute(t, "init-vault", "-c", testConfig(t, fake, "rotate/secrets"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing VAULT_TOKEN environment variable")
}

func TestRotate_MissingToken(t *testing.T) {
	fake := testutil.NewFakeVault(t)
	t.Setenv(vault.TokenEnvVar, "")

	_, _, err := execute(t, "rotate", "-c", testConfig(t, fake, "rotate/secrets"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing VAULT_TOKEN environment variable")
}

func TestRotate_RejectsNonPositivePasswordLength(t *testing.T) {
	_, _, err := execute(t, "rotate", "-p", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password length must be at least 1")
}

func TestRotate_NonExistingSecret(t *testing.T) {
	fake := testutil.NewFakeVault(t)
	t.Setenv(vault.TokenEnvVar, "root-token")

	_, _, err := execute(t, "rotate", "-c", testConfig(t, fake, "rotate/non/existing/path"))
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		"Failed to read path 'rotate/non/existing/path' - did you init Vault?")
}

func TestRotate_InvalidInitializedSecret(t *testing.T) {
	fake := testutil.NewFakeVault(t)
	// 'userX' matches neither slot user.
	fake.Set("rotate/invalid/initialized/secret", map[string]any{
		"postgresql_active_user":          "userX",
		"postgresql_active_user_password": "initialpw",
		"postgresql_user_1":               "user1",
		"postgresql_user_1_password":      "initialpw",
		"postgresql_user_2":               "user2",
		"postgresql_user_2_password":      "initialpw",
	})
	t.Setenv(vault.TokenEnvVar, "root-token")

	_, _, err := execute(t, "rotate", "-c", testConfig(t, fake, "rotate/invalid/initialized/secret"))
	require.Error(t, err)
	assert.Contains(t, err.Error(),
		"Failed to detect active user - did neither match user 1 nor 2")
}

func TestRotate_MissingConfigFile(t *testing.T) {
	t.Setenv(vault.TokenEnvVar, "root-token")

	_, _, err := execute(t, "rotate", "-c", "does/not/exist.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does/not/exist.yml")
}
