package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boorudl/pkg/auth"
	"boorudl/pkg/config"
	"boorudl/pkg/logger"
)

// configWithFileAuth builds a config whose credential came from a YAML file.
func configWithFileAuth(t *testing.T, userinfo string) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "booru:\n  auth: " + userinfo + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	return cfg
}

// configWithEnvAuth builds a config whose credential came from BOORUDL_AUTH.
func configWithEnvAuth(t *testing.T, userinfo string) *config.Config {
	t.Helper()

	os.Setenv("BOORUDL_AUTH", userinfo)
	t.Cleanup(func() { os.Unsetenv("BOORUDL_AUTH") })

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	return cfg
}

func storedAccount(login, key string) func() *auth.Account {
	return func() *auth.Account {
		return &auth.Account{Login: login, APIKey: key}
	}
}

func noStoredAccount() *auth.Account {
	return nil
}

func TestResolveCredentialsEnvBeatsStored(t *testing.T) {
	cfg := configWithEnvAuth(t, "envuser:envkey")
	log := logger.NewTestLogger()

	resolveCredentials(cfg, storedAccount("stored", "storedkey"), log)

	assert.Equal(t, "envuser:envkey", cfg.Booru.Auth)
}

func TestResolveCredentialsFlagBeatsStored(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{"auth": "flaguser:flagkey"})
	log := logger.NewTestLogger()

	resolveCredentials(cfg, storedAccount("stored", "storedkey"), log)

	assert.Equal(t, "flaguser:flagkey", cfg.Booru.Auth)
}

func TestResolveCredentialsStoredBeatsFile(t *testing.T) {
	cfg := configWithFileAuth(t, "filed:filekey")
	log := logger.NewTestLogger()

	resolveCredentials(cfg, storedAccount("stored", "storedkey"), log)

	assert.Equal(t, "stored:storedkey", cfg.Booru.Auth)
	assert.True(t, log.HasMessage("using stored credentials"))
}

func TestResolveCredentialsFileWithoutStored(t *testing.T) {
	cfg := configWithFileAuth(t, "filed:filekey")
	log := logger.NewTestLogger()

	resolveCredentials(cfg, noStoredAccount, log)

	assert.Equal(t, "filed:filekey", cfg.Booru.Auth)
}

func TestResolveCredentialsAnonymous(t *testing.T) {
	cfg := config.DefaultConfig()
	log := logger.NewTestLogger()

	resolveCredentials(cfg, noStoredAccount, log)

	assert.Empty(t, cfg.Booru.Auth)
}

func TestResolveCredentialsNoAuthUsesStored(t *testing.T) {
	cfg := config.DefaultConfig()
	log := logger.NewTestLogger()

	resolveCredentials(cfg, storedAccount("stored", "storedkey"), log)

	assert.Equal(t, "stored:storedkey", cfg.Booru.Auth)
}

func TestResolveCredentialsAccountFlagIgnoredWarning(t *testing.T) {
	prev := accountName
	accountName = "someone"
	defer func() { accountName = prev }()

	cfg := configWithEnvAuth(t, "envuser:envkey")
	log := logger.NewTestLogger()

	resolveCredentials(cfg, storedAccount("stored", "storedkey"), log)

	assert.Equal(t, "envuser:envkey", cfg.Booru.Auth)
	assert.True(t, log.HasMessage("ignoring --account because explicit credentials were provided"))
}
