package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "file", cfg.Accounts.Type)
	assert.Equal(t, DefaultAccountsPath, cfg.Accounts.File["path"])
	assert.True(t, cfg.Adapters.FTP.Enabled)
	assert.Equal(t, 21, cfg.Adapters.FTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.Adapters.FTP.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
  output: stderr
accounts:
  type: file
  file:
    path: /etc/ftpd/accounts
adapters:
  ftp:
    enabled: true
    port: 2121
    idle_timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, "/etc/ftpd/accounts", cfg.Accounts.File["path"])
	assert.Equal(t, 2121, cfg.Adapters.FTP.Port)
	assert.Equal(t, 30*time.Second, cfg.Adapters.FTP.IdleTimeout)
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: verbose\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoadRejectsBadStoreType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("accounts:\n  type: ldap\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRequiresEnabledAdapter(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Adapters.FTP.Enabled = false

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "adapter")
}

func TestValidateBadgerRequiresPath(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Accounts.Type = "badger"
	cfg.Accounts.Badger = map[string]any{"db_path": ""}

	require.Error(t, Validate(cfg))

	cfg.Accounts.Badger = map[string]any{"db_path": "", "in_memory": true}
	require.NoError(t, Validate(cfg))
}

func TestGetDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(GetDefaultConfig()))
}
