package config

import (
	"strings"
	"time"
)

// DefaultAccountsPath is the accounts file consulted when no path is
// configured, matching the historical server's working-directory table.
const DefaultAccountsPath = "accounts"

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Adapter-level defaults are applied again by the adapter itself, so a
//     hand-built FTPConfig behaves the same as a loaded one
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyAccountsDefaults(&cfg.Accounts)
	applyAdaptersDefaults(&cfg.Adapters)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets server defaults.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyAccountsDefaults sets account store defaults.
func applyAccountsDefaults(cfg *AccountsConfig) {
	if cfg.Type == "" {
		cfg.Type = "file"
	}

	if cfg.File == nil {
		cfg.File = make(map[string]any)
	}
	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	if _, ok := cfg.File["path"]; !ok {
		cfg.File["path"] = DefaultAccountsPath
	}
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = "/var/lib/ftpd/accounts"
	}
}

// applyAdaptersDefaults sets adapter defaults.
func applyAdaptersDefaults(cfg *AdaptersConfig) {
	// Enable the FTP adapter by default when nothing was configured, so a
	// fresh config (with no config file) passes validation.
	if !cfg.FTP.Enabled && cfg.FTP.Port == 0 {
		cfg.FTP.Enabled = true
	}

	if cfg.FTP.Port == 0 {
		cfg.FTP.Port = 21
	}
	if cfg.FTP.IdleTimeout == 0 {
		cfg.FTP.IdleTimeout = 5 * time.Minute
	}
	if cfg.FTP.ShutdownTimeout == 0 {
		cfg.FTP.ShutdownTimeout = 30 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
