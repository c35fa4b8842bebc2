package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/ftpd/pkg/store/accounts"
	badgerstore "github.com/marmos91/ftpd/pkg/store/accounts/badger"
	filestore "github.com/marmos91/ftpd/pkg/store/accounts/file"
	memorystore "github.com/marmos91/ftpd/pkg/store/accounts/memory"
)

// FileStoreConfig is the decoded accounts.file section.
type FileStoreConfig struct {
	// Path is the accounts file holding whitespace-separated
	// "username password home_directory" triples.
	Path string `mapstructure:"path"`
}

// BadgerStoreConfig is the decoded accounts.badger section.
type BadgerStoreConfig struct {
	// DBPath is the directory holding the BadgerDB files.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs the database without touching disk (tests).
	InMemory bool `mapstructure:"in_memory"`
}

// NewAccountStore constructs the account store selected by cfg.Accounts.
//
// Each backend decodes its own configuration section with mapstructure, so
// unknown keys in other sections are ignored and each store owns its
// defaults.
func NewAccountStore(cfg *Config) (accounts.Store, error) {
	switch cfg.Accounts.Type {
	case "file":
		var storeCfg FileStoreConfig
		if err := mapstructure.Decode(cfg.Accounts.File, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode file store config: %w", err)
		}
		if storeCfg.Path == "" {
			storeCfg.Path = DefaultAccountsPath
		}
		return filestore.New(storeCfg.Path), nil

	case "badger":
		var storeCfg BadgerStoreConfig
		if err := mapstructure.Decode(cfg.Accounts.Badger, &storeCfg); err != nil {
			return nil, fmt.Errorf("failed to decode badger store config: %w", err)
		}
		return badgerstore.New(badgerstore.Config{
			DBPath:   storeCfg.DBPath,
			InMemory: storeCfg.InMemory,
		})

	case "memory":
		return memorystore.New(), nil

	default:
		return nil, fmt.Errorf("unknown account store type: %s", cfg.Accounts.Type)
	}
}
