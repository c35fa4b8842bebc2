// Package badger implements the accounts store on top of BadgerDB.
//
// Unlike the file backend, records persist in an embedded key-value database
// and survive concurrent edits without a full rescan per login. Suitable for
// deployments where the account set is provisioned programmatically rather
// than hand-edited.
package badger

import (
	"context"
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/ftpd/pkg/store/accounts"
)

const keyPrefix = "account/"

// BadgerAccountStore persists account records in BadgerDB.
//
// Storage model: one key per username under the "account/" prefix, value is
// the JSON-encoded record. Lookups are point reads inside a read
// transaction.
//
// Thread safety: BadgerDB transactions make the store safe for concurrent
// use.
type BadgerAccountStore struct {
	db *badger.DB
}

// Config controls database placement.
type Config struct {
	// DBPath is the directory holding the database files. Empty with
	// InMemory set runs fully in memory (tests).
	DBPath string

	// InMemory avoids touching disk; data is lost on Close.
	InMemory bool
}

// New opens (or creates) the database at the configured path.
func New(config Config) (*BadgerAccountStore, error) {
	opts := badger.DefaultOptions(config.DBPath)
	if config.InMemory {
		opts = opts.WithInMemory(true)
	}
	// The store is low-traffic; keep badger quiet instead of wiring its
	// logger into ours.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts database: %w", err)
	}

	return &BadgerAccountStore{db: db}, nil
}

// Put inserts or replaces the record for account.Username.
func (s *BadgerAccountStore) Put(ctx context.Context, account accounts.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	encoded, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to encode account %q: %w", account.Username, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(account.Username), encoded)
	})
}

// Delete removes the record for username, if present.
func (s *BadgerAccountStore) Delete(ctx context.Context, username string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(username))
	})
}

// Authenticate fetches the record for username and compares the password
// verbatim.
func (s *BadgerAccountStore) Authenticate(ctx context.Context, username, password string) (*accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var record accounts.Account

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(username))
		if err == badger.ErrKeyNotFound {
			return &accounts.StoreError{
				Code:    accounts.ErrInvalidCredentials,
				Message: fmt.Sprintf("no account matches user %q", username),
			}
		}
		if err != nil {
			return fmt.Errorf("failed to get account: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &record); err != nil {
				return &accounts.StoreError{
					Code:    accounts.ErrMalformedRecord,
					Message: fmt.Sprintf("corrupt account record for %q", username),
				}
			}
			return nil
		})
	})
	if err != nil {
		if se, ok := err.(*accounts.StoreError); ok {
			return nil, se
		}
		return nil, &accounts.StoreError{
			Code:    accounts.ErrUnavailable,
			Message: err.Error(),
		}
	}

	if record.Password != password {
		return nil, &accounts.StoreError{
			Code:    accounts.ErrInvalidCredentials,
			Message: fmt.Sprintf("no account matches user %q", username),
		}
	}

	return &record, nil
}

// Close flushes and closes the database.
func (s *BadgerAccountStore) Close() error {
	return s.db.Close()
}

func key(username string) []byte {
	return []byte(keyPrefix + username)
}
