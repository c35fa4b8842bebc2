// Package memory implements an in-memory accounts store used by tests and
// ephemeral deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/marmos91/ftpd/pkg/store/accounts"
)

// MemoryAccountStore keeps account records in a slice, in insertion order.
//
// Thread safety: guarded by a read-write mutex.
type MemoryAccountStore struct {
	mu      sync.RWMutex
	records []accounts.Account
}

// New creates an empty in-memory store.
func New() *MemoryAccountStore {
	return &MemoryAccountStore{}
}

// Add appends a record. Duplicate usernames are allowed; like the file
// backend, the first matching record wins at authentication time.
func (s *MemoryAccountStore) Add(account accounts.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, account)
}

// Authenticate returns the first record matching the pair.
func (s *MemoryAccountStore) Authenticate(ctx context.Context, username, password string) (*accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].Username == username && s.records[i].Password == password {
			record := s.records[i]
			return &record, nil
		}
	}

	return nil, &accounts.StoreError{
		Code:    accounts.ErrInvalidCredentials,
		Message: fmt.Sprintf("no account matches user %q", username),
	}
}

// Close is a no-op.
func (s *MemoryAccountStore) Close() error {
	return nil
}
