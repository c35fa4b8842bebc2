// Package file implements the accounts store backed by a plain-text table.
//
// The table holds one record per line as whitespace-separated triples:
//
//	username password home_directory
//
// The file is re-opened and scanned on every authentication attempt, so
// edits take effect without a restart. The first matching record wins.
package file

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/ftpd/pkg/store/accounts"
)

// FileAccountStore authenticates against a whitespace-separated accounts
// file.
//
// Thread safety: safe for concurrent use; every call opens its own file
// handle and keeps no shared state.
type FileAccountStore struct {
	path string
}

// New creates a store reading from the given accounts file path. The file
// does not need to exist yet; a missing file surfaces as ErrUnavailable at
// authentication time, matching the login reply semantics.
func New(path string) *FileAccountStore {
	return &FileAccountStore{path: path}
}

// Path returns the accounts file path.
func (s *FileAccountStore) Path() string {
	return s.path
}

// Authenticate scans the file token by token for the first record whose
// username and password both match.
func (s *FileAccountStore) Authenticate(ctx context.Context, username, password string) (*accounts.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, &accounts.StoreError{
			Code:    accounts.ErrUnavailable,
			Message: fmt.Sprintf("accounts file not readable: %s", s.path),
		}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Split(bufio.ScanWords)

	for {
		record, ok := nextRecord(scanner)
		if !ok {
			break
		}
		if record.Username == username && record.Password == password {
			return record, nil
		}
	}

	return nil, &accounts.StoreError{
		Code:    accounts.ErrInvalidCredentials,
		Message: fmt.Sprintf("no account matches user %q", username),
	}
}

// Close is a no-op; the store holds no open resources between calls.
func (s *FileAccountStore) Close() error {
	return nil
}

// nextRecord pulls the next whitespace-separated triple from the scanner.
// A trailing partial record is ignored, like the original table format.
func nextRecord(scanner *bufio.Scanner) (*accounts.Account, bool) {
	fields := make([]string, 0, 3)
	for len(fields) < 3 && scanner.Scan() {
		fields = append(fields, strings.TrimSpace(scanner.Text()))
	}
	if len(fields) < 3 {
		return nil, false
	}
	return &accounts.Account{
		Username: fields[0],
		Password: fields[1],
		HomeDir:  fields[2],
	}, true
}
