package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ftpd/pkg/store/accounts"
)

func writeAccounts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestAuthenticateMatch(t *testing.T) {
	path := writeAccounts(t, "alice secret /srv/alice\nbob hunter2 /srv/bob\n")
	store := New(path)

	account, err := store.Authenticate(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.Equal(t, "/srv/alice", account.HomeDir)

	account, err = store.Authenticate(context.Background(), "bob", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "/srv/bob", account.HomeDir)
}

func TestAuthenticateFirstMatchWins(t *testing.T) {
	path := writeAccounts(t, "alice one /srv/first\nalice one /srv/second\n")
	store := New(path)

	account, err := store.Authenticate(context.Background(), "alice", "one")
	require.NoError(t, err)
	assert.Equal(t, "/srv/first", account.HomeDir)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	path := writeAccounts(t, "alice secret /srv/alice\n")
	store := New(path)

	_, err := store.Authenticate(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidCredentials(err))
}

func TestAuthenticateUnknownUser(t *testing.T) {
	path := writeAccounts(t, "alice secret /srv/alice\n")
	store := New(path)

	_, err := store.Authenticate(context.Background(), "mallory", "secret")
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidCredentials(err))
}

func TestAuthenticateMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nope"))

	_, err := store.Authenticate(context.Background(), "alice", "secret")
	require.Error(t, err)
	assert.True(t, accounts.IsUnavailable(err))
}

func TestAuthenticateRereadsFile(t *testing.T) {
	path := writeAccounts(t, "alice secret /srv/alice\n")
	store := New(path)

	_, err := store.Authenticate(context.Background(), "carol", "pw")
	require.Error(t, err)

	// New records are visible without reconstructing the store.
	require.NoError(t, os.WriteFile(path, []byte("carol pw /srv/carol\n"), 0644))
	account, err := store.Authenticate(context.Background(), "carol", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/srv/carol", account.HomeDir)
}

func TestAuthenticateArbitraryWhitespace(t *testing.T) {
	path := writeAccounts(t, "  alice\tsecret\n\n   /srv/alice   bob pw /srv/bob")
	store := New(path)

	account, err := store.Authenticate(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/srv/alice", account.HomeDir)

	account, err = store.Authenticate(context.Background(), "bob", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/srv/bob", account.HomeDir)
}

func TestAuthenticateIgnoresPartialRecord(t *testing.T) {
	path := writeAccounts(t, "alice secret /srv/alice\ndangling pw")
	store := New(path)

	_, err := store.Authenticate(context.Background(), "dangling", "pw")
	require.Error(t, err)
	assert.True(t, accounts.IsInvalidCredentials(err))
}
