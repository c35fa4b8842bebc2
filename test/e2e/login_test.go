package e2e

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ftpd/test/e2e/framework"
)

func startServer(t *testing.T) *framework.TestServer {
	t.Helper()
	ts := framework.NewTestServer(t, framework.TestServerConfig{})
	require.NoError(t, ts.Start())
	t.Cleanup(ts.Stop)
	return ts
}

func TestClientLoginAndPwd(t *testing.T) {
	ts := startServer(t)

	conn := framework.DialLoggedInClient(t, ts)

	dir, err := conn.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/", dir)

	require.NoError(t, conn.Quit())
}

func TestLoginScenarioExactReplies(t *testing.T) {
	ts := startServer(t)

	client := framework.DialRaw(t, ts)

	client.Send("USER " + framework.TestUser)
	assert.Equal(t, "331 Please specify the password", client.Expect(331))

	client.Send("PASS " + framework.TestPassword)
	assert.Equal(t, "230 User logged in, proceed", client.Expect(230))

	client.Send("PWD")
	assert.Equal(t, `257 "/" is the current directory`, client.Expect(257))

	client.Send("QUIT")
	assert.Equal(t, "221 Goodbye", client.Expect(221))
}

func TestLoginIncorrect(t *testing.T) {
	ts := startServer(t)

	client := framework.DialRaw(t, ts)

	client.Send("USER " + framework.TestUser)
	client.Expect(331)
	client.Send("PASS wrong")
	assert.Equal(t, "530 Login incorrect", client.Expect(530))

	client.Send("PWD")
	assert.Equal(t, "530 Not logged in", client.Expect(530))
}

func TestSecondUserLoginIndependentSessions(t *testing.T) {
	ts := startServer(t)

	// Two concurrent sessions do not share authentication state.
	authenticated := framework.DialLoggedInClient(t, ts)
	defer func() { _ = authenticated.Quit() }()

	anonymous := framework.DialRaw(t, ts)
	anonymous.Send("PWD")
	assert.Equal(t, "530 Not logged in", anonymous.Expect(530))
}

func TestChangeDirectory(t *testing.T) {
	ts := startServer(t)
	ts.WriteHomeFile("sub/nested/file.txt", []byte("x"))

	conn := framework.DialLoggedInClient(t, ts)

	require.NoError(t, conn.ChangeDir("sub"))
	dir, err := conn.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/sub", dir)

	require.NoError(t, conn.ChangeDir("nested"))
	dir, err = conn.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/sub/nested", dir)

	require.NoError(t, conn.ChangeDirToParent())
	dir, err = conn.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/sub", dir)

	// Escaping the virtual root is clamped, never an error path out.
	require.NoError(t, conn.ChangeDir("../../../../"))
	dir, err = conn.CurrentDir()
	require.NoError(t, err)
	assert.Equal(t, "/", dir)

	assert.Error(t, conn.ChangeDir("missing"))
}
