package e2e

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ftpd/test/e2e/framework"
)

func TestUnknownCommand(t *testing.T) {
	ts := startServer(t)

	client := framework.DialRaw(t, ts)
	client.Login()

	client.Send("NOOP")
	assert.Equal(t, "500 Unrecognized command", client.Expect(500))
}

func TestCommandLineCap(t *testing.T) {
	ts := startServer(t)

	client := framework.DialRaw(t, ts)

	// 2048 bytes with no newline overruns the command buffer.
	client.SendBytes([]byte(strings.Repeat("A", 2048)))
	assert.Equal(t, "500 Command too long", client.Expect(500))

	// The session keeps going: finish the oversized line, then speak
	// normally.
	client.SendBytes([]byte("\r\n"))
	client.Expect(500)

	client.Send("USER " + framework.TestUser)
	client.Expect(331)
}

func TestIdleTimeout(t *testing.T) {
	ts := framework.NewTestServer(t, framework.TestServerConfig{
		IdleTimeout: 300 * time.Millisecond,
	})
	require.NoError(t, ts.Start())
	t.Cleanup(ts.Stop)

	client := framework.DialRaw(t, ts)

	code, line := client.ReadReplyWithin(5 * time.Second)
	assert.Equal(t, 421, code)
	assert.Equal(t, "421 Time out", line)

	assert.True(t, client.Closed(2*time.Second))
}

func TestIdleTimerResetsOnActivity(t *testing.T) {
	ts := framework.NewTestServer(t, framework.TestServerConfig{
		IdleTimeout: 600 * time.Millisecond,
	})
	require.NoError(t, ts.Start())
	t.Cleanup(ts.Stop)

	client := framework.DialRaw(t, ts)

	// Keep the session busy past the idle window.
	for i := 0; i < 3; i++ {
		time.Sleep(300 * time.Millisecond)
		client.Send("USER " + framework.TestUser)
		client.Expect(331)
	}

	code, line := client.ReadReplyWithin(5 * time.Second)
	assert.Equal(t, 421, code)
	assert.Equal(t, "421 Time out", line)
}
