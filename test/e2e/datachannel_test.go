package e2e

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/ftpd/test/e2e/framework"
)

func TestEpsvAllLockout(t *testing.T) {
	ts := startServer(t)

	client := framework.DialRaw(t, ts)
	client.Login()

	client.Send("EPSV ALL")
	assert.Equal(t, "229 EPSV ALL ok", client.Expect(229))

	for _, cmd := range []string{"PORT 127,0,0,1,4,0", "EPRT |1|127.0.0.1|1024|", "PASV"} {
		client.Send(cmd)
		line := client.Expect(550)
		assert.Equal(t, "550 Can only accept EPSV", line, "command %q", cmd)
	}

	// Extended passive mode still works after the lockout.
	port := client.ExtendedPassivePort("1")
	assert.NotZero(t, port)
}

func TestEpsvTransfer(t *testing.T) {
	ts := startServer(t)
	content := []byte("served over extended passive mode")
	ts.WriteHomeFile("epsv.bin", content)

	client := framework.DialRaw(t, ts)
	client.Login()

	client.Send("TYPE I")
	client.Expect(200)

	port := client.ExtendedPassivePort("1")
	data := client.OpenDataConn(fmt.Sprintf("127.0.0.1:%d", port))

	client.Send("RETR epsv.bin")
	client.Expect(150)

	downloaded, err := io.ReadAll(data)
	require.NoError(t, err)
	client.Expect(226)

	assert.Equal(t, content, downloaded)
}

func TestActiveModeTransfer(t *testing.T) {
	ts := startServer(t)
	content := []byte("delivered in active mode")
	ts.WriteHomeFile("active.bin", content)

	client := framework.DialRaw(t, ts)
	client.Login()

	client.Send("TYPE I")
	client.Expect(200)

	// The client listens; the server dials us on RETR.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	client.Send(fmt.Sprintf("PORT 127,0,0,1,%d,%d", port/256, port%256))
	assert.Equal(t, "200 PORT Command successful. Consider using PASV", client.Expect(200))

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		payload, _ := io.ReadAll(conn)
		received <- payload
	}()

	client.Send("RETR active.bin")
	client.Expect(150)
	client.Expect(226)

	assert.Equal(t, content, <-received)
}

func TestEprtActiveTransfer(t *testing.T) {
	ts := startServer(t)
	content := []byte("delivered via EPRT")
	ts.WriteHomeFile("eprt.bin", content)

	client := framework.DialRaw(t, ts)
	client.Login()

	client.Send("TYPE I")
	client.Expect(200)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	client.Send(fmt.Sprintf("EPRT |1|127.0.0.1|%d|", port))
	assert.Equal(t, "200 EPRT Command successful. Consider using EPSV", client.Expect(200))

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		payload, _ := io.ReadAll(conn)
		received <- payload
	}()

	client.Send("RETR eprt.bin")
	client.Expect(150)
	client.Expect(226)

	assert.Equal(t, content, <-received)
}

func TestPassiveListenerReplacedBySecondPasv(t *testing.T) {
	ts := startServer(t)
	ts.WriteHomeFile("twice.bin", []byte("second listener wins"))

	client := framework.DialRaw(t, ts)
	client.Login()

	// A second PASV drops the first listener and advertises a fresh one;
	// the walk may well hand back the same port once it is free again.
	_ = client.PassiveAddr()
	second := client.PassiveAddr()

	data := client.OpenDataConn(second)

	client.Send("RETR twice.bin")
	client.Expect(150)

	downloaded, err := io.ReadAll(data)
	require.NoError(t, err)
	client.Expect(226)
	assert.Equal(t, "second listener wins\r\n", string(downloaded))
}
