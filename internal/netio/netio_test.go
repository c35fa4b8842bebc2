package netio

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAcceptConnect(t *testing.T) {
	ln, err := Listen(0, FamilyIPv4)
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Port()
	require.NotZero(t, port)

	done := make(chan *Endpoint, 1)
	go func() {
		ep, err := ln.Accept()
		if err != nil {
			close(done)
			return
		}
		done <- ep
	}()

	client, err := Connect("127.0.0.1", port)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, FamilyIPv4, client.Family())

	server := <-done
	require.NotNil(t, server)
	defer server.Close()
	assert.Equal(t, FamilyIPv4, server.Family())
}

func TestWriteAllRead(t *testing.T) {
	server, client := pipe(t)
	defer server.Close()
	defer client.Close()

	payload := []byte("hello over the wire")
	require.NoError(t, client.WriteAll(payload))
	require.NoError(t, client.Close())

	buf := make([]byte, 64)
	n, err := server.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:n])

	// Subsequent read reports clean EOF as a zero count.
	n, err = server.Read(buf)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReadLine(t *testing.T) {
	server, client := pipe(t)
	defer server.Close()
	defer client.Close()

	require.NoError(t, client.WriteAll([]byte("USER alice\r\nPASS secret\r\n")))

	buf := make([]byte, 64)
	n, err := server.ReadLine(buf)
	require.NoError(t, err)
	assert.Equal(t, "USER alice\r\n", string(buf[:n]))

	n, err = server.ReadLine(buf)
	require.NoError(t, err)
	assert.Equal(t, "PASS secret\r\n", string(buf[:n]))
}

func TestReadLineCap(t *testing.T) {
	server, client := pipe(t)
	defer server.Close()
	defer client.Close()

	require.NoError(t, client.WriteAll([]byte("0123456789ABCDEF")))

	buf := make([]byte, 8)
	n, err := server.ReadLine(buf)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, "01234567", string(buf[:n]))

	// The remainder is still readable afterwards.
	require.NoError(t, client.WriteAll([]byte("\n")))
	rest := make([]byte, 64)
	n, err = server.ReadLine(rest)
	require.NoError(t, err)
	assert.Equal(t, "89ABCDEF\n", string(rest[:n]))
}

func TestReadDeadlineTimeout(t *testing.T) {
	server, client := pipe(t)
	defer server.Close()
	defer client.Close()

	require.NoError(t, server.SetReadDeadline(time.Now().Add(50*time.Millisecond)))

	buf := make([]byte, 8)
	_, err := server.ReadLine(buf)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestLocalIPUnwrapsMappedV4(t *testing.T) {
	ln, err := Listen(0, FamilyUnspec)
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan *Endpoint, 1)
	go func() {
		ep, _ := ln.Accept()
		done <- ep
	}()

	client, err := Connect("127.0.0.1", ln.Port())
	require.NoError(t, err)
	defer client.Close()

	server := <-done
	require.NotNil(t, server)
	defer server.Close()

	ip := net.ParseIP(server.LocalIP())
	require.NotNil(t, ip)
	assert.NotNil(t, ip.To4(), "v4-mapped address should unwrap to dotted quad")
}

// pipe returns the two ends of a loopback TCP connection.
func pipe(t *testing.T) (server, client *Endpoint) {
	t.Helper()

	ln, err := Listen(0, FamilyIPv4)
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan *Endpoint, 1)
	go func() {
		ep, _ := ln.Accept()
		done <- ep
	}()

	client, err = Connect("127.0.0.1", ln.Port())
	require.NoError(t, err)

	server = <-done
	require.NotNil(t, server)
	return server, client
}
