package framework

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jlaffaye/ftp"
)

// DialClient connects a real FTP client to the test server.
func DialClient(t testing.TB, ts *TestServer) *ftp.ServerConn {
	t.Helper()

	conn, err := ftp.Dial(ts.Addr(), ftp.DialWithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("Failed to dial FTP server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Quit() })
	return conn
}

// DialLoggedInClient connects and logs in as the provisioned test user.
func DialLoggedInClient(t testing.TB, ts *TestServer) *ftp.ServerConn {
	t.Helper()

	conn := DialClient(t, ts)
	if err := conn.Login(TestUser, TestPassword); err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	return conn
}

// RawClient drives the control channel directly for scenarios the protocol
// client cannot express (malformed commands, lockout checks, timeouts).
type RawClient struct {
	t      testing.TB
	conn   net.Conn
	reader *bufio.Reader
}

// DialRaw opens a raw control connection and consumes the greeting.
func DialRaw(t testing.TB, ts *TestServer) *RawClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", ts.Addr(), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to dial FTP server: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	client := &RawClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
	client.Expect(220)
	return client
}

// Send writes one command line.
func (c *RawClient) Send(line string) {
	c.t.Helper()
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
		c.t.Fatalf("Failed to send %q: %v", line, err)
	}
}

// SendBytes writes raw bytes without line termination.
func (c *RawClient) SendBytes(b []byte) {
	c.t.Helper()
	if _, err := c.conn.Write(b); err != nil {
		c.t.Fatalf("Failed to send raw bytes: %v", err)
	}
}

// ReadReply reads one reply line and returns its code and full text.
func (c *RawClient) ReadReply() (int, string) {
	return c.readReplyWithin(10 * time.Second)
}

// ReadReplyWithin reads one reply line bounded by the given deadline.
func (c *RawClient) ReadReplyWithin(timeout time.Duration) (int, string) {
	return c.readReplyWithin(timeout)
}

func (c *RawClient) readReplyWithin(timeout time.Duration) (int, string) {
	c.t.Helper()

	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		c.t.Fatalf("Failed to set deadline: %v", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		c.t.Fatalf("Failed to read reply: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")

	code, err := strconv.Atoi(strings.SplitN(line, " ", 2)[0])
	if err != nil {
		c.t.Fatalf("Malformed reply %q", line)
	}
	return code, line
}

// Expect asserts the next reply code and returns the reply text.
func (c *RawClient) Expect(code int) string {
	c.t.Helper()
	got, line := c.ReadReply()
	if got != code {
		c.t.Fatalf("Expected reply %d, got %q", code, line)
	}
	return line
}

// Login performs the USER/PASS handshake as the provisioned test user.
func (c *RawClient) Login() {
	c.t.Helper()
	c.Send("USER " + TestUser)
	c.Expect(331)
	c.Send("PASS " + TestPassword)
	c.Expect(230)
}

// Closed reports whether the server has closed the control channel.
func (c *RawClient) Closed(within time.Duration) bool {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(within))
	_, err := c.reader.ReadByte()
	return err == io.EOF
}

// PassiveAddr issues PASV and returns the advertised dial address.
func (c *RawClient) PassiveAddr() string {
	c.t.Helper()

	c.Send("PASV")
	line := c.Expect(227)

	open := strings.Index(line, "(")
	closing := strings.Index(line, ")")
	if open < 0 || closing < open {
		c.t.Fatalf("Malformed PASV reply %q", line)
	}

	fields := strings.Split(line[open+1:closing], ",")
	if len(fields) != 6 {
		c.t.Fatalf("Malformed PASV host-port %q", line)
	}

	p1, _ := strconv.Atoi(fields[4])
	p2, _ := strconv.Atoi(fields[5])
	host := strings.Join(fields[:4], ".")
	return fmt.Sprintf("%s:%d", host, p1*256+p2)
}

// ExtendedPassivePort issues EPSV and returns the advertised port.
func (c *RawClient) ExtendedPassivePort(arg string) int {
	c.t.Helper()

	c.Send("EPSV " + arg)
	line := c.Expect(229)

	open := strings.Index(line, "(|||")
	closing := strings.LastIndex(line, "|)")
	if open < 0 || closing < open {
		c.t.Fatalf("Malformed EPSV reply %q", line)
	}

	port, err := strconv.Atoi(line[open+4 : closing])
	if err != nil {
		c.t.Fatalf("Malformed EPSV port in %q", line)
	}
	return port
}

// OpenDataConn dials a passive data channel address.
func (c *RawClient) OpenDataConn(addr string) net.Conn {
	c.t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		c.t.Fatalf("Failed to dial data channel %s: %v", addr, err)
	}
	c.t.Cleanup(func() { _ = conn.Close() })
	return conn
}
