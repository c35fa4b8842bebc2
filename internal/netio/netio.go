// Package netio wraps TCP endpoints with the address-family bookkeeping the
// FTP data channel needs: listeners and dials directed at a specific family,
// family detection on accept, and v4-mapped address unwrapping for PASV
// replies.
package netio

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Family identifies the network family an endpoint is bound to.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyIPv4
	FamilyIPv6
)

func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "IPv4"
	case FamilyIPv6:
		return "IPv6"
	default:
		return "unspecified"
	}
}

// network returns the net package dial/listen network for the family.
func (f Family) network() string {
	switch f {
	case FamilyIPv4:
		return "tcp4"
	case FamilyIPv6:
		return "tcp6"
	default:
		return "tcp"
	}
}

// NetError wraps any failure from the stream endpoint layer so callers can
// distinguish network faults from protocol or filesystem errors.
type NetError struct {
	Op  string
	Err error
}

func (e *NetError) Error() string {
	return fmt.Sprintf("net %s: %v", e.Op, e.Err)
}

func (e *NetError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err represents an expired I/O deadline.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Endpoint is an owned, bidirectional byte stream with an associated network
// family. Close releases the descriptor; an Endpoint must not be shared
// between sessions.
type Endpoint struct {
	conn   net.Conn
	family Family
}

// Listener owns a passive socket awaiting data-channel or control
// connections.
type Listener struct {
	ln     net.Listener
	family Family
}

// Listen binds an any-address passive socket on the given port. An
// unspecified family binds dual-stack. Address reuse is enabled by the
// runtime on Unix platforms.
func Listen(port uint16, family Family) (*Listener, error) {
	ln, err := net.Listen(family.network(), fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, &NetError{Op: "listen", Err: err}
	}
	return &Listener{ln: ln, family: family}, nil
}

// Accept blocks until a peer connects. The returned endpoint's family is
// IPv4 when the peer address is a v4 (or v4-mapped) address, IPv6 otherwise.
func (l *Listener) Accept() (*Endpoint, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, &NetError{Op: "accept", Err: err}
	}

	family := FamilyIPv6
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok && addr.IP.To4() != nil {
		family = FamilyIPv4
	}
	return &Endpoint{conn: conn, family: family}, nil
}

// SetDeadline bounds the next Accept call.
func (l *Listener) SetDeadline(t time.Time) error {
	if tcp, ok := l.ln.(*net.TCPListener); ok {
		return tcp.SetDeadline(t)
	}
	return nil
}

// Port reports the actual bound port, which matters when listening on port 0.
func (l *Listener) Port() uint16 {
	if addr, ok := l.ln.Addr().(*net.TCPAddr); ok {
		return uint16(addr.Port)
	}
	return 0
}

func (l *Listener) Close() error {
	return l.ln.Close()
}

// Connect resolves host:port across both families and dials each candidate
// in resolver order, returning the first endpoint that connects.
func Connect(host string, port uint16) (*Endpoint, error) {
	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil, &NetError{Op: "resolve", Err: err}
	}

	var lastErr error
	for _, addr := range addrs {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr, strconv.Itoa(int(port))), 10*time.Second)
		if err != nil {
			lastErr = err
			continue
		}

		family := FamilyIPv6
		if ip := net.ParseIP(addr); ip != nil && ip.To4() != nil {
			family = FamilyIPv4
		}
		return &Endpoint{conn: conn, family: family}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses for %s", host)
	}
	return nil, &NetError{Op: "connect", Err: lastErr}
}

// Wrap adopts an already-accepted connection, deriving its family from the
// peer address.
func Wrap(conn net.Conn) *Endpoint {
	family := FamilyIPv6
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok && addr.IP.To4() != nil {
		family = FamilyIPv4
	}
	return &Endpoint{conn: conn, family: family}
}

// Family reports the endpoint's network family.
func (e *Endpoint) Family() Family {
	return e.family
}

// WriteAll writes the whole buffer, looping over partial writes. Broken
// pipes surface as a NetError rather than a signal.
func (e *Endpoint) WriteAll(buf []byte) error {
	for len(buf) > 0 {
		n, err := e.conn.Write(buf)
		if err != nil {
			return &NetError{Op: "write", Err: err}
		}
		buf = buf[n:]
	}
	return nil
}

// Read fills buf as far as the stream allows, looping until the buffer is
// full or the peer closes. Returns the byte count; 0 with a nil error means
// clean EOF.
func (e *Endpoint) Read(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := e.conn.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return total, &NetError{Op: "read", Err: err}
		}
	}
	return total, nil
}

// ReadLine reads one byte at a time until a newline, the buffer cap, or EOF.
// Returns the number of bytes read including the newline when present; a
// count of zero means the peer closed the stream. A count equal to len(buf)
// with no trailing newline means the line exceeded the cap and the remainder
// is still buffered in the kernel.
func (e *Endpoint) ReadLine(buf []byte) (int, error) {
	one := make([]byte, 1)
	total := 0
	for total < len(buf) {
		n, err := e.conn.Read(one)
		if n > 0 {
			buf[total] = one[0]
			total++
			if one[0] == '\n' {
				return total, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, &NetError{Op: "read", Err: err}
		}
	}
	return total, nil
}

// SetReadDeadline bounds subsequent reads; the zero time clears the bound.
func (e *Endpoint) SetReadDeadline(t time.Time) error {
	return e.conn.SetReadDeadline(t)
}

// LocalIP returns the printable local address of the endpoint. A v4-mapped
// v6 address is unwrapped to its dotted-quad form, which PASV depends on.
func (e *Endpoint) LocalIP() string {
	addr, ok := e.conn.LocalAddr().(*net.TCPAddr)
	if !ok {
		return ""
	}
	if v4 := addr.IP.To4(); v4 != nil {
		return v4.String()
	}
	return addr.IP.String()
}

// RemoteAddr returns the peer address for logging.
func (e *Endpoint) RemoteAddr() string {
	return e.conn.RemoteAddr().String()
}

func (e *Endpoint) Close() error {
	return e.conn.Close()
}
