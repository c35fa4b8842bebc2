package ftp

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/marmos91/ftpd/internal/netio"
)

// TransferMode selects how file payloads cross the data channel.
type TransferMode int

const (
	// ModeASCII rewrites line endings so every line leaves the server
	// terminated by CRLF.
	ModeASCII TransferMode = iota

	// ModeBinary copies bytes verbatim.
	ModeBinary
)

func (m TransferMode) String() string {
	if m == ModeBinary {
		return "BINARY"
	}
	return "ASCII"
}

// transferChunkSize is the copy granularity on the data channel.
const transferChunkSize = 2048

// DTP is the data transfer process: the auxiliary endpoint negotiated by
// PORT/EPRT (active) or PASV/EPSV (passive) that carries listings and file
// payloads.
//
// State machine: Idle -> Configured -> Open -> Idle (on Close). SetupActive
// and SetupPassive move to Configured, Open establishes the data socket, and
// Close releases every owned endpoint and returns to Idle. The transfer mode
// survives Close.
type DTP struct {
	mode       TransferMode
	configured bool
	active     bool

	receiverIP string
	port       uint16
	family     netio.Family

	passiveListener *netio.Listener
	data            *netio.Endpoint
}

// SetMode switches the transfer mode. Allowed in any state.
func (d *DTP) SetMode(mode TransferMode) {
	d.mode = mode
}

// Mode reports the current transfer mode.
func (d *DTP) Mode() TransferMode {
	return d.mode
}

// Configured reports whether a data connection has been set up since the
// last Close.
func (d *DTP) Configured() bool {
	return d.configured
}

// SetupActive records the receiver address advertised by PORT/EPRT. The
// server will dial it on Open. Any previous configuration is discarded.
func (d *DTP) SetupActive(receiverIP string, port uint16, family netio.Family) {
	d.dropSockets()
	d.receiverIP = receiverIP
	d.port = port
	d.family = family
	d.active = true
	d.configured = true
}

// SetupPassive binds a listener on the given port for the client to dial.
// Any previous configuration is discarded. Fails when the port cannot be
// bound, which PASV/EPSV use to walk the port space.
func (d *DTP) SetupPassive(port uint16, family netio.Family) error {
	d.dropSockets()

	listener, err := netio.Listen(port, family)
	if err != nil {
		// The previous configuration lost its sockets above; don't leave
		// the DTP claiming to be configured without a listener.
		d.configured = false
		return err
	}

	d.passiveListener = listener
	d.port = port
	d.family = family
	d.active = false
	d.configured = true
	return nil
}

// Open establishes the data socket: dialing the receiver in active mode,
// accepting the client's connection in passive mode.
func (d *DTP) Open() error {
	if !d.configured {
		return errors.New("data connection not configured")
	}

	if d.active {
		data, err := netio.Connect(d.receiverIP, d.port)
		if err != nil {
			return err
		}
		d.data = data
		return nil
	}

	data, err := d.passiveListener.Accept()
	if err != nil {
		return err
	}
	d.data = data
	return nil
}

// Close releases the listener and data socket and clears the configuration.
// The transfer mode is kept. Safe to call repeatedly.
func (d *DTP) Close() {
	d.dropSockets()
	d.receiverIP = ""
	d.port = 0
	d.family = netio.FamilyUnspec
	d.active = false
	d.configured = false
}

func (d *DTP) dropSockets() {
	if d.passiveListener != nil {
		_ = d.passiveListener.Close()
		d.passiveListener = nil
	}
	if d.data != nil {
		_ = d.data.Close()
		d.data = nil
	}
}

// WriteFrom streams src to the data socket in the current transfer mode.
// Binary mode copies raw bytes in fixed-size chunks; ASCII mode emits each
// source line terminated by exactly CRLF regardless of the source's line
// endings. Socket failures surface as *netio.NetError, source read failures
// as plain errors.
func (d *DTP) WriteFrom(src io.Reader) error {
	if d.mode == ModeBinary {
		return d.writeBinary(src)
	}
	return d.writeASCII(src)
}

func (d *DTP) writeBinary(src io.Reader) error {
	buf := make([]byte, transferChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if werr := d.data.WriteAll(buf[:n]); werr != nil {
				return werr
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (d *DTP) writeASCII(src io.Reader) error {
	reader := bufio.NewReaderSize(src, transferChunkSize)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			content := strings.TrimRight(line, "\r\n")
			if content != "" || strings.HasSuffix(line, "\n") {
				if werr := d.data.WriteAll([]byte(content + "\r\n")); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// ReadInto copies the data socket into dst in fixed-size chunks until the
// client closes its end. Uploads are byte-verbatim in both transfer modes.
func (d *DTP) ReadInto(dst io.Writer) error {
	buf := make([]byte, transferChunkSize)
	for {
		n, err := d.data.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, werr := dst.Write(buf[:n]); werr != nil {
			return werr
		}
	}
}
