// Package ftp implements the server-side FTP protocol interpreter: the
// per-connection command loop, the command handlers, and the data transfer
// process feeding the data channel.
package ftp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/ftpd/internal/logger"
	"github.com/marmos91/ftpd/internal/netio"
	"github.com/marmos91/ftpd/internal/pathutil"
	"github.com/marmos91/ftpd/pkg/store/accounts"
)

// MaxCommandLength caps a single control-channel command line.
const MaxCommandLength = 2048

// DefaultIdleTimeout is how long the control channel may stay silent before
// the session is torn down with a 421 reply.
const DefaultIdleTimeout = 5 * time.Minute

// SessionConfig carries the per-session tunables.
type SessionConfig struct {
	// IdleTimeout bounds control-channel silence. Zero selects
	// DefaultIdleTimeout.
	IdleTimeout time.Duration
}

// Session is one protocol interpreter bound to an accepted control
// connection. It owns the control endpoint and its DTP; nothing here is
// shared with other sessions.
//
// State invariants: userWorkingDir is always in normalized form and never
// starts with "/"; epsvExclusive never reverts to false once set; while
// loggedIn is false only USER, PASS and QUIT execute.
type Session struct {
	control *netio.Endpoint
	store   accounts.Store
	config  SessionConfig

	ctx context.Context

	// username is the name from the last USER command, cleared on a failed
	// PASS.
	username string

	// userNativeHome is the host directory acting as the virtual root;
	// empty until login succeeds.
	userNativeHome string

	// userWorkingDir is the virtual working directory relative to the
	// native home; empty means the virtual root.
	userWorkingDir string

	epsvExclusive bool
	loggedIn      bool
	quit          bool

	dtp DTP
}

// NewSession wraps an accepted control connection.
func NewSession(control *netio.Endpoint, store accounts.Store, config SessionConfig) *Session {
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	return &Session{
		control: control,
		store:   store,
		config:  config,
	}
}

// loginHandlers dispatch unconditionally; everything else requires a
// completed login first.
var loginHandlers = map[string]func(*Session, string){
	"USER": (*Session).handleUSER,
	"PASS": (*Session).handlePASS,
	"QUIT": (*Session).handleQUIT,
}

var commandHandlers = map[string]func(*Session, string){
	"TYPE": (*Session).handleTYPE,
	"PWD":  (*Session).handlePWD,
	"CWD":  (*Session).handleCWD,
	"CDUP": (*Session).handleCDUP,
	"PORT": (*Session).handlePORT,
	"EPRT": (*Session).handleEPRT,
	"PASV": (*Session).handlePASV,
	"EPSV": (*Session).handleEPSV,
	"LIST": (*Session).handleLIST,
	"RETR": (*Session).handleRETR,
	"STOR": (*Session).handleSTOR,
}

// Serve runs the command loop until QUIT, idle timeout, context
// cancellation, or a control-channel failure. The control endpoint and any
// data-channel resources are released before returning.
func (s *Session) Serve(ctx context.Context) {
	s.ctx = ctx

	defer func() {
		s.dtp.Close()
		_ = s.control.Close()
	}()

	s.reply(StatusServiceReady, "Service ready")

	buf := make([]byte, MaxCommandLength)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := s.control.SetReadDeadline(time.Now().Add(s.config.IdleTimeout)); err != nil {
			logger.Debug("Failed to set control deadline for %s: %v", s.control.RemoteAddr(), err)
			return
		}

		n, err := s.control.ReadLine(buf)
		if err != nil {
			if netio.IsTimeout(err) {
				s.reply(StatusServiceUnavailable, "Time out")
			} else {
				logger.Debug("Control read error from %s: %v", s.control.RemoteAddr(), err)
			}
			return
		}
		if n == 0 {
			// Client closed the control connection.
			return
		}

		if n == len(buf) && buf[n-1] != '\n' {
			s.reply(StatusBadCommand, "Command too long")
			continue
		}

		verb, arg := parseCommandLine(string(buf[:n]))
		if verb == "" {
			s.reply(StatusBadCommand, "Command empty")
			continue
		}

		s.dispatch(verb, arg)

		if s.quit {
			return
		}
	}
}

// dispatch routes one parsed command. Login verbs run regardless of
// authentication state; known verbs are gated on login; anything else is
// unrecognized.
func (s *Session) dispatch(verb, arg string) {
	logArg := arg
	if verb == "PASS" {
		logArg = "***"
	}
	logger.Debug("FTP command from %s: %s %s", s.control.RemoteAddr(), verb, logArg)

	if handler, ok := loginHandlers[verb]; ok {
		handler(s, arg)
		return
	}

	handler, ok := commandHandlers[verb]
	if !ok {
		s.reply(StatusBadCommand, "Unrecognized command")
		return
	}
	if !s.loggedIn {
		s.reply(StatusNotLoggedIn, "Not logged in")
		return
	}
	handler(s, arg)
}

// parseCommandLine splits one raw control line into an upper-cased verb and
// a single argument. Only the first space separates the two, so the argument
// may itself contain spaces and commas. Trailing CR/LF is trimmed, and
// trailing whitespace of the argument is dropped defensively.
func parseCommandLine(line string) (verb, arg string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", ""
	}

	if i := strings.IndexByte(line, ' '); i >= 0 {
		verb = line[:i]
		arg = strings.TrimRight(line[i+1:], " \t")
	} else {
		verb = line
	}
	return strings.ToUpper(verb), arg
}

// reply writes one single-line response to the control channel. Write
// failures are logged only; the next control read surfaces the broken
// connection and ends the session.
func (s *Session) reply(code int, message string) {
	wire := fmt.Sprintf("%d %s\r\n", code, message)
	if err := s.control.WriteAll([]byte(wire)); err != nil {
		logger.Debug("Control write error to %s: %v", s.control.RemoteAddr(), err)
	}
}

// resolvePath maps a client-visible path onto the host filesystem. Relative
// paths are anchored at the working directory, absolute ones at the virtual
// root, and normalization guarantees the result stays under the user's
// native home no matter how many ".." segments the client supplies.
func (s *Session) resolvePath(virtual string) string {
	if virtual == "" {
		return "/" + s.userNativeHome + "/" + s.userWorkingDir
	}
	return "/" + s.userNativeHome + "/" + s.virtualDir(virtual)
}

// virtualDir computes the normalized virtual path for a client-supplied
// path, without the native-home prefix.
func (s *Session) virtualDir(virtual string) string {
	if strings.HasPrefix(virtual, "/") {
		return pathutil.Normalize(virtual)
	}
	return pathutil.Normalize(s.userWorkingDir + "/" + virtual)
}
