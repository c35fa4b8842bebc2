// Package ftp provides the FTP protocol adapter: the TCP listener, the
// accept loop fanning out one session goroutine per control connection, and
// the graceful-shutdown machinery draining those sessions.
package ftp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/ftpd/internal/logger"
	"github.com/marmos91/ftpd/internal/netio"
	protocol "github.com/marmos91/ftpd/internal/protocol/ftp"
	"github.com/marmos91/ftpd/internal/ratelimiter"
	"github.com/marmos91/ftpd/pkg/adapter"
	"github.com/marmos91/ftpd/pkg/store/accounts"
)

var _ adapter.Adapter = (*FTPAdapter)(nil)

// FTPAdapter owns the control-channel listener and the lifecycle of every
// session spawned from it.
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. Wait for active sessions to finish (up to ShutdownTimeout)
//  4. Force-close any remaining control connections after the timeout
//
// Thread safety: all methods are safe for concurrent use; shutdown is
// guarded by sync.Once.
type FTPAdapter struct {
	config FTPConfig
	store  accounts.Store

	listener net.Listener

	// activeConns tracks running sessions for graceful shutdown.
	activeConns sync.WaitGroup

	// activeConnections maps remote address to net.Conn for forced closure.
	activeConnections sync.Map

	connCount atomic.Int32

	// connSemaphore bounds concurrent sessions when MaxConnections > 0.
	connSemaphore chan struct{}

	// acceptLimiter sheds connections arriving faster than AcceptRate.
	acceptLimiter *ratelimiter.RateLimiter

	shutdownOnce sync.Once
	shutdown     chan struct{}
}

// FTPConfig holds the adapter's tunables.
//
// Zero timeout values select the defaults below; the idle timeout is the
// only timeout the protocol itself mandates (control-channel silence ends
// the session with a 421 reply).
type FTPConfig struct {
	// Enabled controls whether the FTP adapter is active.
	Enabled bool `mapstructure:"enabled"`

	// Port is the control-channel port. Standard FTP port is 21.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// MaxConnections limits concurrent sessions. 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// AcceptRate caps accepted connections per second; arrivals above the
	// rate are closed immediately. 0 means unlimited.
	AcceptRate uint `mapstructure:"accept_rate"`

	// AcceptBurst is the burst capacity on top of AcceptRate. 0 selects
	// twice the rate.
	AcceptBurst uint `mapstructure:"accept_burst"`

	// IdleTimeout bounds control-channel silence before the session is torn
	// down with "421 Time out". Defaults to 5 minutes.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`

	// ShutdownTimeout is how long graceful shutdown waits for active
	// sessions before force-closing them.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

func (c *FTPConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 21
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = protocol.DefaultIdleTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *FTPConfig) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be 0-65535", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid IdleTimeout %v: must be >= 0", c.IdleTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// New creates an adapter serving sessions authenticated against the given
// account store. Zero config values are replaced with defaults; an invalid
// configuration panics, since it indicates a programmer error.
func New(config FTPConfig, store accounts.Store) *FTPAdapter {
	config.applyDefaults()

	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid FTP config: %v", err))
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
		logger.Debug("FTP connection limit: %d", config.MaxConnections)
	}

	return &FTPAdapter{
		config:        config,
		store:         store,
		connSemaphore: connSemaphore,
		acceptLimiter: ratelimiter.New(config.AcceptRate, config.AcceptBurst),
		shutdown:      make(chan struct{}),
	}
}

// Serve binds the listener and accepts control connections until the
// context is cancelled. Each accepted connection runs its own session
// goroutine; accept errors are logged and the loop continues.
func (s *FTPAdapter) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("failed to create FTP listener on port %d: %w", s.config.Port, err)
	}

	s.listener = listener
	logger.Info("FTP server listening on port %d", s.config.Port)
	logger.Debug("FTP config: max_connections=%d idle_timeout=%v shutdown_timeout=%v",
		s.config.MaxConnections, s.config.IdleTimeout, s.config.ShutdownTimeout)

	go func() {
		<-ctx.Done()
		logger.Info("FTP shutdown signal received: %v", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		tcpConn, err := s.listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}

			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("Error accepting FTP connection: %v", err)
				continue
			}
		}

		if !s.acceptLimiter.Allow() {
			logger.Warn("FTP connection from %s shed: accept rate exceeded",
				tcpConn.RemoteAddr())
			_ = tcpConn.Close()
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			continue
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)

		connAddr := tcpConn.RemoteAddr().String()
		s.activeConnections.Store(connAddr, tcpConn)

		logger.Debug("FTP connection accepted from %s (active: %d)",
			connAddr, s.connCount.Load())

		go func(addr string, conn net.Conn) {
			defer func() {
				s.activeConnections.Delete(addr)
				s.activeConns.Done()
				s.connCount.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
				logger.Debug("FTP connection closed from %s (active: %d)",
					addr, s.connCount.Load())
			}()

			session := protocol.NewSession(netio.Wrap(conn), s.store, protocol.SessionConfig{
				IdleTimeout: s.config.IdleTimeout,
			})
			session.Serve(ctx)
		}(connAddr, tcpConn)
	}
}

// initiateShutdown stops accepting connections. Safe to call repeatedly.
func (s *FTPAdapter) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("FTP shutdown initiated")
		close(s.shutdown)
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("Error closing FTP listener: %v", err)
			}
		}
	})
}

// gracefulShutdown waits for active sessions to complete or force-closes
// them after the shutdown timeout.
func (s *FTPAdapter) gracefulShutdown() error {
	activeCount := s.connCount.Load()
	logger.Info("FTP graceful shutdown: waiting for %d active session(s) (timeout: %v)",
		activeCount, s.config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("FTP graceful shutdown complete: all sessions closed")
		return nil

	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("FTP shutdown timeout exceeded: %d session(s) still active after %v - forcing closure",
			remaining, s.config.ShutdownTimeout)
		s.forceCloseConnections()
		return fmt.Errorf("FTP shutdown timeout: %d sessions force-closed", remaining)
	}
}

// forceCloseConnections closes every tracked control connection so stuck
// sessions fail their next read and exit.
func (s *FTPAdapter) forceCloseConnections() {
	closedCount := 0
	s.activeConnections.Range(func(key, value any) bool {
		addr := key.(string)
		conn := value.(net.Conn)

		if err := conn.Close(); err != nil {
			logger.Debug("Error force-closing connection to %s: %v", addr, err)
		} else {
			closedCount++
		}
		return true
	})

	if closedCount > 0 {
		logger.Info("Force-closed %d session(s)", closedCount)
	}
}

// Stop initiates graceful shutdown and waits for sessions to drain, bounded
// by the context when one is supplied.
func (s *FTPAdapter) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if ctx == nil {
		return s.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GetActiveConnections reports the number of running sessions.
func (s *FTPAdapter) GetActiveConnections() int32 {
	return s.connCount.Load()
}

// Port returns the configured control-channel port.
func (s *FTPAdapter) Port() int {
	return s.config.Port
}

// Protocol returns "FTP" for logging.
func (s *FTPAdapter) Protocol() string {
	return "FTP"
}
