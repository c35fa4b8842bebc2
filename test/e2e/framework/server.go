// Package framework provides the end-to-end test harness: it boots a real
// FTP adapter on a loopback port with a temporary home directory and hands
// tests both a protocol-level client and a raw control-channel client.
package framework

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/ftpd/internal/logger"
	ftpadapter "github.com/marmos91/ftpd/pkg/adapter/ftp"
	"github.com/marmos91/ftpd/pkg/store/accounts"
	"github.com/marmos91/ftpd/pkg/store/accounts/memory"
)

// TestUser and TestPassword are the credentials provisioned on every test
// server.
const (
	TestUser     = "alice"
	TestPassword = "secret"
)

// TestServerConfig holds configuration for the test server.
type TestServerConfig struct {
	Port           int
	IdleTimeout    time.Duration
	LogLevel       string
	StartupTimeout time.Duration
}

// TestServer wraps a running FTP adapter for testing.
type TestServer struct {
	t       testing.TB
	config  TestServerConfig
	adapter *ftpadapter.FTPAdapter
	store   *memory.MemoryAccountStore
	home    string
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewTestServer creates a test server instance with a temporary home
// directory and an in-memory account store holding TestUser.
func NewTestServer(t testing.TB, config TestServerConfig) *TestServer {
	t.Helper()

	if config.Port == 0 {
		config.Port = findFreePort(t)
	}
	if config.LogLevel == "" {
		config.LogLevel = "ERROR" // Keep tests quiet by default
	}
	if config.StartupTimeout == 0 {
		config.StartupTimeout = 10 * time.Second
	}

	home, err := os.MkdirTemp("", "ftpd-e2e-*")
	if err != nil {
		t.Fatalf("Failed to create home directory: %v", err)
	}

	store := memory.New()
	store.Add(accounts.Account{Username: TestUser, Password: TestPassword, HomeDir: home})

	ctx, cancel := context.WithCancel(context.Background())

	return &TestServer{
		t:      t,
		config: config,
		store:  store,
		home:   home,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start boots the adapter and waits until it accepts connections.
func (ts *TestServer) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return fmt.Errorf("server already started")
	}

	ts.t.Helper()
	logger.SetLevel(ts.config.LogLevel)

	ts.adapter = ftpadapter.New(ftpadapter.FTPConfig{
		Enabled:     true,
		Port:        ts.config.Port,
		IdleTimeout: ts.config.IdleTimeout,
	}, ts.store)

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		if err := ts.adapter.Serve(ts.ctx); err != nil && err != context.Canceled {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	if err := ts.waitForServer(); err != nil {
		ts.cancel()
		ts.wg.Wait()
		return fmt.Errorf("server failed to start: %w", err)
	}

	ts.started = true
	return nil
}

// Stop shuts the server down and removes the temporary home directory.
func (ts *TestServer) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		_ = os.RemoveAll(ts.home)
		return
	}

	ts.cancel()

	done := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		ts.t.Logf("Server stop timeout - abandoning shutdown wait")
	}

	if err := os.RemoveAll(ts.home); err != nil {
		ts.t.Logf("Warning: failed to remove home directory %s: %v", ts.home, err)
	}

	ts.started = false
}

// Port returns the port the server is listening on.
func (ts *TestServer) Port() int {
	return ts.config.Port
}

// Addr returns the loopback dial address of the server.
func (ts *TestServer) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", ts.config.Port)
}

// Home returns the host directory acting as the test user's virtual root.
func (ts *TestServer) Home() string {
	return ts.home
}

// Store exposes the account store for provisioning extra users.
func (ts *TestServer) Store() *memory.MemoryAccountStore {
	return ts.store
}

// WriteHomeFile creates a file under the test user's home directory.
func (ts *TestServer) WriteHomeFile(relPath string, content []byte) string {
	ts.t.Helper()
	path := filepath.Join(ts.home, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		ts.t.Fatalf("Failed to create directory for %s: %v", relPath, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		ts.t.Fatalf("Failed to write %s: %v", relPath, err)
	}
	return path
}

// waitForServer waits for the listener to accept connections.
func (ts *TestServer) waitForServer() error {
	deadline := time.Now().Add(ts.config.StartupTimeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", ts.Addr(), 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for server to start")
}

// findFreePort finds an available port.
func findFreePort(t testing.TB) int {
	t.Helper()
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatalf("Failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	_ = listener.Close()
	return port
}
