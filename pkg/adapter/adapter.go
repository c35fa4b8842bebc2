// Package adapter defines the protocol adapter contract shared by the
// server entry point and tests.
package adapter

import "context"

// Adapter represents a protocol-specific server adapter.
//
// Each adapter implements one file transfer protocol and provides a unified
// interface for lifecycle management.
//
// Lifecycle:
//  1. Creation: adapter is created with protocol-specific configuration and
//     its backing stores
//  2. Startup: Serve() starts the protocol server and blocks until shutdown
//  3. Shutdown: Stop() initiates graceful shutdown with timeout
//
// Thread safety:
// Implementations must be safe for concurrent use; Stop() may be called
// concurrently with Serve().
type Adapter interface {
	// Serve starts the protocol server and blocks until the context is
	// cancelled or an unrecoverable error occurs.
	//
	// When the context is cancelled, Serve must initiate graceful shutdown:
	// stop accepting new connections, drain active sessions (with timeout),
	// release resources.
	Serve(ctx context.Context) error

	// Stop initiates graceful shutdown. Must be idempotent and safe to call
	// concurrently with Serve(). The context bounds how long to wait for
	// active sessions.
	Stop(ctx context.Context) error

	// Protocol returns the human-readable protocol name for logging.
	Protocol() string

	// Port returns the TCP port the adapter is listening on.
	Port() int
}
