package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/marmos91/ftpd/internal/logger"
	ftpadapter "github.com/marmos91/ftpd/pkg/adapter/ftp"
	"github.com/marmos91/ftpd/pkg/config"
)

func displayUsage() {
	fmt.Println("Usage: ftpd [flags] <log-file> <port>")
	fmt.Println("<log-file>: REQUIRED. The file to log server actions to (stdout/stderr accepted)")
	fmt.Println("<port>    : REQUIRED. The control-channel port to listen on")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// fail reports a startup error to stdout. Startup errors are not fatal exit
// codes: the historical CLI always exits 0.
func fail(format string, v ...any) {
	fmt.Printf(format+"\n", v...)
	os.Exit(0)
}

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		displayUsage()
		os.Exit(0)
	}
	logFile := args[0]

	port, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		fail("Port not a number or out of range: %s", args[1])
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("Failed to load configuration: %v", err)
	}

	// Positional arguments win over the config file.
	cfg.Logging.Output = logFile
	cfg.Adapters.FTP.Port = int(port)

	logger.SetLevel(cfg.Logging.Level)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		fail("Cannot open file %s", logFile)
	}

	store, err := config.NewAccountStore(cfg)
	if err != nil {
		fail("Failed to create account store: %v", err)
	}
	defer store.Close()

	srv := ftpadapter.New(cfg.Adapters.FTP, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %d. Press Ctrl+C to stop.", cfg.Adapters.FTP.Port)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			return
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			fail("Server error: %v", err)
		}
		logger.Info("Server stopped")
	}
}
