// linesync keeps one domain's per-ISP-line CNAME records pointed at the
// targets each line publishes. It runs a single pass, a dry-run plan, or a
// long-running service with health and metrics endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "linesync: %s\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// Exit codes. Per-line failures never change the exit code; they are
// reported in the pass summary.
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
	exitNoZone = 3
)

// fatalError marks an error as a fatal condition with a specific exit code.
type fatalError struct {
	code int
	err  error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func configError(err error) error {
	return &fatalError{code: exitConfig, err: err}
}

func zoneError(err error) error {
	return &fatalError{code: exitNoZone, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var fe *fatalError
	if errors.As(err, &fe) {
		return fe.code
	}
	return exitFatal
}
