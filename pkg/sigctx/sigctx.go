// Package sigctx provides the shutdown context of a process.
package sigctx

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

// NotifyContext returns a context done on the first shutdown signal.
// The returned stop func also unregisters the signals.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), shutdownSignals...)
}
