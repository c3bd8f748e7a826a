//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// shutdownSignals stop a batch or drain the server. Windows only delivers
// os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}

// notifyContext returns a context canceled on the first shutdown signal.
// Call stop to unregister.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
