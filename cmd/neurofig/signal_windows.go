//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals cancels in-flight renders on interrupt.
// Windows has no SIGTERM, so only Ctrl+C is caught.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
