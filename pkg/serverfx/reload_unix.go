//go:build !windows

package serverfx

import (
	"os"
	"os/signal"
	"syscall"
)

// reloadSignal delivers SIGHUP; the returned func stops delivery.
func reloadSignal() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	return ch, func() { signal.Stop(ch) }
}
