//go:build windows

package serverfx

import "os"

// reloadSignal never fires on Windows; call Runtime.Reload directly.
func reloadSignal() (<-chan os.Signal, func()) {
	return nil, func() {}
}
