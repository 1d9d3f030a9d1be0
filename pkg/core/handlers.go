// core/handlers.go
package core

import (
	"sync"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

var (
	handlersMu sync.RWMutex
	handlers   = map[string]httpx.Handler{}
)

// RegisterHandler makes a handler available under a name referenced by
// middleware route targets in manifest.toml.
func RegisterHandler(name string, h httpx.Handler) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers[name] = h
}

// LookupHandler retrieves a registered handler by name.
func LookupHandler(name string) (httpx.Handler, bool) {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	h, ok := handlers[name]
	return h, ok
}
