package httpx

import (
	"context"
	"net/http"
	"sync"
)

type localsKey struct{}

// Locals is mutable per-request storage shared by every binding a request
// walks through. Handlers cannot hand a new *http.Request to next, so values
// that must survive across bindings live here.
type Locals struct {
	mu   sync.RWMutex
	vals map[any]any
}

func (l *Locals) Set(key, val any) {
	l.mu.Lock()
	if l.vals == nil {
		l.vals = make(map[any]any)
	}
	l.vals[key] = val
	l.mu.Unlock()
}

func (l *Locals) Get(key any) (any, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.vals[key]
	return v, ok
}

// WithLocals attaches fresh Locals to the request unless it already has some.
func WithLocals(r *http.Request) *http.Request {
	if _, ok := r.Context().Value(localsKey{}).(*Locals); ok {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), localsKey{}, &Locals{}))
}

// LocalsFrom returns the request's Locals, or nil when none were attached.
func LocalsFrom(r *http.Request) *Locals {
	l, _ := r.Context().Value(localsKey{}).(*Locals)
	return l
}

// LocalsMiddleware installs Locals before anything else runs.
func LocalsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, WithLocals(r))
	})
}
