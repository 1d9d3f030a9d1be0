// pkg/transport/httpx/handler.go
package httpx

import "net/http"

// Next advances a chain. next(nil) proceeds to the following handler;
// next(err) skips the rest and hands err to the error continuation.
type Next func(err error)

// Handler is the atomic unit of dispatch.
type Handler func(w http.ResponseWriter, r *http.Request, next Next)

// Chain is an ordered sequence of Handlers executed front-to-back.
type Chain []Handler

// AsHandler adapts the function shapes accepted from modules and config.
// http.Handler values are terminal: they never call next.
func AsHandler(v any) (Handler, bool) {
	switch h := v.(type) {
	case Handler:
		return h, h != nil
	case func(http.ResponseWriter, *http.Request, Next):
		return Handler(h), h != nil
	case http.HandlerFunc:
		if h == nil {
			return nil, false
		}
		return func(w http.ResponseWriter, r *http.Request, _ Next) { h(w, r) }, true
	case func(http.ResponseWriter, *http.Request):
		if h == nil {
			return nil, false
		}
		return func(w http.ResponseWriter, r *http.Request, _ Next) { h(w, r) }, true
	case http.Handler:
		if h == nil {
			return nil, false
		}
		return func(w http.ResponseWriter, r *http.Request, _ Next) { h.ServeHTTP(w, r) }, true
	}
	return nil, false
}

// AsChain reports whether v is an array shape of handlers. Elements are
// returned untouched so callers can normalize them individually.
func AsChain(v any) ([]any, bool) {
	switch c := v.(type) {
	case Chain:
		out := make([]any, len(c))
		for i, h := range c {
			out[i] = h
		}
		return out, true
	case []Handler:
		out := make([]any, len(c))
		for i, h := range c {
			out[i] = h
		}
		return out, true
	case []any:
		return c, true
	case []string:
		out := make([]any, len(c))
		for i, s := range c {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}
