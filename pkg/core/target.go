package core

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Target is a normalized route target. The set of implementations is closed.
type Target interface {
	target()
}

// FuncTarget binds one handler.
type FuncTarget struct{ Handler httpx.Handler }

// ChainTarget fans out: every element is bound as its own route.
type ChainTarget struct{ Elems []any }

// RedirectTarget answers with a redirect to URL.
type RedirectTarget struct{ URL string }

// ControllerAction resolves against the Registry. An empty Action means index.
type ControllerAction struct {
	Controller string
	Action     string
}

// MiddlewareRef is a configuration object carrying the final handler under
// its middleware key. A string value names a handler added with RegisterHandler.
type MiddlewareRef struct{ Middleware any }

// InvalidTarget is anything that cannot be bound.
type InvalidTarget struct{ Value any }

func (FuncTarget) target()       {}
func (ChainTarget) target()      {}
func (RedirectTarget) target()   {}
func (ControllerAction) target() {}
func (MiddlewareRef) target()    {}
func (InvalidTarget) target()    {}

// ActionOrIndex returns the action, defaulting to index.
func (t ControllerAction) ActionOrIndex() string {
	if t.Action == "" {
		return DefaultAction
	}
	return t.Action
}

func (t ControllerAction) String() string { return t.Controller + "." + t.ActionOrIndex() }

var dotNotation = regexp.MustCompile(`^([^.]+)\.?([^.]*)$`)

// ParseTarget maps an arbitrary declaration onto a Target. Strings in
// controller.action form become ControllerAction when reg knows the
// controller; any other string is a redirect destination.
func ParseTarget(v any, reg *Registry) Target {
	if t, ok := v.(Target); ok {
		return t
	}
	if elems, ok := httpx.AsChain(v); ok {
		return ChainTarget{Elems: elems}
	}
	if h, ok := httpx.AsHandler(v); ok {
		return FuncTarget{Handler: h}
	}

	switch t := v.(type) {
	case string:
		return parseString(t, reg)
	case map[string]any:
		if mw, ok := t["middleware"]; ok {
			return MiddlewareRef{Middleware: mw}
		}
		c, _ := t["controller"].(string)
		a, _ := t["action"].(string)
		if c == "" {
			return InvalidTarget{Value: v}
		}
		return ControllerAction{Controller: c, Action: a}
	}
	return InvalidTarget{Value: v}
}

func parseString(s string, reg *Registry) Target {
	if m := dotNotation.FindStringSubmatch(s); m != nil && m[1] != "" && reg != nil {
		if _, ok := reg.Entry(m[1]); ok {
			return ControllerAction{Controller: m[1], Action: m[2]}
		}
	}
	return RedirectTarget{URL: s}
}

type requestTargetKey struct{}

// RequestTarget identifies the controller action handling a request.
type RequestTarget struct {
	Controller string
	Action     string
}

// SetRequestTarget stores t on the request's locals.
func SetRequestTarget(r *http.Request, t RequestTarget) {
	if l := httpx.LocalsFrom(r); l != nil {
		l.Set(requestTargetKey{}, t)
	}
}

// RequestTargetFrom returns the target attached by the binder, if any.
func RequestTargetFrom(r *http.Request) (RequestTarget, bool) {
	l := httpx.LocalsFrom(r)
	if l == nil {
		return RequestTarget{}, false
	}
	v, ok := l.Get(requestTargetKey{})
	if !ok {
		return RequestTarget{}, false
	}
	t, ok := v.(RequestTarget)
	return t, ok
}

func describe(v any) string {
	if t, ok := v.(fmt.Stringer); ok {
		return t.String()
	}
	return fmt.Sprintf("%#v", v)
}
