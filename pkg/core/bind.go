package core

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Binder turns route declarations into router bindings.
type Binder struct {
	Router   httpx.Router
	Registry *Registry
	Bus      *Bus
	Log      *zap.Logger
}

// NewBinder returns a Binder. A nil bus or logger gets a private default.
func NewBinder(rt httpx.Router, reg *Registry, bus *Bus, log *zap.Logger) *Binder {
	if bus == nil {
		bus = NewBus()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Binder{Router: rt, Registry: reg, Bus: bus, Log: log}
}

// Bind adds target to the route table under path. A verb embedded in path
// ("get /users") applies unless verb is given explicitly. Unbindable
// targets are logged and skipped.
func (b *Binder) Bind(path string, target any, verb string) {
	if path == "*" {
		path = "/*"
	}
	detected := DetectVerb(path)
	path = detected.Original
	if verb == "" {
		verb = detected.Verb
	}
	if path == "*" {
		path = "/*"
	}
	b.bindTarget(path, ParseTarget(target, b.Registry), verb)
}

func (b *Binder) bindTarget(path string, t Target, verb string) {
	switch t := t.(type) {
	case ChainTarget:
		for _, elem := range t.Elems {
			b.Bind(path, elem, verb)
		}

	case MiddlewareRef:
		h, ok := b.middleware(t.Middleware)
		if !ok {
			b.Log.Error("ignoring route with unknown middleware",
				zap.String("path", path), zap.String("middleware", describe(t.Middleware)))
			return
		}
		b.bind(path, h, verb)

	case ControllerAction:
		b.bindAction(path, t, verb)

	case RedirectTarget:
		b.bind(path, b.redirect(t.URL), verb)

	case FuncTarget:
		b.bind(path, t.Handler, verb)

	case InvalidTarget:
		b.Log.Error("ignoring route with invalid target",
			zap.String("path", path), zap.String("target", describe(t.Value)))
	}
}

func (b *Binder) middleware(v any) (httpx.Handler, bool) {
	if name, ok := v.(string); ok {
		return LookupHandler(name)
	}
	return httpx.AsHandler(v)
}

// bindAction resolves a controller action and binds each handler of its
// chain, tagging the request with the target first.
func (b *Binder) bindAction(path string, t ControllerAction, verb string) {
	var (
		chain httpx.Chain
		found bool
	)
	if e, ok := b.entry(t.Controller); ok && e.Bare() {
		chain, found = e.Chain, true
	} else if b.Registry != nil {
		chain, found = b.Registry.Action(t.Controller, t.ActionOrIndex())
	}
	if !found || len(chain) == 0 {
		b.Log.Error("ignoring route to unknown controller action",
			zap.String("path", path), zap.String("target", t.String()))
		return
	}

	meta := RequestTarget{Controller: t.Controller, Action: t.ActionOrIndex()}
	for _, h := range chain {
		b.bind(path, tagged(meta, h), verb)
	}
}

func (b *Binder) entry(id string) (*Entry, bool) {
	if b.Registry == nil {
		return nil, false
	}
	return b.Registry.Entry(id)
}

func tagged(meta RequestTarget, h httpx.Handler) httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		SetRequestTarget(r, meta)
		h(w, r, next)
	}
}

func (b *Binder) redirect(url string) httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, _ httpx.Next) {
		b.Log.Debug("redirecting", zap.String("from", r.URL.Path), zap.String("to", url))
		http.Redirect(w, r, url, http.StatusFound)
	}
}

// bind is the low-level registration every target ends in.
func (b *Binder) bind(path string, h httpx.Handler, verb string) {
	if verb == "" {
		verb = httpx.VerbAll
	}
	bus := b.Bus
	wrapped := func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		bus.Emit(EventRoute, RouteEvent{W: w, R: r, Next: next})
		h(w, r, next)
	}
	if err := b.Router.Bind(verb, path, wrapped); err != nil {
		b.Log.Error("ignoring route the router rejected",
			zap.String("verb", verb), zap.String("path", path), zap.Error(err))
		return
	}
	b.Log.Debug("bound route", zap.String("verb", verb), zap.String("path", path))
	bus.Emit(EventBind, BindEvent{Handler: h, Path: path, Verb: verb})
}

