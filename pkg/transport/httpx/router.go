// pkg/transport/httpx/router.go
package httpx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VerbAll binds a handler to every method.
const VerbAll = "all"

// Router is the minimal route-table contract the dispatch core depends on.
// NewChi implements it.
type Router interface {
	// Bind appends h to the route table. A request walks every binding
	// whose verb and path match, in bind order; next(nil) moves on. A path
	// the router cannot parse is rejected and nothing is bound.
	Bind(verb, path string, h Handler) error
	Handle(method, path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	Mux() http.Handler
}

// ErrorHandler answers a request whose chain ended with next(err).
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// chiRouter is the default Router backed by github.com/go-chi/chi.
type chiRouter struct {
	r     *chi.Mux
	log   *zap.Logger
	onErr ErrorHandler

	mu       sync.RWMutex
	bindings []binding
	mounted  bool
}

// Option configures the chi-backed Router.
type Option func(*chiRouter)

// WithLogger routes chain errors to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *chiRouter) {
		if l != nil {
			c.log = l
		}
	}
}

// WithErrorHandler replaces the default status-code error writer.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(c *chiRouter) {
		if fn != nil {
			c.onErr = fn
		}
	}
}

// NewChi returns a Chi-backed Router.
func NewChi(opts ...Option) Router {
	c := &chiRouter{
		r:   chi.NewRouter(),
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.onErr == nil {
		c.onErr = c.writeError
	}
	c.r.Use(LocalsMiddleware)
	return c
}

func (c *chiRouter) Bind(verb, path string, h Handler) error {
	if h == nil {
		return errors.New("httpx: nil handler")
	}
	pattern := ChiPattern(path)
	m, err := matcher(pattern)
	if err != nil {
		return err
	}
	verb = strings.ToUpper(strings.TrimSpace(verb))
	if verb == "" {
		verb = strings.ToUpper(VerbAll)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.mounted {
		// every path reaches the binding walk; Handle routes still win
		c.r.Handle("/*", http.HandlerFunc(c.dispatch))
		c.mounted = true
	}
	c.bindings = append(c.bindings, binding{verb: verb, pattern: pattern, m: m, h: h})
	return nil
}

// matcher returns a mux that knows only pattern. chi panics on patterns it
// rejects; that becomes an error here.
func matcher(pattern string) (m *chi.Mux, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("httpx: invalid route %q: %v", pattern, rec)
		}
	}()
	m = chi.NewRouter()
	m.Handle(pattern, http.NotFoundHandler())
	return m, nil
}

// CheckPattern reports whether path can be bound.
func CheckPattern(path string) error {
	_, err := matcher(ChiPattern(path))
	return err
}

func (c *chiRouter) Handle(method, path string, h http.Handler) {
	c.r.Method(method, ChiPattern(path), h)
}
func (c *chiRouter) Mux() http.Handler                         { return c.r }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.r.Use(mw...) }

func (c *chiRouter) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusOf(err)
	if code >= http.StatusInternalServerError {
		c.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("uri", r.URL.Path),
			zap.Error(err),
		)
	}
	msg := http.StatusText(code)
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" && code < http.StatusInternalServerError {
		msg = se.Message
	}
	http.Error(w, msg, code)
}

type binding struct {
	verb    string
	pattern string
	m       *chi.Mux
	h       Handler
}

// match reports whether b serves r and returns the route params it captured.
func (b binding) match(method, path string) (*chi.Context, bool) {
	if b.verb != strings.ToUpper(VerbAll) && b.verb != method {
		return nil, false
	}
	rctx := chi.NewRouteContext()
	if !b.m.Match(rctx, http.MethodGet, path) {
		return nil, false
	}
	return rctx, true
}

// dispatch walks the bindings in bind order. Each matching binding sees
// its own route params; the end of the table is 404.
func (c *chiRouter) dispatch(w http.ResponseWriter, r *http.Request) {
	r = WithLocals(r)
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		rc = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
	}
	method := strings.ToUpper(r.Method)
	path := r.URL.RawPath
	if path == "" {
		path = r.URL.Path
	}

	c.mu.RLock()
	bindings := c.bindings
	c.mu.RUnlock()

	var step func(i int)
	step = func(i int) {
		for ; i < len(bindings); i++ {
			b := bindings[i]
			m, ok := b.match(method, path)
			if !ok {
				continue
			}
			rc.URLParams = m.URLParams
			rc.RoutePatterns = []string{b.pattern}

			next := i + 1
			var once sync.Once
			b.h(w, r, func(err error) {
				once.Do(func() {
					if err != nil {
						c.onErr(w, r, err)
						return
					}
					step(next)
				})
			})
			return
		}
		http.NotFound(w, r)
	}
	step(0)
}

// ChiPattern converts express-style ":param" segments to chi "{param}" and
// makes sure the pattern is rooted.
func ChiPattern(path string) string {
	path = strings.TrimSpace(path)
	if path == "*" {
		path = "/*"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if len(seg) > 1 && seg[0] == ':' {
			segs[i] = "{" + strings.TrimSuffix(seg[1:], "?") + "}"
		}
	}
	return strings.Join(segs, "/")
}
