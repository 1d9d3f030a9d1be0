package core_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-mvc/pkg/core"
	"github.com/joeydtaylor/steeze-mvc/pkg/modules"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

func newBinder(t *testing.T) (*core.Binder, httpx.Router, *core.Bus) {
	t.Helper()
	c := modules.NewCatalog()
	c.Register("api/controllers/UserController.go", core.Controller{
		"index": httpx.Handler(whoami),
		"show":  []any{mark("X-Step", "1"), httpx.Handler(whoami)},
	})
	c.Register("api/controllers/PingController.go", httpx.Handler(whoami))
	reg := buildRegistry(t, c, nil, core.PolicyMap{"*": true})

	rt := httpx.NewChi()
	bus := core.NewBus()
	return core.NewBinder(rt, reg, bus, nil), rt, bus
}

func TestBindWildcard(t *testing.T) {
	t.Parallel()

	b, rt, _ := newBinder(t)
	b.Bind("*", write("star"), "")
	b.Bind("get *", write("never"), "")

	rec := do(rt.Mux(), http.MethodPost, "/anything/at/all")
	assert.Equal(t, "star", rec.Body.String())
}

func TestBindVerbs(t *testing.T) {
	t.Parallel()

	b, rt, _ := newBinder(t)
	b.Bind("get /embedded", write("embedded"), "")
	b.Bind("get /override", write("override"), "post")

	h := rt.Mux()
	assert.Equal(t, "embedded", do(h, http.MethodGet, "/embedded").Body.String())
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/embedded").Code)
	assert.Equal(t, "override", do(h, http.MethodPost, "/override").Body.String())
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/override").Code)
}

func TestBindArrayFanOut(t *testing.T) {
	t.Parallel()

	b, rt, bus := newBinder(t)
	var binds []core.BindEvent
	bus.On(core.EventBind, func(p any) { binds = append(binds, p.(core.BindEvent)) })

	b.Bind("/arr", []any{mark("X-A", "1"), []any{mark("X-B", "2")}, write("done")}, "")
	require.Len(t, binds, 3)
	for _, ev := range binds {
		assert.Equal(t, "/arr", ev.Path)
		assert.Equal(t, httpx.VerbAll, ev.Verb)
		assert.NotNil(t, ev.Handler)
	}

	rec := do(rt.Mux(), http.MethodGet, "/arr")
	assert.Equal(t, "done", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-A"))
	assert.Equal(t, "2", rec.Header().Get("X-B"))
}

func TestBindOneRouteEventPerInvocation(t *testing.T) {
	t.Parallel()

	b, rt, bus := newBinder(t)
	var events []core.RouteEvent
	bus.On(core.EventRoute, func(p any) { events = append(events, p.(core.RouteEvent)) })

	b.Bind("/single", write("x"), "")
	do(rt.Mux(), http.MethodGet, "/single")
	require.Len(t, events, 1)
	assert.Equal(t, "/single", events[0].R.URL.Path)
	assert.NotNil(t, events[0].Next)

	events = nil
	b.Bind("/pair", []any{mark("X", "1"), write("y")}, "")
	do(rt.Mux(), http.MethodGet, "/pair")
	assert.Len(t, events, 2)
}

func TestBindControllerTargets(t *testing.T) {
	t.Parallel()

	b, rt, _ := newBinder(t)
	b.Bind("/dot", "user.show", "")
	b.Bind("/bare-dot", "user", "")
	b.Bind("/desc", map[string]any{"controller": "user", "action": "index"}, "")
	b.Bind("/typed", core.ControllerAction{Controller: "ping"}, "")
	b.Bind("/missing-action", core.ControllerAction{Controller: "user", Action: "nope"}, "")

	h := rt.Mux()
	rec := do(h, http.MethodGet, "/dot")
	assert.Equal(t, "user.show", rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get("X-Step"))

	assert.Equal(t, "user.index", do(h, http.MethodGet, "/bare-dot").Body.String())
	assert.Equal(t, "user.index", do(h, http.MethodGet, "/desc").Body.String())
	assert.Equal(t, "ping.index", do(h, http.MethodGet, "/typed").Body.String())
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/missing-action").Code)
}

func TestBindRedirect(t *testing.T) {
	t.Parallel()

	b, rt, _ := newBinder(t)
	b.Bind("/old", "/new", "")
	b.Bind("/ext", "https://example.com/docs", "")
	b.Bind("/ghost", "ghost.show", "")

	h := rt.Mux()
	rec := do(h, http.MethodGet, "/old")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/new", rec.Header().Get("Location"))

	rec = do(h, http.MethodGet, "/ext")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/docs", rec.Header().Get("Location"))

	// unknown controller in dot notation falls back to a redirect
	rec = do(h, http.MethodGet, "/ghost")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/ghost.show", rec.Header().Get("Location"))
}

func TestBindMiddlewareAndInvalid(t *testing.T) {
	t.Parallel()

	core.RegisterHandler("bind-test-hello", write("hello"))

	b, rt, bus := newBinder(t)
	binds := 0
	bus.On(core.EventBind, func(any) { binds++ })

	b.Bind("/mw", map[string]any{"middleware": write("inline")}, "")
	b.Bind("/named", map[string]any{"middleware": "bind-test-hello"}, "")
	b.Bind("/unknown", map[string]any{"middleware": "bind-test-nope"}, "")
	b.Bind("/invalid", 42, "")
	b.Bind("/empty-desc", map[string]any{"action": "x"}, "")
	assert.Equal(t, 2, binds)

	h := rt.Mux()
	assert.Equal(t, "inline", do(h, http.MethodGet, "/mw").Body.String())
	assert.Equal(t, "hello", do(h, http.MethodGet, "/named").Body.String())
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/unknown").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/invalid").Code)
}

func TestParseTarget(t *testing.T) {
	t.Parallel()

	c := modules.NewCatalog()
	c.Register("api/controllers/UserController.go", core.Controller{"index": write("x")})
	reg := buildRegistry(t, c, nil, nil)

	assert.Equal(t, core.ControllerAction{Controller: "user", Action: "find"}, core.ParseTarget("user.find", reg))
	assert.Equal(t, core.ControllerAction{Controller: "user"}, core.ParseTarget("user", reg))
	assert.Equal(t, core.RedirectTarget{URL: "/user.find"}, core.ParseTarget("/user.find", reg))
	assert.Equal(t, core.RedirectTarget{URL: "a.b.c"}, core.ParseTarget("a.b.c", reg))
	assert.Equal(t, core.RedirectTarget{URL: "user.find"}, core.ParseTarget("user.find", nil))
	assert.IsType(t, core.ChainTarget{}, core.ParseTarget([]string{"a"}, reg))
	assert.IsType(t, core.FuncTarget{}, core.ParseTarget(write("x"), reg))
	assert.IsType(t, core.MiddlewareRef{}, core.ParseTarget(map[string]any{"middleware": "m"}, reg))
	assert.IsType(t, core.InvalidTarget{}, core.ParseTarget(3.5, reg))
	assert.Equal(t, "index", core.ControllerAction{Controller: "user"}.ActionOrIndex())
}

func TestBindSkipsRejectedPattern(t *testing.T) {
	t.Parallel()

	b, rt, bus := newBinder(t)
	binds := 0
	bus.On(core.EventBind, func(any) { binds++ })

	require.NotPanics(t, func() {
		b.Bind("/assets/*/raw", write("x"), "")
		b.Bind("get /assets/*/raw", "user.show", "")
	})
	assert.Zero(t, binds)

	b.Bind("/assets/*", write("assets"), "")
	assert.Equal(t, 1, binds)
	assert.Equal(t, "assets", do(rt.Mux(), http.MethodGet, "/assets/a/raw").Body.String())
}
