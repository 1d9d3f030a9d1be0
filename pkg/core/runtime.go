package core

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	manifest "github.com/joeydtaylor/steeze-mvc/pkg/manifest"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/steeze-mvc/pkg/middleware/metrics"
	httpx "github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Snapshot is one complete, immutable generation of the dispatch state.
type Snapshot struct {
	Registry *Registry
	Routes   *Routes
	Handler  http.Handler
}

// Assembler produces Snapshots: it re-reads the manifest, rebuilds the
// registry and binds a fresh router.
type Assembler struct {
	Builder  *Builder
	Manifest func() (manifest.Config, error)
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  *hmetrics.Metrics
	Bus      *Bus
	Log      *zap.Logger
	Hooks    []func(*Routes)
}

// Assemble builds one Snapshot. Route problems in the manifest are logged
// and skipped; loader and manifest failures are returned.
func (a *Assembler) Assemble(ctx context.Context) (*Snapshot, error) {
	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg, err := a.Manifest()
	if err != nil {
		return nil, err
	}
	for _, p := range cfg.Normalize() {
		log.Error("ignoring manifest route", zap.Error(p))
	}

	reg, err := a.Builder.BuildWith(ctx, BuildOptions{
		Policies: PolicyMap(cfg.Policies),
		Bus:      a.Bus,
		Log:      log,
		Paths: Paths{
			Controllers: cfg.Paths.Controllers,
			Policies:    cfg.Paths.Policies,
			Views:       cfg.Paths.Views,
		},
	})
	if err != nil {
		return nil, err
	}
	if a.Metrics != nil {
		a.Metrics.ObserveBuild()
	}

	routes := &Routes{}
	h := BuildRouter(cfg, BuildDeps{
		Auth:     a.Auth,
		LogMW:    a.LogMW,
		Metrics:  a.Metrics,
		Router:   httpx.NewChi(httpx.WithLogger(log)),
		Registry: reg,
		Bus:      a.Bus,
		Log:      log,
		Routes:   routes,
		Hooks:    a.Hooks,
	})
	return &Snapshot{Registry: reg, Routes: routes, Handler: h}, nil
}

// Runtime serves the current Snapshot. Reload swaps in a new one in a
// single store; in-flight requests finish on the snapshot they started on.
type Runtime struct {
	cur      atomic.Pointer[Snapshot]
	reloadMu sync.Mutex
	assemble func(context.Context) (*Snapshot, error)
	log      *zap.Logger
}

func NewRuntime(assemble func(context.Context) (*Snapshot, error), log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runtime{assemble: assemble, log: log}
}

// Reload assembles a new Snapshot. On failure the current one stays.
func (rt *Runtime) Reload(ctx context.Context) error {
	rt.reloadMu.Lock()
	defer rt.reloadMu.Unlock()

	s, err := rt.assemble(ctx)
	if err != nil {
		rt.log.Error("reload failed, keeping current routes", zap.Error(err))
		return err
	}
	rt.cur.Store(s)
	rt.log.Info("routes loaded", zap.Uint64("version", s.Registry.Version))
	return nil
}

// Current returns the live Snapshot, nil before the first Reload.
func (rt *Runtime) Current() *Snapshot { return rt.cur.Load() }

func (rt *Runtime) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s := rt.cur.Load()
	if s == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	s.Handler.ServeHTTP(w, r)
}

// ObserveMetrics feeds dispatch and bind counts from bus into m. Call once
// per bus.
func ObserveMetrics(bus *Bus, m *hmetrics.Metrics) {
	bus.On(EventRoute, func(p any) {
		if ev, ok := p.(RouteEvent); ok && ev.R != nil {
			m.ObserveDispatch(ev.R.Method)
		}
	})
	bus.On(EventBind, func(p any) {
		if ev, ok := p.(BindEvent); ok {
			m.ObserveBind(ev.Verb)
		}
	})
}
