package core

import (
	"net/http"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	manifest "github.com/joeydtaylor/steeze-mvc/pkg/manifest"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/logger"
	hmetrics "github.com/joeydtaylor/steeze-mvc/pkg/middleware/metrics"
	httpx "github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

type BuildDeps struct {
	Auth     *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  *hmetrics.Metrics
	Router   httpx.Router
	Registry *Registry
	Bus      *Bus
	Log      *zap.Logger
	// Routes receives the route buckets; a fresh set is used when nil.
	Routes *Routes
	// Hooks add routes after the manifest and auto-routes are queued.
	Hooks []func(*Routes)
}

// BuildRouter installs the middleware stack on d.Router, queues manifest
// routes and auto-routes, and binds them.
func BuildRouter(cfg manifest.Config, d BuildDeps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Bus == nil {
		d.Bus = NewBus()
	}
	if d.Routes == nil {
		d.Routes = &Routes{}
	}
	heartbeat := cfg.Server.Heartbeat
	if heartbeat == "" {
		heartbeat = "/ping"
	}

	r := d.Router
	r.Use(chimd.RequestID, chimd.Recoverer, chimd.Heartbeat(heartbeat))

	if d.Auth != nil {
		r.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		r.Use(d.LogMW.WithTarget(targetOf).Middleware(d.Auth))
	}
	if d.Metrics != nil {
		// metrics collector that references auth state without copying it
		r.Use(d.Metrics.Collect(d.Auth))
		r.Handle(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	for _, rt := range cfg.Routes {
		decl := rt.Decl()
		if rt.Guard.Guarded() {
			decl = []any{guardHandler(d.Auth, rt.Guard), decl}
		}
		phase := PhaseBefore
		if rt.Phase == string(PhaseAfter) {
			phase = PhaseAfter
		}
		d.Routes.Add(Route{Verb: rt.Verb, Path: rt.Path, Target: decl, Phase: phase})
	}
	if d.Registry != nil && cfg.Server.AutoRoutes() {
		AutoRoute(d.Registry, d.Bus, d.Routes, d.Log)
	}
	for _, hook := range d.Hooks {
		hook(d.Routes)
	}

	d.Routes.Flush(NewBinder(r, d.Registry, d.Bus, d.Log))
	return r.Mux()
}

func targetOf(r *http.Request) (string, string, bool) {
	t, ok := RequestTargetFrom(r)
	return t.Controller, t.Action, ok
}
