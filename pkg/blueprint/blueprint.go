// Package blueprint provides generic controller actions backed by a Model.
package blueprint

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-mvc/pkg/codec"
	"github.com/joeydtaylor/steeze-mvc/pkg/core"
	"github.com/joeydtaylor/steeze-mvc/pkg/modules"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// ActionUpdate is the action id blueprint updates are registered under.
const ActionUpdate = "update"

// Blueprints serves generic actions for every controller with a model.
type Blueprints struct {
	models map[string]Model
	bus    *core.Bus
	log    *zap.Logger
	pubsub bool

	// catalog paths added by Register
	registered map[string]struct{}
}

type Option func(*Blueprints)

// WithPubSub toggles update events on the bus. On by default.
func WithPubSub(on bool) Option { return func(b *Blueprints) { b.pubsub = on } }

func WithLogger(l *zap.Logger) Option {
	return func(b *Blueprints) {
		if l != nil {
			b.log = l
		}
	}
}

func New(bus *core.Bus, opts ...Option) *Blueprints {
	if bus == nil {
		bus = core.NewBus()
	}
	b := &Blueprints{
		models:     make(map[string]Model),
		bus:        bus,
		log:        zap.NewNop(),
		pubsub:     true,
		registered: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Model attaches m to controller id.
func (b *Blueprints) Model(controller string, m Model) {
	b.models[strings.ToLower(controller)] = m
}

// Controllers returns the controller ids that have a model, sorted.
func (b *Blueprints) Controllers() []string {
	ids := make([]string, 0, len(b.models))
	for id := range b.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Register adds the update action of every modeled controller to c as a
// federated controller module, so controller policies apply to it.
func (b *Blueprints) Register(c *modules.Catalog, controllersDir string) {
	for _, id := range b.Controllers() {
		p := controllersDir + "/" + id + "/" + ActionUpdate + ".go"
		c.Register(p, b.Update())
		b.registered[p] = struct{}{}
	}
}

// Unregister removes what Register added to c, leaving the modeled
// controllers without a blueprint update action.
func (b *Blueprints) Unregister(c *modules.Catalog) {
	for p := range b.registered {
		c.Delete(p)
		delete(b.registered, p)
	}
}

// Routes queues the REST-style update routes next to the auto-routes.
func (b *Blueprints) Routes(routes *core.Routes) {
	for _, id := range b.Controllers() {
		target := core.ControllerAction{Controller: id, Action: ActionUpdate}
		for _, verb := range []string{"put", "patch"} {
			routes.Add(core.Route{Verb: verb, Path: "/" + id + "/:id", Target: target, Phase: core.PhaseAfter})
		}
		routes.Add(core.Route{Verb: "post", Path: "/" + id + "/update/:id", Target: target, Phase: core.PhaseAfter})
	}
}

// Update merges request parameters into the record named by id and
// responds with the updated record.
func (b *Blueprints) Update() httpx.Handler {
	return func(w http.ResponseWriter, r *http.Request, next httpx.Next) {
		target, _ := core.RequestTargetFrom(r)

		body, err := readBody(r)
		if err != nil {
			next(httpx.Wrap(http.StatusBadRequest, err))
			return
		}

		id := param(r, body, "id")
		if id == "" {
			next(httpx.Error(http.StatusBadRequest, "No id provided."))
			return
		}

		m, ok := b.models[target.Controller]
		if !ok {
			next(nil)
			return
		}

		params := map[string]any{}
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}
		if rc := chi.RouteContext(r.Context()); rc != nil {
			for i, k := range rc.URLParams.Keys {
				if k != "*" && i < len(rc.URLParams.Values) {
					params[k] = rc.URLParams.Values[i]
				}
			}
		}
		for k, v := range body {
			params[k] = v
		}
		delete(params, "id")

		records, err := m.Update(r.Context(), id, params)
		if err != nil {
			next(err)
			return
		}
		if len(records) == 0 {
			next(nil)
			return
		}
		rec := records[0]

		if s, ok := m.(Silencer); b.pubsub && !(ok && s.Silent()) {
			b.bus.Emit(core.EventModelUpdate, core.ModelEvent{Record: rec, Controller: target.Controller, ID: id})
		}
		if err := codec.Write(w, codec.JSON, http.StatusOK, rec); err != nil {
			b.log.Warn("blueprint response failed", zap.String("controller", target.Controller), zap.Error(err))
		}
	}
}

// param looks id up the way request parameters resolve: route, body, query.
func param(r *http.Request, body map[string]any, key string) string {
	if v := chi.URLParam(r, key); v != "" {
		return v
	}
	if v, ok := body[key]; ok {
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t)
		case interface{ String() string }:
			return t.String()
		}
	}
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func readBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil, nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil || len(b) == 0 {
		return nil, err
	}
	var out map[string]any
	if err := codec.JSON.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
