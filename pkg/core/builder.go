package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-mvc/pkg/modules"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

var (
	policyFilter     = regexp.MustCompile(`^(.+)\.go$`)
	viewFilter       = regexp.MustCompile(`^(.+)\..+$`)
	controllerFilter = regexp.MustCompile(`^(.+)Controller\.go$`)
	controllerSuffix = regexp.MustCompile(`Controller`)
	federatedFilter  = regexp.MustCompile(`^(.+)/(.+)\.go$`)
)

// Paths are the module directories the Builder reads.
type Paths struct {
	Controllers string
	Policies    string
	Views       string
}

// DefaultPaths follows the conventional application layout.
var DefaultPaths = Paths{
	Controllers: "api/controllers",
	Policies:    "api/policies",
	Views:       "views",
}

// Builder assembles the Registry from policy, view and controller modules.
type Builder struct {
	// Modules loads policies and controllers.
	Modules modules.Loader
	// Views lists views; nil disables the views phase.
	Views modules.Loader
	// Renderer serves views that have no controller action.
	Renderer Renderer
	Policies PolicyMap
	Bus      *Bus
	Log      *zap.Logger
	Paths    Paths

	version atomic.Uint64
}

// BuildOptions override Builder fields for a single Build. Zero values keep
// the Builder's setting.
type BuildOptions struct {
	Policies PolicyMap
	Bus      *Bus
	Log      *zap.Logger
	Paths    Paths
}

// build holds the state of one Build run. Its fields shadow the Builder's
// so a run never writes to the shared Builder.
type build struct {
	*Builder
	Policies PolicyMap
	Bus      *Bus
	Log      *zap.Logger
	Paths    Paths

	reg        *Registry
	normalizer *PolicyNormalizer
	resolver   *PolicyResolver
}

// Build runs policies -> views -> controllers and returns a fresh Registry.
// Bad declarations are logged and skipped; only loader failures abort.
func (b *Builder) Build(ctx context.Context) (*Registry, error) {
	return b.BuildWith(ctx, BuildOptions{})
}

// BuildWith is Build with per-run overrides. It is safe to call
// concurrently on one Builder.
func (b *Builder) BuildWith(ctx context.Context, o BuildOptions) (*Registry, error) {
	if b.Modules == nil {
		return nil, fmt.Errorf("core: builder has no module loader")
	}
	st := &build{
		Builder:  b,
		Policies: o.Policies,
		Bus:      firstBus(o.Bus, b.Bus),
		Log:      o.Log,
		Paths: Paths{
			Controllers: firstNonEmpty(o.Paths.Controllers, b.Paths.Controllers, DefaultPaths.Controllers),
			Policies:    firstNonEmpty(o.Paths.Policies, b.Paths.Policies, DefaultPaths.Policies),
			Views:       firstNonEmpty(o.Paths.Views, b.Paths.Views, DefaultPaths.Views),
		},
		reg: newRegistry(b.version.Add(1)),
	}
	if st.Policies == nil {
		st.Policies = b.Policies
	}
	if st.Log == nil {
		st.Log = b.Log
	}
	if st.Log == nil {
		st.Log = zap.NewNop()
	}
	st.Log.Debug("building middleware registry", zap.Uint64("version", st.reg.Version))

	err := runGraph(ctx, []task{
		{name: "policies", run: st.loadPolicies},
		{name: "views", deps: []string{"policies"}, run: st.loadViews},
		{name: "controllers", deps: []string{"policies", "views"}, run: st.loadControllers},
	})
	if err != nil {
		return nil, err
	}
	return st.reg, nil
}

func firstBus(buses ...*Bus) *Bus {
	for _, b := range buses {
		if b != nil {
			return b
		}
	}
	return NewBus()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (st *build) loadPolicies(context.Context) error {
	st.Log.Debug("loading app policies", zap.String("dir", st.Paths.Policies))
	mods, err := st.Modules.Optional(modules.Options{
		Dirname: st.Paths.Policies,
		Filter:  policyFilter,
	})
	if err != nil {
		return err
	}
	for _, id := range sortedKeys(mods) {
		h, ok := httpx.AsHandler(mods[id])
		if !ok {
			st.Log.Warn("ignoring policy module that is not a handler", zap.String("policy", id))
			continue
		}
		st.reg.policies[id] = h
		// policy modules double as default handlers for their id
		st.reg.entries[id] = &Entry{Chain: httpx.Chain{h}}
	}
	st.normalizer = NewPolicyNormalizer(st.reg.policies, st.Log)
	st.resolver = NewPolicyResolver(st.Policies, st.normalizer)
	return nil
}

func (st *build) loadViews(context.Context) error {
	if st.Views == nil {
		st.Bus.Signal(EventViewsLoaded, st.reg.Views())
		return nil
	}
	listed, err := st.Views.Optional(modules.Options{
		Dirname:  st.Paths.Views,
		Filter:   viewFilter,
		DontLoad: true,
	})
	if err != nil {
		return err
	}

	for _, id := range sortedKeys(listed) {
		switch v := listed[id].(type) {
		case map[string]any:
			view := View{Actions: sortedKeys(v)}
			st.reg.views[id] = view
			actions := make(map[string]httpx.Chain, len(view.Actions))
			for _, action := range view.Actions {
				actions[action] = httpx.Chain{viewHandler(st.Renderer, id+"/"+action)}
			}
			st.reg.entries[id] = &Entry{Actions: actions}
		default:
			st.reg.views[id] = View{Bare: true}
			st.reg.entries[id] = &Entry{Chain: httpx.Chain{viewHandler(st.Renderer, id)}}
		}
	}
	st.Bus.Signal(EventViewsLoaded, st.reg.Views())
	return nil
}

func (st *build) loadControllers(context.Context) error {
	st.Log.Debug("loading app controllers", zap.String("dir", st.Paths.Controllers))
	conventional, err := st.Modules.Optional(modules.Options{
		Dirname:     st.Paths.Controllers,
		Filter:      controllerFilter,
		ReplaceExpr: controllerSuffix,
		Identity:    strings.ToLower,
	})
	if err != nil {
		return err
	}
	federated, err := st.Modules.Optional(modules.Options{
		Dirname:    st.Paths.Controllers,
		PathFilter: federatedFilter,
		Identity:   strings.ToLower,
	})
	if err != nil {
		return err
	}
	for id, c := range federated {
		conventional[id] = overlay(conventional[id], c)
	}

	ids := sortedKeys(conventional)
	for _, id := range ids {
		st.mergeController(id, conventional[id])
		st.applyPolicies(id)
	}
	st.reg.controllers = ids
	return nil
}

// mergeController mixes one controller module into the registry. false
// removes an action, handlers and arrays overwrite.
func (st *build) mergeController(id string, decl any) {
	if elems, ok := httpx.AsChain(decl); ok {
		if chain := st.chainOf(id, "", elems); len(chain) > 0 {
			st.reg.entries[id] = &Entry{Chain: chain}
		}
		return
	}
	if h, ok := httpx.AsHandler(decl); ok {
		st.reg.entries[id] = &Entry{Chain: httpx.Chain{h}}
		return
	}

	actions, ok := actionMap(decl)
	if !ok {
		st.Log.Warn("ignoring controller that is neither a handler nor an action map",
			zap.String("controller", id), zap.String("type", fmt.Sprintf("%T", decl)))
		return
	}

	target := st.reg.actionsOf(id)
	for _, actionID := range sortedKeys(actions) {
		switch v := actions[actionID].(type) {
		case bool:
			if !v {
				delete(target, actionID)
				continue
			}
			st.Log.Warn("ignoring action set to true", zap.String("controller", id), zap.String("action", actionID))
		default:
			if h, ok := httpx.AsHandler(v); ok {
				target[actionID] = httpx.Chain{h}
				continue
			}
			if elems, ok := httpx.AsChain(v); ok {
				if chain := st.chainOf(id, actionID, elems); len(chain) > 0 {
					target[actionID] = chain
				}
				continue
			}
			st.Log.Warn("ignoring action that is not a function or array",
				zap.String("controller", id), zap.String("action", actionID))
		}
	}
}

func (st *build) chainOf(id, actionID string, elems []any) httpx.Chain {
	chain := make(httpx.Chain, 0, len(elems))
	for i, e := range elems {
		h, ok := httpx.AsHandler(e)
		if !ok {
			st.Log.Warn("ignoring non-function chain element",
				zap.String("controller", id), zap.String("action", actionID), zap.Int("index", i))
			continue
		}
		chain = append(chain, h)
	}
	return chain
}

// applyPolicies prepends the resolved policy chain to every action of id.
func (st *build) applyPolicies(id string) {
	e, ok := st.reg.entries[id]
	if !ok {
		return
	}
	if e.Bare() {
		e.Chain = concat(st.resolver.ResolveController(id), e.Chain)
		return
	}
	for actionID, chain := range e.Actions {
		e.Actions[actionID] = concat(st.resolver.Resolve(id, actionID), chain)
	}
}

// overlay merges federated actions over a conventional controller's; any
// other combination lets the federated declaration win.
func overlay(base, over any) any {
	b, ok1 := actionMap(base)
	o, ok2 := actionMap(over)
	if !ok1 || !ok2 {
		return over
	}
	out := make(map[string]any, len(b)+len(o))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

func actionMap(v any) (map[string]any, bool) {
	switch c := v.(type) {
	case Controller:
		return c, true
	case map[string]any:
		return c, true
	}
	return nil, false
}

func concat(a, b httpx.Chain) httpx.Chain {
	out := make(httpx.Chain, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}
