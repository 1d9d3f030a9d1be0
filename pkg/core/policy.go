package core

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Wildcard selects every controller or every action in a PolicyMap.
const Wildcard = "*"

// PolicyMap is the policy configuration surface: controllerId (or "*") to
// either a bare declaration or a per-action map of declarations.
type PolicyMap map[string]any

// Deny answers 403 without running the rest of the chain.
func Deny(_ http.ResponseWriter, _ *http.Request, next httpx.Next) {
	next(httpx.Error(http.StatusForbidden, "Forbidden"))
}

// Allow proceeds untouched.
func Allow(_ http.ResponseWriter, _ *http.Request, next httpx.Next) {
	next(nil)
}

// PolicyNormalizer turns policy declarations into handler chains. String
// declarations are resolved against the loaded policy modules.
type PolicyNormalizer struct {
	modules map[string]httpx.Handler
	log     *zap.Logger
}

func NewPolicyNormalizer(modules map[string]httpx.Handler, log *zap.Logger) *PolicyNormalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &PolicyNormalizer{modules: modules, log: log}
}

// Normalize never returns an empty chain. Absent and false deny, true
// allows, anything unusable becomes a handler failing the request with 500.
func (n *PolicyNormalizer) Normalize(decl any) httpx.Chain {
	if elems, ok := httpx.AsChain(decl); ok {
		if len(elems) == 0 {
			return httpx.Chain{Allow}
		}
		out := make(httpx.Chain, 0, len(elems))
		for _, e := range elems {
			out = append(out, n.Normalize(e)...)
		}
		return out
	}

	if h, ok := httpx.AsHandler(decl); ok {
		return httpx.Chain{h}
	}

	switch d := decl.(type) {
	case nil:
		return httpx.Chain{Deny}
	case bool:
		if d {
			return httpx.Chain{Allow}
		}
		return httpx.Chain{Deny}
	case string:
		if h, ok := n.modules[d]; ok && h != nil {
			return httpx.Chain{h}
		}
		n.log.Error("unknown policy", zap.String("policy", d))
		return httpx.Chain{invalidPolicy(decl)}
	}

	n.log.Error("cannot map invalid policy", zap.String("policy", fmt.Sprintf("%#v", decl)))
	return httpx.Chain{invalidPolicy(decl)}
}

func invalidPolicy(decl any) httpx.Handler {
	msg := fmt.Sprintf("invalid policy: %v", decl)
	return func(_ http.ResponseWriter, _ *http.Request, next httpx.Next) {
		next(httpx.Error(http.StatusInternalServerError, msg))
	}
}

// PolicyResolver picks the most specific declaration for a controller
// action and normalizes it.
type PolicyResolver struct {
	config     PolicyMap
	normalizer *PolicyNormalizer
}

func NewPolicyResolver(config PolicyMap, n *PolicyNormalizer) *PolicyResolver {
	return &PolicyResolver{config: config, normalizer: n}
}

// Resolve looks up policies[c][a], then policies[c]["*"], then policies["*"].
// A bare policies[c] applies to every action of c.
func (p *PolicyResolver) Resolve(controllerID, actionID string) httpx.Chain {
	return p.normalizer.Normalize(p.declaration(controllerID, actionID))
}

// ResolveController resolves the chain guarding a controller that is itself
// a single handler.
func (p *PolicyResolver) ResolveController(controllerID string) httpx.Chain {
	return p.Resolve(controllerID, Wildcard)
}

func (p *PolicyResolver) declaration(controllerID, actionID string) any {
	entry, ok := p.config[controllerID]
	if !ok {
		return p.config[Wildcard]
	}
	actions, isMap := asPolicyMap(entry)
	if !isMap {
		return entry
	}
	if d, ok := actions[actionID]; ok {
		return d
	}
	if d, ok := actions[Wildcard]; ok {
		return d
	}
	return p.config[Wildcard]
}

func asPolicyMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case PolicyMap:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}
