package core

import (
	"sort"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// DefaultAction is the action used when a target names only a controller.
const DefaultAction = "index"

// Controller is the declaration shape of a controller module:
// actionId to handler, handler array, or false.
type Controller map[string]any

// Entry is one controller's slot in the Registry. Exactly one of Chain and
// Actions is set.
type Entry struct {
	Actions map[string]httpx.Chain
	Chain   httpx.Chain
}

// Bare reports whether the controller is itself a single handler chain.
func (e *Entry) Bare() bool { return e != nil && e.Actions == nil }

// View records which views exist for a controller id.
type View struct {
	Actions []string
	Bare    bool
}

// Registry is the merged middleware table. It is immutable once Build
// returns; reloads construct a new one.
type Registry struct {
	entries     map[string]*Entry
	views       map[string]View
	policies    map[string]httpx.Handler
	controllers []string
	Version     uint64
}

func newRegistry(version uint64) *Registry {
	return &Registry{
		entries:  make(map[string]*Entry),
		views:    make(map[string]View),
		policies: make(map[string]httpx.Handler),
		Version:  version,
	}
}

// Entry returns the slot for a controller id.
func (r *Registry) Entry(controllerID string) (*Entry, bool) {
	e, ok := r.entries[controllerID]
	return e, ok
}

// Action returns the final chain for controllerId.actionId.
func (r *Registry) Action(controllerID, actionID string) (httpx.Chain, bool) {
	e, ok := r.entries[controllerID]
	if !ok || e.Bare() {
		return nil, false
	}
	c, ok := e.Actions[actionID]
	return c, ok
}

// Actions returns the action ids of a controller, sorted.
func (r *Registry) Actions(controllerID string) []string {
	e, ok := r.entries[controllerID]
	if !ok || e.Bare() {
		return nil
	}
	return sortedKeys(e.Actions)
}

// IDs returns every registered id, sorted.
func (r *Registry) IDs() []string { return sortedKeys(r.entries) }

// Controllers returns the ids loaded from controller modules, sorted.
func (r *Registry) Controllers() []string { return append([]string(nil), r.controllers...) }

// IsController reports whether id came from a controller module.
func (r *Registry) IsController(id string) bool {
	i := sort.SearchStrings(r.controllers, id)
	return i < len(r.controllers) && r.controllers[i] == id
}

// Views returns the discovered view table.
func (r *Registry) Views() map[string]View {
	out := make(map[string]View, len(r.views))
	for k, v := range r.views {
		out[k] = v
	}
	return out
}

// Policy returns a loaded policy module by id.
func (r *Registry) Policy(id string) (httpx.Handler, bool) {
	h, ok := r.policies[id]
	return h, ok
}

func (r *Registry) actionsOf(controllerID string) map[string]httpx.Chain {
	e, ok := r.entries[controllerID]
	if !ok || e.Bare() {
		e = &Entry{Actions: make(map[string]httpx.Chain)}
		r.entries[controllerID] = e
	}
	return e.Actions
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
