package core

import (
	"strings"
	"sync"
)

// Phase orders a route relative to the others.
type Phase string

const (
	PhaseBefore Phase = "before"
	PhaseAfter  Phase = "after"
)

// Route is one declaration waiting to be bound.
type Route struct {
	Target any
	Verb   string
	Path   string
	Phase  Phase
}

func (r Route) key() string {
	return strings.ToLower(r.Verb) + " " + r.Path
}

// Routes holds the before and after buckets. A route whose verb and path
// match an earlier one in the same bucket replaces it in place.
type Routes struct {
	mu     sync.Mutex
	before bucket
	after  bucket
}

type bucket struct {
	index  map[string]int
	routes []Route
}

func (b *bucket) put(r Route) {
	if b.index == nil {
		b.index = make(map[string]int)
	}
	k := r.key()
	if i, ok := b.index[k]; ok {
		b.routes[i] = r
		return
	}
	b.index[k] = len(b.routes)
	b.routes = append(b.routes, r)
}

// Add queues r. An empty phase means before.
func (rs *Routes) Add(r Route) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if r.Phase == PhaseAfter {
		rs.after.put(r)
		return
	}
	r.Phase = PhaseBefore
	rs.before.put(r)
}

// Before returns the before bucket in declaration order.
func (rs *Routes) Before() []Route {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]Route(nil), rs.before.routes...)
}

// After returns the after bucket in declaration order.
func (rs *Routes) After() []Route {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return append([]Route(nil), rs.after.routes...)
}

// Flush binds every before route and then every after route.
func (rs *Routes) Flush(b *Binder) {
	for _, r := range rs.Before() {
		b.Bind(r.Path, r.Target, r.Verb)
	}
	for _, r := range rs.After() {
		b.Bind(r.Path, r.Target, r.Verb)
	}
}
