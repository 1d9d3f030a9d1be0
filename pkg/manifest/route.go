package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// Route declares one explicit binding. Exactly one of Target, Middleware
// and Controller names what serves it.
type Route struct {
	// Path may embed a verb ("post /login") and may be "*".
	Path string `toml:"path"`
	Verb string `toml:"verb"`
	// Target is a "controller.action" string, a redirect URL, or an array
	// of those.
	Target     any    `toml:"target"`
	Middleware string `toml:"middleware"`
	Controller string `toml:"controller"`
	Action     string `toml:"action"`
	// Phase is "before" (default) or "after".
	Phase string `toml:"phase"`
	Guard Guard  `toml:"guard"`
}

// Guard restricts who may reach a route before its target runs.
type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Guarded reports whether any guard rule is set.
func (g Guard) Guarded() bool {
	return g.RequireAuth || len(g.Users) > 0 || len(g.Roles) > 0
}

var verbs = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "patch": {}, "delete": {},
	"options": {}, "head": {}, "trace": {}, "all": {},
}

// Decl returns the target in the shape route binding accepts.
func (r Route) Decl() any {
	switch {
	case r.Middleware != "":
		return map[string]any{"middleware": r.Middleware}
	case r.Controller != "":
		return map[string]any{"controller": r.Controller, "action": r.Action}
	}
	return r.Target
}

func (r *Route) normalize() error {
	r.Path = strings.TrimSpace(r.Path)
	if r.Path == "" {
		return errors.New("path is required")
	}
	if err := httpx.CheckPattern(barePath(r.Path)); err != nil {
		return err
	}
	r.Verb = strings.ToLower(strings.TrimSpace(r.Verb))
	if r.Verb != "" {
		if _, ok := verbs[r.Verb]; !ok {
			return fmt.Errorf("unknown verb %q", r.Verb)
		}
	}
	r.Phase = strings.ToLower(strings.TrimSpace(r.Phase))
	switch r.Phase {
	case "":
		r.Phase = "before"
	case "before", "after":
	default:
		return fmt.Errorf("phase %q must be before or after", r.Phase)
	}

	n := 0
	if r.Target != nil {
		n++
	}
	if r.Middleware != "" {
		n++
	}
	if r.Controller != "" {
		n++
	}
	switch {
	case n == 0:
		return errors.New("one of target, middleware or controller is required")
	case n > 1:
		return errors.New("target, middleware and controller are mutually exclusive")
	}
	if r.Action != "" && r.Controller == "" {
		return errors.New("action requires controller")
	}
	return nil
}

// barePath drops a leading verb ("get /users") from path.
func barePath(path string) string {
	if f := strings.Fields(path); len(f) == 2 {
		if _, ok := verbs[strings.ToLower(f[0])]; ok {
			return f[1]
		}
	}
	return path
}
