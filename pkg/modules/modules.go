// Package modules is the module loading collaborator of the dispatch core.
// A Loader maps the files below a directory to identifiers, either loading
// their values or only recording that they exist.
package modules

import (
	"errors"
	"path"
	"regexp"
	"sort"
	"strings"
)

// ErrNotDirectory is returned when Options.Dirname names a file.
var ErrNotDirectory = errors.New("modules: not a directory")

// Options selects and names modules below Dirname.
type Options struct {
	// Filter is matched against each file name; group 1 is the identifier.
	// Files in subdirectories end up in nested maps keyed by directory.
	Filter *regexp.Regexp
	// PathFilter is matched against the slash path relative to Dirname and
	// takes precedence over Filter; every non-empty group is one nesting level.
	PathFilter *regexp.Regexp
	// ReplaceExpr is stripped from every identifier.
	ReplaceExpr *regexp.Regexp
	// Identity post-processes identifiers (e.g. strings.ToLower).
	Identity func(string) string
	Dirname  string
	// DontLoad records existence only: every leaf value is true.
	DontLoad bool
}

// Loader is the contract the registry builder consumes. A missing
// directory is not an error; it yields an empty mapping.
type Loader interface {
	Optional(o Options) (map[string]any, error)
}

var defaultName = regexp.MustCompile(`^(.+?)(\.[^.]+)?$`)

// collect builds the identifier mapping for rel paths (slash separated,
// relative to o.Dirname). value loads a single file.
func collect(rels []string, o Options, value func(rel string) (any, error)) (map[string]any, error) {
	sort.Strings(rels)
	out := make(map[string]any)
	for _, rel := range rels {
		keys := o.keys(rel)
		if len(keys) == 0 {
			continue
		}
		var v any = true
		if !o.DontLoad {
			loaded, err := value(rel)
			if err != nil {
				return nil, err
			}
			v = loaded
		}
		insert(out, keys, v)
	}
	return out, nil
}

func (o Options) keys(rel string) []string {
	var raw []string
	if o.PathFilter != nil {
		m := o.PathFilter.FindStringSubmatch(rel)
		if m == nil {
			return nil
		}
		for _, g := range m[1:] {
			if g != "" {
				raw = append(raw, g)
			}
		}
	} else {
		filter := o.Filter
		if filter == nil {
			filter = defaultName
		}
		m := filter.FindStringSubmatch(path.Base(rel))
		if m == nil || len(m) < 2 || m[1] == "" {
			return nil
		}
		if dir := path.Dir(rel); dir != "." {
			raw = append(raw, strings.Split(dir, "/")...)
		}
		raw = append(raw, m[1])
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if o.ReplaceExpr != nil {
			k = o.ReplaceExpr.ReplaceAllString(k, "")
		}
		if o.Identity != nil {
			k = o.Identity(k)
		}
		if k == "" {
			return nil
		}
		keys = append(keys, k)
	}
	return keys
}

func insert(m map[string]any, keys []string, v any) {
	for _, k := range keys[:len(keys)-1] {
		sub, ok := m[k].(map[string]any)
		if !ok {
			if _, taken := m[k]; taken {
				return
			}
			sub = make(map[string]any)
			m[k] = sub
		}
		m = sub
	}
	m[keys[len(keys)-1]] = v
}

func cleanDir(dir string) string {
	dir = path.Clean(strings.TrimSpace(dir))
	if dir == "/" {
		return "."
	}
	return strings.TrimPrefix(dir, "/")
}
