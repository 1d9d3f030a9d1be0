package modules

import (
	"path"
	"strings"
	"sync"
)

// Catalog is an in-process module table. Go code cannot be loaded from
// disk at runtime, so applications register their controllers and policies
// under the path they would live at:
//
//	func init() {
//	    modules.Register("api/controllers/UserController.go", core.Controller{
//	        "index": listUsers,
//	        "show":  showUser,
//	    })
//	}
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]any
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]any)}
}

// Default is the catalog filled by Register.
var Default = NewCatalog()

// Register adds a module to the Default catalog.
func Register(p string, v any) { Default.Register(p, v) }

// Register stores v under the slash path p, replacing any previous value.
func (c *Catalog) Register(p string, v any) {
	p = strings.TrimPrefix(path.Clean(p), "/")
	c.mu.Lock()
	c.entries[p] = v
	c.mu.Unlock()
}

// Delete removes the module stored under p, if any.
func (c *Catalog) Delete(p string) {
	p = strings.TrimPrefix(path.Clean(p), "/")
	c.mu.Lock()
	delete(c.entries, p)
	c.mu.Unlock()
}

// Optional implements Loader.
func (c *Catalog) Optional(o Options) (map[string]any, error) {
	dir := cleanDir(o.Dirname)
	prefix := dir + "/"
	if dir == "." {
		prefix = ""
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, isFile := c.entries[dir]; isFile && dir != "." {
		return nil, ErrNotDirectory
	}
	var rels []string
	for p := range c.entries {
		if strings.HasPrefix(p, prefix) {
			rels = append(rels, strings.TrimPrefix(p, prefix))
		}
	}
	return collect(rels, o, func(rel string) (any, error) {
		return c.entries[prefix+rel], nil
	})
}
