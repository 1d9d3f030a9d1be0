package manifest

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the top-level manifest.
type Config struct {
	Server   Server         `toml:"server"`
	Paths    Paths          `toml:"paths"`
	Policies map[string]any `toml:"policies"`
	Routes   []Route        `toml:"route"`
}

// Server configures the HTTP listener and the built-in route groups.
type Server struct {
	Listen     string `toml:"listen"`
	TLSCert    string `toml:"tls_cert"`
	TLSKey     string `toml:"tls_key"`
	Heartbeat  string `toml:"heartbeat"`
	Blueprints bool   `toml:"blueprints"`
	AutoRoute  *bool  `toml:"autoroute"`
}

// Paths overrides the module directories.
type Paths struct {
	Controllers string `toml:"controllers"`
	Policies    string `toml:"policies"`
	Views       string `toml:"views"`
}

// AutoRoutes reports whether controller and view routes are bound
// implicitly. Defaults to true.
func (s Server) AutoRoutes() bool { return s.AutoRoute == nil || *s.AutoRoute }

// LoadConfig reads and decodes the manifest at path.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes a TOML manifest.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("manifest: %w", err)
	}
	return cfg, nil
}

// Normalize fills defaults and drops routes that cannot be bound. The
// returned problems describe every dropped route; they are not fatal.
func (c *Config) Normalize() []error {
	if c.Server.Heartbeat == "" {
		c.Server.Heartbeat = "/ping"
	}
	if len(c.Policies) == 0 {
		c.Policies = map[string]any{"*": true}
	}

	var problems []error
	kept := c.Routes[:0]
	for i := range c.Routes {
		r := c.Routes[i]
		if err := r.normalize(); err != nil {
			problems = append(problems, fmt.Errorf("route %d (%s): %w", i, r.Path, err))
			continue
		}
		kept = append(kept, r)
	}
	c.Routes = kept
	return problems
}
