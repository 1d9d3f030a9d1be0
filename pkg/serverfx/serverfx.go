package serverfx

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-mvc/pkg/blueprint"
	"github.com/joeydtaylor/steeze-mvc/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-mvc/pkg/core"
	"github.com/joeydtaylor/steeze-mvc/pkg/manifest"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/metrics"
	"github.com/joeydtaylor/steeze-mvc/pkg/modules"
)

// ---------- Options ----------

type Config struct {
	Service         string // for logs only
	ManifestEnv     string // APP_MANIFEST
	DefaultManifest string // manifest.toml
	ListenEnv       string // SERVER_LISTEN_ADDRESS
	DefaultListen   string // :4000
	TLSCertEnv      string // SSL_SERVER_CERTIFICATE
	TLSKeyEnv       string // SSL_SERVER_KEY
	RootEnv         string // APP_ROOT, directory holding views
	DefaultRoot     string

	// Catalog holds the controller and policy modules. Defaults to
	// modules.Default.
	Catalog *modules.Catalog
}

type Option func(*Config)

func WithService(s string) Option            { return func(c *Config) { c.Service = s } }
func WithManifestEnv(k string) Option        { return func(c *Config) { c.ManifestEnv = k } }
func WithDefaultManifest(path string) Option { return func(c *Config) { c.DefaultManifest = path } }
func WithListenEnv(k string) Option          { return func(c *Config) { c.ListenEnv = k } }
func WithDefaultListen(addr string) Option   { return func(c *Config) { c.DefaultListen = addr } }
func WithRoot(dir string) Option             { return func(c *Config) { c.DefaultRoot = dir } }
func WithCatalog(cat *modules.Catalog) Option {
	return func(c *Config) { c.Catalog = cat }
}
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}

func defaultConfig() Config {
	return Config{
		Service:         "app",
		ManifestEnv:     "APP_MANIFEST",
		DefaultManifest: "manifest.toml",
		ListenEnv:       "SERVER_LISTEN_ADDRESS",
		DefaultListen:   ":4000",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
		RootEnv:         "APP_ROOT",
		DefaultRoot:     ".",
		Catalog:         modules.Default,
	}
}

func (c Config) manifestPath() string { return envOr(c.ManifestEnv, c.DefaultManifest) }

// Module returns a complete Fx option set. Register controllers and
// policies in the catalog, and attach blueprint models with fx.Invoke,
// before the app starts.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		fx.Supply(cfg),
		bundlefx.Module,
		fx.Provide(core.NewBus),
		fx.Provide(provideManifest),
		fx.Provide(provideBlueprints),
		fx.Provide(provideRuntime),
		fx.Invoke(registerHooks),
	)
}

// ---------- Providers ----------

// provideManifest loads the boot manifest. A manifest that cannot be read
// at boot is fatal; later reloads keep the running routes instead.
func provideManifest(cfg Config, log *zap.Logger) manifest.Config {
	path := cfg.manifestPath()
	m, err := manifest.LoadConfig(path)
	if err != nil {
		log.Fatal("manifest load failed", zap.Error(err), zap.String("path", path))
	}
	return m
}

func provideBlueprints(bus *core.Bus, log *zap.Logger) *blueprint.Blueprints {
	return blueprint.New(bus, blueprint.WithLogger(log))
}

type runtimeDeps struct {
	fx.In

	Config     Config
	Auth       *auth.Middleware
	LogMW      *logger.Middleware
	Metrics    *metrics.Metrics
	Bus        *core.Bus
	Blueprints *blueprint.Blueprints
	Log        *zap.Logger
}

func provideRuntime(d runtimeDeps) *core.Runtime {
	cat := d.Config.Catalog
	root := os.DirFS(envOr(d.Config.RootEnv, d.Config.DefaultRoot))
	path := d.Config.manifestPath()
	builder := &core.Builder{Modules: cat, Views: modules.Listing{FS: root}}

	var blueprints atomic.Bool
	load := func() (manifest.Config, error) {
		m, err := manifest.LoadConfig(path)
		if err != nil {
			return m, err
		}
		dirs := pathsOf(m)
		for id, h := range d.Auth.Policies() {
			cat.Register(dirs.Policies+"/"+id+".go", h)
		}
		d.Blueprints.Unregister(cat)
		if m.Server.Blueprints {
			d.Blueprints.Register(cat, dirs.Controllers)
		}
		blueprints.Store(m.Server.Blueprints)
		builder.Renderer = core.StaticRenderer{FS: root, Dir: dirs.Views}
		return m, nil
	}

	core.ObserveMetrics(d.Bus, d.Metrics)
	a := &core.Assembler{
		Builder:  builder,
		Manifest: load,
		Auth:     d.Auth,
		LogMW:    d.LogMW,
		Metrics:  d.Metrics,
		Bus:      d.Bus,
		Log:      d.Log,
		Hooks: []func(*core.Routes){func(rs *core.Routes) {
			if blueprints.Load() {
				d.Blueprints.Routes(rs)
			}
		}},
	}
	return core.NewRuntime(a.Assemble, d.Log.With(zap.String("service", d.Config.Service)))
}

func pathsOf(m manifest.Config) core.Paths {
	p := core.DefaultPaths
	if m.Paths.Controllers != "" {
		p.Controllers = m.Paths.Controllers
	}
	if m.Paths.Policies != "" {
		p.Policies = m.Paths.Policies
	}
	if m.Paths.Views != "" {
		p.Views = m.Paths.Views
	}
	return p
}

// ---------- Lifecycle ----------

type serverDeps struct {
	fx.In
	Config   Config
	Manifest manifest.Config
	Runtime  *core.Runtime
	Logger   *zap.Logger
}

func registerHooks(lc fx.Lifecycle, d serverDeps) {
	addr := envOr(d.Config.ListenEnv, firstNonEmpty(d.Manifest.Server.Listen, d.Config.DefaultListen))
	cert := envOr(d.Config.TLSCertEnv, d.Manifest.Server.TLSCert)
	key := envOr(d.Config.TLSKeyEnv, d.Manifest.Server.TLSKey)

	srv := &http.Server{
		Addr:         addr,
		Handler:      d.Runtime,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13},
	}
	useTLS := fileExists(cert) && fileExists(key)

	stopSignal := func() {}
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := d.Runtime.Reload(ctx); err != nil {
				return err
			}

			var hup <-chan os.Signal
			hup, stopSignal = reloadSignal()
			go func() {
				for {
					select {
					case <-hup:
						d.Logger.Info("reloading routes", zap.String("service", d.Config.Service))
						_ = d.Runtime.Reload(context.Background())
					case <-done:
						return
					}
				}
			}()

			if useTLS {
				d.Logger.Info("server starting (TLS)",
					zap.String("service", d.Config.Service),
					zap.String("addr", addr),
					zap.String("cert", cert),
				)
				go func() {
					if err := srv.ListenAndServeTLS(cert, key); err != nil && !errors.Is(err, http.ErrServerClosed) {
						d.Logger.Fatal("server failed", zap.Error(err))
					}
				}()
				return nil
			}
			d.Logger.Info("server starting (PLAINTEXT)",
				zap.String("service", d.Config.Service),
				zap.String("addr", addr),
			)
			go func() {
				srv.TLSConfig = nil
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.Logger.Fatal("server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Logger.Info("server stopping", zap.String("service", d.Config.Service))
			stopSignal()
			close(done)
			return srv.Shutdown(ctx)
		},
	})
}

// ---------- tiny helpers ----------

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
