package serverfx_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/joeydtaylor/steeze-mvc/pkg/blueprint"
	"github.com/joeydtaylor/steeze-mvc/pkg/core"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-mvc/pkg/modules"
	"github.com/joeydtaylor/steeze-mvc/pkg/serverfx"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

const bootManifest = `
[server]
blueprints = true

[policies]
"*" = true
user = { update = "authenticated" }

[[route]]
path = "get /hi"
target = "user.index"
`

func get(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestModuleServesAndReloads(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(bootManifest), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "views"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "views", "home.html"), []byte("<p>home</p>"), 0o644))

	cat := modules.NewCatalog()
	cat.Register("api/controllers/UserController.go", core.Controller{
		"index": httpx.Handler(func(w http.ResponseWriter, _ *http.Request, _ httpx.Next) {
			_, _ = io.WriteString(w, "users")
		}),
	})

	var rt *core.Runtime
	app := fxtest.New(t,
		serverfx.Module(
			serverfx.WithService("test"),
			serverfx.WithManifestEnv("SERVERFX_TEST_MANIFEST"),
			serverfx.WithDefaultManifest(manifestPath),
			serverfx.WithListenEnv("SERVERFX_TEST_LISTEN"),
			serverfx.WithDefaultListen("127.0.0.1:0"),
			serverfx.WithRoot(dir),
			serverfx.WithCatalog(cat),
		),
		fx.Replace(zap.NewNop()),
		fx.Replace(logger.New(zap.NewNop())),
		fx.Invoke(func(bp *blueprint.Blueprints) {
			users := blueprint.NewMemoryModel()
			users.Create(blueprint.Record{"id": "1"})
			bp.Model("user", users)
		}),
		fx.Populate(&rt),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, rt.Current())
	assert.Equal(t, "users", get(rt, http.MethodGet, "/hi").Body.String())
	assert.Equal(t, "users", get(rt, http.MethodGet, "/user").Body.String())
	assert.Equal(t, "<p>home</p>", get(rt, http.MethodGet, "/home").Body.String())
	assert.Equal(t, http.StatusOK, get(rt, http.MethodGet, "/ping").Code)

	// blueprint update sits behind the auth policy named in the manifest
	assert.Equal(t, http.StatusUnauthorized, get(rt, http.MethodPut, "/user/1").Code)

	scrape := get(rt, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, scrape, "registry_builds_total 1")

	require.NoError(t, os.WriteFile(manifestPath, []byte(bootManifest+`
[[route]]
path = "/bye"
target = "/hi"
`), 0o644))
	require.NoError(t, rt.Reload(context.Background()))
	rec := get(rt, http.MethodGet, "/bye")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/hi", rec.Header().Get("Location"))

	require.NoError(t, os.WriteFile(manifestPath, []byte("[[route"), 0o644))
	require.Error(t, rt.Reload(context.Background()))
	assert.Equal(t, http.StatusFound, get(rt, http.MethodGet, "/bye").Code)
}

func TestBlueprintsOffLeavesNoUpdateAction(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "manifest.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte("[server]\nblueprints = false\n"), 0o644))

	cat := modules.NewCatalog()
	cat.Register("api/controllers/UserController.go", core.Controller{
		"index": httpx.Handler(func(w http.ResponseWriter, _ *http.Request, _ httpx.Next) {
			_, _ = io.WriteString(w, "users")
		}),
	})

	var rt *core.Runtime
	app := fxtest.New(t,
		serverfx.Module(
			serverfx.WithManifestEnv("SERVERFX_TEST_MANIFEST"),
			serverfx.WithDefaultManifest(manifestPath),
			serverfx.WithListenEnv("SERVERFX_TEST_LISTEN"),
			serverfx.WithDefaultListen("127.0.0.1:0"),
			serverfx.WithRoot(dir),
			serverfx.WithCatalog(cat),
		),
		fx.Replace(zap.NewNop()),
		fx.Replace(logger.New(zap.NewNop())),
		fx.Invoke(func(bp *blueprint.Blueprints) {
			users := blueprint.NewMemoryModel()
			users.Create(blueprint.Record{"id": "1"})
			bp.Model("user", users)
		}),
		fx.Populate(&rt),
	)
	app.RequireStart()
	defer app.RequireStop()

	_, ok := rt.Current().Registry.Action("user", blueprint.ActionUpdate)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, get(rt, http.MethodGet, "/user/update?id=1").Code)
	assert.Equal(t, http.StatusNotFound, get(rt, http.MethodPut, "/user/1").Code)
	assert.Equal(t, "users", get(rt, http.MethodGet, "/user").Body.String())

	// turning blueprints on and off again follows the manifest on reload
	require.NoError(t, os.WriteFile(manifestPath, []byte("[server]\nblueprints = true\n"), 0o644))
	require.NoError(t, rt.Reload(context.Background()))
	assert.Equal(t, http.StatusOK, get(rt, http.MethodGet, "/user/update?id=1").Code)

	require.NoError(t, os.WriteFile(manifestPath, []byte("[server]\nblueprints = false\n"), 0o644))
	require.NoError(t, rt.Reload(context.Background()))
	assert.Equal(t, http.StatusNotFound, get(rt, http.MethodGet, "/user/update?id=1").Code)
}
