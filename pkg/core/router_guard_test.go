package core_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-mvc/pkg/core"
	"github.com/joeydtaylor/steeze-mvc/pkg/manifest"
	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

const guardManifest = `
[server]
autoroute = false

[[route]]
path = "get /open"
target = "/elsewhere"

[[route]]
path = "get /members"
middleware = "guard-test-ok"
guard = { require_auth = true }

[[route]]
path = "get /ops"
middleware = "guard-test-ok"
guard = { roles = ["ops"] }

[[route]]
path = "get /mine"
middleware = "guard-test-ok"
guard = { users = ["ada"] }
`

func TestGuardedManifestRoutes(t *testing.T) {
	t.Parallel()

	core.RegisterHandler("guard-test-ok", write("ok"))

	cfg, err := manifest.Parse([]byte(guardManifest))
	require.NoError(t, err)
	require.Empty(t, cfg.Normalize())

	h := core.BuildRouter(cfg, core.BuildDeps{
		Auth:   auth.New(auth.Config{DevBypass: true, AdminRole: "admin"}),
		Router: httpx.NewChi(),
	})

	as := func(path, user, role string) int {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if user != "" {
			r.Header.Set("X-Dev-User", user)
			r.Header.Set("X-Dev-Role", role)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusFound, as("/open", "", ""))

	assert.Equal(t, http.StatusUnauthorized, as("/members", "", ""))
	assert.Equal(t, http.StatusOK, as("/members", "bob", "user"))

	assert.Equal(t, http.StatusUnauthorized, as("/ops", "", ""))
	assert.Equal(t, http.StatusForbidden, as("/ops", "bob", "user"))
	assert.Equal(t, http.StatusOK, as("/ops", "bob", "ops"))
	assert.Equal(t, http.StatusOK, as("/ops", "root", "admin"))

	assert.Equal(t, http.StatusForbidden, as("/mine", "bob", "user"))
	assert.Equal(t, http.StatusOK, as("/mine", "ada", "user"))
	assert.Equal(t, http.StatusOK, as("/mine", "root", "admin"))
}

func TestGuardWithoutAuth(t *testing.T) {
	t.Parallel()

	core.RegisterHandler("guard-test-ok", write("ok"))

	cfg := manifest.Config{Routes: []manifest.Route{{
		Path:       "/members",
		Middleware: "guard-test-ok",
		Guard:      manifest.Guard{RequireAuth: true},
	}}}
	require.Empty(t, cfg.Normalize())

	h := core.BuildRouter(cfg, core.BuildDeps{Router: httpx.NewChi()})
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/members").Code)
}
