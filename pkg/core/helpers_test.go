package core_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-mvc/pkg/core"
	"github.com/joeydtaylor/steeze-mvc/pkg/modules"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

// write answers with body and ends the chain.
func write(body string) httpx.Handler {
	return func(w http.ResponseWriter, _ *http.Request, _ httpx.Next) {
		_, _ = io.WriteString(w, body)
	}
}

// mark sets a response header and continues.
func mark(key, val string) httpx.Handler {
	return func(w http.ResponseWriter, _ *http.Request, next httpx.Next) {
		w.Header().Add(key, val)
		next(nil)
	}
}

// whoami answers with the request target the binder attached.
func whoami(w http.ResponseWriter, r *http.Request, _ httpx.Next) {
	t, ok := core.RequestTargetFrom(r)
	if !ok {
		_, _ = io.WriteString(w, "none")
		return
	}
	_, _ = io.WriteString(w, t.Controller+"."+t.Action)
}

func buildRegistry(t *testing.T, c *modules.Catalog, views modules.Loader, policies core.PolicyMap) *core.Registry {
	t.Helper()
	b := &core.Builder{Modules: c, Views: views, Policies: policies}
	reg, err := b.Build(context.Background())
	require.NoError(t, err)
	return reg
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}
