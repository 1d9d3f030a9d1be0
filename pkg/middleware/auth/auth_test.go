package auth_test

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-mvc/pkg/transport/httpx"
)

func signed(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

// whoami runs the identity middleware and reports the user it attached.
func whoami(m *auth.Middleware, r *http.Request) (auth.User, int) {
	var got auth.User
	rec := httptest.NewRecorder()
	m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = m.GetUser(r.Context())
	})).ServeHTTP(rec, r)
	return got, rec.Code
}

func TestAssertionFromBearer(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	m := auth.New(auth.Config{AssertIssuer: "idp", AdminRole: "admin"}, auth.WithKey(&key.PublicKey))

	tok := signed(t, key, jwt.MapClaims{
		"iss":   "idp",
		"uid":   "ada",
		"roles": []string{"", "admin"},
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Minute).Unix(),
	})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)

	u, code := whoami(m, r)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "admin", u.Role.Name)
	assert.Equal(t, "assert", u.AuthenticationSource.Provider)
}

func TestAssertionRejected(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	m := auth.New(auth.Config{AssertIssuer: "idp"}, auth.WithKey(&key.PublicKey))

	tests := map[string]jwt.MapClaims{
		"wrong issuer": {"iss": "other", "uid": "ada", "exp": time.Now().Add(time.Minute).Unix()},
		"expired":      {"iss": "idp", "uid": "ada", "exp": time.Now().Add(-time.Hour).Unix()},
		"no subject":   {"iss": "idp", "exp": time.Now().Add(time.Minute).Unix()},
	}
	for name, claims := range tests {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: "assert", Value: signed(t, key, claims)})
			u, code := whoami(m, r)
			assert.Equal(t, http.StatusOK, code)
			assert.Empty(t, u.Username)
		})
	}
}

func TestDevBypass(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Dev-User", "bob")
	r.Header.Set("X-Dev-Role", "editor")

	u, _ := whoami(auth.New(auth.Config{DevBypass: true}), r)
	assert.Equal(t, "bob", u.Username)
	assert.Equal(t, "editor", u.Role.Name)

	u, _ = whoami(auth.New(auth.Config{}), r)
	assert.Empty(t, u.Username)
}

func TestSessionCookieWithoutAPI(t *testing.T) {
	t.Parallel()

	m := auth.New(auth.Config{SessionCookie: "sid"})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "abc"})

	_, code := whoami(m, r)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func runPolicy(h httpx.Handler, u auth.User) error {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if u.Username != "" {
		r = r.WithContext(auth.WithUser(r.Context(), u))
	}
	var got error
	h(httptest.NewRecorder(), r, func(err error) { got = err })
	return got
}

func TestPolicies(t *testing.T) {
	t.Parallel()

	m := auth.New(auth.Config{AdminRole: "admin"})
	policies := m.Policies()
	require.Contains(t, policies, auth.PolicyAuthenticated)
	require.Contains(t, policies, auth.PolicyAdmin)

	anon := auth.User{}
	user := auth.User{Username: "bob", Role: auth.Role{Name: "editor"}}
	admin := auth.User{Username: "ada", Role: auth.Role{Name: "admin"}}

	assert.Equal(t, http.StatusUnauthorized, httpx.StatusOf(runPolicy(policies[auth.PolicyAuthenticated], anon)))
	assert.NoError(t, runPolicy(policies[auth.PolicyAuthenticated], user))

	assert.Equal(t, http.StatusUnauthorized, httpx.StatusOf(runPolicy(policies[auth.PolicyAdmin], anon)))
	assert.Equal(t, http.StatusForbidden, httpx.StatusOf(runPolicy(policies[auth.PolicyAdmin], user)))
	assert.NoError(t, runPolicy(policies[auth.PolicyAdmin], admin))

	editor := m.RequireRole("editor")
	assert.NoError(t, runPolicy(editor, user))
	assert.NoError(t, runPolicy(editor, admin))
	err := runPolicy(m.RequireRole("owner"), user)
	var se *httpx.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.Code)
}
