package auth

import (
	"context"
	"crypto/rsa"
	"net/http"
	"sync"
	"time"
)

type Role struct {
	Name string `json:"name"`
}

type AuthenticationSource struct {
	Provider string `json:"provider"`
}

type User struct {
	Username             string               `json:"username"`
	AuthenticationSource AuthenticationSource `json:"authenticationSource"`
	Role                 Role                 `json:"role"`
}

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

// HTTPDoer is satisfied by *http.Client and allows easy mocking in tests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config holds the identity settings, usually read from the environment by
// ConfigFromEnv.
type Config struct {
	SessionAPI    string
	SessionCookie string
	AdminRole     string
	DevBypass     bool

	AssertCookie   string
	AssertKeyURL   string
	AssertKeyKID   string
	AssertIssuer   string
	AssertAudience string
	AssertLeeway   time.Duration
}

// Middleware identifies the caller and exposes the result to policies.
type Middleware struct {
	cfg        Config
	httpClient HTTPDoer

	// guarded by mu
	mu         sync.RWMutex
	assertKey  *rsa.PublicKey
	assertETag string
	cacheTTL   time.Duration
	lastFetch  time.Time
}

type Option func(*Middleware)

// WithHTTPClient replaces the client used for key and session lookups.
func WithHTTPClient(c HTTPDoer) Option {
	return func(m *Middleware) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithKey pins the assertion verification key; no key fetch happens.
func WithKey(k *rsa.PublicKey) Option {
	return func(m *Middleware) { m.assertKey = k }
}

func New(cfg Config, opts ...Option) *Middleware {
	if cfg.AssertCookie == "" {
		cfg.AssertCookie = "assert"
	}
	m := &Middleware{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
			Timeout: 8 * time.Second,
		},
		cacheTTL: time.Hour,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

func (m *Middleware) GetUser(ctx context.Context) User {
	if user, ok := ctx.Value(userCtxKey).(User); ok {
		return user
	}
	return User{}
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	return m.GetUser(ctx).Username != ""
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	return m.cfg.AdminRole != "" && m.GetUser(ctx).Role.Name == m.cfg.AdminRole
}

// IsRole reports whether the caller has role; admins have every role.
func (m *Middleware) IsRole(ctx context.Context, role string) bool {
	u := m.GetUser(ctx)
	if u.Username == "" {
		return false
	}
	return u.Role.Name == role || m.IsAdmin(ctx)
}
