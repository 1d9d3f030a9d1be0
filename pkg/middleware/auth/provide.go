package auth

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ConfigFromEnv reads the identity settings from the environment.
func ConfigFromEnv() Config {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("ASSERTION_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}
	return Config{
		SessionAPI:     os.Getenv("SESSION_STATE_API"),
		SessionCookie:  os.Getenv("SESSION_COOKIE_NAME"),
		AdminRole:      os.Getenv("ADMIN_ROLE_NAME"),
		DevBypass:      os.Getenv("AUTH_DEV_BYPASS") == "true",
		AssertCookie:   strings.TrimSpace(os.Getenv("ASSERTION_COOKIE_NAME")),
		AssertKeyURL:   strings.TrimSpace(os.Getenv("ASSERTION_KEY_URL")), // JWKS/PEM endpoint
		AssertKeyKID:   strings.TrimSpace(os.Getenv("ASSERTION_KEY_KID")),
		AssertIssuer:   strings.TrimSpace(os.Getenv("ASSERTION_ISSUER")),
		AssertAudience: strings.TrimSpace(os.Getenv("ASSERTION_AUDIENCE")),
		AssertLeeway:   leeway,
	}
}

// ProvideAuthentication wires env config. The assertion key is fetched on
// start (non-fatal) and refreshed until stop.
func ProvideAuthentication(lc fx.Lifecycle, log *zap.Logger) *Middleware {
	m := New(ConfigFromEnv())
	if m.cfg.AssertKeyURL == "" {
		return m
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(start context.Context) error {
			if err := m.refreshAssertionKey(start); err != nil {
				log.Warn("assertion key fetch failed", zap.Error(err))
			}
			go m.Refresh(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return m
}

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)
