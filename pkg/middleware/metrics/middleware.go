package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"

	"github.com/joeydtaylor/steeze-mvc/pkg/middleware/auth"
)

// Collect produces the HTTP middleware that records the counters/histogram.
func (m *Metrics) Collect(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			startTime := time.Now()

			defer func() {
				// Skip self-scrape and any additional caller-configured paths
				if isSkipPath(r) {
					return
				}

				endTime := time.Since(startTime)

				role := ""
				if ca != nil {
					role = ca.GetUser(r.Context()).Role.Name
				}

				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				code := strconv.Itoa(status)
				uri := normalizePath(r)
				method := r.Method

				m.totalHttpRequestsFromRole.WithLabelValues(role).Inc()
				m.totalHttpRequestsToUri.WithLabelValues(code, uri, method).Inc()
				m.totalHttpRequests.WithLabelValues(code, method).Inc()
				m.responseTime.Observe(endTime.Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

var Module = fx.Options(
	fx.Provide(ProvideMetrics),
)
