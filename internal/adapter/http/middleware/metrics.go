package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iho/txengine/internal/infrastructure/metrics"
)

const accountsPrefix = "/api/v1/accounts/"

// Metrics returns a middleware recording request counts, durations and
// in-flight requests into m.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			path := normalizePath(r.URL.Path)

			m.HTTPRequests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// normalizePath replaces client ids in URL paths to avoid high cardinality.
// /api/v1/accounts/42 -> /api/v1/accounts/:id
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, accountsPrefix)
	if !ok || rest == "" || rest[0] == '/' {
		return path
	}

	suffix := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		suffix = rest[i:]
	}

	return accountsPrefix + ":id" + suffix
}
