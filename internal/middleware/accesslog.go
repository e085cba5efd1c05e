// internal/middleware/accesslog.go
//
// Request-scoped logging and request counting.
//
// Context
// -------
// AccessLog runs after chi's RequestID and RealIP.  For every request it:
//
//   • derives a child logger tagged with request_id and attaches it to the
//     context, so handlers log through logger.FromContext,
//   • writes one access line once the handler returns, and
//   • bumps http_requests_total{route,code} using the chi route pattern, so
//     label cardinality stays bounded by the route table.
//
// Notes
// -----
// • Unmatched paths are counted under route "unmatched".
// • 5xx responses log at warn, everything else at debug.
// • Oxford commas, two spaces after periods.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/yanizio/distiller/internal/logger"
	"github.com/yanizio/distiller/internal/metrics"
)

// AccessLog returns the logging middleware bound to base.
func AccessLog(base *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With("request_id", chimw.GetReqID(r.Context()))
			r = r.WithContext(logger.WithContext(r.Context(), l))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := routePattern(r)
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

			logFn := l.Debugw
			if status >= http.StatusInternalServerError {
				logFn = l.Warnw
			}
			logFn("http request",
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"remote", r.RemoteAddr,
				"dur_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
