package middleware

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/util"
)

// Logging returns a middleware that logs HTTP requests. The route name is
// read through a route holder because it is only known after matching.
func Logging(logger observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			holder := util.NewRouteHolder()
			r = r.WithContext(util.ContextWithRouteHolder(r.Context(), holder))

			rw := util.NewStatusCapturingResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := holder.Name()
			if route == "" {
				route = unknownRoute
			}

			fields := []observability.Field{
				observability.String("method", r.Method),
				observability.String("path", r.URL.Path),
				observability.String("query", r.URL.RawQuery),
				observability.Int("status", rw.StatusCode),
				observability.Int("size", rw.Size),
				observability.Duration("duration", time.Since(start)),
				observability.String("remote_addr", r.RemoteAddr),
				observability.String("user_agent", r.UserAgent()),
				observability.String("route", route),
			}

			//nolint:contextcheck // Using request context is correct here
			l := logger.WithContext(r.Context())
			if rw.StatusCode >= http.StatusInternalServerError {
				l.Warn("http request", fields...)
				return
			}
			l.Info("http request", fields...)
		})
	}
}
