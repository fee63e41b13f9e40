package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/authgw/internal/observability"
	"github.com/vyrodovalexey/authgw/internal/util"
)

// RequestIDHeader is the header name for request ID.
const RequestIDHeader = HeaderXRequestID

// RequestID returns a middleware that adds a request ID to each request.
func RequestID() func(http.Handler) http.Handler {
	return RequestIDWithGenerator(func() string { return uuid.New().String() })
}

// RequestIDWithGenerator returns a middleware that uses a custom ID generator.
// An inbound id is kept when it is short and printable.
func RequestIDWithGenerator(generator func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			switch {
			case requestID == "":
				requestID = generator()
				GetMiddlewareMetrics().requestIDsIssued.Inc()
			case !validRequestID(requestID):
				requestID = generator()
				GetMiddlewareMetrics().requestIDsIgnored.Inc()
			}

			ctx := observability.ContextWithRequestID(r.Context(), requestID)
			ctx = util.ContextWithRequestID(ctx, requestID)
			r = r.WithContext(ctx)
			r.Header.Set(RequestIDHeader, requestID)

			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r)
		})
	}
}

func validRequestID(id string) bool {
	if len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
