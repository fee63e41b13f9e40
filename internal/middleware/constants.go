package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"
)

// ContentTypeJSON is the JSON content type.
const ContentTypeJSON = "application/json"

// ErrInternalServerError is the error body for internal server errors.
const ErrInternalServerError = `{"error":"internal server error"}`

// unknownRoute is the fallback label value used when the route name
// is not available in the request context.
const unknownRoute = "unknown"

// maxRequestIDLength bounds accepted inbound request ids.
const maxRequestIDLength = 128
