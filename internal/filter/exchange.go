package filter

import (
	"context"
	"net/http"
)

// Exchange carries one request through the chain. Stages mutate the
// forwarded request in place and stage response headers for commit time.
type Exchange struct {
	Request *http.Request
	staged  http.Header
}

// NewExchange wraps r.
func NewExchange(r *http.Request) *Exchange {
	return &Exchange{Request: r, staged: make(http.Header)}
}

// Context returns the request context.
func (e *Exchange) Context() context.Context {
	return e.Request.Context()
}

// Path returns the request path.
func (e *Exchange) Path() string {
	return e.Request.URL.Path
}

// StageResponseHeader records a header to set on the response when it is
// committed. A later call for the same name replaces the earlier value.
func (e *Exchange) StageResponseHeader(name, value string) {
	e.staged.Set(name, value)
}

// StagedResponseHeaders returns the headers staged so far.
func (e *Exchange) StagedResponseHeaders() http.Header {
	return e.staged
}

// commitWriter applies the staged headers to the underlying response just
// before the status line is written.
type commitWriter struct {
	http.ResponseWriter
	patch     http.Header
	committed bool
}

func newCommitWriter(w http.ResponseWriter, patch http.Header) *commitWriter {
	return &commitWriter{ResponseWriter: w, patch: patch}
}

func (w *commitWriter) commit() {
	if w.committed {
		return
	}
	w.committed = true
	h := w.ResponseWriter.Header()
	for name, values := range w.patch {
		h[name] = append([]string(nil), values...)
	}
}

// WriteHeader commits the staged headers and writes the status. Interim
// 1xx responses other than 101 pass through without committing, so the
// patch lands on the final response.
func (w *commitWriter) WriteHeader(code int) {
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		w.ResponseWriter.WriteHeader(code)
		return
	}
	w.commit()
	w.ResponseWriter.WriteHeader(code)
}

// Write commits the staged headers and writes b.
func (w *commitWriter) Write(b []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher.
func (w *commitWriter) Flush() {
	w.commit()
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
