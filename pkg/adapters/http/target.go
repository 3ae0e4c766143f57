package http

import (
	"bytes"
	"net/http"
)

// ResponseTarget is the build target for HTTP units of work. Stages fill in
// status, headers, and body; the engine only consults the Finished and
// Modified predicates.
type ResponseTarget struct {
	status   int
	header   http.Header
	body     bytes.Buffer
	modified bool
}

// NewResponseTarget creates an empty response accumulator.
func NewResponseTarget() *ResponseTarget {
	return &ResponseTarget{header: make(http.Header)}
}

// SetStatus records the response status code and finishes the target.
func (t *ResponseTarget) SetStatus(code int) {
	t.status = code
	t.modified = true
}

// Header returns the mutable response headers. Writing through it counts as
// a modification.
func (t *ResponseTarget) Header() http.Header {
	t.modified = true
	return t.header
}

// Write appends body bytes. A target with a body but no explicit status is
// finished as 200.
func (t *ResponseTarget) Write(p []byte) (int, error) {
	t.modified = true
	return t.body.Write(p)
}

// Status returns the recorded status, defaulting to 200 when a body was
// written without one.
func (t *ResponseTarget) Status() int {
	if t.status == 0 && t.body.Len() > 0 {
		return http.StatusOK
	}
	return t.status
}

// Body returns the accumulated body bytes.
func (t *ResponseTarget) Body() []byte {
	return t.body.Bytes()
}

// Finished reports whether the response is ready to send.
func (t *ResponseTarget) Finished() bool {
	return t.status != 0 || t.body.Len() > 0
}

// Modified reports whether any stage touched the target.
func (t *ResponseTarget) Modified() bool {
	return t.modified
}

// WriteTo flushes the accumulated response to w.
func (t *ResponseTarget) WriteTo(w http.ResponseWriter) {
	for key, vals := range t.header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(t.Status())
	w.Write(t.body.Bytes()) //nolint:errcheck
}

// Factory implements ports.TargetFactory for ResponseTarget.
type Factory struct{}

// New creates a fresh ResponseTarget.
func (Factory) New() any {
	return NewResponseTarget()
}

// Finished reports whether the target has a status or body.
func (Factory) Finished(target any) bool {
	t, ok := target.(*ResponseTarget)
	return ok && t.Finished()
}

// Modified reports whether any stage touched the target.
func (Factory) Modified(target any) bool {
	t, ok := target.(*ResponseTarget)
	return ok && t.Modified()
}
