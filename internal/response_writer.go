package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// ResponseWriter wraps http.ResponseWriter for the dispatch engine.
// It records the status and size written, remembers transport failures,
// lets the engine claim the single finalization of a request, and can force
// the status of whatever is written next.
type ResponseWriter struct {
	http.ResponseWriter
	status      int
	forced      int
	size        int64
	written     bool
	failed      bool
	finalized   bool
	beforeWrite []func()
	mu          sync.Mutex
}

// NewResponseWriter creates a new ResponseWriter.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// OnBeforeWrite registers a hook to run before the headers are sent.
// Hooks run in registration order.
func (w *ResponseWriter) OnBeforeWrite(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.beforeWrite = append(w.beforeWrite, fn)
}

// WriteHeader sends the status once; later calls are ignored.
func (w *ResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	if w.written {
		w.mu.Unlock()
		return
	}
	if w.forced != 0 {
		code = w.forced
	}
	w.written = true
	w.status = code
	hooks := w.beforeWrite
	w.beforeWrite = nil
	w.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	w.ResponseWriter.WriteHeader(code)
}

// Write writes body bytes, sending the status first if needed.
// A failed write marks the response as failed.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.WriteHeader(w.Status())

	n, err := w.ResponseWriter.Write(b)
	w.mu.Lock()
	w.size += int64(n)
	if err != nil {
		w.failed = true
	}
	w.mu.Unlock()
	return n, err
}

// Status returns the HTTP status code of the response.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Size returns the number of bytes written to the response body.
func (w *ResponseWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Written returns true if the response has been written.
func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Failed reports whether writing to the peer failed.
func (w *ResponseWriter) Failed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failed
}

// claim reserves the single finalization of the response.
// It fails when the response was already finalized, written or failed.
func (w *ResponseWriter) claim() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.finalized || w.written || w.failed {
		return false
	}
	w.finalized = true
	return true
}

// release gives back an unused claim, so an error response can still be written.
func (w *ResponseWriter) release() {
	w.mu.Lock()
	if !w.written {
		w.finalized = false
	}
	w.mu.Unlock()
}

// forceStatus makes the next WriteHeader use code.
func (w *ResponseWriter) forceStatus(code int) {
	w.mu.Lock()
	w.forced = code
	w.mu.Unlock()
}

func (w *ResponseWriter) markFailed() {
	w.mu.Lock()
	w.failed = true
	w.mu.Unlock()
}

// Flush implements the http.Flusher interface.
func (w *ResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements the http.Hijacker interface.
// The hijacked connection counts as written.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	conn, rw, err := hijacker.Hijack()
	if err == nil {
		w.mu.Lock()
		w.written = true
		w.finalized = true
		w.status = http.StatusSwitchingProtocols
		w.mu.Unlock()
	}
	return conn, rw, err
}

// Unwrap returns the underlying ResponseWriter.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
