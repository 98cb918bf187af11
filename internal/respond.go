package internal

import (
	"io"
	"net/http"
)

// readerResult streams an io.Reader result.
type readerResult struct {
	r io.Reader
}

func (rr readerResult) Finalize(w http.ResponseWriter) error {
	if c, ok := rr.r.(io.Closer); ok {
		defer c.Close()
	}
	w.WriteHeader(http.StatusOK)
	_, err := io.Copy(w, rr.r)
	return err
}

// finalizerOf normalizes a handler result.
// Strings, byte slices and readers are written as they are; any other value
// is encoded as JSON.
func finalizerOf(result any) Finalizer {
	switch v := result.(type) {
	case Finalizer:
		return v
	case string:
		return NewResponse().Text(v)
	case []byte:
		return NewResponse().Write(v)
	case io.Reader:
		return readerResult{r: v}
	default:
		return NewResponse().JSON(v)
	}
}

// respond writes result as the response of c. A non-zero status overrides
// the one the result carries. Only the first finalization of a request
// writes anything.
func (a *App) respond(c *Context, result any, status int) error {
	if c.Aborted() {
		return ErrAborted
	}
	w := c.writer
	if !w.claim() {
		return nil
	}
	if status != 0 {
		w.forceStatus(status)
	}

	err := finalizerOf(result).Finalize(w)
	if w.Failed() {
		return ErrAborted
	}
	if err != nil {
		if !w.Written() {
			w.forceStatus(0)
			w.release()
		}
		return err
	}
	return nil
}
