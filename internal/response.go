package internal

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
)

// Finalizer is a result that writes itself.
type Finalizer interface {
	Finalize(w http.ResponseWriter) error
}

// Response is a result built fluently by handlers.
//
// Example:
//
//	return mosaic.NewResponse().Status(http.StatusCreated).Header("Location", loc).JSON(user), nil
type Response struct {
	status      int
	header      http.Header
	cookies     []*http.Cookie
	contentType string
	body        []byte
	value       any
	json        bool
}

func NewResponse() *Response {
	return &Response{status: http.StatusOK, header: make(http.Header)}
}

func (r *Response) Status(code int) *Response {
	if code > 0 {
		r.status = code
	}
	return r
}

func (r *Response) OK() *Response {
	return r.Status(http.StatusOK)
}

func (r *Response) NotFound() *Response {
	return r.Status(http.StatusNotFound)
}

func (r *Response) Header(name, value string) *Response {
	r.header.Add(name, value)
	return r
}

func (r *Response) Cookie(c *http.Cookie) *Response {
	if c != nil {
		r.cookies = append(r.cookies, c)
	}
	return r
}

func (r *Response) ContentType(ct string) *Response {
	r.contentType = ct
	return r
}

// JSON sets v as the JSON-encoded body.
func (r *Response) JSON(v any) *Response {
	r.value = v
	r.json = true
	r.body = nil
	return r
}

// Text sets a plain text body.
func (r *Response) Text(s string) *Response {
	if r.contentType == "" {
		r.contentType = "text/plain; charset=utf-8"
	}
	return r.Write([]byte(s))
}

// Write sets the raw body.
func (r *Response) Write(b []byte) *Response {
	r.body = b
	r.value = nil
	r.json = false
	return r
}

func (r *Response) Redirect(code int, url string) *Response {
	r.header.Set("Location", url)
	return r.Status(code)
}

// Code returns the status the response will be written with.
func (r *Response) Code() int {
	return r.status
}

// Finalize writes the response. The body is encoded before any header is
// sent so an encoding failure leaves w untouched.
func (r *Response) Finalize(w http.ResponseWriter) error {
	body := r.body
	ct := r.contentType
	if r.json {
		buf, err := encodeJSON(r.value)
		if err != nil {
			return err
		}
		body = buf
		if ct == "" {
			ct = contentTypeJSON
		}
	}

	h := w.Header()
	for k, vs := range r.header {
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	for _, c := range r.cookies {
		http.SetCookie(w, c)
	}
	if ct != "" {
		h.Set("Content-Type", ct)
	}

	w.WriteHeader(r.status)
	if len(body) == 0 {
		return nil
	}
	_, err := io.Copy(w, bytes.NewReader(body))
	return err
}

const contentTypeJSON = "application/json; charset=utf-8"

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, ErrInternal("encode response", WithCause(err))
	}
	return buf.Bytes(), nil
}
