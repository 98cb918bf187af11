package internal

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResponseWriter_WriteHeader(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	w.WriteHeader(http.StatusNotFound)
	w.WriteHeader(http.StatusTeapot)

	require.Equal(t, http.StatusNotFound, w.Status())
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.True(t, w.Written())
}

func TestResponseWriter_Write(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	n, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, int64(5), w.Size())
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, w.Written())
}

func TestResponseWriter_OnBeforeWrite(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)

	var order []string
	w.OnBeforeWrite(func() { order = append(order, "first") })
	w.OnBeforeWrite(func() {
		order = append(order, "second")
		w.Header().Set("X-Hook", "ran")
	})

	_, _ = w.Write([]byte("x"))
	_, _ = w.Write([]byte("y"))

	require.Equal(t, []string{"first", "second"}, order)
	require.Equal(t, "ran", rec.Header().Get("X-Hook"))
}

func TestResponseWriter_Claim(t *testing.T) {
	t.Parallel()

	t.Run("single finalization", func(t *testing.T) {
		t.Parallel()
		w := NewResponseWriter(httptest.NewRecorder())
		require.True(t, w.claim())
		require.False(t, w.claim())
	})

	t.Run("release before writing", func(t *testing.T) {
		t.Parallel()
		w := NewResponseWriter(httptest.NewRecorder())
		require.True(t, w.claim())
		w.release()
		require.True(t, w.claim())
	})

	t.Run("release after writing keeps the claim", func(t *testing.T) {
		t.Parallel()
		w := NewResponseWriter(httptest.NewRecorder())
		require.True(t, w.claim())
		w.WriteHeader(http.StatusOK)
		w.release()
		require.False(t, w.claim())
	})

	t.Run("written directly", func(t *testing.T) {
		t.Parallel()
		w := NewResponseWriter(httptest.NewRecorder())
		_, _ = w.Write([]byte("direct"))
		require.False(t, w.claim())
	})

	t.Run("failed", func(t *testing.T) {
		t.Parallel()
		w := NewResponseWriter(httptest.NewRecorder())
		w.markFailed()
		require.True(t, w.Failed())
		require.False(t, w.claim())
	})
}

func TestResponseWriter_ForceStatus(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)
	w.forceStatus(http.StatusNotFound)

	w.WriteHeader(http.StatusOK)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, http.StatusNotFound, w.Status())
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestResponseWriter_FailedWrite(t *testing.T) {
	t.Parallel()

	w := NewResponseWriter(brokenWriter{httptest.NewRecorder()})
	_, err := w.Write([]byte("x"))
	require.Error(t, err)
	require.True(t, w.Failed())
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	t.Parallel()

	w := NewResponseWriter(httptest.NewRecorder())
	_, _, err := w.Hijack()
	require.ErrorIs(t, err, http.ErrNotSupported)
	require.False(t, w.Written())
}

func TestResponseWriter_Unwrap(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	w := NewResponseWriter(rec)
	require.Same(t, rec, w.Unwrap())
	require.NotNil(t, http.NewResponseController(w))
}
