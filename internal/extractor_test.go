package internal_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
)

// extractApp serves /items/[id] and answers with what ex extracts, or "-".
func extractApp(t *testing.T, ex internal.Extractor) *internal.App {
	t.Helper()
	return newApp(t, []string{"site"}, []internal.Module{
		internal.Define(internal.Definition{
			Name: "site",
			ContextFunc: func(*internal.Context, *internal.Scope) (map[string]any, error) {
				return map[string]any{"tenant": 42}, nil
			},
			RoutesFunc: routes(internal.Routes{"/items/[id]": {func(c *internal.Context) (any, error) {
				if v, ok := ex.Extract(c); ok {
					return v, nil
				}
				return "-", nil
			}}}),
		}),
	})
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		sources []internal.ExtractorSource
		prepare func(*http.Request)
		want    string
	}{
		{
			name:    "header",
			sources: []internal.ExtractorSource{internal.FromHeader("X-Token")},
			prepare: func(r *http.Request) { r.Header.Set("X-Token", "h") },
			want:    "h",
		},
		{
			name:    "query",
			sources: []internal.ExtractorSource{internal.FromQuery("token")},
			want:    "q",
		},
		{
			name:    "cookie",
			sources: []internal.ExtractorSource{internal.FromCookie("token")},
			prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "c"}) },
			want:    "c",
		},
		{
			name:    "route parameter",
			sources: []internal.ExtractorSource{internal.FromParam("id")},
			want:    "7",
		},
		{
			name:    "context field formatted",
			sources: []internal.ExtractorSource{internal.FromField("tenant")},
			want:    "42",
		},
		{
			name:    "bearer token",
			sources: []internal.ExtractorSource{internal.FromBearerToken()},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer abc") },
			want:    "abc",
		},
		{
			name:    "first non-empty source wins",
			sources: []internal.ExtractorSource{internal.FromHeader("X-Missing"), internal.FromQuery("token"), internal.FromParam("id")},
			want:    "q",
		},
		{
			name:    "nothing found",
			sources: []internal.ExtractorSource{internal.FromHeader("X-Missing"), internal.FromField("missing"), internal.FromBearerToken()},
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Basic abc") },
			want:    "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			app := extractApp(t, internal.NewExtractor(tt.sources...))

			req := newRequest(http.MethodGet, "/items/7?token=q")
			if tt.prepare != nil {
				tt.prepare(req)
			}
			code, body := serve(app, req)
			require.Equal(t, http.StatusOK, code)
			require.Equal(t, tt.want, body)
		})
	}
}
