package internal_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mosaic/internal"
)

func TestChain(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name  string
		steps []string
		want  []string
		code  int
		body  string
	}{
		{"second step answers", []string{"pass", "answer", "answer"}, []string{"1", "2"}, http.StatusOK, "2"},
		{"error stops the chain", []string{"pass", "fail", "answer"}, []string{"1", "2"}, http.StatusInternalServerError, "Internal Server Error\n"},
		{"last step answers", []string{"pass", "pass", "answer"}, []string{"1", "2", "3"}, http.StatusOK, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ran []string
			actions := make([]internal.Action, 0, len(tt.steps)+1)
			actions = append(actions, nil)
			for i, kind := range tt.steps {
				id := string(rune('1' + i))
				actions = append(actions, func(*internal.Context) (any, error) {
					ran = append(ran, id)
					switch kind {
					case "answer":
						return id, nil
					case "fail":
						return nil, boom
					}
					return nil, nil
				})
			}

			app := newApp(t, []string{"site"}, []internal.Module{
				internal.Define(internal.Definition{
					Name:       "site",
					RoutesFunc: routes(internal.Routes{"/": {internal.Chain(actions...)}}),
				}),
			})

			code, body, _ := do(t, app, http.MethodGet, "/")
			require.Equal(t, tt.code, code)
			require.Equal(t, tt.body, body)
			require.Equal(t, tt.want, ran)
		})
	}
}

func TestChain_Degenerate(t *testing.T) {
	t.Parallel()

	require.Nil(t, internal.Chain())
	require.Nil(t, internal.Chain(nil, nil))

	only := text("only")
	one := internal.Chain(nil, only)
	require.NotNil(t, one)
	res, err := one(nil)
	require.NoError(t, err)
	require.Equal(t, "only", res)
}
