package appconfig

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Settings is a tree of application settings.
type Settings map[string]any

// Get looks a dotted path up, "db.url" reading key "url" of map "db".
func (s Settings) Get(path string) (any, bool) {
	var cur any = map[string]any(s)
	for key := range strings.SplitSeq(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path formatted as a string, or def.
func (s Settings) String(path, def string) string {
	v, ok := s.Get(path)
	if !ok || v == nil {
		return def
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

// Sub returns the settings under path, or empty settings.
func (s Settings) Sub(path string) Settings {
	v, ok := s.Get(path)
	if !ok {
		return Settings{}
	}
	m, _ := asMap(v)
	return Settings(m)
}

// Decode decodes the value at path into out, which must be a pointer.
// Fields map through `mapstructure` tags; strings convert to durations,
// numbers and booleans. A missing path leaves out untouched.
//
// Example:
//
//	var cfg db.Config
//	err := settings.Decode("postgres", &cfg)
func (s Settings) Decode(path string, out any) error {
	var in any = map[string]any(s)
	if path != "" {
		v, ok := s.Get(path)
		if !ok {
			return nil
		}
		in = v
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		// Decoded slices and maps replace defaults instead of merging into them.
		ZeroFields: true,
		Result:     out,
	})
	if err != nil {
		return errors.Join(ErrDecode, err)
	}
	if err := dec.Decode(in); err != nil {
		return errors.Join(ErrDecode, fmt.Errorf("%q: %w", path, err))
	}
	return nil
}

// Merge returns a copy of s with over laid on top. Nested maps merge
// recursively; other values from over replace those of s.
func (s Settings) Merge(over Settings) Settings {
	out := maps.Clone(s)
	if out == nil {
		out = Settings{}
	}
	for k, v := range over {
		if dst, ok := asMap(out[k]); ok {
			if src, ok := asMap(v); ok {
				out[k] = map[string]any(Settings(dst).Merge(src))
				continue
			}
		}
		out[k] = v
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Settings:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}
