package routetable

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ParamSentinel replaces a "[name]" segment in the normalized match path.
	ParamSentinel = "@"
	// Wildcard is the trailing segment that matches a prefix and everything under it.
	Wildcard = "*"
)

// parsed is a validated route definition.
type parsed struct {
	definition string
	matchPath  string
	segments   []string
	params     []string
	dynamic    bool
}

// parse validates a route definition and normalizes it.
// Query strings are dropped: "/search?q" registers "/search".
func parse(definition string) (parsed, error) {
	def, _, _ := strings.Cut(definition, "?")
	if def == "" {
		return parsed{}, ErrEmptyRoute
	}
	if !strings.HasPrefix(def, "/") {
		return parsed{}, errors.Join(ErrMalformedRoute, fmt.Errorf("%q must start with '/'", definition))
	}

	p := parsed{definition: def}
	if !strings.ContainsAny(def, "[*") {
		p.matchPath = def
		return p, nil
	}

	p.dynamic = true
	parts := strings.Split(def, "/")[1:]
	p.segments = make([]string, len(parts))

	for i, seg := range parts {
		switch {
		case seg == Wildcard:
			if i != len(parts)-1 {
				return parsed{}, errors.Join(ErrMalformedRoute, fmt.Errorf("%q: wildcard must be the last segment", definition))
			}
			p.segments[i] = Wildcard
		case strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]"):
			name := seg[1 : len(seg)-1]
			if !validParamName(name) {
				return parsed{}, errors.Join(ErrMalformedRoute, fmt.Errorf("%q: invalid parameter %q", definition, seg))
			}
			p.params = append(p.params, name)
			p.segments[i] = ParamSentinel
		case strings.ContainsAny(seg, "[]*"):
			// One name per dynamic segment, no composite segments.
			return parsed{}, errors.Join(ErrMalformedRoute, fmt.Errorf("%q: composite segment %q", definition, seg))
		default:
			p.segments[i] = seg
		}
	}

	p.matchPath = "/" + strings.Join(p.segments, "/")
	return p, nil
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
