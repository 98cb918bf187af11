package routetable

import (
	"slices"
	"strings"
)

// Route is a registered path pattern and the action composed for it.
// Routes are immutable once the table is built.
type Route[T any] struct {
	Action     T
	Definition string   // original definition, e.g. "/users/[id]"
	MatchPath  string   // normalized form, e.g. "/users/@"
	ParamNames []string // parameter names in declaration order
}

// IsWildcard reports whether the route ends with a wildcard segment.
func (r *Route[T]) IsWildcard() bool {
	return strings.HasSuffix(r.MatchPath, "/"+Wildcard)
}

// Match is the result of a successful lookup.
type Match[T any] struct {
	Route  *Route[T]
	Values []string // positional parameter values collected during the walk
}

// Param returns the value bound to the named parameter, or "" when absent.
func (m Match[T]) Param(name string) string {
	if m.Route == nil {
		return ""
	}
	for i, n := range m.Route.ParamNames {
		if n == name && i < len(m.Values) {
			return m.Values[i]
		}
	}
	return ""
}

// Params returns all bound parameters keyed by name.
func (m Match[T]) Params() map[string]string {
	if m.Route == nil || len(m.Route.ParamNames) == 0 {
		return nil
	}
	out := make(map[string]string, len(m.Route.ParamNames))
	for i, n := range m.Route.ParamNames {
		if i < len(m.Values) {
			out[n] = m.Values[i]
		}
	}
	return out
}

// node is a trie node keyed by literal segments.
// The parameter slot and the wildcard terminal live in dedicated fields so
// they can never collide with a literal segment.
type node[T any] struct {
	children map[string]*node[T]
	param    *node[T]
	wildcard *node[T]
	route    *Route[T]
}

func newNode[T any]() *node[T] {
	return &node[T]{children: make(map[string]*node[T])}
}

// Table is the route table of one application.
type Table[T any] struct {
	exact map[string]*Route[T]
	root  *node[T]
	byKey map[string]*Route[T] // keyed by routeKey
}

// New creates an empty route table.
func New[T any]() *Table[T] {
	return &Table[T]{
		exact: make(map[string]*Route[T]),
		root:  newNode[T](),
		byKey: make(map[string]*Route[T]),
	}
}

// Add registers a route definition with its action.
// A definition of the same kind (static or dynamic) normalizing to an
// already known match path replaces the previous route: the last
// registration wins.
func (t *Table[T]) Add(definition string, action T) (*Route[T], error) {
	p, err := parse(definition)
	if err != nil {
		return nil, err
	}

	r := &Route[T]{
		Action:     action,
		Definition: p.definition,
		MatchPath:  p.matchPath,
		ParamNames: p.params,
	}
	t.byKey[routeKey(p)] = r

	if !p.dynamic {
		t.exact[r.MatchPath] = r
		return r, nil
	}

	n := t.root
	for _, seg := range p.segments {
		switch seg {
		case ParamSentinel:
			if n.param == nil {
				n.param = newNode[T]()
			}
			n = n.param
		case Wildcard:
			if n.wildcard == nil {
				n.wildcard = newNode[T]()
			}
			n = n.wildcard
		default:
			child, ok := n.children[seg]
			if !ok {
				child = newNode[T]()
				n.children[seg] = child
			}
			n = child
		}
	}
	n.route = r

	return r, nil
}

// routeKey identifies the slot a route occupies. Static and dynamic routes
// live in different structures, so a literal "/a/@" and "/a/[id]" are two
// routes even though their match paths are equal.
func routeKey(p parsed) string {
	if p.dynamic {
		return "dynamic " + p.matchPath
	}
	return "static " + p.matchPath
}

// Lookup resolves a request path.
// Exact routes are checked first. Otherwise the trie is walked segment by
// segment: a literal child wins over the parameter slot, and the most recent
// wildcard seen while descending is the fallback when the walk dead-ends.
func (t *Table[T]) Lookup(path string) (Match[T], bool) {
	path, _, _ = strings.Cut(path, "?")

	if r, ok := t.exact[path]; ok {
		return Match[T]{Route: r}, true
	}
	if !strings.HasPrefix(path, "/") {
		return Match[T]{}, false
	}

	var (
		n        = t.root
		fallback *node[T]
		values   []string
	)

	rest := path[1:]
	for {
		seg, tail, more := strings.Cut(rest, "/")

		if n.wildcard != nil {
			fallback = n.wildcard
		}

		if child, ok := n.children[seg]; ok {
			n = child
		} else if n.param != nil {
			values = append(values, seg)
			n = n.param
		} else {
			return t.fallback(fallback, values)
		}

		if !more {
			break
		}
		rest = tail
	}

	if n.route == nil {
		return t.fallback(fallback, values)
	}
	return Match[T]{Route: n.route, Values: values}, true
}

func (t *Table[T]) fallback(n *node[T], values []string) (Match[T], bool) {
	if n == nil || n.route == nil {
		return Match[T]{}, false
	}
	return Match[T]{Route: n.route, Values: values}, true
}

// Len returns the number of distinct routes.
func (t *Table[T]) Len() int {
	return len(t.byKey)
}

// Routes returns all routes sorted by definition.
func (t *Table[T]) Routes() []*Route[T] {
	out := make([]*Route[T], 0, len(t.byKey))
	for _, r := range t.byKey {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Route[T]) int {
		return strings.Compare(a.Definition, b.Definition)
	})
	return out
}
