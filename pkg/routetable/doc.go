// Package routetable provides the path-matching table used by the dispatch engine.
//
// A table holds three kinds of routes:
//
//   - Exact: "/about" is stored in a flat map and matched in O(1)
//   - Parameterized: "/users/[id]" matches one dynamic segment per bracketed name
//   - Wildcard: "/files/*" matches its prefix and every deeper path under it
//
// Parameterized and wildcard definitions are normalized into a segment trie where a
// literal child, the parameter sentinel and the wildcard terminal can coexist as
// siblings. Lookups prefer literal segments, descend into the parameter slot when no
// literal matches, and fall back to the most recent wildcard seen on the way down.
//
// # Usage
//
//	t := routetable.New[http.HandlerFunc]()
//	_, _ = t.Add("/users/[id]", showUser)
//	_, _ = t.Add("/users/*", usersFallback)
//
//	m, ok := t.Lookup("/users/42")
//	// m.Route.Definition == "/users/[id]", m.Param("id") == "42"
//
// Tables are built once and then only read; concurrent lookups need no locking as long
// as no Add call runs at the same time.
package routetable
