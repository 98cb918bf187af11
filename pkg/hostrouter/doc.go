// Package hostrouter maps request hosts to values.
//
// A Table holds exact patterns ("api.example.com") and single-label
// wildcards ("*.example.com"). Exact patterns win. Matching ignores case and
// the port, and keeps IPv6 brackets:
//
//	t := hostrouter.NewTable[*App]()
//	_ = t.Add("shop.example.com", shop)
//	_ = t.Add("*.shop.example.com", tenants)
//
//	app, ok := t.Match("ACME.shop.example.com:8443")
package hostrouter
