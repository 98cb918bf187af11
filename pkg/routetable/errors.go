package routetable

import "errors"

var (
	ErrEmptyRoute     = errors.New("routetable: empty route definition")
	ErrMalformedRoute = errors.New("routetable: malformed route definition")
)
