package internal

import (
	"fmt"
	"strconv"
)

// Scalar is a type a route or query parameter can be parsed into.
type Scalar interface {
	string | int | int64 | float64 | bool
}

// Param parses a route parameter.
// An unparsable value is a KindBadRequest error.
//
// Example:
//
//	id, err := mosaic.Param[int64](c, "id")
func Param[T Scalar](c *Context, name string) (T, error) {
	return parseScalar[T]("parameter", name, c.Param(name))
}

// Query parses a query parameter. A missing parameter is the zero value.
func Query[T Scalar](c *Context, name string) (T, error) {
	raw := c.Query(name)
	if raw == "" {
		var zero T
		return zero, nil
	}
	return parseScalar[T]("query parameter", name, raw)
}

// QueryDefault parses a query parameter, returning defaultValue when it is
// missing or unparsable.
func QueryDefault[T Scalar](c *Context, name string, defaultValue T) T {
	raw := c.Query(name)
	if raw == "" {
		return defaultValue
	}
	v, err := convertScalar[T](raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func parseScalar[T Scalar](what, name, raw string) (T, error) {
	v, err := convertScalar[T](raw)
	if err != nil {
		return v, ErrBadRequest(fmt.Sprintf("invalid %s %q", what, name), WithCause(err))
	}
	return v, nil
}

func convertScalar[T Scalar](raw string) (T, error) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case float64:
		v, err = strconv.ParseFloat(raw, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, fmt.Errorf("unsupported type %T", zero)
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
