package health

import "errors"

// ErrCheckTimeout marks a check that failed after the probe timeout expired.
var ErrCheckTimeout = errors.New("health: check timeout")
