package config

import "errors"

// ErrInvalidConfig indicates the config file could not be parsed or holds
// out-of-range values.
var ErrInvalidConfig = errors.New("invalid configuration")
