package config

import "errors"

// ErrLoadConfig wraps failures reading a source; ErrInvalidConfig wraps
// values that fail Validate.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
