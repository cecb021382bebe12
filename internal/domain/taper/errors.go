package taper

import "errors"

var (
	ErrUnknownReduction = errors.New("unknown taper reduction")
	ErrInvalidStrategy  = errors.New("taper strategy duration must be positive")
)
