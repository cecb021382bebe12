package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("twin not found")
	ErrAlreadyExists    = errors.New("twin already exists")
	ErrCapacityExceeded = errors.New("twin store is full")
	ErrInvalidTwin      = errors.New("twin must have an id")
)
