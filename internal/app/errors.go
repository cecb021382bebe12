package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted       = errors.New("service not started")
	ErrBackpressure     = errors.New("ingestion queue is full")
	ErrTooManyScenarios = errors.New("too many scenarios")
	ErrInvalidRequest   = errors.New("invalid request")
)
