package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrTooManyMatches = errors.New("too many matches")
	ErrBackpressure   = errors.New("replay queue full")
	ErrNotReady       = errors.New("replay not finished")
	ErrStepOutOfRange = errors.New("step out of range")
	ErrShuttingDown   = errors.New("service shutting down")
)
