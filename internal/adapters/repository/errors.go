package repository

import "errors"

// Sentinel kinds for job store errors.
var (
	ErrNotFound      = errors.New("replay job not found")
	ErrInvalidStatus = errors.New("invalid replay job status transition")
	ErrFull          = errors.New("replay job store full")
)
