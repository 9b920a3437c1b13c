package testmatches

import "errors"

var (
	// ErrInvalidConfig is returned for generator or run settings that cannot work.
	ErrInvalidConfig = errors.New("testmatches: invalid config")
	// ErrUnexpectedStatus is returned when the service answers with an unexpected HTTP status.
	ErrUnexpectedStatus = errors.New("testmatches: unexpected status")
	// ErrMismatch is returned when the service disagrees with the local solve.
	ErrMismatch = errors.New("testmatches: standings mismatch")
	// ErrReplayFailed is returned when the service reports a failed replay job.
	ErrReplayFailed = errors.New("testmatches: replay failed")
)
