package ranking

import (
	"errors"
	"fmt"
)

// Sentinel kinds for solver errors.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ConfigError names the option that was rejected and the value it had.
type ConfigError struct {
	Option string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s=%v: %s", ErrInvalidConfiguration, e.Option, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }
