package matchfile

import (
	"errors"
	"fmt"
)

// Sentinel kinds for match file errors.
var (
	ErrMalformedLine = errors.New("malformed match line")
	ErrRead          = errors.New("read match file failed")
)

// LineError identifies the offending line of a match file.
type LineError struct {
	Line int
	Text string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s %d: %q: want two columns (winner, loser)", ErrMalformedLine, e.Line, e.Text)
}

func (e *LineError) Unwrap() error { return ErrMalformedLine }
