package defeat

import (
	"errors"
	"fmt"
)

// Sentinel kinds for graph construction errors.
var (
	ErrMalformedRecord = errors.New("malformed record")
)

// Reasons reported by RecordError.
const (
	ReasonEmptyWinner     = "empty winner"
	ReasonEmptyLoser      = "empty loser"
	ReasonSelfMatch       = "winner equals loser"
	ReasonEmptyCompetitor = "empty competitor"
)

// RecordError identifies the record that could not be added to the graph.
// Index is the zero-based position in the match list, or -1 for a standalone competitor.
type RecordError struct {
	Index  int
	Winner string
	Loser  string
	Reason string
}

func (e *RecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", ErrMalformedRecord, e.Reason)
	}
	return fmt.Sprintf("%s #%d (winner=%q, loser=%q): %s", ErrMalformedRecord, e.Index, e.Winner, e.Loser, e.Reason)
}

func (e *RecordError) Unwrap() error { return ErrMalformedRecord }
