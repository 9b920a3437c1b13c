package testmatches

import (
	"fmt"
	"math"

	"github.com/okian/standings/internal/domain/standings"
	"github.com/okian/standings/internal/domain/types"
)

// Score tolerances. Ranking requests pin the fixed policy, so both sides run
// the same arithmetic; replays use the service default policy.
const (
	rankTolerance   = 1e-9
	replayTolerance = 1e-6
)

// verifyStandings checks that got holds the same competitors as want with
// scores within tol.
func verifyStandings(want, got []types.Entry, tol float64) error {
	if len(want) != len(got) {
		return fmt.Errorf("%w: %d competitors, want %d", ErrMismatch, len(got), len(want))
	}
	for _, g := range got {
		w, ok := standings.Find(want, g.Competitor)
		if !ok {
			return fmt.Errorf("%w: unexpected competitor %q", ErrMismatch, g.Competitor)
		}
		if math.Abs(w.Score-g.Score) > tol {
			return fmt.Errorf("%w: %s scored %.12f, want %.12f", ErrMismatch, g.Competitor, g.Score, w.Score)
		}
	}
	return nil
}

// verifyLeaderboard checks that board is a prefix of want: same length as
// the requested top, scores within tol and non-increasing.
func verifyLeaderboard(want, board []types.Entry, limit int, tol float64) error {
	if n := min(limit, len(want)); len(board) != n {
		return fmt.Errorf("%w: leaderboard has %d entries, want %d", ErrMismatch, len(board), n)
	}
	for i, b := range board {
		w, ok := standings.Find(want, b.Competitor)
		if !ok {
			return fmt.Errorf("%w: unexpected competitor %q on leaderboard", ErrMismatch, b.Competitor)
		}
		if math.Abs(w.Score-b.Score) > tol {
			return fmt.Errorf("%w: leaderboard %s scored %.12f, want %.12f", ErrMismatch, b.Competitor, b.Score, w.Score)
		}
		if math.Abs(want[i].Score-b.Score) > tol {
			return fmt.Errorf("%w: leaderboard position %d scored %.12f, want %.12f", ErrMismatch, i+1, b.Score, want[i].Score)
		}
	}
	return nil
}
