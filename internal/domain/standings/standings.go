// Package standings orders a score distribution into leaderboard rows.
package standings

import (
	"math"
	"sort"

	"github.com/okian/standings/internal/domain/types"
)

// scoreScale controls fixed-point comparison of scores: values that agree to
// 12 decimal places share a rank.
const scoreScale = 1_000_000_000_000

// pointsScale converts a score into integer dominance points.
const pointsScale = 10_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

// Points converts a score in [0, 1] to whole dominance points.
func Points(score float64) int {
	return int(math.Round(score * pointsScale))
}

// FromScores returns one entry per competitor ordered by score (descending)
// then competitor (ascending). Ranks are dense: equal scores share a rank and
// the next distinct score takes the next rank.
func FromScores(scores map[string]float64) []types.Entry {
	entries := make([]types.Entry, 0, len(scores))
	for id, s := range scores {
		entries = append(entries, types.Entry{
			Competitor: id,
			Score:      s,
			Points:     Points(s),
		})
	}
	sortEntries(entries)
	assignRanksWithTies(entries)
	return entries
}

func sortEntries(entries []types.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := toFixedPoint(entries[i].Score), toFixedPoint(entries[j].Score)
		if a != b {
			return a > b
		}
		return entries[i].Competitor < entries[j].Competitor
	})
}

func assignRanksWithTies(entries []types.Entry) {
	rank := 0
	var prev scoreFP
	for i := range entries {
		fp := toFixedPoint(entries[i].Score)
		if i == 0 || fp != prev {
			rank++
			prev = fp
		}
		entries[i].Rank = rank
	}
}

// TopN returns at most n leading entries. n < 1 returns every entry.
func TopN(entries []types.Entry, n int) []types.Entry {
	if n < 1 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}

// Leader returns the first competitor, or "" when there are no entries.
func Leader(entries []types.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	return entries[0].Competitor
}

// Find returns the entry for competitor.
func Find(entries []types.Entry, competitor string) (types.Entry, bool) {
	for _, e := range entries {
		if e.Competitor == competitor {
			return e, true
		}
	}
	return types.Entry{}, false
}
