// Package model contains domain models passed between layers.
package model

import "strings"

// Match is a single decided game: Winner beat Loser.
// Fields mirror the OpenAPI schema for match lists.
type Match struct {
	Winner string `json:"winner"`
	Loser  string `json:"loser"`
}

// Normalized returns the match with surrounding whitespace removed from both identifiers.
func (m Match) Normalized() Match {
	return Match{
		Winner: strings.TrimSpace(m.Winner),
		Loser:  strings.TrimSpace(m.Loser),
	}
}

// String renders the match as "winner>loser".
func (m Match) String() string {
	return m.Winner + ">" + m.Loser
}

// ReplayJob is a request to compute one ranking per revealed match.
type ReplayJob struct {
	ID      string
	Digest  uint64
	Matches []Match
}
