// Package types contains common types used across the application
package types

// Entry represents a standings row.
type Entry struct {
	Rank       int     `json:"rank"`
	Competitor string  `json:"competitor"`
	Score      float64 `json:"score"`
	Points     int     `json:"points"`
}

// Standings is a full ranking with the diagnostics of the solve that produced it.
type Standings struct {
	Entries     []Entry `json:"standings"`
	Competitors int     `json:"competitors"`
	Matches     int     `json:"matches"`
	Policy      string  `json:"policy"`
	Iterations  int     `json:"iterations"`
	Delta       float64 `json:"delta"`
	Converged   bool    `json:"converged"`
}
