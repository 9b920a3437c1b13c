// Package testmatches generates synthetic tournaments and drives a running
// standings service with them, checking its answers against a local solve.
package testmatches

import "time"

// Config holds configuration for a load check run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Teams      int           // Number of generated teams
	Matches    int           // Number of generated matches
	Seed       uint64        // Generator seed
	Requests   int           // Number of POST /rankings requests
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	TopN       int           // Leaderboard size to fetch and verify
	Damping    float64       // Damping sent with every ranking request
	Iterations int           // Fixed iteration count sent with every ranking request
	OutputFile string        // Optional match file written before submitting
}

// Stats holds run statistics.
type Stats struct {
	MatchesGenerated   int
	RequestsSubmitted  int
	RequestsSuccessful int
	RequestsFailed     int
	Mismatches         int
	ReplayID           string
	ReplayFrames       int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
