package model

import "github.com/okian/standings/internal/domain/types"

// Frame is the ranking after exactly Step matches have been revealed.
type Frame struct {
	Step        int           `json:"step"`
	Match       Match         `json:"match"`
	Competitors int           `json:"competitors"`
	Leader      string        `json:"leader"`
	Iterations  int           `json:"iterations"`
	Converged   bool          `json:"converged"`
	Standings   []types.Entry `json:"standings"`
}
