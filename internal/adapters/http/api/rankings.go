package api

import (
	"context"
	"net/http"

	service "github.com/okian/standings/internal/app"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/types"
)

// RankingDependencies defines the interface for synchronous ranking.
type RankingDependencies interface {
	Rank(ctx context.Context, req service.RankRequest) (types.Standings, error)
}

// RankingsHandler handles ranking requests.
type RankingsHandler struct {
	deps RankingDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// rankRequest mirrors the OpenAPI schema for POST /rankings.
type rankRequest struct {
	Matches       []model.Match `json:"matches"`
	Competitors   []string      `json:"competitors,omitempty"`
	Damping       *float64      `json:"damping,omitempty"`
	Policy        string        `json:"policy,omitempty"`
	Iterations    *int          `json:"iterations,omitempty"`
	Epsilon       *float64      `json:"epsilon,omitempty"`
	MaxIterations *int          `json:"max_iterations,omitempty"`
}

// HandlePostRankings handles POST /rankings requests.
func (h *RankingsHandler) HandlePostRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rankings"
	var req rankRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Rank(r.Context(), service.RankRequest{
		Matches:       req.Matches,
		Competitors:   req.Competitors,
		Damping:       req.Damping,
		Policy:        req.Policy,
		Iterations:    req.Iterations,
		Epsilon:       req.Epsilon,
		MaxIterations: req.MaxIterations,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
