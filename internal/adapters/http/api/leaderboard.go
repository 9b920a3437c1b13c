package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/standings/internal/domain/standings"
)

const defaultLimit = 10

// LeaderboardHandler serves the top of a replay frame.
type LeaderboardHandler struct {
	deps     ReplayDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps ReplayDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = defaultLimit
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

type leaderboardResponse struct {
	ID          string  `json:"id"`
	Step        int     `json:"step"`
	Competitors int     `json:"competitors"`
	Leader      string  `json:"leader"`
	Entries     []Entry `json:"entries"`
}

// HandleGetLeaderboard handles GET /replays/{id}/leaderboard?step=k&limit=n.
// Without step the final frame is used.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	id := r.PathValue("id")
	q := r.URL.Query()

	n := min(defaultLimit, h.maxLimit)
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit must be a positive integer, got %q", raw)))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded",
				WrapKind(op, ErrBadRequest, fmt.Errorf("limit %d exceeds %d", v, h.maxLimit)))
			return
		}
		n = v
	}

	step := 0
	if raw := q.Get("step"); raw != "" {
		v, err := parseStep(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		step = v
	}

	f, err := h.deps.Frame(r.Context(), id, step)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{
		ID:          id,
		Step:        f.Step,
		Competitors: f.Competitors,
		Leader:      f.Leader,
		Entries:     standings.TopN(f.Standings, n),
	})
}
