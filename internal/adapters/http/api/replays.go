package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/standings/internal/adapters/repository"
	"github.com/okian/standings/internal/domain/model"
)

// ReplayDependencies defines the interface for replay jobs.
type ReplayDependencies interface {
	SubmitReplay(ctx context.Context, matches []model.Match) (repository.Job, bool, error)
	Replay(ctx context.Context, id string) (repository.Job, error)
	Frame(ctx context.Context, id string, step int) (model.Frame, error)
}

// ReplaysHandler handles replay submission and status requests.
type ReplaysHandler struct {
	deps ReplayDependencies
}

// NewReplaysHandler creates a new replays handler.
func NewReplaysHandler(deps ReplayDependencies) *ReplaysHandler {
	return &ReplaysHandler{deps: deps}
}

type submitResponse struct {
	ID        string            `json:"id"`
	Status    repository.Status `json:"status"`
	Duplicate bool              `json:"duplicate"`
}

type replayResponse struct {
	ID        string            `json:"id"`
	Status    repository.Status `json:"status"`
	Matches   int               `json:"matches"`
	Steps     int               `json:"steps"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Frame     *model.Frame      `json:"frame,omitempty"`
}

// HandlePostReplay handles POST /replays requests.
func (h *ReplaysHandler) HandlePostReplay(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_replay"
	var req matchesRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	job, dup, err := h.deps.SubmitReplay(r.Context(), req.Matches)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Location", "/replays/"+job.ID)
	writeJSON(w, http.StatusAccepted, submitResponse{ID: job.ID, Status: job.Status, Duplicate: dup})
}

// HandleGetReplay handles GET /replays/{id}[?step=k] requests.
func (h *ReplaysHandler) HandleGetReplay(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_replay"
	id := r.PathValue("id")

	job, err := h.deps.Replay(r.Context(), id)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	resp := replayResponse{
		ID:        job.ID,
		Status:    job.Status,
		Matches:   len(job.Matches),
		Steps:     job.Steps(),
		Error:     job.Err,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}

	if raw := r.URL.Query().Get("step"); raw != "" {
		step, err := parseStep(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		f, err := h.deps.Frame(r.Context(), id, step)
		if err != nil {
			writeServiceError(w, op, err)
			return
		}
		resp.Frame = &f
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseStep(raw string) (int, error) {
	step, err := strconv.Atoi(raw)
	if err != nil || step < 1 {
		return 0, fmt.Errorf("step must be a positive integer, got %q", raw)
	}
	return step, nil
}
