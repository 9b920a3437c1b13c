// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/standings/internal/adapters/repository"
	service "github.com/okian/standings/internal/app"
	"github.com/okian/standings/internal/domain/defeat"
	"github.com/okian/standings/internal/domain/model"
	"github.com/okian/standings/internal/domain/ranking"
	"github.com/okian/standings/internal/domain/types"
)

// maxBodyBytes bounds request bodies carrying match lists.
const maxBodyBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RankingDependencies
	ReplayDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	rankingsHandler    *RankingsHandler
	replaysHandler     *ReplaysHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// leaderboard limit parameter.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		rankingsHandler:    NewRankingsHandler(deps),
		replaysHandler:     NewReplaysHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /rankings", MetricsMiddleware(s.rankingsHandler.HandlePostRankings, "rankings"))
	mux.HandleFunc("POST /replays", MetricsMiddleware(s.replaysHandler.HandlePostReplay, "replays"))
	mux.HandleFunc("GET /replays/{id}", MetricsMiddleware(s.replaysHandler.HandleGetReplay, "replay"))
	mux.HandleFunc("GET /replays/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

// Entry mirrors the read shape of a standings row.
type Entry = types.Entry

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Details: details(err)})
}

// details exposes the offending values of domain validation errors.
func details(err error) map[string]any {
	var rerr *defeat.RecordError
	if errors.As(err, &rerr) {
		d := map[string]any{"winner": rerr.Winner, "loser": rerr.Loser, "reason": rerr.Reason}
		if rerr.Index >= 0 {
			d["index"] = rerr.Index
		}
		return d
	}
	var cerr *ranking.ConfigError
	if errors.As(err, &cerr) {
		return map[string]any{"option": cerr.Option, "value": cerr.Value, "reason": cerr.Reason}
	}
	return nil
}

// writeServiceError maps a service failure onto a status and error code.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, defeat.ErrMalformedRecord):
		writeError(w, http.StatusBadRequest, "malformed_record", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, ranking.ErrInvalidConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrTooManyMatches):
		writeError(w, http.StatusRequestEntityTooLarge, "too_many_matches", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrStepOutOfRange):
		writeError(w, http.StatusBadRequest, "step_out_of_range", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNotReady):
		writeError(w, http.StatusConflict, "not_ready", WrapKind(op, ErrConflict, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrShuttingDown):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// decodeBody reads a JSON request body into v, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// matchesRequest is the body of POST /replays.
type matchesRequest struct {
	Matches []model.Match `json:"matches"`
}
