package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/snakedraft/internal/domain/types"
)

// StrategyDependencies defines the interface for strategy lookups.
type StrategyDependencies interface {
	Strategy(ctx context.Context, id string) (types.Strategy, error)
}

// StrategyHandler handles strategy requests.
type StrategyHandler struct {
	deps StrategyDependencies
}

// NewStrategyHandler creates a new strategy handler.
func NewStrategyHandler(deps StrategyDependencies) *StrategyHandler {
	return &StrategyHandler{deps: deps}
}

// HandleGetStrategy handles GET /strategies/{id} requests.
func (h *StrategyHandler) HandleGetStrategy(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_strategy"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/strategies/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	st, err := h.deps.Strategy(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
