package api

import (
	"net/http"
	"strconv"

	"github.com/okian/snakedraft/internal/domain/types"
)

// GenerationsDependencies exposes per-generation statistics.
type GenerationsDependencies interface {
	History() []types.GenerationStats
}

// GenerationsHandler handles generation history requests.
type GenerationsHandler struct {
	deps GenerationsDependencies
}

// NewGenerationsHandler creates a new generations handler.
func NewGenerationsHandler(deps GenerationsDependencies) *GenerationsHandler {
	return &GenerationsHandler{deps: deps}
}

// HandleGetGenerations handles GET /generations[?last=N] requests.
func (h *GenerationsHandler) HandleGetGenerations(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_generations"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	history := h.deps.History()
	if lastStr := r.URL.Query().Get("last"); lastStr != "" {
		last, err := strconv.Atoi(lastStr)
		if err != nil || last < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if last < len(history) {
			history = history[len(history)-last:]
		}
	}
	if history == nil {
		history = []types.GenerationStats{}
	}
	writeJSON(w, http.StatusOK, history)
}
