package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/apest/internal/app"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	"github.com/okian/apest/pkg/logger"
)

// TeamDependencies defines the operation behind the team route.
type TeamDependencies interface {
	SuggestTeam(ctx context.Context, churchID string, params assembly.Params) (service.SuggestedTeam, error)
}

// TeamHandler handles team suggestions.
type TeamHandler struct {
	deps   TeamDependencies
	logger logger.Logger
}

// NewTeamHandler creates a new team handler.
func NewTeamHandler(deps TeamDependencies, l logger.Logger) *TeamHandler {
	return &TeamHandler{deps: deps, logger: l}
}

// suggestRequest leaves balance_factor optional; absent means assembly.DefaultBalance.
type suggestRequest struct {
	Size          int        `json:"size"`
	BalanceFactor *int       `json:"balance_factor"`
	PriorityRole  apest.Role `json:"priority_role"`
}

func (req suggestRequest) params() assembly.Params {
	p := assembly.Params{Size: req.Size, BalanceFactor: assembly.DefaultBalance, Priority: req.PriorityRole}
	if req.BalanceFactor != nil {
		p.BalanceFactor = *req.BalanceFactor
	}
	return p
}

// HandleSuggest handles POST /v1/churches/{churchID}/teams/suggest.
func (h *TeamHandler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	const op = "api.suggest_team"
	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	team, err := h.deps.SuggestTeam(r.Context(), chi.URLParam(r, "churchID"), req.params())
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}
