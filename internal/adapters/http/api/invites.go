package api

import (
	"context"
	"net/http"

	"github.com/okian/apest/internal/domain/invite"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/pkg/logger"
)

// InviteDependencies defines the operations behind the invite-code routes.
type InviteDependencies interface {
	IssueInviteCode(ctx context.Context, kind model.CodeKind, entityID string) (model.InviteCode, error)
	ResolveInviteCode(ctx context.Context, kind model.CodeKind, input string) (invite.Match, error)
}

// InviteHandler handles invite-code issuing and resolution.
type InviteHandler struct {
	deps   InviteDependencies
	logger logger.Logger
}

// NewInviteHandler creates a new invite handler.
func NewInviteHandler(deps InviteDependencies, l logger.Logger) *InviteHandler {
	return &InviteHandler{deps: deps, logger: l}
}

type issueRequest struct {
	Kind     string `json:"kind"`
	EntityID string `json:"entity_id"`
}

type resolveRequest struct {
	Kind string `json:"kind"`
	Code string `json:"code"`
}

// HandleIssue handles POST /v1/invite-codes.
func (h *InviteHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	const op = "api.issue_invite"
	var req issueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	kind, err := model.ParseCodeKind(req.Kind)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	code, err := h.deps.IssueInviteCode(r.Context(), kind, req.EntityID)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

// HandleResolve handles POST /v1/invite-codes/resolve.
func (h *InviteHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.resolve_invite"
	var req resolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	kind, err := model.ParseCodeKind(req.Kind)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	match, err := h.deps.ResolveInviteCode(r.Context(), kind, req.Code)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, match)
}
