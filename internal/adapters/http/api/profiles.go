package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/apest/internal/app"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/internal/domain/profile"
	"github.com/okian/apest/pkg/logger"
)

// IdempotencyHeader may carry the submission ID instead of the body.
const IdempotencyHeader = "Idempotency-Key"

// ProfileDependencies defines the operations behind the profile routes.
type ProfileDependencies interface {
	Classify(ctx context.Context, v apest.Vector) (profile.Profile, error)
	SubmitAssessment(ctx context.Context, sub model.Submission) (service.MemberProfile, bool, error)
	MemberProfile(ctx context.Context, churchID, memberID string) (service.MemberProfile, error)
	MemberProfiles(ctx context.Context, churchID string) ([]service.MemberProfile, error)
	ChurchSummary(ctx context.Context, churchID string) (profile.Summary, error)
}

// ProfileHandler handles classification, assessment and member routes.
type ProfileHandler struct {
	deps   ProfileDependencies
	logger logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies, l logger.Logger) *ProfileHandler {
	return &ProfileHandler{deps: deps, logger: l}
}

type assessmentRequest struct {
	SubmissionID string       `json:"submission_id"`
	Name         string       `json:"name"`
	Roles        apest.Vector `json:"roles"`
}

type assessmentResponse struct {
	service.MemberProfile
	Duplicate bool `json:"duplicate"`
}

// HandleClassify handles POST /v1/profiles/classify with a role vector body.
func (h *ProfileHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	var v apest.Vector
	if err := decodeJSON(w, r, &v); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	p, err := h.deps.Classify(r.Context(), v)
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandlePutAssessment handles PUT /v1/churches/{churchID}/members/{memberID}/assessment.
func (h *ProfileHandler) HandlePutAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_assessment"
	var req assessmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	if req.SubmissionID == "" {
		req.SubmissionID = r.Header.Get(IdempotencyHeader)
	}

	mp, dup, err := h.deps.SubmitAssessment(r.Context(), model.Submission{
		ID:       req.SubmissionID,
		ChurchID: chi.URLParam(r, "churchID"),
		MemberID: chi.URLParam(r, "memberID"),
		Name:     req.Name,
		Roles:    req.Roles,
	})
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, assessmentResponse{MemberProfile: mp, Duplicate: dup})
}

// HandleGetProfile handles GET /v1/churches/{churchID}/members/{memberID}/profile.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	mp, err := h.deps.MemberProfile(r.Context(), chi.URLParam(r, "churchID"), chi.URLParam(r, "memberID"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, mp)
}

// HandleListMembers handles GET /v1/churches/{churchID}/members.
func (h *ProfileHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_members"
	list, err := h.deps.MemberProfiles(r.Context(), chi.URLParam(r, "churchID"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSummary handles GET /v1/churches/{churchID}/summary.
func (h *ProfileHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.church_summary"
	sum, err := h.deps.ChurchSummary(r.Context(), chi.URLParam(r, "churchID"))
	if err != nil {
		fail(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
