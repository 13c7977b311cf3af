// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	service "github.com/okian/apest/internal/app"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	ProfileDependencies
	TeamDependencies
	InviteDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	profileHandler *ProfileHandler
	teamHandler    *TeamHandler
	inviteHandler  *InviteHandler
	logger         logger.Logger
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for unexpected handler failures.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	s := &Server{logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.profileHandler = NewProfileHandler(deps, s.logger)
	s.teamHandler = NewTeamHandler(deps, s.logger)
	s.inviteHandler = NewInviteHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Group(func(r chi.Router) {
		s.routes(r)
	})
}

func (s *Server) routes(r chi.Router) {
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/v1", func(r chi.Router) {
		r.Post("/profiles/classify", MetricsMiddleware(s.profileHandler.HandleClassify, "classify"))

		r.Route("/churches/{churchID}", func(r chi.Router) {
			r.Get("/members", MetricsMiddleware(s.profileHandler.HandleListMembers, "members"))
			r.Put("/members/{memberID}/assessment", MetricsMiddleware(s.profileHandler.HandlePutAssessment, "assessment"))
			r.Get("/members/{memberID}/profile", MetricsMiddleware(s.profileHandler.HandleGetProfile, "member_profile"))
			r.Get("/summary", MetricsMiddleware(s.profileHandler.HandleSummary, "summary"))
			r.Post("/teams/suggest", MetricsMiddleware(s.teamHandler.HandleSuggest, "suggest_team"))
		})

		r.Post("/invite-codes", MetricsMiddleware(s.inviteHandler.HandleIssue, "issue_invite"))
		r.Post("/invite-codes/resolve", MetricsMiddleware(s.inviteHandler.HandleResolve, "resolve_invite"))
	})
}

// Routes returns a router with every route registered.
func (s *Server) Routes(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// classify maps an error onto an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, apest.ErrUnknownRole),
		errors.Is(err, apest.ErrNegativeScore),
		errors.Is(err, model.ErrUnknownCodeKind):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, assembly.ErrInvalidParameter):
		return http.StatusBadRequest, "invalid_parameter"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrCodeSpace):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// fail writes err with its mapped status; server errors are logged with op.
func fail(ctx context.Context, log logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, status, code, errors.New(http.StatusText(status)))
		return
	}
	writeError(w, status, code, err)
}
