// Package service provides the application service behind the HTTP API and
// the operator CLI: assessments, profiles, team suggestions and invite codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"

	"github.com/okian/apest/internal/adapters/repository"
	"github.com/okian/apest/internal/domain/apest"
	"github.com/okian/apest/internal/domain/assembly"
	"github.com/okian/apest/internal/domain/dedupe"
	"github.com/okian/apest/internal/domain/invite"
	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/internal/domain/profile"
	"github.com/okian/apest/pkg/logger"
	"github.com/okian/apest/pkg/metrics"
)

const (
	defaultDedupeSize  = 100_000
	defaultMaxTeamSize = 50
	maxCodeAttempts    = 5
	dedupeKeySep       = "\x1f"
)

// MemberProfile pairs a stored member with its classification.
type MemberProfile struct {
	Member  model.Member    `json:"member"`
	Profile profile.Profile `json:"profile"`
}

// SuggestedTeam is an assembled team resolved back to church members.
type SuggestedTeam struct {
	Strategy  assembly.Strategy `json:"strategy"`
	Requested int               `json:"requested"`
	Members   []MemberProfile   `json:"members"`
	Aggregate apest.Vector      `json:"aggregate"`
	Profile   profile.Profile   `json:"profile"`
}

// Service implements the use cases of the apest engine.
type Service struct {
	store      repository.Store
	deduper    dedupe.Deduper
	classifier *profile.Classifier
	matcher    *invite.Matcher

	dedupeSize  int
	maxTeamSize int

	newCode func() (string, error)
	newID   func() string
	now     func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the member and invite-code store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClassifier sets the profile classifier, e.g. one with custom thresholds.
func WithClassifier(c *profile.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithMatcher sets the invite-code matcher.
func WithMatcher(m *invite.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithDedupeSize bounds the remembered submission IDs.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxTeamSize caps the size of a suggested team.
func WithMaxTeamSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.maxTeamSize = size
		}
	}
}

// WithCodeGenerator replaces the invite-code generator.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		if gen != nil {
			s.newCode = gen
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service. Without WithStore it keeps everything in memory.
func New(opts ...Option) *Service {
	s := &Service{
		classifier:  profile.NewClassifier(),
		matcher:     invite.NewMatcher(),
		dedupeSize:  defaultDedupeSize,
		maxTeamSize: defaultMaxTeamSize,
		newCode:     shortid.Generate,
		newID:       uuid.NewString,
		now:         time.Now,
		logger:      logger.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	return s
}

// Close releases the underlying store.
func (s *Service) Close() error {
	return s.store.Close()
}

// Classify validates and classifies a single vector.
func (s *Service) Classify(_ context.Context, v apest.Vector) (profile.Profile, error) {
	if err := v.Validate(); err != nil {
		return profile.Profile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	p := s.classifier.Classify(v)
	metrics.RecordClassification(string(p.Type))
	return p, nil
}

// SubmitAssessment stores a questionnaire result as the member's current
// vector. A retried submission ID is acknowledged without a second write and
// reported as duplicate.
func (s *Service) SubmitAssessment(ctx context.Context, sub model.Submission) (MemberProfile, bool, error) {
	if err := validateIDs(sub.ChurchID, sub.MemberID); err != nil {
		return MemberProfile{}, false, err
	}
	if err := sub.Roles.Validate(); err != nil {
		return MemberProfile{}, false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if sub.ID == "" {
		sub.ID = s.newID()
	}

	key := dedupeKey(sub)
	if s.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission ignored",
			logger.String("submissionID", sub.ID),
			logger.String("churchID", sub.ChurchID),
			logger.String("memberID", sub.MemberID),
		)
		mp, err := s.MemberProfile(ctx, sub.ChurchID, sub.MemberID)
		if errors.Is(err, ErrNotFound) {
			// The first write is still in flight; answer with what it will store.
			m := s.memberFrom(sub)
			return MemberProfile{Member: m, Profile: s.classifier.Classify(m.Roles)}, true, nil
		}
		return mp, true, err
	}

	m := s.memberFrom(sub)
	if err := s.store.UpsertMember(ctx, m); err != nil {
		s.deduper.Unrecord(ctx, key)
		s.logger.Error(ctx, "failed to store assessment", logger.Error(err),
			logger.String("churchID", sub.ChurchID),
			logger.String("memberID", sub.MemberID),
		)
		return MemberProfile{}, false, err
	}

	metrics.RecordSubmission()
	metrics.UpdateDedupeSize(s.deduper.Size())
	p := s.classifier.Classify(m.Roles)
	metrics.RecordClassification(string(p.Type))

	s.logger.Info(ctx, "assessment stored",
		logger.String("churchID", m.ChurchID),
		logger.String("memberID", m.ID),
		logger.String("profileType", string(p.Type)),
	)
	return MemberProfile{Member: m, Profile: p}, false, nil
}

// dedupeKey scopes a submission ID to its member, so an ID reused by another
// member is not mistaken for a retry.
func dedupeKey(sub model.Submission) string {
	return strings.Join([]string{sub.ChurchID, sub.MemberID, sub.ID}, dedupeKeySep)
}

func (s *Service) memberFrom(sub model.Submission) model.Member {
	return model.Member{
		ID:        sub.MemberID,
		ChurchID:  sub.ChurchID,
		Name:      sub.Name,
		Roles:     sub.Roles,
		UpdatedAt: s.now().UTC(),
	}
}

// MemberProfile returns one member with its classification.
func (s *Service) MemberProfile(ctx context.Context, churchID, memberID string) (MemberProfile, error) {
	if err := validateIDs(churchID, memberID); err != nil {
		return MemberProfile{}, err
	}
	m, err := s.store.Member(ctx, churchID, memberID)
	if err != nil {
		return MemberProfile{}, translate(err)
	}
	return MemberProfile{Member: m, Profile: s.classifier.Classify(m.Roles)}, nil
}

// MemberProfiles returns every member of a church ordered by member ID.
func (s *Service) MemberProfiles(ctx context.Context, churchID string) ([]MemberProfile, error) {
	if err := validateIDs(churchID); err != nil {
		return nil, err
	}
	members, err := s.store.Members(ctx, churchID)
	if err != nil {
		return nil, translate(err)
	}
	out := make([]MemberProfile, len(members))
	for i, m := range members {
		out[i] = MemberProfile{Member: m, Profile: s.classifier.Classify(m.Roles)}
	}
	return out, nil
}

// ChurchSummary aggregates the current vectors of every member of a church.
func (s *Service) ChurchSummary(ctx context.Context, churchID string) (profile.Summary, error) {
	if err := validateIDs(churchID); err != nil {
		return profile.Summary{}, err
	}
	members, err := s.store.Members(ctx, churchID)
	if err != nil {
		return profile.Summary{}, translate(err)
	}
	vectors := make([]apest.Vector, len(members))
	for i, m := range members {
		vectors[i] = m.Roles
	}
	return s.classifier.Summarize(vectors), nil
}

// SuggestTeam assembles a team from the church members who have a non-zero vector.
func (s *Service) SuggestTeam(ctx context.Context, churchID string, params assembly.Params) (SuggestedTeam, error) {
	if err := validateIDs(churchID); err != nil {
		return SuggestedTeam{}, err
	}
	if params.Size > s.maxTeamSize {
		return SuggestedTeam{}, fmt.Errorf("%w: size %d exceeds the maximum of %d",
			assembly.ErrInvalidParameter, params.Size, s.maxTeamSize)
	}
	if err := params.Validate(); err != nil {
		return SuggestedTeam{}, err
	}

	members, err := s.store.Members(ctx, churchID)
	if err != nil {
		return SuggestedTeam{}, translate(err)
	}
	byID := make(map[string]model.Member, len(members))
	pool := make([]assembly.Candidate, 0, len(members))
	for _, m := range members {
		if m.Roles.IsZero() {
			continue
		}
		byID[m.ID] = m
		pool = append(pool, assembly.Candidate{ID: m.ID, Roles: m.Roles})
	}

	start := time.Now()
	team, err := assembly.Assemble(pool, params)
	if err != nil {
		return SuggestedTeam{}, err
	}
	elapsed := float64(time.Since(start).Microseconds()) / 1000

	strategy := assembly.StrategyFor(params.BalanceFactor)
	metrics.RecordAssembly(string(strategy), params.Priority != apest.RoleNone, elapsed, len(team.Members) < params.Size)

	out := SuggestedTeam{
		Strategy:  strategy,
		Requested: params.Size,
		Members:   make([]MemberProfile, len(team.Members)),
		Aggregate: team.Aggregate,
		Profile:   s.classifier.Classify(team.Aggregate),
	}
	for i, c := range team.Members {
		m := byID[c.ID]
		out.Members[i] = MemberProfile{Member: m, Profile: s.classifier.Classify(m.Roles)}
	}

	s.logger.Info(ctx, "team suggested",
		logger.String("churchID", churchID),
		logger.String("strategy", string(strategy)),
		logger.Int("requested", params.Size),
		logger.Int("selected", len(out.Members)),
		logger.Int("pool", len(pool)),
	)
	return out, nil
}

// IssueInviteCode generates and stores a fresh code for a team or church.
func (s *Service) IssueInviteCode(ctx context.Context, kind model.CodeKind, entityID string) (model.InviteCode, error) {
	if _, err := model.ParseCodeKind(string(kind)); err != nil {
		return model.InviteCode{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := validateIDs(entityID); err != nil {
		return model.InviteCode{}, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return model.InviteCode{}, fmt.Errorf("generate invite code: %w", err)
		}
		c := model.InviteCode{Kind: kind, EntityID: entityID, Code: code, CreatedAt: s.now().UTC()}
		err = s.store.PutCode(ctx, c)
		if errors.Is(err, repository.ErrCodeExists) {
			s.logger.Warn(ctx, "invite code collision", logger.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return model.InviteCode{}, err
		}
		metrics.RecordInviteIssued(string(kind))
		return c, nil
	}
	return model.InviteCode{}, fmt.Errorf("%w after %d attempts", ErrCodeSpace, maxCodeAttempts)
}

// ResolveInviteCode resolves a hand-typed code against every code of kind.
func (s *Service) ResolveInviteCode(ctx context.Context, kind model.CodeKind, input string) (invite.Match, error) {
	if _, err := model.ParseCodeKind(string(kind)); err != nil {
		return invite.Match{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	codes, err := s.store.Codes(ctx, kind)
	if err != nil {
		return invite.Match{}, err
	}
	index := make([]invite.Entry, len(codes))
	for i, c := range codes {
		index[i] = invite.Entry{EntityID: c.EntityID, Code: c.Code}
	}

	match, ok := s.matcher.Resolve(input, index)
	if !ok {
		metrics.RecordInviteResolution(string(kind), "none")
		return invite.Match{}, fmt.Errorf("%w: no %s code matches %q", ErrNotFound, kind, input)
	}
	metrics.RecordInviteResolution(string(kind), string(match.Tier))
	return match, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	balanced, specialized := s.classifier.Thresholds()
	stats := map[string]any{
		"dedupeSize":       s.dedupeSize,
		"dedupeEntries":    s.deduper.Size(),
		"maxTeamSize":      s.maxTeamSize,
		"balancedBelow":    balanced,
		"specializedAbove": specialized,
		"fuzzyThreshold":   s.matcher.Threshold(),
	}

	if n, err := s.store.CountMembers(ctx); err == nil {
		stats["totalMembers"] = n
		metrics.UpdateMembersTotal(n)
	} else {
		s.logger.Warn(ctx, "failed to count members", logger.Error(err))
	}
	metrics.UpdateDedupeSize(s.deduper.Size())

	return stats
}

func validateIDs(ids ...string) error {
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: identifier must not be empty", ErrInvalidInput)
		}
	}
	return nil
}

// translate maps store errors onto service kinds.
func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return err
}
