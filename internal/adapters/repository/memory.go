package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/okian/apest/internal/domain/model"
	"github.com/okian/apest/pkg/metrics"
)

type memoryStore struct {
	mu      sync.RWMutex
	members map[string]map[string]model.Member // church -> member -> record
	count   int

	codes    map[model.CodeKind][]model.InviteCode // creation order
	codeKeys map[model.CodeKind]map[string]struct{}
}

// NewMemoryStore returns a Store kept entirely in process memory.
func NewMemoryStore() Store {
	return &memoryStore{
		members:  make(map[string]map[string]model.Member),
		codes:    make(map[model.CodeKind][]model.InviteCode),
		codeKeys: make(map[model.CodeKind]map[string]struct{}),
	}
}

func (s *memoryStore) UpsertMember(ctx context.Context, m model.Member) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer observe("upsert_member", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	church, ok := s.members[m.ChurchID]
	if !ok {
		church = make(map[string]model.Member)
		s.members[m.ChurchID] = church
	}
	if _, exists := church[m.ID]; !exists {
		s.count++
	}
	church[m.ID] = m
	return nil
}

func (s *memoryStore) Member(ctx context.Context, churchID, memberID string) (model.Member, error) {
	if err := ctx.Err(); err != nil {
		return model.Member{}, err
	}
	start := time.Now()
	defer observe("member", start)

	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[churchID][memberID]
	if !ok {
		return model.Member{}, fmt.Errorf("%w: member %s/%s", ErrNotFound, churchID, memberID)
	}
	return m, nil
}

func (s *memoryStore) Members(ctx context.Context, churchID string) ([]model.Member, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer observe("members", start)

	s.mu.RLock()
	church := s.members[churchID]
	out := make([]model.Member, 0, len(church))
	for _, m := range church {
		out = append(out, m)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b model.Member) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *memoryStore) CountMembers(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

func (s *memoryStore) PutCode(ctx context.Context, c model.InviteCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer observe("put_code", start)

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.codeKeys[c.Kind]
	if !ok {
		keys = make(map[string]struct{})
		s.codeKeys[c.Kind] = keys
	}
	if _, taken := keys[c.Code]; taken {
		metrics.RecordRepositoryError("put_code")
		return fmt.Errorf("%w: %s %q", ErrCodeExists, c.Kind, c.Code)
	}
	keys[c.Code] = struct{}{}
	s.codes[c.Kind] = append(s.codes[c.Kind], c)
	return nil
}

func (s *memoryStore) Codes(ctx context.Context, kind model.CodeKind) ([]model.InviteCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer observe("codes", start)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.codes[kind]), nil
}

func (s *memoryStore) Close() error { return nil }

// observe records the latency of a store operation in milliseconds.
func observe(op string, start time.Time) {
	metrics.RecordRepositoryLatency(op, float64(time.Since(start).Microseconds())/1000)
}
