// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/apest/internal/domain/apest"
)

// Member is a church member together with their latest role vector.
type Member struct {
	ID        string       `json:"id"`
	ChurchID  string       `json:"church_id"`
	Name      string       `json:"name,omitempty"`
	Roles     apest.Vector `json:"roles"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Submission is a completed questionnaire for one member.
type Submission struct {
	ID       string       // idempotency key; generated when empty
	ChurchID string       // church the member belongs to
	MemberID string       // member identifier within the church
	Name     string       // optional display name
	Roles    apest.Vector // questionnaire result
}

// CodeKind distinguishes team invitations from church invitations.
type CodeKind string

// Code kinds.
const (
	CodeKindTeam   CodeKind = "team"
	CodeKindChurch CodeKind = "church"
)

// ParseCodeKind validates a code kind name.
func ParseCodeKind(s string) (CodeKind, error) {
	switch k := CodeKind(strings.ToLower(strings.TrimSpace(s))); k {
	case CodeKindTeam, CodeKindChurch:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCodeKind, s)
	}
}

// InviteCode is a join code issued for a team or a church.
type InviteCode struct {
	Kind      CodeKind  `json:"kind"`
	EntityID  string    `json:"entity_id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}
