// Package repository defines the member and invite-code store interfaces
// and provides the in-memory implementation.
package repository

import (
	"context"

	"github.com/okian/apest/internal/domain/model"
)

// MemberStore persists members and their latest role vectors.
type MemberStore interface {
	// UpsertMember creates or replaces a member within its church.
	UpsertMember(ctx context.Context, m model.Member) error

	// Member returns one member. Returns ErrNotFound if unknown.
	Member(ctx context.Context, churchID, memberID string) (model.Member, error)

	// Members returns every member of a church ordered by member ID.
	// An unknown church yields an empty slice.
	Members(ctx context.Context, churchID string) ([]model.Member, error)

	// CountMembers returns the number of members across all churches.
	CountMembers(ctx context.Context) (int, error)
}

// CodeStore persists invite codes.
type CodeStore interface {
	// PutCode stores a new code. Returns ErrCodeExists if the code is
	// already taken for that kind.
	PutCode(ctx context.Context, c model.InviteCode) error

	// Codes returns a snapshot of every code of kind, oldest first.
	Codes(ctx context.Context, kind model.CodeKind) ([]model.InviteCode, error)
}

// Store combines both stores with a lifecycle hook.
type Store interface {
	MemberStore
	CodeStore
	Close() error
}
