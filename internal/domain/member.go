package domain

import (
	"context"
	"time"
)

// Member represents a registered member who can sign in with a login ID
// and password.
type Member struct {
	ID           int64
	LoginID      string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MemberRepository defines persistence operations for members.
type MemberRepository interface {
	// Login returns the member whose login ID and password both match.
	// It returns ErrNotFound when either does not.
	Login(ctx context.Context, loginID, password string) (*Member, error)
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByLoginID(ctx context.Context, loginID string) (*Member, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}
