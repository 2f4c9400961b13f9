package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/security"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

const memberColumns = `id, login_id, name, email, password_hash, created_at, updated_at`

// MemberRepository implements domain.MemberRepository using PostgreSQL.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new PostgreSQL-backed MemberRepository.
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db.SqlDB}
}

var _ domain.MemberRepository = (*MemberRepository)(nil)

// Login looks the member up by login ID and checks the password against the
// stored hash. Unknown IDs and wrong passwords both yield domain.ErrNotFound
// after the same bcrypt work.
func (r *MemberRepository) Login(ctx context.Context, loginID, password string) (*domain.Member, error) {
	if loginID == "" || password == "" {
		return nil, domain.ErrNotFound
	}

	member, err := r.GetByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			security.VerifyDummy(password)
		}
		return nil, err
	}

	ok, err := security.Verify(password, member.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for member %d: %w", member.ID, err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return member, nil
}

func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO members (login_id, name, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		member.LoginID, member.Name, member.Email, member.PasswordHash, now, now,
	).Scan(&member.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return domain.ErrDuplicateLoginID
		}
		return fmt.Errorf("insert member: %w", err)
	}

	member.CreatedAt = now
	member.UpdatedAt = now
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	return r.getOne(ctx, "id", `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
}

func (r *MemberRepository) GetByLoginID(ctx context.Context, loginID string) (*domain.Member, error) {
	return r.getOne(ctx, "login id", `SELECT `+memberColumns+` FROM members WHERE login_id = $1`, loginID)
}

func (r *MemberRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE members SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update member password: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MemberRepository) getOne(ctx context.Context, by, query string, arg any) (*domain.Member, error) {
	m := &domain.Member{}
	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&m.ID, &m.LoginID, &m.Name, &m.Email, &m.PasswordHash, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query member by %s: %w", by, err)
	}
	return m, nil
}
