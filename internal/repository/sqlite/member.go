package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/security"
)

const memberColumns = `id, login_id, name, email, password_hash, created_at, updated_at`

// MemberRepository implements domain.MemberRepository using SQLite.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a new SQLite-backed MemberRepository.
func NewMemberRepository(db *DB) *MemberRepository {
	return &MemberRepository{db: db.SqlDB}
}

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
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO members (login_id, name, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		member.LoginID, member.Name, member.Email, member.PasswordHash, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateLoginID
		}
		return fmt.Errorf("insert member: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	member.ID = id
	member.CreatedAt = now
	member.UpdatedAt = now
	return nil
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query member by id: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) GetByLoginID(ctx context.Context, loginID string) (*domain.Member, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE login_id = ?`, loginID)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query member by login id: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE members SET password_hash = ?, updated_at = ? WHERE id = ?`,
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

func scanMember(row *sql.Row) (*domain.Member, error) {
	m := &domain.Member{}
	if err := row.Scan(&m.ID, &m.LoginID, &m.Name, &m.Email, &m.PasswordHash, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
