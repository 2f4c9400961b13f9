package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/security"
)

const (
	minPasswordLength = 8
	maxLoginIDLength  = 64
	tokenLifetime     = 24 * time.Hour
)

// AuthService handles member registration, login, and JWT token operations.
type AuthService struct {
	members    domain.MemberRepository
	jwtSecret  []byte
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(members domain.MemberRepository, jwtSecret string, bcryptCost int) *AuthService {
	return &AuthService{
		members:    members,
		jwtSecret:  []byte(jwtSecret),
		bcryptCost: bcryptCost,
	}
}

// Register creates a new member account after validating inputs.
// Email is optional; when given it must parse as an address.
func (s *AuthService) Register(ctx context.Context, loginID, name, email, password, confirmPassword string) (*domain.Member, error) {
	loginID = strings.TrimSpace(loginID)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if loginID == "" || name == "" || password == "" {
		return nil, fmt.Errorf("%w: login id, name, and password are required", domain.ErrInvalidInput)
	}
	if len(loginID) > maxLoginIDLength {
		return nil, fmt.Errorf("%w: login id must be at most %d characters", domain.ErrInvalidInput, maxLoginIDLength)
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
		}
	}
	if err := s.checkNewPassword(password, confirmPassword); err != nil {
		return nil, err
	}

	hash, err := security.Hash(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		LoginID:      loginID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}
	return member, nil
}

// Authenticate returns the member matching the given login ID and password.
// Any mismatch is reported as domain.ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, loginID, password string) (*domain.Member, error) {
	member, err := s.members.Login(ctx, strings.TrimSpace(loginID), password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("login member: %w", err)
	}
	return member, nil
}

// Login verifies credentials and returns the member with a signed JWT.
func (s *AuthService) Login(ctx context.Context, loginID, password string) (string, *domain.Member, error) {
	member, err := s.Authenticate(ctx, loginID, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateJWT(member)
	if err != nil {
		return "", nil, fmt.Errorf("generate jwt: %w", err)
	}
	return token, member, nil
}

// ValidateToken parses and validates a JWT token string.
// Returns the member ID from the sub claim.
func (s *AuthService) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, domain.ErrUnauthorized
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, domain.ErrUnauthorized
	}

	memberID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, domain.ErrUnauthorized
	}
	return memberID, nil
}

// GetMemberByID retrieves a member by their ID.
func (s *AuthService) GetMemberByID(ctx context.Context, id int64) (*domain.Member, error) {
	return s.members.GetByID(ctx, id)
}

// ChangePassword replaces a member's password after re-checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, memberID int64, current, next, confirm string) error {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}

	if _, err := s.Authenticate(ctx, member.LoginID, current); err != nil {
		return err
	}
	if err := s.checkNewPassword(next, confirm); err != nil {
		return err
	}

	hash, err := security.Hash(next, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.members.UpdatePassword(ctx, memberID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *AuthService) checkNewPassword(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	// bcrypt ignores everything past 72 bytes.
	if len(password) > 72 {
		return fmt.Errorf("%w: password must be at most 72 bytes", domain.ErrInvalidInput)
	}
	return nil
}

func (s *AuthService) generateJWT(member *domain.Member) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(member.ID, 10),
		"login_id": member.LoginID,
		"name":     member.Name,
		"iat":      now.Unix(),
		"exp":      now.Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
