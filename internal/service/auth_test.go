package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/repository/sqlite"
	"github.com/msomdec/member-login/internal/service"
)

const testJWTSecret = "test-secret-key-for-unit-tests"

func newTestAuthService(t *testing.T) *service.AuthService {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// Use cost 4 for fast tests.
	return service.NewAuthService(db.Members(), testJWTSecret, 4)
}

func mustRegister(t *testing.T, auth *service.AuthService, loginID, password string) *domain.Member {
	t.Helper()
	member, err := auth.Register(context.Background(), loginID, "Member "+loginID, "", password, password)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return member
}

func TestAuthService_Register_Success(t *testing.T) {
	auth := newTestAuthService(t)

	member, err := auth.Register(context.Background(), "  hong  ", "Hong Gildong", "hong@example.com", "password123", "password123")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if member.ID == 0 {
		t.Fatal("expected member ID to be set")
	}
	if member.LoginID != "hong" {
		t.Fatalf("expected trimmed login id, got %q", member.LoginID)
	}
	if member.PasswordHash == "password123" {
		t.Fatal("password must not be stored in plaintext")
	}
}

func TestAuthService_Register_DuplicateLoginID(t *testing.T) {
	auth := newTestAuthService(t)
	mustRegister(t, auth, "dup", "password123")

	_, err := auth.Register(context.Background(), "dup", "Other", "", "password456", "password456")
	if !errors.Is(err, domain.ErrDuplicateLoginID) {
		t.Fatalf("expected ErrDuplicateLoginID, got %v", err)
	}
}

func TestAuthService_Register_Invalid(t *testing.T) {
	auth := newTestAuthService(t)

	tests := []struct {
		name     string
		loginID  string
		display  string
		email    string
		password string
		confirm  string
	}{
		{"empty login id", "", "Name", "", "password123", "password123"},
		{"blank login id", "   ", "Name", "", "password123", "password123"},
		{"empty name", "id", "", "", "password123", "password123"},
		{"empty password", "id", "Name", "", "", ""},
		{"short password", "id", "Name", "", "short", "short"},
		{"mismatch", "id", "Name", "", "password123", "different456"},
		{"bad email", "id", "Name", "not-an-email", "password123", "password123"},
		{"long login id", strings.Repeat("a", 65), "Name", "", "password123", "password123"},
		{"long password", "id", "Name", "", strings.Repeat("p", 73), strings.Repeat("p", 73)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Register(context.Background(), tc.loginID, tc.display, tc.email, tc.password, tc.confirm)
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	auth := newTestAuthService(t)
	registered := mustRegister(t, auth, "auth", "password123")

	member, err := auth.Authenticate(context.Background(), "auth", "password123")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if member.ID != registered.ID {
		t.Fatalf("expected member %d, got %d", registered.ID, member.ID)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	auth := newTestAuthService(t)
	registered := mustRegister(t, auth, "login", "password123")

	token, member, err := auth.Login(context.Background(), "login", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
	if member.ID != registered.ID {
		t.Fatalf("expected member %d, got %d", registered.ID, member.ID)
	}
}

func TestAuthService_Login_Rejected(t *testing.T) {
	auth := newTestAuthService(t)
	mustRegister(t, auth, "login", "password123")

	tests := []struct {
		name     string
		loginID  string
		password string
	}{
		{"wrong password", "login", "wrongpassword"},
		{"unknown login id", "nobody", "password123"},
		{"empty password", "login", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := auth.Login(context.Background(), tc.loginID, tc.password)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuthService_JWT_GenerateAndValidate(t *testing.T) {
	auth := newTestAuthService(t)
	member := mustRegister(t, auth, "jwt", "password123")

	token, _, err := auth.Login(context.Background(), "jwt", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	memberID, err := auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if memberID != member.ID {
		t.Fatalf("expected member ID %d, got %d", member.ID, memberID)
	}
}

func TestAuthService_JWT_InvalidToken(t *testing.T) {
	auth := newTestAuthService(t)

	_, err := auth.ValidateToken("not-a-valid-jwt")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAuthService_JWT_TamperedToken(t *testing.T) {
	auth := newTestAuthService(t)
	mustRegister(t, auth, "tamper", "password123")

	token, _, err := auth.Login(context.Background(), "tamper", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	tampered := token[:len(token)-5] + "XXXXX"
	if _, err := auth.ValidateToken(tampered); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for tampered token, got %v", err)
	}
}

func TestAuthService_JWT_WrongSecret(t *testing.T) {
	other := service.NewAuthService(nil, "different-secret", 4)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := other.ValidateToken(signed); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong secret, got %v", err)
	}
}

func TestAuthService_JWT_Expired(t *testing.T) {
	auth := service.NewAuthService(nil, testJWTSecret, 4)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := auth.ValidateToken(signed); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestAuthService_JWT_MissingExpiry(t *testing.T) {
	auth := service.NewAuthService(nil, testJWTSecret, 4)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := auth.ValidateToken(signed); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for token without exp, got %v", err)
	}
}

func TestAuthService_ChangePassword(t *testing.T) {
	auth := newTestAuthService(t)
	ctx := context.Background()
	member := mustRegister(t, auth, "change", "password123")

	err := auth.ChangePassword(ctx, member.ID, "wrongpassword", "newpassword456", "newpassword456")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong current password, got %v", err)
	}

	err = auth.ChangePassword(ctx, member.ID, "password123", "short", "short")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}

	if err := auth.ChangePassword(ctx, member.ID, "password123", "newpassword456", "newpassword456"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := auth.Login(ctx, "change", "password123"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected old password rejected, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "change", "newpassword456"); err != nil {
		t.Fatalf("expected new password accepted, got %v", err)
	}
}

func TestAuthService_ChangePassword_UnknownMember(t *testing.T) {
	auth := newTestAuthService(t)

	err := auth.ChangePassword(context.Background(), 99999, "password123", "newpassword456", "newpassword456")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
