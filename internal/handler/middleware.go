package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"net/http"

	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/service"
	"github.com/msomdec/member-login/internal/view"
	datastar "github.com/starfederation/datastar-go/datastar"
)

type contextKey string

const memberContextKey contextKey = "member"

const (
	tooManyAttempts   = "Too many attempts. Please wait and try again."
	retryAfterSeconds = "60"
)

// MemberFromContext extracts the authenticated member from the request context.
// Returns nil if no member is authenticated.
func MemberFromContext(ctx context.Context) *domain.Member {
	member, _ := ctx.Value(memberContextKey).(*domain.Member)
	return member
}

// RequireAuth is middleware that protects routes requiring authentication.
// It reads the auth_token cookie, validates the JWT, loads the member, and
// injects it into the request context. Returns 401 for unauthenticated requests.
func RequireAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		member, err := authenticateRequest(r, auth)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}

		ctx := context.WithValue(r.Context(), memberContextKey, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth is middleware that attempts to authenticate but does not block
// unauthenticated requests.
func OptionalAuth(auth *service.AuthService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if member, err := authenticateRequest(r, auth); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), memberContextKey, member))
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit passes requests to next while the client's bucket has tokens
// and to reject once it is empty.
func RateLimit(limiter *service.TokenBucket, reject http.HandlerFunc, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow(clientIP(r)) {
			slog.Warn("rate limited", "path", r.URL.Path, "remote", clientIP(r))
			reject(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RejectJSON answers a rate-limited API request with 429.
func RejectJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", retryAfterSeconds)
	writeError(w, http.StatusTooManyRequests, tooManyAttempts)
}

// RejectLoginSSE answers a rate-limited datastar form post by patching the
// login error slot.
func RejectLoginSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", retryAfterSeconds)
	sse := datastar.NewSSE(w, r)
	if err := sse.PatchElementTempl(view.LoginError(tooManyAttempts)); err != nil {
		slog.Error("patch rate limit error", "error", err)
	}
}

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self' https://cdn.jsdelivr.net 'unsafe-eval'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

func authenticateRequest(r *http.Request, auth *service.AuthService) (*domain.Member, error) {
	cookie, err := r.Cookie(authCookieName)
	if err != nil {
		return nil, err
	}

	memberID, err := auth.ValidateToken(cookie.Value)
	if err != nil {
		return nil, err
	}

	return auth.GetMemberByID(r.Context(), memberID)
}

// clientIP returns the host part of RemoteAddr. Forwarded headers are not
// trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loginIDFingerprint identifies a submitted login ID in logs without
// recording the raw, user-controlled text.
func loginIDFingerprint(loginID string) string {
	sum := sha256.Sum256([]byte(loginID))
	return hex.EncodeToString(sum[:6])
}
