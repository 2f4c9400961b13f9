package handler

import (
	"net/http"

	"github.com/msomdec/member-login/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. Both login
// endpoints share loginLimiter.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, loginLimiter *service.TokenBucket, db Pinger, cookieSecure bool) {
	authHandler := NewAuthHandler(auth, cookieSecure)
	health := NewHealthHandler(db)

	mux.HandleFunc("GET /healthz", health.HandleHealthz)

	mux.Handle("POST /api/auth/login", RateLimit(loginLimiter, RejectJSON, http.HandlerFunc(authHandler.HandleLogin)))
	mux.HandleFunc("POST /api/auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)
	mux.Handle("GET /api/auth/me", RequireAuth(auth, http.HandlerFunc(authHandler.HandleMe)))
	mux.Handle("POST /api/auth/password", RequireAuth(auth, http.HandlerFunc(authHandler.HandleChangePassword)))

	mux.Handle("GET /login", OptionalAuth(auth, http.HandlerFunc(HandleLoginPage)))
	mux.Handle("POST /login", RateLimit(loginLimiter, RejectLoginSSE, http.HandlerFunc(authHandler.HandleLoginSSE)))
	mux.HandleFunc("POST /logout", authHandler.HandleLogoutForm)
	mux.Handle("GET /{$}", OptionalAuth(auth, http.HandlerFunc(HandleHome)))
}
