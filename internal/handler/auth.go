package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/msomdec/member-login/internal/domain"
	"github.com/msomdec/member-login/internal/service"
	"github.com/msomdec/member-login/internal/view"
	datastar "github.com/starfederation/datastar-go/datastar"
)

const (
	authCookieName = "auth_token"
	authCookieAge  = 86400 // 24 hours, matches the token lifetime
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

type loginRequest struct {
	LoginID  string `json:"loginId"`
	Password string `json:"password"`
}

// HandleLogin processes a JSON login request.
// POST /api/auth/login
// Request:  {"loginId":"...","password":"..."}
// Response: {"member": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	token, member, err := h.auth.Login(r.Context(), req.LoginID, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			slog.Info("login rejected", "login_id_sha", loginIDFingerprint(req.LoginID), "remote", clientIP(r))
			writeError(w, http.StatusUnauthorized, "Invalid ID or password.")
			return
		}
		slog.Error("login member", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		return
	}

	h.setAuthCookie(w, token)
	slog.Info("member logged in", "member_id", member.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"member": toMemberDTO(member),
	})
}

// HandleLoginSSE processes the datastar login form. Failures patch the
// error slot; success sets the cookie and redirects home.
// POST /login
func (h *AuthHandler) HandleLoginSSE(w http.ResponseWriter, r *http.Request) {
	var signals loginRequest
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	token, member, err := h.auth.Login(r.Context(), signals.LoginID, signals.Password)
	if err != nil {
		msg := "Invalid ID or password."
		if !errors.Is(err, domain.ErrUnauthorized) {
			slog.Error("login member", "error", err)
			msg = "An unexpected error occurred. Please try again."
		} else {
			slog.Info("login rejected", "login_id_sha", loginIDFingerprint(signals.LoginID), "remote", clientIP(r))
		}
		sse := datastar.NewSSE(w, r)
		if err := sse.PatchElementTempl(view.LoginError(msg)); err != nil {
			slog.Error("patch login error", "error", err)
		}
		return
	}

	// The cookie must be set before the SSE stream flushes headers.
	h.setAuthCookie(w, token)
	slog.Info("member logged in", "member_id", member.ID)
	sse := datastar.NewSSE(w, r)
	if err := sse.Redirect("/"); err != nil {
		slog.Error("redirect after login", "error", err)
	}
}

// HandleRegister processes a JSON registration request.
// POST /api/auth/register
// Request:  {"loginId":"...","name":"...","email":"...","password":"...","confirmPassword":"..."}
// Response: {"member": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LoginID         string `json:"loginId"`
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	member, err := h.auth.Register(r.Context(), req.LoginID, req.Name, req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateLoginID):
			writeError(w, http.StatusConflict, "That ID is already taken.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("register member", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	slog.Info("member registered", "member_id", member.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"member": toMemberDTO(member),
	})
}

// HandleLogout clears the auth cookie.
// POST /api/auth/logout
// Response: 204 No Content
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogoutForm clears the auth cookie and redirects home.
// POST /logout
func (h *AuthHandler) HandleLogoutForm(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe returns the currently authenticated member.
// GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	member := MemberFromContext(r.Context())
	if member == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"member": toMemberDTO(member),
	})
}

// HandleChangePassword updates the authenticated member's password.
// POST /api/auth/password
// Request:  {"currentPassword":"...","newPassword":"...","confirmPassword":"..."}
// Response: 204 No Content
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	member := MemberFromContext(r.Context())
	if member == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	err := h.auth.ChangePassword(r.Context(), member.ID, req.CurrentPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Current password is incorrect.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("change password", "member_id", member.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	slog.Info("member password changed", "member_id", member.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   authCookieAge,
	})
}

func (h *AuthHandler) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
