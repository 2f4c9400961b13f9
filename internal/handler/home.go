package handler

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/member-login/internal/view"
)

// HandleHome renders the home page.
func HandleHome(w http.ResponseWriter, r *http.Request) {
	name := ""
	if member := MemberFromContext(r.Context()); member != nil {
		name = member.Name
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.HomePage(name).Render(r.Context(), w); err != nil {
		slog.Error("render home page", "error", err)
	}
}

// HandleLoginPage renders the sign-in form.
func HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if MemberFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.LoginPage().Render(r.Context(), w); err != nil {
		slog.Error("render login page", "error", err)
	}
}
