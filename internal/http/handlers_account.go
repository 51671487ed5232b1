package http

import (
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/guard"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

type accountData struct {
	User   core.User
	Themes []string
}

func (s *Server) loadUser(w http.ResponseWriter, r *http.Request) (core.User, bool) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return core.User{}, false
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	u, err := s.api.GetUser(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpRead, "user", err)
		return core.User{}, false
	}
	if !validTheme(u.Theme) {
		u.Theme = s.theme(r)
	}
	s.themes.Set(userID, u.Theme)
	return u, true
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := s.loadUser(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "profile_page", s.pageFor(r, "Profile", "profile", accountData{User: u}))
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	u, ok := s.loadUser(w, r)
	if !ok {
		return
	}
	data := accountData{User: u, Themes: themes}
	s.render(w, r, http.StatusOK, "settings_page", s.pageFor(r, "Settings", "settings", data))
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	current, err := s.api.GetUser(ctx, userID)
	if err != nil {
		s.handleAPIError(w, r, log.OpRead, "user", err)
		return
	}
	u, err := applySettings(current, r)
	if err != nil {
		p := s.pageFor(r, "Settings", "settings", accountData{User: current, Themes: themes})
		p.Error = "Invalid data: " + err.Error()
		s.render(w, r, http.StatusUnprocessableEntity, "settings_page", p)
		return
	}
	if err := s.api.UpdateUser(ctx, userID, u); err != nil {
		s.handleAPIError(w, r, log.OpUpdate, "user", err)
		return
	}
	s.themes.Set(userID, u.Theme)

	guard.Redirect(w, r, "/settings?flash=updated")
}

// applySettings copies the settings form onto u. Blank amounts reset the
// goal and limit to zero. The password is only sent when a new one is
// entered, and it must match its confirmation.
func applySettings(u core.User, r *http.Request) (core.User, error) {
	u.FullName = sanitizeInput(r.PostForm.Get("fullName"))
	u.Email = sanitizeInput(r.PostForm.Get("email"))
	u.Password = r.PostForm.Get("password")
	if u.Password != "" && u.Password != r.PostForm.Get("confirmPassword") {
		return u, core.ErrPasswordMismatch
	}

	var err error
	if u.SavingsGoal, err = optionalMoney(r.PostForm.Get("savingsGoal")); err != nil {
		return u, fmt.Errorf("savings goal: %w", err)
	}
	if u.ExpenseLimit, err = optionalMoney(r.PostForm.Get("expenseLimit")); err != nil {
		return u, fmt.Errorf("expense limit: %w", err)
	}
	if t := r.PostForm.Get("theme"); validTheme(t) {
		u.Theme = t
	}
	return u, u.Validate()
}

func optionalMoney(s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	return core.ParseMoneyAllowZero(s)
}

// handleDeleteAccount removes the account on the API and ends the session.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireSubject(w, r)
	if !ok {
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	if err := s.api.DeleteUser(ctx, userID); err != nil {
		s.handleAPIError(w, r, log.OpDelete, "user", err)
		return
	}
	log.FromContext(ctx).InfoContext(ctx, "Account deleted", log.FieldOperation, log.OpDelete, log.FieldResource, "user")

	if err := session.FromContext(ctx).Logout(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Logout failed", log.FieldError, err)
	}
	guard.Redirect(w, r, s.guard.LoginPath())
}
