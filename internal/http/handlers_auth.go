package http

import (
	"errors"
	"net/http"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/guard"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

type loginForm struct {
	Username string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).IsAuthenticated() {
		s.redirectToDashboard(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "login_page", page{Title: "Sign in", Data: loginForm{}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()
	logger := log.FromContext(ctx).WithComponent(log.ComponentAuth)

	form := loginForm{Username: sanitizeInput(r.PostForm.Get("username"))}
	password := r.PostForm.Get("password")
	retry := func(status int, msg string) {
		s.render(w, r, status, "login_page", page{Title: "Sign in", Error: msg, Data: form})
	}

	if form.Username == "" || password == "" {
		retry(http.StatusUnprocessableEntity, "Enter your username and password.")
		return
	}

	token, err := s.api.Authenticate(ctx, form.Username, password)
	switch {
	case errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrNotFound):
		logger.InfoContext(ctx, "Sign in rejected", log.FieldOperation, log.OpLogin, log.FieldSuccess, false)
		retry(http.StatusUnauthorized, "Invalid username or password.")
		return
	case err != nil:
		logger.WarnContext(ctx, "Sign in failed", log.FieldOperation, log.OpLogin, log.FieldError, err)
		retry(statusFor(err), api.UserMessage(err))
		return
	}

	store := session.FromContext(ctx)
	if err := store.Login(ctx, token); err != nil {
		logger.ErrorContext(ctx, "Could not start session", log.FieldOperation, log.OpLogin, log.FieldError, err)
		retry(http.StatusBadGateway, "The finance service answered without a usable session. Please try again.")
		return
	}
	logger.InfoContext(ctx, "Signed in", log.FieldOperation, log.OpLogin, log.FieldSuccess, true)

	if id := store.State().Subject; id != "" {
		if u, err := s.api.GetUser(ctx, id); err == nil && validTheme(u.Theme) {
			s.themes.Set(id, u.Theme)
		}
	}

	s.redirectToDashboard(w, r)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register_page", page{Title: "Register", Data: core.Registration{}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx, cancel := apiContext(r)
	defer cancel()

	reg := core.Registration{
		FullName: sanitizeInput(r.PostForm.Get("fullName")),
		Username: sanitizeInput(r.PostForm.Get("username")),
		Email:    sanitizeInput(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	retry := func(status int, msg string) {
		form := reg
		form.Password = ""
		s.render(w, r, status, "register_page", page{Title: "Register", Error: msg, Data: form})
	}

	if err := reg.Validate(); err != nil {
		retry(http.StatusUnprocessableEntity, "Invalid data: "+err.Error())
		return
	}
	if err := s.api.Register(ctx, reg); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Registration failed",
			log.FieldOperation, log.OpCreate,
			log.FieldResource, "user",
			log.FieldError, err)
		retry(statusFor(err), api.UserMessage(err))
		return
	}

	guard.Redirect(w, r, s.guard.LoginPath()+"?flash=registered")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	if err := session.FromContext(ctx).Logout(ctx); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Logout failed", log.FieldOperation, log.OpLogout, log.FieldError, err)
	}
	guard.Redirect(w, r, s.guard.LoginPath()+"?flash=logout")
}
