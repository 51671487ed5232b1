package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"fintrack/internal/api"
	"fintrack/internal/core"
	"fintrack/internal/guard"
	"fintrack/internal/log"
	"fintrack/internal/session"
)

// apiTimeout bounds the remote calls made for one request.
const apiTimeout = 15 * time.Second

func apiContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), apiTimeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a finance API failure to the status of our own answer.
func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, api.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, api.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// handleAPIError answers a failed finance API call. A rejected token ends
// the session and sends the user to the login page.
func (s *Server) handleAPIError(w http.ResponseWriter, r *http.Request, op, resource string, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if errors.Is(err, api.ErrUnauthorized) {
		logger.WarnContext(ctx, "Finance API rejected the session token",
			log.FieldOperation, op,
			log.FieldResource, resource,
			log.FieldError, err)
		if lerr := session.FromContext(ctx).Logout(ctx); lerr != nil {
			logger.ErrorContext(ctx, "Logout failed", log.FieldError, lerr)
		}
		guard.Redirect(w, r, s.guard.LoginPath())
		return
	}

	status := statusFor(err)
	args := []any{
		log.FieldOperation, op,
		log.FieldResource, resource,
		log.FieldStatusCode, status,
		log.FieldError, err,
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "Finance API call failed", args...)
	} else {
		logger.WarnContext(ctx, "Finance API call rejected", args...)
	}

	s.fail(w, r, status, api.UserMessage(err))
}

// fail reports msg: htmx requests get an error fragment in the form error
// box, plain requests an error page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if isHTMX(r) {
		ErrorResponse(status, msg).
			Retarget("#form-errors").
			TriggerErrorNotification(msg).
			Write(w)
		return
	}
	s.render(w, r, status, "error_page", page{
		Title:         msg,
		Authenticated: session.FromContext(r.Context()).IsAuthenticated(),
		Theme:         s.theme(r),
	})
}

// invalid reports a form the user has to correct.
func (s *Server) invalid(w http.ResponseWriter, r *http.Request, err error) {
	s.fail(w, r, http.StatusUnprocessableEntity, "Invalid data: "+err.Error())
}

// done finishes a successful mutation: htmx gets the refreshed rows, plain
// forms are redirected back to the list (post/redirect/get).
func (s *Server) done(w http.ResponseWriter, r *http.Request, list, flash string, rows func() (string, any, error), resource, message string) {
	if !isHTMX(r) {
		guard.Redirect(w, r, list+"?flash="+flash)
		return
	}
	if rows == nil {
		// The client removes the row itself.
		NewHTMXResponse().
			TriggerRecordChanged(resource).
			TriggerSuccessNotification(message).
			Write(w)
		return
	}
	name, data, err := rows()
	if err != nil {
		s.handleAPIError(w, r, log.OpList, resource, err)
		return
	}
	s.renderPartial(w, r, name, data, resource, message)
}

// loadCategories returns the categories of userID, cached per user.
func (s *Server) loadCategories(ctx context.Context, userID string) ([]core.Category, error) {
	if cats, ok := s.categories.Get(userID); ok {
		log.FromContext(ctx).DebugContext(ctx, "Categories cache hit", "count", len(cats))
		return append([]core.Category(nil), cats...), nil
	}

	cats, err := s.api.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.categories.Set(userID, cats)
	return append([]core.Category(nil), cats...), nil
}

func (s *Server) today() core.Date {
	y, m, d := s.now().Date()
	return core.NewDate(y, int(m), d)
}
