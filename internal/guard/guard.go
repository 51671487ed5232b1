// Package guard gates protected views behind the settled session state.
package guard

import (
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/session"
)

// DefaultLoginPath is where unauthenticated requests are sent.
const DefaultLoginPath = "/login"

// Outcome is what the guard does with a request.
type Outcome int

const (
	// OutcomePlaceholder renders the neutral "checking session" view.
	OutcomePlaceholder Outcome = iota
	// OutcomeRedirect sends the client to the login view.
	OutcomeRedirect
	// OutcomeRender serves the protected view unchanged.
	OutcomeRender
)

func (o Outcome) String() string {
	switch o {
	case OutcomePlaceholder:
		return "placeholder"
	case OutcomeRedirect:
		return "redirect"
	case OutcomeRender:
		return "render"
	default:
		return "invalid"
	}
}

// Decision is the guard's verdict for one session state.
// Location is set only for OutcomeRedirect.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Decide maps a session state to exactly one outcome. Status values outside
// the three known ones are treated like unknown, so nothing protected is
// served for them.
func Decide(state session.State, loginPath string) Decision {
	switch state.Status {
	case session.StatusAuthenticated:
		return Decision{Outcome: OutcomeRender}
	case session.StatusUnauthenticated:
		return Decision{Outcome: OutcomeRedirect, Location: loginPath}
	default:
		return Decision{Outcome: OutcomePlaceholder}
	}
}

// Guard wraps protected handlers. It keeps no session state of its own and
// reads the Store from the request scope on every request.
type Guard struct {
	loginPath   string
	placeholder http.Handler
	logger      *log.Logger
}

// Option configures a Guard.
type Option func(*Guard)

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(path string) Option {
	return func(g *Guard) {
		if path != "" {
			g.loginPath = path
		}
	}
}

// WithPlaceholder replaces the built-in "checking session" view.
func WithPlaceholder(h http.Handler) Option {
	return func(g *Guard) {
		if h != nil {
			g.placeholder = h
		}
	}
}

// WithLogger sets the guard logger.
func WithLogger(logger *log.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger.WithComponent(log.ComponentGuard)
		}
	}
}

// New creates a Guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		loginPath:   DefaultLoginPath,
		placeholder: http.HandlerFunc(checkingSession),
		logger:      log.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// LoginPath returns the path unauthenticated requests are redirected to.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Middleware gates next. The request context must carry a session scope;
// without one the request panics.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.FromContext(r.Context())
		d := Decide(store.State(), g.loginPath)

		g.logger.DebugContext(r.Context(), "Guard decision",
			log.FieldPath, r.URL.Path,
			"outcome", d.Outcome.String())

		switch d.Outcome {
		case OutcomeRender:
			next.ServeHTTP(w, r)
		case OutcomeRedirect:
			Redirect(w, r, d.Location)
		default:
			w.Header().Set("Cache-Control", "no-store")
			g.placeholder.ServeHTTP(w, r)
		}
	})
}

// Redirect sends the client to location without leaving the current URL in
// its history. HTMX requests are told to replace the URL client side.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", location)
		w.Header().Set("HX-Replace-Url", location)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

const checkingSessionHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="1">
<title>Checking session</title>
</head>
<body>
<main class="session-check" aria-busy="true"><p>Checking session&hellip;</p></main>
</body>
</html>
`

func checkingSession(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(checkingSessionHTML))
}
