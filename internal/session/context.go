package session

import (
	"context"
	"net/http"
)

type contextKey struct{}

// ErrNoScope is the panic value raised when the store is read outside the
// scope of a live Store.
const ErrNoScope = "session: store accessed outside of a session scope"

// WithStore returns a copy of ctx scoped beneath s.
func WithStore(ctx context.Context, s *Store) context.Context {
	if s == nil {
		panic("session: WithStore called with nil store")
	}
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the Store ctx is scoped beneath. It panics when there
// is none: a missing scope is a wiring bug, and reading it as "logged out"
// would hide it.
func FromContext(ctx context.Context) *Store {
	s, ok := ctx.Value(contextKey{}).(*Store)
	if !ok || s == nil {
		panic(ErrNoScope)
	}
	return s
}

// Provide scopes every request beneath s.
func Provide(s *Store) func(http.Handler) http.Handler {
	if s == nil {
		panic("session: Provide called with nil store")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithStore(r.Context(), s)))
		})
	}
}
