package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"fintrack/internal/log"
)

// ErrEmptyToken is returned by Login when called without a token.
var ErrEmptyToken = errors.New("empty credential token")

// Transition names reported to listeners.
const (
	OpInitialize = "initialize"
	OpLogin      = "login"
	OpLogout     = "logout"
)

// Change describes one applied state transition.
type Change struct {
	Op   string
	From State
	To   State
	At   time.Time
}

// Listener receives every transition after it has been applied.
// Listeners run synchronously, in subscription order, and must not call
// Login or Logout.
type Listener func(ctx context.Context, change Change)

type listenerEntry struct {
	id uint64
	fn Listener
}

// Store is the single source of truth for whether this client is
// authenticated. It reconciles its state once against the persisted token
// and afterwards changes only through Login and Logout.
type Store struct {
	storage Storage
	logger  *log.Logger
	now     func() time.Time

	initOnce sync.Once
	ready    chan struct{}

	// opMu serializes transitions so storage writes, state and
	// notifications are applied in the same order.
	opMu sync.Mutex

	mu      sync.RWMutex
	state   State
	loading bool

	listenersMu sync.Mutex
	listeners   []listenerEntry
	nextID      uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentSession)
		}
	}
}

// NewStore creates a Store in the unknown, loading state.
// Call Initialize once to settle it.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  log.New(log.DefaultConfig()).WithComponent(log.ComponentSession),
		now:     time.Now,
		ready:   make(chan struct{}),
		state:   Unknown(),
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize performs the startup check. It runs at most once per Store;
// later calls return immediately, concurrent calls wait for the first.
// Invalid, expired or unreadable tokens settle the store as
// unauthenticated and are never reported as errors.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() {
		s.opMu.Lock()
		defer s.opMu.Unlock()

		next := s.reconcile(ctx)
		from := s.apply(next)
		close(s.ready)

		s.logger.InfoContext(ctx, "Session check settled",
			log.FieldOperation, log.OpInitialize,
			log.FieldSessionState, next.Status.String())
		s.notify(ctx, Change{Op: OpInitialize, From: from, To: next, At: s.now()})
	})
}

func (s *Store) reconcile(ctx context.Context) State {
	raw, ok, err := s.storage.Get(ctx, TokenKey)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read persisted token",
			log.FieldOperation, log.OpInitialize,
			log.FieldError, err)
		return Unauthenticated()
	}
	if !ok {
		return Unauthenticated()
	}

	claims, err := DecodeToken(raw)
	if err == nil {
		err = claims.ValidAt(s.now())
	}
	if err != nil {
		s.logger.InfoContext(ctx, "Discarding persisted token",
			log.FieldOperation, log.OpInitialize,
			"reason", err.Error())
		if derr := s.storage.Delete(ctx, TokenKey); derr != nil {
			s.logger.WarnContext(ctx, "Failed to delete invalid token",
				log.FieldOperation, log.OpInitialize,
				log.FieldError, derr)
		}
		return Unauthenticated()
	}

	return Authenticated(raw, claims.SubjectID())
}

// Login persists token, replacing any previous one, and marks the session
// authenticated. The token is trusted as issued by the API. A storage
// failure is returned but the in-memory state still becomes authenticated.
func (s *Store) Login(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrEmptyToken
	}
	s.Initialize(ctx)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	var subject string
	if claims, err := DecodeToken(token); err == nil {
		subject = claims.SubjectID()
	}

	var result error
	if err := s.storage.Set(ctx, TokenKey, token); err != nil {
		result = fmt.Errorf("persist token: %w", err)
		s.logger.ErrorContext(ctx, "Failed to persist token",
			log.FieldOperation, log.OpLogin,
			log.FieldError, err)
	}

	next := Authenticated(token, subject)
	from := s.apply(next)
	s.logger.InfoContext(ctx, "Session authenticated",
		log.FieldOperation, log.OpLogin,
		log.FieldSubject, subject)
	s.notify(ctx, Change{Op: OpLogin, From: from, To: next, At: s.now()})
	return result
}

// Logout removes the persisted token and marks the session
// unauthenticated. Calling it repeatedly is harmless.
func (s *Store) Logout(ctx context.Context) error {
	s.Initialize(ctx)

	s.opMu.Lock()
	defer s.opMu.Unlock()

	var result error
	if err := s.storage.Delete(ctx, TokenKey); err != nil {
		result = fmt.Errorf("delete token: %w", err)
		s.logger.ErrorContext(ctx, "Failed to delete token",
			log.FieldOperation, log.OpLogout,
			log.FieldError, err)
	}

	next := Unauthenticated()
	from := s.apply(next)
	s.logger.InfoContext(ctx, "Session cleared", log.FieldOperation, log.OpLogout)
	s.notify(ctx, Change{Op: OpLogout, From: from, To: next, At: s.now()})
	return result
}

func (s *Store) apply(next State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	from := s.state
	s.state = next
	s.loading = false
	return from
}

// State returns the current session snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsAuthenticated reports whether the session is authenticated.
func (s *Store) IsAuthenticated() bool {
	return s.State().IsAuthenticated()
}

// IsLoading reports whether the startup check is still pending.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ready is closed once Initialize has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Token returns the credential token while authenticated.
func (s *Store) Token() (string, bool) {
	st := s.State()
	if !st.IsAuthenticated() {
		return "", false
	}
	return st.Token, true
}

// Subscribe registers l for future transitions and returns a function that
// removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: l})
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			defer s.listenersMu.Unlock()
			for i, e := range s.listeners {
				if e.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(ctx context.Context, change Change) {
	s.listenersMu.Lock()
	entries := make([]listenerEntry, len(s.listeners))
	copy(entries, s.listeners)
	s.listenersMu.Unlock()

	for _, e := range entries {
		e.fn(ctx, change)
	}
}
