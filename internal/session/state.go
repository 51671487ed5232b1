// Package session owns the client's authentication state.
//
// A Store holds the single Session State of the running process and is the
// only writer of the persisted credential token. Consumers reach the Store
// through a context scope (see Provide and FromContext) and never keep an
// independent copy of the state.
package session

// Status is the three-way classification of the client's login status.
type Status int

const (
	// StatusUnknown is the initial status; the startup check has not completed.
	StatusUnknown Status = iota
	// StatusAuthenticated means a usable credential token is held.
	StatusAuthenticated
	// StatusUnauthenticated means no usable credential token is held.
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusAuthenticated:
		return "authenticated"
	case StatusUnauthenticated:
		return "unauthenticated"
	default:
		return "invalid"
	}
}

// State is an immutable snapshot of the session.
// Token and Subject are set only when Status is StatusAuthenticated.
type State struct {
	Status  Status
	Token   string
	Subject string
}

// Unknown returns the initial state.
func Unknown() State {
	return State{Status: StatusUnknown}
}

// Authenticated returns an authenticated state carrying token and subject.
func Authenticated(token, subject string) State {
	return State{Status: StatusAuthenticated, Token: token, Subject: subject}
}

// Unauthenticated returns the logged-out state.
func Unauthenticated() State {
	return State{Status: StatusUnauthenticated}
}

// IsAuthenticated reports whether the state is authenticated.
func (s State) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated
}
