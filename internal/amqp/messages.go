package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/session"
)

// Session event types, also set as the AMQP message type.
const (
	EventLogin   = "session.login"
	EventLogout  = "session.logout"
	EventSettled = "session.settled"
)

// SessionEvent is the audit record of one session transition. It never
// carries the credential token.
type SessionEvent struct {
	Type      string    `json:"type"`
	Subject   string    `json:"subject,omitempty"`
	From      string    `json:"from"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSessionEvent builds the event for change.
func NewSessionEvent(change session.Change) *SessionEvent {
	subject := change.To.Subject
	if subject == "" {
		subject = change.From.Subject
	}

	at := change.At
	if at.IsZero() {
		at = time.Now()
	}

	return &SessionEvent{
		Type:      eventType(change.Op),
		Subject:   subject,
		From:      change.From.Status.String(),
		State:     change.To.Status.String(),
		Timestamp: at.UTC(),
	}
}

func eventType(op string) string {
	switch op {
	case session.OpLogin:
		return EventLogin
	case session.OpLogout:
		return EventLogout
	default:
		return EventSettled
	}
}

// ToJSON converts the event to JSON bytes
func (e *SessionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SessionEventFromJSON decodes an event.
func SessionEventFromJSON(data []byte) (*SessionEvent, error) {
	var e SessionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
