package amqp

import (
	"context"

	"fintrack/internal/log"
	"fintrack/internal/session"
)

const eventBuffer = 64

// Publisher sends one encoded message of the given type.
type Publisher interface {
	Publish(ctx context.Context, kind string, body []byte) error
}

// SessionPublisher forwards session transitions to the broker. Transitions
// are queued by Listen and published by Run, so a slow broker never delays
// a login or logout.
type SessionPublisher struct {
	publisher Publisher
	logger    *log.Logger
	events    chan *SessionEvent
}

// NewSessionPublisher creates a SessionPublisher writing through p.
func NewSessionPublisher(p Publisher, logger *log.Logger) *SessionPublisher {
	if logger == nil {
		logger = log.Discard()
	}
	return &SessionPublisher{
		publisher: p,
		logger:    logger.WithComponent(log.ComponentAMQP),
		events:    make(chan *SessionEvent, eventBuffer),
	}
}

// Listen queues change. It has the session.Listener signature and never
// blocks; events are dropped while the queue is full.
func (p *SessionPublisher) Listen(ctx context.Context, change session.Change) {
	event := NewSessionEvent(change)
	select {
	case p.events <- event:
	default:
		p.logger.WarnContext(ctx, "Session event queue full, dropping event", "type", event.Type)
	}
}

// Run publishes queued events until ctx is done, then flushes what is left.
func (p *SessionPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.flush(ctx)
			return
		case event := <-p.events:
			p.publish(ctx, event)
		}
	}
}

func (p *SessionPublisher) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for {
		select {
		case event := <-p.events:
			p.publish(ctx, event)
		default:
			return
		}
	}
}

func (p *SessionPublisher) publish(ctx context.Context, event *SessionEvent) {
	body, err := event.ToJSON()
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to encode session event", log.FieldError, err)
		return
	}

	if err := p.publisher.Publish(ctx, event.Type, body); err != nil {
		p.logger.WarnContext(ctx, "Failed to publish session event",
			"type", event.Type,
			log.FieldError, err)
		return
	}

	p.logger.InfoContext(ctx, "Published session event",
		"type", event.Type,
		log.FieldSessionState, event.State)
}
