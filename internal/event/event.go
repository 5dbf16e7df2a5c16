package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventSchemaVersion is the current event schema version
const EventSchemaVersion = "1.0"

// Type represents the type of an event
type Type string

// Event represents a generic event in the system
type Event struct {
	Version string      `json:"version"` // Event schema version (e.g., "1.0")
	Type    Type        `json:"type"`
	Payload interface{} `json:"payload"`
}

// Common event types
const (
	ParticipantRegistered Type = "participant.registered"
	EventActivated        Type = "event.activated"
	DrawStarted           Type = "draw.started"
	DrawRoundCompleted    Type = "draw.round.completed"
)

// Typed event payloads for type safety

// ParticipantRegisteredPayloadV1 is the typed payload for registration events
type ParticipantRegisteredPayloadV1 struct {
	EventID   uuid.UUID `json:"event_id"`
	ShortID   int       `json:"short_id"`
	ContactID uuid.UUID `json:"contact_id"`
	Timestamp int64     `json:"timestamp"`
}

// EventActivatedPayloadV1 is the typed payload for event activation
type EventActivatedPayloadV1 struct {
	EventID uuid.UUID `json:"event_id"`
	Title   string    `json:"title"`
}

// DrawStartedPayloadV1 is the typed payload for draw start events
type DrawStartedPayloadV1 struct {
	EventID uuid.UUID `json:"event_id"`
	Rounds  int       `json:"rounds"`
}

// DrawRoundCompletedPayloadV1 is the typed payload for completed draw rounds
type DrawRoundCompletedPayloadV1 struct {
	EventID        uuid.UUID `json:"event_id"`
	Round          int       `json:"round"`
	WinnerShortIDs []int     `json:"winner_short_ids"`
	FailedSends    int       `json:"failed_sends"`
	Timestamp      int64     `json:"timestamp"`
}

// Type-safe event constructors

// NewParticipantRegisteredEvent creates a new registration event
func NewParticipantRegisteredEvent(eventID uuid.UUID, shortID int, contactID uuid.UUID) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    ParticipantRegistered,
		Payload: ParticipantRegisteredPayloadV1{
			EventID:   eventID,
			ShortID:   shortID,
			ContactID: contactID,
			Timestamp: time.Now().Unix(),
		},
	}
}

// NewEventActivatedEvent creates a new event activation event
func NewEventActivatedEvent(eventID uuid.UUID, title string) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    EventActivated,
		Payload: EventActivatedPayloadV1{
			EventID: eventID,
			Title:   title,
		},
	}
}

// NewDrawStartedEvent creates a new draw started event
func NewDrawStartedEvent(eventID uuid.UUID, rounds int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    DrawStarted,
		Payload: DrawStartedPayloadV1{
			EventID: eventID,
			Rounds:  rounds,
		},
	}
}

// NewDrawRoundCompletedEvent creates a new round completed event
func NewDrawRoundCompletedEvent(eventID uuid.UUID, round int, winnerShortIDs []int, failedSends int) Event {
	return Event{
		Version: EventSchemaVersion,
		Type:    DrawRoundCompleted,
		Payload: DrawRoundCompletedPayloadV1{
			EventID:        eventID,
			Round:          round,
			WinnerShortIDs: winnerShortIDs,
			FailedSends:    failedSends,
			Timestamp:      time.Now().Unix(),
		},
	}
}

// Handler is a function that handles an event
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for an event bus
type Bus interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType Type, handler Handler)
}

// MemoryBus is an in-memory implementation of the Event Bus
type MemoryBus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewMemoryBus creates a new MemoryBus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{
		handlers: make(map[Type][]Handler),
	}
}

// Publish publishes an event to all subscribers. Handlers run
// synchronously in subscription order; handler errors are collected,
// not short-circuited.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers, ok := b.handlers[event.Type]
	b.mu.RUnlock()

	if !ok {
		return nil
	}

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d handler error(s) for %s: %v", len(errs), event.Type, errs)
	}
	return nil
}

// Subscribe subscribes a handler to an event type
func (b *MemoryBus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}
