// Package eventsvc manages the event campaign lifecycle: creation,
// editing, activation and the activation announcement fan-out.
package eventsvc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/event"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/notify"
	"github.com/eventdraw/drawbot/internal/repository"
)

// Notifier is the notification fan-out used for announcements
type Notifier interface {
	Dispatch(ctx context.Context, contacts []domain.Contact, message, imageURL string) []notify.Failure
}

// Service defines the interface for event lifecycle operations
type Service interface {
	Create(ctx context.Context, e *domain.Event) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error
	SetStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error
	// Announce sends a message to every known contact. When imageURL is
	// set the message is delivered with the image attached.
	Announce(ctx context.Context, message, imageURL string) (int, error)
	// NotifyParticipants sends a message to the participants of one
	// event only.
	NotifyParticipants(ctx context.Context, eventID uuid.UUID, message, imageURL string) (int, error)
	Shutdown(ctx context.Context) error
}

type service struct {
	events       repository.Event
	contacts     repository.Contact
	participants repository.Participant
	notifier     Notifier
	eventBus     event.Bus
	wg           sync.WaitGroup
}

// NewService creates a new event lifecycle service
func NewService(events repository.Event, contacts repository.Contact, participants repository.Participant, notifier Notifier, eventBus event.Bus) Service {
	return &service{
		events:       events,
		contacts:     contacts,
		participants: participants,
		notifier:     notifier,
		eventBus:     eventBus,
	}
}

// Create stores a new event in the created state
func (s *service) Create(ctx context.Context, e *domain.Event) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	e.Status = domain.EventStatusCreated

	if err := s.events.CreateEvent(ctx, e); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("Event created", "event_id", e.ID, "title", e.Title)
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	return s.events.GetEvent(ctx, id)
}

func (s *service) List(ctx context.Context) ([]domain.Event, error) {
	return s.events.ListEvents(ctx)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error {
	return s.events.UpdateEvent(ctx, id, patch)
}

// SetStatus transitions the event lifecycle. Activation publishes an
// event.activated notification so subscribers can react; moving an
// already finished event back is rejected.
func (s *service) SetStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error {
	log := logger.FromContext(ctx)

	if !status.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	current, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == domain.EventStatusFinished && status != domain.EventStatusFinished {
		return fmt.Errorf("%w: event %s is finished", domain.ErrInvalidStatus, id)
	}
	if current.Status == status {
		return nil
	}

	if err := s.events.UpdateEventStatus(ctx, id, status); err != nil {
		return err
	}
	log.Info("Event status changed", "event_id", id, "from", current.Status, "to", status)

	if status == domain.EventStatusActive && s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewEventActivatedEvent(id, current.Title)); err != nil {
			log.Error("Failed to publish activation event", "error", err)
		}
	}
	return nil
}

// Announce fans a broadcast out to all known contacts in the
// background and returns the recipient count immediately.
func (s *service) Announce(ctx context.Context, message, imageURL string) (int, error) {
	if strings.TrimSpace(message) == "" {
		return 0, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	contacts, err := s.contacts.ListContacts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	if len(contacts) == 0 {
		return 0, nil
	}

	sendCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.notifier.Dispatch(sendCtx, contacts, message, imageURL)
	}()

	logger.FromContext(ctx).Info("Announcement queued", "recipients", len(contacts))
	return len(contacts), nil
}

// NotifyParticipants fans an ad-hoc message out to every registered
// participant of the event, in the background, and returns the
// recipient count immediately.
func (s *service) NotifyParticipants(ctx context.Context, eventID uuid.UUID, message, imageURL string) (int, error) {
	if strings.TrimSpace(message) == "" {
		return 0, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}

	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}

	participants, err := s.participants.ListParticipants(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to list participants: %w", err)
	}
	if len(participants) == 0 {
		return 0, nil
	}

	ids := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	contacts, err := s.contacts.ResolveContacts(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve contacts: %w", err)
	}

	sendCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.notifier.Dispatch(sendCtx, contacts, message, imageURL)
	}()

	logger.FromContext(ctx).Info("Event notification queued",
		"event_id", eventID, "recipients", len(contacts))
	return len(contacts), nil
}

// Shutdown waits for in-flight announcements to settle
func (s *service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
