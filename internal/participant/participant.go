// Package participant implements registration of contacts into events
// and the prize claim flow keyed by participant short ids.
package participant

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/event"
	"github.com/eventdraw/drawbot/internal/logger"
	"github.com/eventdraw/drawbot/internal/repository"
)

// shortIDAttempts bounds the retry loop for short id collisions. The id
// space holds 900k values, so hitting the bound means the event is
// effectively full.
const shortIDAttempts = 10

// Registration carries the personal details collected by the
// registration wizard.
type Registration struct {
	Platform    string
	PlatformID  string
	DisplayName string
	FirstName   string
	LastName    string
	PhoneNumber string
}

// Service defines the interface for participant operations
type Service interface {
	Register(ctx context.Context, eventID uuid.UUID, reg Registration) (*domain.Participant, error)
	List(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error)
	FindByShortID(ctx context.Context, shortID int) (*domain.Participant, error)
	FindByPlatformID(ctx context.Context, eventID uuid.UUID, platform, platformID string) (*domain.Participant, error)
	ClaimPrize(ctx context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerInfo, error)
}

type service struct {
	participants repository.Participant
	contacts     repository.Contact
	winners      repository.Winner
	events       repository.Event
	eventBus     event.Bus
}

// NewService creates a new participant service
func NewService(
	participants repository.Participant,
	contacts repository.Contact,
	winners repository.Winner,
	events repository.Event,
	eventBus event.Bus,
) Service {
	return &service{
		participants: participants,
		contacts:     contacts,
		winners:      winners,
		events:       events,
		eventBus:     eventBus,
	}
}

// Register enrolls a contact into an active event and assigns a random
// six-digit short id. Registering the same contact twice returns
// domain.ErrAlreadyRegistered; short id collisions are retried with a
// fresh id.
func (s *service) Register(ctx context.Context, eventID uuid.UUID, reg Registration) (*domain.Participant, error) {
	log := logger.FromContext(ctx)

	ev, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Status != domain.EventStatusActive {
		return nil, fmt.Errorf("%w: event %s is %s", domain.ErrInvalidStatus, eventID, ev.Status)
	}

	contact, err := s.contacts.EnsureContact(ctx, reg.Platform, reg.PlatformID, reg.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure contact: %w", err)
	}

	var p *domain.Participant
	for attempt := 0; attempt < shortIDAttempts; attempt++ {
		candidate := &domain.Participant{
			EventID:     eventID,
			ContactID:   contact.ID,
			FirstName:   reg.FirstName,
			LastName:    reg.LastName,
			PhoneNumber: reg.PhoneNumber,
			ShortID:     randomShortID(),
		}

		err = s.participants.CreateParticipant(ctx, candidate)
		if err == nil {
			p = candidate
			break
		}
		if errors.Is(err, domain.ErrShortIDTaken) {
			log.Debug("Short id collision, retrying",
				"event_id", eventID, "attempt", attempt+1)
			continue
		}
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("failed to assign short id after %d attempts: %w", shortIDAttempts, err)
	}

	log.Info("Participant registered",
		"event_id", eventID,
		"short_id", p.ShortID,
		"platform", reg.Platform)

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, event.NewParticipantRegisteredEvent(eventID, p.ShortID, contact.ID)); err != nil {
			log.Error("Failed to publish registration event", "error", err)
		}
	}
	return p, nil
}

// List returns all participants registered for the event
func (s *service) List(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error) {
	return s.participants.ListParticipants(ctx, eventID)
}

// FindByShortID resolves a participant by the short id printed on their
// registration confirmation.
func (s *service) FindByShortID(ctx context.Context, shortID int) (*domain.Participant, error) {
	if shortID < domain.ShortIDMin || shortID > domain.ShortIDMax {
		return nil, fmt.Errorf("%w: short id %d out of range", domain.ErrInvalidInput, shortID)
	}
	return s.participants.GetParticipantByShortID(ctx, shortID)
}

// FindByPlatformID resolves a participant by their messaging identity
func (s *service) FindByPlatformID(ctx context.Context, eventID uuid.UUID, platform, platformID string) (*domain.Participant, error) {
	contact, err := s.contacts.GetContactByPlatformID(ctx, platform, platformID)
	if err != nil {
		return nil, err
	}
	return s.participants.GetParticipantByContact(ctx, eventID, contact.ID)
}

// ClaimPrize marks a winner record claimed and returns the updated view.
// A second claim for the same short id returns
// domain.ErrPrizeAlreadyClaimed and leaves the record untouched.
func (s *service) ClaimPrize(ctx context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerInfo, error) {
	log := logger.FromContext(ctx)

	if err := s.winners.MarkClaimed(ctx, eventID, shortID); err != nil {
		return nil, err
	}

	info := &domain.WinnerInfo{ShortID: shortID, PrizeClaimed: true}
	p, err := s.participants.GetParticipantByShortID(ctx, shortID)
	if err == nil {
		info.FirstName = p.FirstName
		info.LastName = p.LastName
	} else if !errors.Is(err, domain.ErrParticipantNotFound) {
		return nil, err
	}

	log.Info("Prize claimed", "event_id", eventID, "short_id", shortID)
	return info, nil
}

func randomShortID() int {
	return domain.ShortIDMin + rand.Intn(domain.ShortIDMax-domain.ShortIDMin+1)
}
