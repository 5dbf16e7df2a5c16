// Package repository defines the persistence interfaces consumed by the
// service layer. Implementations live in internal/database/postgres.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eventdraw/drawbot/internal/domain"
)

// Event is the store for event campaigns
type Event interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error
}

// Contact is the store for external messaging identities
type Contact interface {
	// EnsureContact inserts the contact if it is not known yet and
	// returns the stored row either way.
	EnsureContact(ctx context.Context, platform, platformID, name string) (*domain.Contact, error)
	GetContact(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
	GetContactByPlatformID(ctx context.Context, platform, platformID string) (*domain.Contact, error)
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	// ResolveContacts returns the contacts linked to the given participants.
	ResolveContacts(ctx context.Context, participantIDs []uuid.UUID) ([]domain.Contact, error)
}

// Participant is the store for event registrants
type Participant interface {
	// CreateParticipant returns domain.ErrAlreadyRegistered when the
	// (event, contact) pair exists and domain.ErrShortIDTaken when the
	// (event, short id) pair collides.
	CreateParticipant(ctx context.Context, p *domain.Participant) error
	ListParticipants(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error)
	GetParticipantByContact(ctx context.Context, eventID, contactID uuid.UUID) (*domain.Participant, error)
	GetParticipantByShortID(ctx context.Context, shortID int) (*domain.Participant, error)
}

// Winner is the winner ledger. RecordWinners is the idempotency
// boundary for at-least-once draw job execution.
type Winner interface {
	RecordWinners(ctx context.Context, eventID uuid.UUID, participants []domain.Participant) error
	ListWinners(ctx context.Context, eventID uuid.UUID) ([]domain.WinnerRecord, error)
	GetWinner(ctx context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerRecord, error)
	// MarkClaimed flips claimed=false to true; returns
	// domain.ErrPrizeAlreadyClaimed when already set.
	MarkClaimed(ctx context.Context, eventID uuid.UUID, shortID int) error
}

// DrawConfig is the store for per-event draw settings
type DrawConfig interface {
	GetDrawConfig(ctx context.Context, eventID uuid.UUID) (*domain.DrawConfig, error)
	UpsertDrawConfig(ctx context.Context, eventID uuid.UUID, patch domain.DrawConfigPatch) error
	MarkDrawCompleted(ctx context.Context, eventID uuid.UUID) error
}

// Job is the store backing the persistent job runner
type Job interface {
	CreateJob(ctx context.Context, job *domain.ScheduledJob) error
	ListPendingJobs(ctx context.Context) ([]domain.ScheduledJob, error)
	// MarkJobExecuting transitions pending -> executing and reports
	// whether this caller won the transition.
	MarkJobExecuting(ctx context.Context, id uuid.UUID) (bool, error)
	MarkJobDone(ctx context.Context, id uuid.UUID) error
	MarkJobFailed(ctx context.Context, id uuid.UUID, cause string) error
}

// Token is the store for the rotating operator token
type Token interface {
	RotateOperatorToken(ctx context.Context, token string, updatedAt time.Time) error
	GetOperatorToken(ctx context.Context) (string, error)
}
