package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdraw/drawbot/internal/domain"
)

// ParticipantRepository implements the participant repository for PostgreSQL
type ParticipantRepository struct {
	db *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository
func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

const participantColumns = `participant_id, event_id, contact_id, first_name, last_name, phone_number, short_id, created_at`

func scanParticipant(row pgx.Row) (*domain.Participant, error) {
	var p domain.Participant
	err := row.Scan(
		&p.ID,
		&p.EventID,
		&p.ContactID,
		&p.FirstName,
		&p.LastName,
		&p.PhoneNumber,
		&p.ShortID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateParticipant inserts a new participant. The two unique
// constraints map to distinct domain errors so callers can tell a
// duplicate registration from a short id collision.
func (r *ParticipantRepository) CreateParticipant(ctx context.Context, p *domain.Participant) error {
	query := `
		INSERT INTO participants (event_id, contact_id, first_name, last_name, phone_number, short_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING participant_id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		p.EventID, p.ContactID, p.FirstName, p.LastName, p.PhoneNumber, p.ShortID,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "participants_event_contact_key") {
			return domain.ErrAlreadyRegistered
		}
		if isUniqueViolation(err, "participants_event_short_id_key") {
			return domain.ErrShortIDTaken
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// ListParticipants retrieves all participants registered for an event
func (r *ParticipantRepository) ListParticipants(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE event_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, *p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return participants, nil
}

// GetParticipantByContact retrieves the participant registered for an
// event under the given contact, if any
func (r *ParticipantRepository) GetParticipantByContact(ctx context.Context, eventID, contactID uuid.UUID) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE event_id = $1 AND contact_id = $2`

	p, err := scanParticipant(r.db.QueryRow(ctx, query, eventID, contactID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant by contact: %w", err)
	}
	return p, nil
}

// GetParticipantByShortID retrieves a participant by short id. Short
// ids are only unique per event, but collisions across events are rare
// enough that the operator desk flow looks up by short id alone, most
// recent registration first.
func (r *ParticipantRepository) GetParticipantByShortID(ctx context.Context, shortID int) (*domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE short_id = $1 ORDER BY created_at DESC LIMIT 1`

	p, err := scanParticipant(r.db.QueryRow(ctx, query, shortID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant by short id: %w", err)
	}
	return p, nil
}
