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

// EventRepository implements the event repository for PostgreSQL
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `event_id, title, description, schedule, partner_message,
	map_link, rules_link, policy_link, prize_table_link, status, created_at, updated_at`

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Schedule,
		&e.PartnerMessage,
		&e.MapLink,
		&e.RulesLink,
		&e.PolicyLink,
		&e.PrizeTableLink,
		&e.Status,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts a new event in status "created"
func (r *EventRepository) CreateEvent(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, schedule, partner_message,
			map_link, rules_link, policy_link, prize_table_link, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING event_id, created_at, updated_at
	`

	if e.Status == "" {
		e.Status = domain.EventStatusCreated
	}

	err := r.db.QueryRow(ctx, query,
		e.Title, e.Description, e.Schedule, e.PartnerMessage,
		e.MapLink, e.RulesLink, e.PolicyLink, e.PrizeTableLink, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event by id
func (r *EventRepository) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1`

	e, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

// ListEvents retrieves all events ordered by creation time
func (r *EventRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

// UpdateEvent applies a partial update to an event
func (r *EventRepository) UpdateEvent(ctx context.Context, id uuid.UUID, patch domain.EventPatch) error {
	query := `
		UPDATE events SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			schedule = COALESCE($4, schedule),
			partner_message = COALESCE($5, partner_message),
			map_link = COALESCE($6, map_link),
			rules_link = COALESCE($7, rules_link),
			policy_link = COALESCE($8, policy_link),
			prize_table_link = COALESCE($9, prize_table_link),
			updated_at = NOW()
		WHERE event_id = $1
	`

	tag, err := r.db.Exec(ctx, query, id,
		patch.Title, patch.Description, patch.Schedule, patch.PartnerMessage,
		patch.MapLink, patch.RulesLink, patch.PolicyLink, patch.PrizeTableLink)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// UpdateEventStatus transitions the event lifecycle status
func (r *EventRepository) UpdateEventStatus(ctx context.Context, id uuid.UUID, status domain.EventStatus) error {
	query := `UPDATE events SET status = $2, updated_at = NOW() WHERE event_id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}
