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

// DrawConfigRepository implements the draw configuration store for PostgreSQL
type DrawConfigRepository struct {
	db *pgxpool.Pool
}

// NewDrawConfigRepository creates a new DrawConfigRepository
func NewDrawConfigRepository(db *pgxpool.Pool) *DrawConfigRepository {
	return &DrawConfigRepository{db: db}
}

// GetDrawConfig retrieves the draw configuration for an event
func (r *DrawConfigRepository) GetDrawConfig(ctx context.Context, eventID uuid.UUID) (*domain.DrawConfig, error) {
	query := `
		SELECT event_id, intro_message, winner_number, draw_interval,
			draw_duration, winners_message, completed, updated_at
		FROM draw_configs
		WHERE event_id = $1
	`

	var c domain.DrawConfig
	err := r.db.QueryRow(ctx, query, eventID).Scan(
		&c.EventID,
		&c.IntroMessage,
		&c.WinnerNumber,
		&c.DrawInterval,
		&c.DrawDuration,
		&c.WinnersMessage,
		&c.Completed,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDrawConfigMissing
		}
		return nil, fmt.Errorf("failed to get draw config: %w", err)
	}
	return &c, nil
}

// UpsertDrawConfig creates or partially updates the draw configuration
// for an event. Patching an existing config resets the completed flag
// so a re-tuned draw can be started again deliberately.
func (r *DrawConfigRepository) UpsertDrawConfig(ctx context.Context, eventID uuid.UUID, patch domain.DrawConfigPatch) error {
	query := `
		INSERT INTO draw_configs (event_id, intro_message, winner_number,
			draw_interval, draw_duration, winners_message)
		VALUES ($1,
			COALESCE($2, ''),
			COALESCE($3, 1),
			COALESCE($4, 1),
			COALESCE($5, 1),
			COALESCE($6, ''))
		ON CONFLICT (event_id) DO UPDATE SET
			intro_message = COALESCE($2, draw_configs.intro_message),
			winner_number = COALESCE($3, draw_configs.winner_number),
			draw_interval = COALESCE($4, draw_configs.draw_interval),
			draw_duration = COALESCE($5, draw_configs.draw_duration),
			winners_message = COALESCE($6, draw_configs.winners_message),
			completed = FALSE,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, eventID,
		patch.IntroMessage, patch.WinnerNumber, patch.DrawInterval,
		patch.DrawDuration, patch.WinnersMessage)
	if err != nil {
		return fmt.Errorf("failed to upsert draw config: %w", err)
	}
	return nil
}

// MarkDrawCompleted sets the completed flag once all rounds are scheduled
func (r *DrawConfigRepository) MarkDrawCompleted(ctx context.Context, eventID uuid.UUID) error {
	query := `UPDATE draw_configs SET completed = TRUE, updated_at = NOW() WHERE event_id = $1`

	tag, err := r.db.Exec(ctx, query, eventID)
	if err != nil {
		return fmt.Errorf("failed to mark draw completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDrawConfigMissing
	}
	return nil
}
