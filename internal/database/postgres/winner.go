package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdraw/drawbot/internal/domain"
	"github.com/eventdraw/drawbot/internal/logger"
)

// WinnerRepository implements the winner ledger for PostgreSQL.
// The (event_id, short_id) primary key makes RecordWinners idempotent
// under at-least-once job redelivery.
type WinnerRepository struct {
	db *pgxpool.Pool
}

// NewWinnerRepository creates a new WinnerRepository
func NewWinnerRepository(db *pgxpool.Pool) *WinnerRepository {
	return &WinnerRepository{db: db}
}

// RecordWinners inserts one winner record per participant. A duplicate
// record means the winner was already recorded by an earlier delivery
// of the same job; it is skipped, not surfaced. Any other failure
// aborts the batch.
func (r *WinnerRepository) RecordWinners(ctx context.Context, eventID uuid.UUID, participants []domain.Participant) error {
	query := `
		INSERT INTO winner_records (event_id, short_id, claimed)
		VALUES ($1, $2, FALSE)
	`

	log := logger.FromContext(ctx)
	for _, p := range participants {
		_, err := r.db.Exec(ctx, query, eventID, p.ShortID)
		if err != nil {
			if isUniqueViolation(err, "") {
				log.Debug("Winner already recorded, skipping",
					"event_id", eventID, "short_id", p.ShortID)
				continue
			}
			return fmt.Errorf("failed to record winner %d: %w", p.ShortID, err)
		}
	}
	return nil
}

// ListWinners retrieves all winner records for an event
func (r *WinnerRepository) ListWinners(ctx context.Context, eventID uuid.UUID) ([]domain.WinnerRecord, error) {
	query := `
		SELECT event_id, short_id, claimed, created_at
		FROM winner_records
		WHERE event_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query winners: %w", err)
	}
	defer rows.Close()

	var records []domain.WinnerRecord
	for rows.Next() {
		var w domain.WinnerRecord
		if err := rows.Scan(&w.EventID, &w.ShortID, &w.Claimed, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan winner record: %w", err)
		}
		records = append(records, w)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

// GetWinner retrieves a single winner record
func (r *WinnerRepository) GetWinner(ctx context.Context, eventID uuid.UUID, shortID int) (*domain.WinnerRecord, error) {
	query := `
		SELECT event_id, short_id, claimed, created_at
		FROM winner_records
		WHERE event_id = $1 AND short_id = $2
	`

	var w domain.WinnerRecord
	err := r.db.QueryRow(ctx, query, eventID, shortID).Scan(&w.EventID, &w.ShortID, &w.Claimed, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWinnerNotFound
		}
		return nil, fmt.Errorf("failed to get winner record: %w", err)
	}
	return &w, nil
}

// MarkClaimed flips an unclaimed prize to claimed. The WHERE clause on
// claimed makes concurrent redemption attempts race safely: exactly one
// caller sees the row flip.
func (r *WinnerRepository) MarkClaimed(ctx context.Context, eventID uuid.UUID, shortID int) error {
	query := `
		UPDATE winner_records SET claimed = TRUE
		WHERE event_id = $1 AND short_id = $2 AND claimed = FALSE
	`

	tag, err := r.db.Exec(ctx, query, eventID, shortID)
	if err != nil {
		return fmt.Errorf("failed to mark prize claimed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish "no record" from "already claimed"
		if _, err := r.GetWinner(ctx, eventID, shortID); err != nil {
			return err
		}
		return domain.ErrPrizeAlreadyClaimed
	}
	return nil
}
