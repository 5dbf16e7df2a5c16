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

// ContactRepository implements the contact repository for PostgreSQL
type ContactRepository struct {
	db *pgxpool.Pool
}

// NewContactRepository creates a new ContactRepository
func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

// EnsureContact inserts the contact if unknown and returns the stored row.
// The upsert refreshes the display name on conflict so renamed chat users
// stay current.
func (r *ContactRepository) EnsureContact(ctx context.Context, platform, platformID, name string) (*domain.Contact, error) {
	query := `
		INSERT INTO contacts (platform, platform_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (platform, platform_id)
			DO UPDATE SET name = EXCLUDED.name
		RETURNING contact_id, platform, platform_id, name, created_at
	`

	var c domain.Contact
	err := r.db.QueryRow(ctx, query, platform, platformID, name).Scan(
		&c.ID, &c.Platform, &c.PlatformID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure contact: %w", err)
	}
	return &c, nil
}

// GetContact retrieves a contact by id
func (r *ContactRepository) GetContact(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	query := `SELECT contact_id, platform, platform_id, name, created_at FROM contacts WHERE contact_id = $1`

	var c domain.Contact
	err := r.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Platform, &c.PlatformID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &c, nil
}

// GetContactByPlatformID retrieves a contact by its messaging identity
func (r *ContactRepository) GetContactByPlatformID(ctx context.Context, platform, platformID string) (*domain.Contact, error) {
	query := `SELECT contact_id, platform, platform_id, name, created_at FROM contacts WHERE platform = $1 AND platform_id = $2`

	var c domain.Contact
	err := r.db.QueryRow(ctx, query, platform, platformID).Scan(&c.ID, &c.Platform, &c.PlatformID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact by platform id: %w", err)
	}
	return &c, nil
}

// ListContacts retrieves every known contact
func (r *ContactRepository) ListContacts(ctx context.Context) ([]domain.Contact, error) {
	query := `SELECT contact_id, platform, platform_id, name, created_at FROM contacts ORDER BY created_at`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// ResolveContacts returns the contacts linked to the given participants
func (r *ContactRepository) ResolveContacts(ctx context.Context, participantIDs []uuid.UUID) ([]domain.Contact, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.contact_id, c.platform, c.platform_id, c.name, c.created_at
		FROM contacts c
		JOIN participants p ON p.contact_id = c.contact_id
		WHERE p.participant_id = ANY($1)
	`

	rows, err := r.db.Query(ctx, query, participantIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func scanContacts(rows pgx.Rows) ([]domain.Contact, error) {
	var contacts []domain.Contact
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.Platform, &c.PlatformID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return contacts, nil
}
