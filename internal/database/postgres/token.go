package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventdraw/drawbot/internal/domain"
)

const operatorRole = "operator"

// TokenRepository implements the operator token store for PostgreSQL
type TokenRepository struct {
	db *pgxpool.Pool
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{db: db}
}

// RotateOperatorToken replaces the operator token
func (r *TokenRepository) RotateOperatorToken(ctx context.Context, token string, updatedAt time.Time) error {
	query := `
		INSERT INTO operator_tokens (role, token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (role) DO UPDATE SET token = $2, updated_at = $3
	`

	if _, err := r.db.Exec(ctx, query, operatorRole, token, updatedAt); err != nil {
		return fmt.Errorf("failed to rotate operator token: %w", err)
	}
	return nil
}

// GetOperatorToken retrieves the current operator token
func (r *TokenRepository) GetOperatorToken(ctx context.Context) (string, error) {
	query := `SELECT token FROM operator_tokens WHERE role = $1`

	var token string
	err := r.db.QueryRow(ctx, query, operatorRole).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to get operator token: %w", err)
	}
	return token, nil
}
