package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// PassRepository implements the service.PassRepository interface
type PassRepository struct {
	q queryable
}

// NewPassRepository creates a new pass repository
func NewPassRepository(db *database.DB) *PassRepository {
	return &PassRepository{q: db.Pool}
}

// newPassRepositoryWithTx creates a new pass repository with a transaction
func newPassRepositoryWithTx(tx queryable) *PassRepository {
	return &PassRepository{q: tx}
}

// Create inserts a purchased pass
func (r *PassRepository) Create(ctx context.Context, pass *models.Pass) error {
	query := `
		INSERT INTO passes (telegram_id, tier, purchased_at, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		pass.TelegramID,
		pass.Tier,
		pass.PurchasedAt,
		pass.ExpiresAt,
	).Scan(&pass.ID)

	if err != nil {
		return fmt.Errorf("failed to create %s pass for user %d: %w", pass.Tier, pass.TelegramID, err)
	}
	return nil
}

// GetActiveByUser returns the user's unexpired pass, if any. Expired rows
// are left in place for history.
func (r *PassRepository) GetActiveByUser(ctx context.Context, telegramID int64, now time.Time) (*models.Pass, error) {
	query := `
		SELECT id, telegram_id, tier, purchased_at, expires_at, last_claim_at, claims_made
		FROM passes
		WHERE telegram_id = $1 AND expires_at > $2
		ORDER BY expires_at DESC
		LIMIT 1
	`

	var pass models.Pass
	err := r.q.QueryRow(ctx, query, telegramID, now).Scan(
		&pass.ID, &pass.TelegramID, &pass.Tier,
		&pass.PurchasedAt, &pass.ExpiresAt, &pass.LastClaimAt, &pass.ClaimsMade,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active pass for user %d: %w", telegramID, err)
	}
	return &pass, nil
}

// RecordClaim stores a claim timestamp and bumps the claim counter
func (r *PassRepository) RecordClaim(ctx context.Context, passID int64, claimedAt time.Time) error {
	query := `
		UPDATE passes
		SET last_claim_at = $1, claims_made = claims_made + 1
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, claimedAt, passID)
	if err != nil {
		return fmt.Errorf("failed to record claim for pass %d: %w", passID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pass %d not found", passID)
	}
	return nil
}
