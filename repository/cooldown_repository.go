package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// CooldownRepository implements the service.CooldownRepository interface
type CooldownRepository struct {
	q queryable
}

// NewCooldownRepository creates a new cooldown repository
func NewCooldownRepository(db *database.DB) *CooldownRepository {
	return &CooldownRepository{q: db.Pool}
}

// newCooldownRepositoryWithTx creates a new cooldown repository with a transaction
func newCooldownRepositoryWithTx(tx queryable) *CooldownRepository {
	return &CooldownRepository{q: tx}
}

// Get returns the cooldown row for (user, scope), or nil. Expired rows are
// returned as-is; callers check Blocked against their own clock.
func (r *CooldownRepository) Get(ctx context.Context, telegramID int64, scope string) (*models.Cooldown, error) {
	query := `
		SELECT telegram_id, scope, available_at
		FROM cooldowns
		WHERE telegram_id = $1 AND scope = $2
	`

	var c models.Cooldown
	err := r.q.QueryRow(ctx, query, telegramID, scope).Scan(&c.TelegramID, &c.Scope, &c.AvailableAt)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s cooldown for user %d: %w", scope, telegramID, err)
	}
	return &c, nil
}

// Set unconditionally overwrites the stored timestamp
func (r *CooldownRepository) Set(ctx context.Context, telegramID int64, scope string, availableAt time.Time) error {
	query := `
		INSERT INTO cooldowns (telegram_id, scope, available_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id, scope) DO UPDATE SET available_at = EXCLUDED.available_at
	`

	if _, err := r.q.Exec(ctx, query, telegramID, scope, availableAt); err != nil {
		return fmt.Errorf("failed to set %s cooldown for user %d: %w", scope, telegramID, err)
	}
	return nil
}
