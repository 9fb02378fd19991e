package repository

import (
	"context"
	"fmt"
	"time"

	"waifubot/database"
	"waifubot/models"
)

// BetRepository implements the service.BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

// Create creates a new bet record
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	query := `
		INSERT INTO bets (telegram_id, amount, win_probability, won, win_amount, balance_history_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.TelegramID,
		bet.Amount,
		bet.WinProbability,
		bet.Won,
		bet.WinAmount,
		bet.BalanceHistoryID,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet for user %d: %w", bet.TelegramID, err)
	}
	return nil
}

// GetByUserSince returns all bets for a user since a specific time
func (r *BetRepository) GetByUserSince(ctx context.Context, telegramID int64, since time.Time) ([]*models.Bet, error) {
	query := `
		SELECT id, telegram_id, amount, win_probability, won, win_amount, balance_history_id, created_at
		FROM bets
		WHERE telegram_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`

	rows, err := r.q.Query(ctx, query, telegramID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var bets []*models.Bet
	for rows.Next() {
		var bet models.Bet
		if err := rows.Scan(
			&bet.ID, &bet.TelegramID, &bet.Amount, &bet.WinProbability,
			&bet.Won, &bet.WinAmount, &bet.BalanceHistoryID, &bet.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, &bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// GetStats returns betting statistics for a user
func (r *BetRepository) GetStats(ctx context.Context, telegramID int64) (*models.BetStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE won),
			COUNT(*) FILTER (WHERE NOT won),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(win_amount) FILTER (WHERE won), 0),
			COALESCE(SUM(amount) FILTER (WHERE NOT won), 0),
			COALESCE(MAX(win_amount) FILTER (WHERE won), 0),
			COALESCE(MAX(amount) FILTER (WHERE NOT won), 0)
		FROM bets
		WHERE telegram_id = $1
	`

	var stats models.BetStats
	err := r.q.QueryRow(ctx, query, telegramID).Scan(
		&stats.TotalBets,
		&stats.TotalWins,
		&stats.TotalLosses,
		&stats.TotalWagered,
		&stats.TotalWon,
		&stats.TotalLost,
		&stats.BiggestWin,
		&stats.BiggestLoss,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get bet stats for user %d: %w", telegramID, err)
	}
	return &stats, nil
}
