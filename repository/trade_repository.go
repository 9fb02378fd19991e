package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// TradeRepository implements the service.TradeRepository interface
type TradeRepository struct {
	q queryable
}

// NewTradeRepository creates a new trade repository
func NewTradeRepository(db *database.DB) *TradeRepository {
	return &TradeRepository{q: db.Pool}
}

// newTradeRepositoryWithTx creates a new trade repository with a transaction
func newTradeRepositoryWithTx(tx queryable) *TradeRepository {
	return &TradeRepository{q: tx}
}

// Create inserts a new trade offer
func (r *TradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	query := `
		INSERT INTO trades (
			id, chat_id, proposer_id, recipient_id,
			proposer_owned_id, recipient_owned_id, state, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.Exec(ctx, query,
		trade.ID,
		trade.ChatID,
		trade.ProposerID,
		trade.RecipientID,
		trade.ProposerOwnedID,
		trade.RecipientOwnedID,
		trade.State,
		trade.CreatedAt,
		trade.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create trade %s: %w", trade.ID, err)
	}
	return nil
}

// GetByID retrieves a trade by its uuid
func (r *TradeRepository) GetByID(ctx context.Context, id string) (*models.Trade, error) {
	query := `
		SELECT id, chat_id, proposer_id, recipient_id,
		       proposer_owned_id, recipient_owned_id, state, created_at, expires_at
		FROM trades
		WHERE id = $1
	`

	var trade models.Trade
	err := r.q.QueryRow(ctx, query, id).Scan(
		&trade.ID, &trade.ChatID, &trade.ProposerID, &trade.RecipientID,
		&trade.ProposerOwnedID, &trade.RecipientOwnedID, &trade.State,
		&trade.CreatedAt, &trade.ExpiresAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %s: %w", id, err)
	}
	return &trade, nil
}

// UpdateState transitions the trade state
func (r *TradeRepository) UpdateState(ctx context.Context, id string, state models.TradeState) error {
	query := `UPDATE trades SET state = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, state, id)
	if err != nil {
		return fmt.Errorf("failed to update state for trade %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("trade %s not found", id)
	}
	return nil
}
