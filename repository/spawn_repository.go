package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// SpawnRepository implements the service.SpawnRepository interface
type SpawnRepository struct {
	q queryable
}

// NewSpawnRepository creates a new spawn repository
func NewSpawnRepository(db *database.DB) *SpawnRepository {
	return &SpawnRepository{q: db.Pool}
}

// newSpawnRepositoryWithTx creates a new spawn repository with a transaction
func newSpawnRepositoryWithTx(tx queryable) *SpawnRepository {
	return &SpawnRepository{q: tx}
}

// Upsert makes the character the chat's active spawn, replacing any
// previous unclaimed one
func (r *SpawnRepository) Upsert(ctx context.Context, spawn *models.Spawn) error {
	query := `
		INSERT INTO spawns (chat_id, character_id, spawned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id) DO UPDATE SET
			character_id = EXCLUDED.character_id,
			message_id = 0,
			spawned_at = EXCLUDED.spawned_at
	`

	if _, err := r.q.Exec(ctx, query, spawn.ChatID, spawn.CharacterID, spawn.SpawnedAt); err != nil {
		return fmt.Errorf("failed to upsert spawn for chat %d: %w", spawn.ChatID, err)
	}
	return nil
}

// GetByChat returns the chat's active spawn, or nil
func (r *SpawnRepository) GetByChat(ctx context.Context, chatID int64) (*models.Spawn, error) {
	query := `
		SELECT chat_id, character_id, message_id, spawned_at
		FROM spawns
		WHERE chat_id = $1
	`

	var spawn models.Spawn
	err := r.q.QueryRow(ctx, query, chatID).Scan(
		&spawn.ChatID, &spawn.CharacterID, &spawn.MessageID, &spawn.SpawnedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spawn for chat %d: %w", chatID, err)
	}
	return &spawn, nil
}

// SetMessageID stores the spawn announcement message
func (r *SpawnRepository) SetMessageID(ctx context.Context, chatID int64, messageID int) error {
	query := `UPDATE spawns SET message_id = $1 WHERE chat_id = $2`

	if _, err := r.q.Exec(ctx, query, messageID, chatID); err != nil {
		return fmt.Errorf("failed to set spawn message for chat %d: %w", chatID, err)
	}
	return nil
}

// Delete removes the chat's active spawn
func (r *SpawnRepository) Delete(ctx context.Context, chatID int64) error {
	query := `DELETE FROM spawns WHERE chat_id = $1`

	if _, err := r.q.Exec(ctx, query, chatID); err != nil {
		return fmt.Errorf("failed to delete spawn for chat %d: %w", chatID, err)
	}
	return nil
}
