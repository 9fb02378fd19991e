package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// ChatSettingsRepository implements the service.ChatSettingsRepository interface
type ChatSettingsRepository struct {
	q queryable
}

// NewChatSettingsRepository creates a new chat settings repository
func NewChatSettingsRepository(db *database.DB) *ChatSettingsRepository {
	return &ChatSettingsRepository{q: db.Pool}
}

// newChatSettingsRepositoryWithTx creates a new chat settings repository with a transaction
func newChatSettingsRepositoryWithTx(tx queryable) *ChatSettingsRepository {
	return &ChatSettingsRepository{q: tx}
}

// GetByChat returns the settings row for a chat, or nil
func (r *ChatSettingsRepository) GetByChat(ctx context.Context, chatID int64) (*models.ChatSettings, error) {
	query := `
		SELECT chat_id, spawn_enabled, spawn_threshold, raid_enabled, raid_entry_fee,
		       raid_join_window_seconds, raid_reward_min, raid_reward_max,
		       raid_penalty_min, raid_penalty_max, raid_item_rarity,
		       weight_critical, weight_item, weight_coin, weight_loss, weight_nothing,
		       created_at, updated_at
		FROM chat_settings
		WHERE chat_id = $1
	`

	var s models.ChatSettings
	err := r.q.QueryRow(ctx, query, chatID).Scan(
		&s.ChatID, &s.SpawnEnabled, &s.SpawnThreshold, &s.RaidEnabled, &s.RaidEntryFee,
		&s.RaidJoinWindowSeconds, &s.RaidRewardMin, &s.RaidRewardMax,
		&s.RaidPenaltyMin, &s.RaidPenaltyMax, &s.RaidItemRarity,
		&s.WeightCritical, &s.WeightItem, &s.WeightCoin, &s.WeightLoss, &s.WeightNothing,
		&s.CreatedAt, &s.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings for chat %d: %w", chatID, err)
	}
	return &s, nil
}

// Upsert creates or updates the settings row
func (r *ChatSettingsRepository) Upsert(ctx context.Context, settings *models.ChatSettings) error {
	query := `
		INSERT INTO chat_settings (
			chat_id, spawn_enabled, spawn_threshold, raid_enabled, raid_entry_fee,
			raid_join_window_seconds, raid_reward_min, raid_reward_max,
			raid_penalty_min, raid_penalty_max, raid_item_rarity,
			weight_critical, weight_item, weight_coin, weight_loss, weight_nothing
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (chat_id) DO UPDATE SET
			spawn_enabled = EXCLUDED.spawn_enabled,
			spawn_threshold = EXCLUDED.spawn_threshold,
			raid_enabled = EXCLUDED.raid_enabled,
			raid_entry_fee = EXCLUDED.raid_entry_fee,
			raid_join_window_seconds = EXCLUDED.raid_join_window_seconds,
			raid_reward_min = EXCLUDED.raid_reward_min,
			raid_reward_max = EXCLUDED.raid_reward_max,
			raid_penalty_min = EXCLUDED.raid_penalty_min,
			raid_penalty_max = EXCLUDED.raid_penalty_max,
			raid_item_rarity = EXCLUDED.raid_item_rarity,
			weight_critical = EXCLUDED.weight_critical,
			weight_item = EXCLUDED.weight_item,
			weight_coin = EXCLUDED.weight_coin,
			weight_loss = EXCLUDED.weight_loss,
			weight_nothing = EXCLUDED.weight_nothing,
			updated_at = NOW()
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		settings.ChatID, settings.SpawnEnabled, settings.SpawnThreshold,
		settings.RaidEnabled, settings.RaidEntryFee, settings.RaidJoinWindowSeconds,
		settings.RaidRewardMin, settings.RaidRewardMax,
		settings.RaidPenaltyMin, settings.RaidPenaltyMax, settings.RaidItemRarity,
		settings.WeightCritical, settings.WeightItem, settings.WeightCoin,
		settings.WeightLoss, settings.WeightNothing,
	).Scan(&settings.CreatedAt, &settings.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert settings for chat %d: %w", settings.ChatID, err)
	}
	return nil
}
