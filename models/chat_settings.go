package models

import "time"

// ChatSettings represents per-chat configuration for spawns and raids
type ChatSettings struct {
	ChatID                int64     `db:"chat_id"`
	SpawnEnabled          bool      `db:"spawn_enabled"`
	SpawnThreshold        int       `db:"spawn_threshold"` // messages between spawns
	RaidEnabled           bool      `db:"raid_enabled"`
	RaidEntryFee          int64     `db:"raid_entry_fee"`
	RaidJoinWindowSeconds int       `db:"raid_join_window_seconds"`
	RaidRewardMin         int64     `db:"raid_reward_min"`
	RaidRewardMax         int64     `db:"raid_reward_max"`
	RaidPenaltyMin        int64     `db:"raid_penalty_min"`
	RaidPenaltyMax        int64     `db:"raid_penalty_max"`
	RaidItemRarity        Rarity    `db:"raid_item_rarity"`
	WeightCritical        int       `db:"weight_critical"`
	WeightItem            int       `db:"weight_item"`
	WeightCoin            int       `db:"weight_coin"`
	WeightLoss            int       `db:"weight_loss"`
	WeightNothing         int       `db:"weight_nothing"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

// DefaultChatSettings returns the settings applied to a chat on first use
func DefaultChatSettings(chatID int64) *ChatSettings {
	table := DefaultOutcomeTable()
	return &ChatSettings{
		ChatID:                chatID,
		SpawnEnabled:          true,
		SpawnThreshold:        75,
		RaidEnabled:           true,
		RaidEntryFee:          500,
		RaidJoinWindowSeconds: 60,
		RaidRewardMin:         400,
		RaidRewardMax:         1200,
		RaidPenaltyMin:        100,
		RaidPenaltyMax:        400,
		RaidItemRarity:        RarityRare,
		WeightCritical:        table.Critical,
		WeightItem:            table.Item,
		WeightCoin:            table.Coin,
		WeightLoss:            table.Loss,
		WeightNothing:         table.Nothing,
	}
}

// OutcomeTable assembles the raid weight table from the stored columns
func (s *ChatSettings) OutcomeTable() OutcomeTable {
	return OutcomeTable{
		Critical: s.WeightCritical,
		Item:     s.WeightItem,
		Coin:     s.WeightCoin,
		Loss:     s.WeightLoss,
		Nothing:  s.WeightNothing,
	}
}

// JoinWindow returns the join window as a duration
func (s *ChatSettings) JoinWindow() time.Duration {
	return time.Duration(s.RaidJoinWindowSeconds) * time.Second
}
