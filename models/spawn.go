package models

import "time"

// Spawn is the character currently claimable in a chat. One row per chat;
// a new spawn replaces the previous unclaimed one.
type Spawn struct {
	ChatID      int64     `db:"chat_id"`
	CharacterID int64     `db:"character_id"`
	MessageID   int       `db:"message_id"`
	SpawnedAt   time.Time `db:"spawned_at"`
}
