package models

import "time"

// Rarity classifies how hard a character is to obtain
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// SpawnWeight returns the relative weight used when picking a spawn
func (r Rarity) SpawnWeight() int {
	switch r {
	case RarityCommon:
		return 60
	case RarityRare:
		return 25
	case RarityEpic:
		return 12
	case RarityLegendary:
		return 3
	default:
		return 0
	}
}

// Emoji returns the marker shown next to a character of this rarity
func (r Rarity) Emoji() string {
	switch r {
	case RarityCommon:
		return "⚪"
	case RarityRare:
		return "🟣"
	case RarityEpic:
		return "🟡"
	case RarityLegendary:
		return "💮"
	default:
		return "❔"
	}
}

// ValidRarity reports whether s names a known rarity
func ValidRarity(s string) bool {
	switch Rarity(s) {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// Character is a catalog entry. Granted copies are denormalized into
// owned_characters, so edits here never rewrite what users already hold.
type Character struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Series    string    `db:"series"`
	Rarity    Rarity    `db:"rarity"`
	ImageURL  string    `db:"image_url"`
	Spawnable bool      `db:"spawnable"`
	Removed   bool      `db:"removed"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsSpawnable reports whether the character can appear in chats
func (c *Character) IsSpawnable() bool {
	return c.Spawnable && !c.Removed
}
