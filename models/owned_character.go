package models

import "time"

// ObtainedVia records how a character copy entered a collection
type ObtainedVia string

const (
	ObtainedViaGrab  ObtainedVia = "grab"
	ObtainedViaRaid  ObtainedVia = "raid"
	ObtainedViaTrade ObtainedVia = "trade"
	ObtainedViaAdmin ObtainedVia = "admin"
)

// OwnedCharacter is a copy of a catalog entry held by a user. The catalog
// fields are copied by value at grant time; duplicates are allowed.
type OwnedCharacter struct {
	ID          int64       `db:"id"`
	TelegramID  int64       `db:"telegram_id"`
	CharacterID int64       `db:"character_id"`
	Name        string      `db:"name"`
	Series      string      `db:"series"`
	Rarity      Rarity      `db:"rarity"`
	ImageURL    string      `db:"image_url"`
	ObtainedVia ObtainedVia `db:"obtained_via"`
	ObtainedAt  time.Time   `db:"obtained_at"`
}

// CopyOf builds an owned copy from a catalog entry
func CopyOf(c *Character, telegramID int64, via ObtainedVia) *OwnedCharacter {
	return &OwnedCharacter{
		TelegramID:  telegramID,
		CharacterID: c.ID,
		Name:        c.Name,
		Series:      c.Series,
		Rarity:      c.Rarity,
		ImageURL:    c.ImageURL,
		ObtainedVia: via,
	}
}
