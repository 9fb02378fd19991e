package models

import "time"

// TradeState represents the lifecycle state of a trade offer
type TradeState string

const (
	TradeStatePending  TradeState = "pending"
	TradeStateAccepted TradeState = "accepted"
	TradeStateDeclined TradeState = "declined"
	TradeStateExpired  TradeState = "expired"
)

// TradeTTL is how long a pending offer stays valid. Expiry is checked
// lazily when the offer is next touched.
const TradeTTL = 10 * time.Minute

// Trade represents a character-for-character swap offer between two users
type Trade struct {
	ID               string     `db:"id"` // uuid
	ChatID           int64      `db:"chat_id"`
	ProposerID       int64      `db:"proposer_id"`
	RecipientID      int64      `db:"recipient_id"`
	ProposerOwnedID  int64      `db:"proposer_owned_id"`
	RecipientOwnedID int64      `db:"recipient_owned_id"`
	State            TradeState `db:"state"`
	CreatedAt        time.Time  `db:"created_at"`
	ExpiresAt        time.Time  `db:"expires_at"`
}

// IsPending checks if the trade is still awaiting a response
func (t *Trade) IsPending() bool {
	return t.State == TradeStatePending
}

// Expired reports whether the offer has timed out at now
func (t *Trade) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
