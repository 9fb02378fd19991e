package models

import (
	"fmt"
	"time"
)

// RaidState represents the lifecycle state of a raid
type RaidState string

const (
	RaidStateOpen      RaidState = "open"      // accepting joins
	RaidStateResolving RaidState = "resolving" // join window closed, outcomes being rolled
)

// Raid is a timed multi-party event scoped to a single chat. The row is
// deleted once resolved; there is at most one open raid per chat.
type Raid struct {
	ID           int64     `db:"id"`
	ChatID       int64     `db:"chat_id"`
	InitiatorID  int64     `db:"initiator_id"`
	EntryFee     int64     `db:"entry_fee"`
	State        RaidState `db:"state"`
	JoinDeadline time.Time `db:"join_deadline"`
	MessageID    int       `db:"message_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// IsOpen checks if the raid is still accepting joins
func (r *Raid) IsOpen() bool {
	return r.State == RaidStateOpen
}

// JoinWindowExpired checks if the join deadline has passed
func (r *Raid) JoinWindowExpired(now time.Time) bool {
	return now.After(r.JoinDeadline)
}

// CanAcceptJoins checks if a user may still join the raid
func (r *Raid) CanAcceptJoins(now time.Time) bool {
	return r.IsOpen() && !r.JoinWindowExpired(now)
}

// RaidParticipant represents a user who paid the entry fee for a raid
type RaidParticipant struct {
	ID         int64     `db:"id"`
	RaidID     int64     `db:"raid_id"`
	TelegramID int64     `db:"telegram_id"`
	Username   string    `db:"username"`
	JoinedAt   time.Time `db:"joined_at"`
}

// OutcomeKind is one of the fixed raid outcome bands
type OutcomeKind string

const (
	OutcomeCritical OutcomeKind = "critical"
	OutcomeItem     OutcomeKind = "item"
	OutcomeCoin     OutcomeKind = "coin"
	OutcomeLoss     OutcomeKind = "loss"
	OutcomeNothing  OutcomeKind = "nothing"
)

// OutcomeTable holds the discrete weights for each raid outcome band.
// Weights must sum to 100; bands are evaluated as cumulative thresholds in
// the fixed order critical, item, coin, loss, nothing.
type OutcomeTable struct {
	Critical int
	Item     int
	Coin     int
	Loss     int
	Nothing  int
}

// DefaultOutcomeTable returns the stock raid weights
func DefaultOutcomeTable() OutcomeTable {
	return OutcomeTable{Critical: 5, Item: 25, Coin: 35, Loss: 20, Nothing: 15}
}

// Validate checks that all weights are non-negative and sum to 100
func (t OutcomeTable) Validate() error {
	for _, w := range []int{t.Critical, t.Item, t.Coin, t.Loss, t.Nothing} {
		if w < 0 {
			return fmt.Errorf("outcome weight cannot be negative")
		}
	}
	if sum := t.Critical + t.Item + t.Coin + t.Loss + t.Nothing; sum != 100 {
		return fmt.Errorf("outcome weights must sum to 100, got %d", sum)
	}
	return nil
}

// Pick maps a uniform roll in [1,100] to an outcome band. The first
// cumulative threshold the roll falls under wins.
func (t OutcomeTable) Pick(roll int) OutcomeKind {
	threshold := t.Critical
	if roll <= threshold {
		return OutcomeCritical
	}
	threshold += t.Item
	if roll <= threshold {
		return OutcomeItem
	}
	threshold += t.Coin
	if roll <= threshold {
		return OutcomeCoin
	}
	threshold += t.Loss
	if roll <= threshold {
		return OutcomeLoss
	}
	return OutcomeNothing
}

// RaidOutcome is the rolled result for a single participant
type RaidOutcome struct {
	TelegramID int64
	Username   string
	Kind       OutcomeKind
	Amount     int64           // gems gained (positive) or lost (negative)
	Character  *OwnedCharacter // set only for item outcomes
}

// RaidResult summarizes a resolved raid
type RaidResult struct {
	Raid     *Raid
	Outcomes []*RaidOutcome
}

// TotalGained sums the positive gem outcomes
func (r *RaidResult) TotalGained() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.Amount > 0 {
			total += o.Amount
		}
	}
	return total
}
