package models

import "time"

// Cooldown scopes. One row per (user, scope); overwritten on each use.
const (
	CooldownScopeDaily = "daily"
	CooldownScopeRaid  = "raid"
	CooldownScopeGrab  = "grab"
)

// Cooldown maps a (user, scope) pair to the time the action is next allowed
type Cooldown struct {
	TelegramID  int64     `db:"telegram_id"`
	Scope       string    `db:"scope"`
	AvailableAt time.Time `db:"available_at"`
}

// Blocked reports whether the action is still on cooldown at now
func (c *Cooldown) Blocked(now time.Time) bool {
	return now.Before(c.AvailableAt)
}

// Remaining returns how long until the action is allowed again
func (c *Cooldown) Remaining(now time.Time) time.Duration {
	if !c.Blocked(now) {
		return 0
	}
	return c.AvailableAt.Sub(now)
}
