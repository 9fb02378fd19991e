package models

import "time"

// PassTier identifies a purchasable pass level
type PassTier string

const (
	PassTierSilver PassTier = "silver"
	PassTierGold   PassTier = "gold"
)

// passTierInfo holds the fixed economics of a tier
type passTierInfo struct {
	price       int64
	claimReward int64
	dailyBonus  int64 // added on top of the /daily reward
	validDays   int
}

var passTiers = map[PassTier]passTierInfo{
	PassTierSilver: {price: 5000, claimReward: 400, dailyBonus: 100, validDays: 30},
	PassTierGold:   {price: 12000, claimReward: 1000, dailyBonus: 300, validDays: 30},
}

// ValidPassTier reports whether s names a known tier
func ValidPassTier(s string) bool {
	_, ok := passTiers[PassTier(s)]
	return ok
}

// Price returns the purchase cost of the tier in gems
func (t PassTier) Price() int64 { return passTiers[t].price }

// ClaimReward returns the gems granted per pass claim
func (t PassTier) ClaimReward() int64 { return passTiers[t].claimReward }

// DailyBonus returns the extra gems added to the daily reward
func (t PassTier) DailyBonus() int64 { return passTiers[t].dailyBonus }

// ValidDays returns how many days the pass stays active after purchase
func (t PassTier) ValidDays() int { return passTiers[t].validDays }

// Pass represents a user's purchased pass
type Pass struct {
	ID          int64      `db:"id"`
	TelegramID  int64      `db:"telegram_id"`
	Tier        PassTier   `db:"tier"`
	PurchasedAt time.Time  `db:"purchased_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
	LastClaimAt *time.Time `db:"last_claim_at"`
	ClaimsMade  int        `db:"claims_made"`
}

// Active reports whether the pass is still valid at now
func (p *Pass) Active(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

// CanClaim reports whether a claim is allowed at now (one per 24h)
func (p *Pass) CanClaim(now time.Time) bool {
	if !p.Active(now) {
		return false
	}
	if p.LastClaimAt == nil {
		return true
	}
	return now.Sub(*p.LastClaimAt) >= 24*time.Hour
}

// NextClaimAt returns when the next claim unlocks
func (p *Pass) NextClaimAt() time.Time {
	if p.LastClaimAt == nil {
		return p.PurchasedAt
	}
	return p.LastClaimAt.Add(24 * time.Hour)
}
