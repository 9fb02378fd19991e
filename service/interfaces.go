package service

import (
	"context"
	"errors"
	"time"

	"waifubot/events"
	"waifubot/models"
)

// Sentinel errors surfaced by repositories so services can map database
// constraint violations to user-facing rejections.
var (
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrRaidActive        = errors.New("a raid is already active in this chat")
	ErrAlreadyJoined     = errors.New("already joined this raid")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByTelegramID retrieves a user by their Telegram ID
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)

	// Create creates a new user with the initial wallet balance
	Create(ctx context.Context, telegramID int64, username string, initialBalance int64) (*models.User, error)

	// UpdateUsername refreshes the stored username
	UpdateUsername(ctx context.Context, telegramID int64, username string) error

	// AddBalance adds to a user's wallet atomically
	AddBalance(ctx context.Context, telegramID int64, amount int64) error

	// DeductBalance deducts from a user's wallet in a single conditional
	// update, returning ErrInsufficientFunds when the wallet cannot cover it
	DeductBalance(ctx context.Context, telegramID int64, amount int64) error

	// DeductBalanceUpTo deducts at most amount, floored at zero, and
	// returns how much was actually taken
	DeductBalanceUpTo(ctx context.Context, telegramID int64, amount int64) (int64, error)

	// AddBankBalance adds to a user's bank atomically
	AddBankBalance(ctx context.Context, telegramID int64, amount int64) error

	// DeductBankBalance deducts from a user's bank conditionally
	DeductBankBalance(ctx context.Context, telegramID int64, amount int64) error

	// SetBalance overwrites the wallet balance (admin corrections)
	SetBalance(ctx context.Context, telegramID int64, balance int64) error

	// AddExperience increments the experience counter
	AddExperience(ctx context.Context, telegramID int64, amount int64) error

	// GetScoreboard returns the top users by total balance
	GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error)
}

// BalanceHistoryRepository defines the interface for the balance ledger
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, telegramID int64, limit int) ([]*models.BalanceHistory, error)
}

// CharacterRepository defines the interface for catalog data access
type CharacterRepository interface {
	// Create inserts a new catalog entry
	Create(ctx context.Context, character *models.Character) error

	// GetByID retrieves a catalog entry, including removed ones
	GetByID(ctx context.Context, id int64) (*models.Character, error)

	// List returns catalog entries, optionally including removed ones
	List(ctx context.Context, includeRemoved bool, limit int) ([]*models.Character, error)

	// SetRemoved soft-deletes or restores a catalog entry
	SetRemoved(ctx context.Context, id int64, removed bool) error

	// SetSeriesSpawnable toggles spawn eligibility for a whole series and
	// returns how many entries were affected
	SetSeriesSpawnable(ctx context.Context, series string, spawnable bool) (int64, error)

	// GetRandomSpawnable picks a uniformly random spawnable entry of the
	// given rarity; returns nil when the pool is empty
	GetRandomSpawnable(ctx context.Context, rarity models.Rarity) (*models.Character, error)

	// CountSpawnable returns the number of spawnable entries per rarity
	CountSpawnable(ctx context.Context) (map[models.Rarity]int, error)
}

// CollectionRepository defines the interface for owned-character data access
type CollectionRepository interface {
	// Grant inserts an owned copy into a user's collection
	Grant(ctx context.Context, owned *models.OwnedCharacter) error

	// GetByID retrieves a single owned copy
	GetByID(ctx context.Context, id int64) (*models.OwnedCharacter, error)

	// GetByUser returns a page of a user's collection, newest first
	GetByUser(ctx context.Context, telegramID int64, limit, offset int) ([]*models.OwnedCharacter, error)

	// CountByUser returns the collection size
	CountByUser(ctx context.Context, telegramID int64) (int, error)

	// TransferOwnership moves an owned copy to another user
	TransferOwnership(ctx context.Context, ownedID, toTelegramID int64) error

	// WipeUser deletes a user's entire collection and returns the count
	WipeUser(ctx context.Context, telegramID int64) (int64, error)
}

// SpawnRepository defines the interface for the active-spawn store
type SpawnRepository interface {
	// Upsert makes the character the chat's active spawn, replacing any
	// previous unclaimed one
	Upsert(ctx context.Context, spawn *models.Spawn) error

	// GetByChat returns the chat's active spawn, or nil
	GetByChat(ctx context.Context, chatID int64) (*models.Spawn, error)

	// SetMessageID stores the spawn announcement message
	SetMessageID(ctx context.Context, chatID int64, messageID int) error

	// Delete removes the chat's active spawn
	Delete(ctx context.Context, chatID int64) error
}

// RaidRepository defines the interface for raid data access
type RaidRepository interface {
	// Create inserts a new raid, returning ErrRaidActive when the chat
	// already has an open one
	Create(ctx context.Context, raid *models.Raid) error

	// GetByID retrieves a raid by its ID
	GetByID(ctx context.Context, id int64) (*models.Raid, error)

	// AddParticipant appends a participant, returning ErrAlreadyJoined on
	// a duplicate
	AddParticipant(ctx context.Context, participant *models.RaidParticipant) error

	// GetParticipants returns all participants in join order
	GetParticipants(ctx context.Context, raidID int64) ([]*models.RaidParticipant, error)

	// CountParticipants returns the current participant count
	CountParticipants(ctx context.Context, raidID int64) (int, error)

	// UpdateState transitions the raid state
	UpdateState(ctx context.Context, raidID int64, state models.RaidState) error

	// SetMessageID stores the announcement message for later edits
	SetMessageID(ctx context.Context, raidID int64, messageID int) error

	// GetDue returns open raids whose join deadline has passed
	GetDue(ctx context.Context, now time.Time) ([]*models.Raid, error)

	// Delete removes the raid record after resolution
	Delete(ctx context.Context, raidID int64) error
}

// CooldownRepository defines the interface for the keyed cooldown store
type CooldownRepository interface {
	// Get returns the cooldown row for (user, scope), or nil
	Get(ctx context.Context, telegramID int64, scope string) (*models.Cooldown, error)

	// Set unconditionally overwrites the stored timestamp
	Set(ctx context.Context, telegramID int64, scope string, availableAt time.Time) error
}

// ChatSettingsRepository defines the interface for per-chat configuration
type ChatSettingsRepository interface {
	// GetByChat returns the settings row for a chat, or nil
	GetByChat(ctx context.Context, chatID int64) (*models.ChatSettings, error)

	// Upsert creates or updates the settings row
	Upsert(ctx context.Context, settings *models.ChatSettings) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new bet record
	Create(ctx context.Context, bet *models.Bet) error

	// GetByUserSince returns all bets for a user since a specific time
	GetByUserSince(ctx context.Context, telegramID int64, since time.Time) ([]*models.Bet, error)

	// GetStats returns betting statistics for a user
	GetStats(ctx context.Context, telegramID int64) (*models.BetStats, error)
}

// PassRepository defines the interface for pass data access
type PassRepository interface {
	// Create inserts a purchased pass
	Create(ctx context.Context, pass *models.Pass) error

	// GetActiveByUser returns the user's unexpired pass, if any
	GetActiveByUser(ctx context.Context, telegramID int64, now time.Time) (*models.Pass, error)

	// RecordClaim stores a claim timestamp and bumps the claim counter
	RecordClaim(ctx context.Context, passID int64, claimedAt time.Time) error
}

// TradeRepository defines the interface for trade data access
type TradeRepository interface {
	// Create inserts a new trade offer
	Create(ctx context.Context, trade *models.Trade) error

	// GetByID retrieves a trade by its uuid
	GetByID(ctx context.Context, id string) (*models.Trade, error)

	// UpdateState transitions the trade state
	UpdateState(ctx context.Context, id string, state models.TradeState) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork provides transactional access to all repositories. Events
// published through EventBus are flushed only after a successful commit.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	CharacterRepository() CharacterRepository
	CollectionRepository() CollectionRepository
	SpawnRepository() SpawnRepository
	RaidRepository() RaidRepository
	CooldownRepository() CooldownRepository
	ChatSettingsRepository() ChatSettingsRepository
	BetRepository() BetRepository
	PassRepository() PassRepository
	TradeRepository() TradeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService defines the interface for account and economy operations
type UserService interface {
	// GetOrCreateUser retrieves an existing user or registers a new one
	GetOrCreateUser(ctx context.Context, telegramID int64, username string) (*models.User, error)

	// ClaimDaily grants the cooldown-gated daily reward; returns the
	// amount granted and the new wallet balance
	ClaimDaily(ctx context.Context, telegramID int64) (granted int64, newBalance int64, err error)

	// Deposit moves gems from wallet to bank
	Deposit(ctx context.Context, telegramID int64, amount int64) (*models.User, error)

	// Withdraw moves gems from bank to wallet
	Withdraw(ctx context.Context, telegramID int64, amount int64) (*models.User, error)

	// Transfer moves gems between two users' wallets
	Transfer(ctx context.Context, fromID, toID int64, amount int64, fromUsername, toUsername string) (*models.TransferResult, error)
}

// GamblingService defines the interface for gambling operations
type GamblingService interface {
	// PlaceBet places a bet with the given win probability and amount
	PlaceBet(ctx context.Context, telegramID int64, winProbability float64, betAmount int64) (*models.BetResult, error)

	// GetDailyRiskAmount returns the total amount risked since a given time
	GetDailyRiskAmount(ctx context.Context, telegramID int64, since time.Time) (int64, error)
}

// RaidService defines the interface for the timed raid event
type RaidService interface {
	// StartRaid opens a raid in the chat, debiting the initiator's fee
	StartRaid(ctx context.Context, chatID, initiatorID int64, username string) (*models.Raid, error)

	// JoinRaid adds a paying participant to an open raid, returning the
	// raid and its updated participant count
	JoinRaid(ctx context.Context, raidID, telegramID int64, username string) (*models.Raid, int, error)

	// SetAnnouncement stores the announcement message ID for later edits
	SetAnnouncement(ctx context.Context, raidID int64, messageID int) error

	// GetDueRaids returns open raids whose join window has elapsed
	GetDueRaids(ctx context.Context, now time.Time) ([]*models.Raid, error)

	// ResolveRaid rolls outcomes for every participant, applies their
	// effects and deletes the raid record
	ResolveRaid(ctx context.Context, raidID int64) (*models.RaidResult, error)
}

// SpawnService defines the interface for character spawns and grabs
type SpawnService interface {
	// TriggerSpawn picks a rarity-weighted random character and makes it
	// the chat's active spawn
	TriggerSpawn(ctx context.Context, chatID int64) (*models.Character, error)

	// SetSpawnMessage stores the announcement message for the active spawn
	SetSpawnMessage(ctx context.Context, chatID int64, messageID int) error

	// Grab claims the active spawn by name
	Grab(ctx context.Context, chatID, telegramID int64, name string) (*models.OwnedCharacter, error)
}

// CollectionService defines the interface for harem browsing
type CollectionService interface {
	// GetPage returns one page of a user's collection plus the total count
	GetPage(ctx context.Context, telegramID int64, page, pageSize int) ([]*models.OwnedCharacter, int, error)
}

// TradeService defines the interface for character trades
type TradeService interface {
	// Propose creates a pending trade offer between two users
	Propose(ctx context.Context, chatID, proposerID, recipientID, proposerOwnedID, recipientOwnedID int64) (*models.Trade, error)

	// Respond accepts or declines a pending offer; only the recipient may
	// respond
	Respond(ctx context.Context, tradeID string, responderID int64, accept bool) (*models.Trade, error)
}

// PassService defines the interface for the tiered pass system
type PassService interface {
	// Buy purchases a pass of the given tier
	Buy(ctx context.Context, telegramID int64, tier models.PassTier) (*models.Pass, error)

	// Claim grants the per-tier pass reward, at most once per day
	Claim(ctx context.Context, telegramID int64) (granted int64, pass *models.Pass, err error)

	// Status returns the user's active pass, if any
	Status(ctx context.Context, telegramID int64) (*models.Pass, error)
}

// ChatSettingsService defines the interface for per-chat configuration
type ChatSettingsService interface {
	// GetOrCreateSettings returns the chat's settings, creating defaults
	GetOrCreateSettings(ctx context.Context, chatID int64) (*models.ChatSettings, error)

	// UpdateSettings validates and persists changed settings
	UpdateSettings(ctx context.Context, settings *models.ChatSettings) error
}

// CatalogService defines the interface for owner-only catalog curation
type CatalogService interface {
	// AddCharacter creates a catalog entry
	AddCharacter(ctx context.Context, name, series string, rarity models.Rarity, imageURL string) (*models.Character, error)

	// RemoveCharacter soft-deletes a catalog entry
	RemoveCharacter(ctx context.Context, id int64) error

	// RestoreCharacter undoes a soft delete
	RestoreCharacter(ctx context.Context, id int64) error

	// SetSeriesSpawnable toggles spawn eligibility for a series
	SetSeriesSpawnable(ctx context.Context, series string, spawnable bool) (int64, error)

	// ZeroBalance zeroes a user's wallet (account correction)
	ZeroBalance(ctx context.Context, telegramID int64) error

	// WipeCollection clears a user's collection (account correction)
	WipeCollection(ctx context.Context, telegramID int64) (int64, error)
}

// StatsService defines the interface for statistics operations
type StatsService interface {
	// GetScoreboard returns the top users with their statistics
	GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error)

	// GetProfile returns a user's combined profile
	GetProfile(ctx context.Context, telegramID int64) (*models.UserProfile, error)
}
