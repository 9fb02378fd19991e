package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"waifubot/events"
	"waifubot/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, telegramID int64, username string, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, telegramID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUsername(ctx context.Context, telegramID int64, username string) error {
	args := m.Called(ctx, telegramID, username)
	return args.Error(0)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, telegramID int64, amount int64) error {
	args := m.Called(ctx, telegramID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, telegramID int64, amount int64) error {
	args := m.Called(ctx, telegramID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalanceUpTo(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	args := m.Called(ctx, telegramID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) AddBankBalance(ctx context.Context, telegramID int64, amount int64) error {
	args := m.Called(ctx, telegramID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBankBalance(ctx context.Context, telegramID int64, amount int64) error {
	args := m.Called(ctx, telegramID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) SetBalance(ctx context.Context, telegramID int64, balance int64) error {
	args := m.Called(ctx, telegramID, balance)
	return args.Error(0)
}

func (m *MockUserRepository) AddExperience(ctx context.Context, telegramID int64, amount int64) error {
	args := m.Called(ctx, telegramID, amount)
	return args.Error(0)
}

func (m *MockUserRepository) GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreboardEntry), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, telegramID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, telegramID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// MockCharacterRepository is a mock implementation of CharacterRepository
type MockCharacterRepository struct {
	mock.Mock
}

func (m *MockCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	args := m.Called(ctx, character)
	return args.Error(0)
}

func (m *MockCharacterRepository) GetByID(ctx context.Context, id int64) (*models.Character, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Character), args.Error(1)
}

func (m *MockCharacterRepository) List(ctx context.Context, includeRemoved bool, limit int) ([]*models.Character, error) {
	args := m.Called(ctx, includeRemoved, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Character), args.Error(1)
}

func (m *MockCharacterRepository) SetRemoved(ctx context.Context, id int64, removed bool) error {
	args := m.Called(ctx, id, removed)
	return args.Error(0)
}

func (m *MockCharacterRepository) SetSeriesSpawnable(ctx context.Context, series string, spawnable bool) (int64, error) {
	args := m.Called(ctx, series, spawnable)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCharacterRepository) GetRandomSpawnable(ctx context.Context, rarity models.Rarity) (*models.Character, error) {
	args := m.Called(ctx, rarity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Character), args.Error(1)
}

func (m *MockCharacterRepository) CountSpawnable(ctx context.Context) (map[models.Rarity]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.Rarity]int), args.Error(1)
}

// MockCollectionRepository is a mock implementation of CollectionRepository
type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Grant(ctx context.Context, owned *models.OwnedCharacter) error {
	args := m.Called(ctx, owned)
	return args.Error(0)
}

func (m *MockCollectionRepository) GetByID(ctx context.Context, id int64) (*models.OwnedCharacter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OwnedCharacter), args.Error(1)
}

func (m *MockCollectionRepository) GetByUser(ctx context.Context, telegramID int64, limit, offset int) ([]*models.OwnedCharacter, error) {
	args := m.Called(ctx, telegramID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.OwnedCharacter), args.Error(1)
}

func (m *MockCollectionRepository) CountByUser(ctx context.Context, telegramID int64) (int, error) {
	args := m.Called(ctx, telegramID)
	return args.Int(0), args.Error(1)
}

func (m *MockCollectionRepository) TransferOwnership(ctx context.Context, ownedID, toTelegramID int64) error {
	args := m.Called(ctx, ownedID, toTelegramID)
	return args.Error(0)
}

func (m *MockCollectionRepository) WipeUser(ctx context.Context, telegramID int64) (int64, error) {
	args := m.Called(ctx, telegramID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSpawnRepository is a mock implementation of SpawnRepository
type MockSpawnRepository struct {
	mock.Mock
}

func (m *MockSpawnRepository) Upsert(ctx context.Context, spawn *models.Spawn) error {
	args := m.Called(ctx, spawn)
	return args.Error(0)
}

func (m *MockSpawnRepository) GetByChat(ctx context.Context, chatID int64) (*models.Spawn, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Spawn), args.Error(1)
}

func (m *MockSpawnRepository) SetMessageID(ctx context.Context, chatID int64, messageID int) error {
	args := m.Called(ctx, chatID, messageID)
	return args.Error(0)
}

func (m *MockSpawnRepository) Delete(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// MockRaidRepository is a mock implementation of RaidRepository
type MockRaidRepository struct {
	mock.Mock
}

func (m *MockRaidRepository) Create(ctx context.Context, raid *models.Raid) error {
	args := m.Called(ctx, raid)
	return args.Error(0)
}

func (m *MockRaidRepository) GetByID(ctx context.Context, id int64) (*models.Raid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Raid), args.Error(1)
}

func (m *MockRaidRepository) AddParticipant(ctx context.Context, participant *models.RaidParticipant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockRaidRepository) GetParticipants(ctx context.Context, raidID int64) ([]*models.RaidParticipant, error) {
	args := m.Called(ctx, raidID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.RaidParticipant), args.Error(1)
}

func (m *MockRaidRepository) CountParticipants(ctx context.Context, raidID int64) (int, error) {
	args := m.Called(ctx, raidID)
	return args.Int(0), args.Error(1)
}

func (m *MockRaidRepository) UpdateState(ctx context.Context, raidID int64, state models.RaidState) error {
	args := m.Called(ctx, raidID, state)
	return args.Error(0)
}

func (m *MockRaidRepository) SetMessageID(ctx context.Context, raidID int64, messageID int) error {
	args := m.Called(ctx, raidID, messageID)
	return args.Error(0)
}

func (m *MockRaidRepository) GetDue(ctx context.Context, now time.Time) ([]*models.Raid, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Raid), args.Error(1)
}

func (m *MockRaidRepository) Delete(ctx context.Context, raidID int64) error {
	args := m.Called(ctx, raidID)
	return args.Error(0)
}

// MockCooldownRepository is a mock implementation of CooldownRepository
type MockCooldownRepository struct {
	mock.Mock
}

func (m *MockCooldownRepository) Get(ctx context.Context, telegramID int64, scope string) (*models.Cooldown, error) {
	args := m.Called(ctx, telegramID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cooldown), args.Error(1)
}

func (m *MockCooldownRepository) Set(ctx context.Context, telegramID int64, scope string, availableAt time.Time) error {
	args := m.Called(ctx, telegramID, scope, availableAt)
	return args.Error(0)
}

// MockChatSettingsRepository is a mock implementation of ChatSettingsRepository
type MockChatSettingsRepository struct {
	mock.Mock
}

func (m *MockChatSettingsRepository) GetByChat(ctx context.Context, chatID int64) (*models.ChatSettings, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatSettings), args.Error(1)
}

func (m *MockChatSettingsRepository) Upsert(ctx context.Context, settings *models.ChatSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

// MockBetRepository is a mock implementation of BetRepository
type MockBetRepository struct {
	mock.Mock
}

func (m *MockBetRepository) Create(ctx context.Context, bet *models.Bet) error {
	args := m.Called(ctx, bet)
	return args.Error(0)
}

func (m *MockBetRepository) GetByUserSince(ctx context.Context, telegramID int64, since time.Time) ([]*models.Bet, error) {
	args := m.Called(ctx, telegramID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bet), args.Error(1)
}

func (m *MockBetRepository) GetStats(ctx context.Context, telegramID int64) (*models.BetStats, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetStats), args.Error(1)
}

// MockPassRepository is a mock implementation of PassRepository
type MockPassRepository struct {
	mock.Mock
}

func (m *MockPassRepository) Create(ctx context.Context, pass *models.Pass) error {
	args := m.Called(ctx, pass)
	return args.Error(0)
}

func (m *MockPassRepository) GetActiveByUser(ctx context.Context, telegramID int64, now time.Time) (*models.Pass, error) {
	args := m.Called(ctx, telegramID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pass), args.Error(1)
}

func (m *MockPassRepository) RecordClaim(ctx context.Context, passID int64, claimedAt time.Time) error {
	args := m.Called(ctx, passID, claimedAt)
	return args.Error(0)
}

// MockTradeRepository is a mock implementation of TradeRepository
type MockTradeRepository struct {
	mock.Mock
}

func (m *MockTradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

func (m *MockTradeRepository) GetByID(ctx context.Context, id string) (*models.Trade, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Trade), args.Error(1)
}

func (m *MockTradeRepository) UpdateState(ctx context.Context, id string, state models.TradeState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// NoopEventPublisher swallows events; use when a test does not assert on
// published events.
type NoopEventPublisher struct{}

func (NoopEventPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository
// accessors return the structs assigned to the exported fields so tests
// only wire the repositories they touch.
type MockUnitOfWork struct {
	mock.Mock

	UserRepo           UserRepository
	BalanceHistoryRepo BalanceHistoryRepository
	CharacterRepo      CharacterRepository
	CollectionRepo     CollectionRepository
	SpawnRepo          SpawnRepository
	RaidRepo           RaidRepository
	CooldownRepo       CooldownRepository
	ChatSettingsRepo   ChatSettingsRepository
	BetRepo            BetRepository
	PassRepo           PassRepository
	TradeRepo          TradeRepository
	Events             EventPublisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository { return m.UserRepo }
func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.BalanceHistoryRepo
}
func (m *MockUnitOfWork) CharacterRepository() CharacterRepository       { return m.CharacterRepo }
func (m *MockUnitOfWork) CollectionRepository() CollectionRepository     { return m.CollectionRepo }
func (m *MockUnitOfWork) SpawnRepository() SpawnRepository               { return m.SpawnRepo }
func (m *MockUnitOfWork) RaidRepository() RaidRepository                 { return m.RaidRepo }
func (m *MockUnitOfWork) CooldownRepository() CooldownRepository         { return m.CooldownRepo }
func (m *MockUnitOfWork) ChatSettingsRepository() ChatSettingsRepository { return m.ChatSettingsRepo }
func (m *MockUnitOfWork) BetRepository() BetRepository                   { return m.BetRepo }
func (m *MockUnitOfWork) PassRepository() PassRepository                 { return m.PassRepo }
func (m *MockUnitOfWork) TradeRepository() TradeRepository               { return m.TradeRepo }

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.Events == nil {
		return NoopEventPublisher{}
	}
	return m.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
