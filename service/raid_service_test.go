package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"waifubot/config"
	"waifubot/models"
)

func newRaidTestService(factory UnitOfWorkFactory, now time.Time, rolls ...int) *raidService {
	svc := NewRaidService(factory).(*raidService)
	svc.nowFn = func() time.Time { return now }
	i := 0
	svc.rollFn = func(n int) int {
		roll := rolls[i%len(rolls)]
		i++
		return roll
	}
	return svc
}

func TestRaidService_StartRaid(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockRaidRepo := new(MockRaidRepository)
	mockCooldownRepo := new(MockCooldownRepository)
	mockSettingsRepo := new(MockChatSettingsRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.RaidRepo = mockRaidRepo
	mockUoW.CooldownRepo = mockCooldownRepo
	mockUoW.ChatSettingsRepo = mockSettingsRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	svc := newRaidTestService(mockFactory, now, 0)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// No settings row: defaults apply (fee 500, 60s window)
	mockSettingsRepo.On("GetByChat", ctx, int64(-100)).Return(nil, nil)
	mockUserRepo.On("GetByTelegramID", ctx, int64(111)).Return(&models.User{TelegramID: 111, Balance: 2000}, nil)
	mockCooldownRepo.On("Get", ctx, int64(111), models.CooldownScopeRaid).Return(nil, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(111), int64(500)).Return(nil)

	mockRaidRepo.On("Create", ctx, mock.MatchedBy(func(r *models.Raid) bool {
		return r.ChatID == -100 &&
			r.InitiatorID == 111 &&
			r.EntryFee == 500 &&
			r.State == models.RaidStateOpen &&
			r.JoinDeadline.Equal(now.Add(60*time.Second))
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Raid).ID = 7
	})

	mockRaidRepo.On("AddParticipant", ctx, mock.MatchedBy(func(p *models.RaidParticipant) bool {
		return p.RaidID == 7 && p.TelegramID == 111
	})).Return(nil)

	mockCooldownRepo.On("Set", ctx, int64(111), models.CooldownScopeRaid, now.Add(raidStartCooldown)).Return(nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeRaidEntry &&
			h.ChangeAmount == -500 &&
			*h.RelatedID == 7
	})).Return(nil)

	raid, err := svc.StartRaid(ctx, -100, 111, "alice")

	assert.NoError(t, err)
	assert.Equal(t, int64(7), raid.ID)

	mockRaidRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockCooldownRepo.AssertExpectations(t)
}

func TestRaidService_StartRaid_AlreadyActive(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockRaidRepo := new(MockRaidRepository)
	mockCooldownRepo := new(MockCooldownRepository)
	mockSettingsRepo := new(MockChatSettingsRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.RaidRepo = mockRaidRepo
	mockUoW.CooldownRepo = mockCooldownRepo
	mockUoW.ChatSettingsRepo = mockSettingsRepo

	svc := newRaidTestService(mockFactory, now, 0)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockSettingsRepo.On("GetByChat", ctx, int64(-100)).Return(nil, nil)
	mockUserRepo.On("GetByTelegramID", ctx, int64(111)).Return(&models.User{TelegramID: 111, Balance: 2000}, nil)
	mockCooldownRepo.On("Get", ctx, int64(111), models.CooldownScopeRaid).Return(nil, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(111), int64(500)).Return(nil)
	mockRaidRepo.On("Create", ctx, mock.Anything).Return(ErrRaidActive)

	raid, err := svc.StartRaid(ctx, -100, 111, "alice")

	assert.ErrorIs(t, err, ErrRaidActive)
	assert.Nil(t, raid)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestRaidService_StartRaid_RaidsDisabled(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockSettingsRepo := new(MockChatSettingsRepository)

	mockUoW.ChatSettingsRepo = mockSettingsRepo

	svc := newRaidTestService(mockFactory, now, 0)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	settings := models.DefaultChatSettings(-100)
	settings.RaidEnabled = false
	mockSettingsRepo.On("GetByChat", ctx, int64(-100)).Return(settings, nil)

	_, err := svc.StartRaid(ctx, -100, 111, "alice")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestRaidService_JoinRaid_DoubleJoinNeverChargesTwice(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockRaidRepo := new(MockRaidRepository)
	mockCooldownRepo := new(MockCooldownRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.RaidRepo = mockRaidRepo
	mockUoW.CooldownRepo = mockCooldownRepo

	svc := newRaidTestService(mockFactory, now, 0)

	raid := &models.Raid{
		ID:           7,
		ChatID:       -100,
		EntryFee:     500,
		State:        models.RaidStateOpen,
		JoinDeadline: now.Add(time.Minute),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaidRepo.On("GetByID", ctx, int64(7)).Return(raid, nil)
	mockUserRepo.On("GetByTelegramID", ctx, int64(222)).Return(&models.User{TelegramID: 222, Balance: 1000}, nil)
	mockCooldownRepo.On("Get", ctx, int64(222), models.CooldownScopeRaid).Return(nil, nil)

	// The participant row is inserted before any money moves, so a
	// duplicate join is rejected with the wallet untouched
	mockRaidRepo.On("AddParticipant", ctx, mock.Anything).Return(ErrAlreadyJoined)

	_, _, err := svc.JoinRaid(ctx, 7, 222, "bob")

	assert.ErrorIs(t, err, ErrAlreadyJoined)
	mockUserRepo.AssertNotCalled(t, "DeductBalance")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestRaidService_JoinRaid_WindowClosed(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaidRepo := new(MockRaidRepository)

	mockUoW.RaidRepo = mockRaidRepo

	svc := newRaidTestService(mockFactory, now, 0)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaidRepo.On("GetByID", ctx, int64(7)).Return(&models.Raid{
		ID:           7,
		State:        models.RaidStateOpen,
		JoinDeadline: now.Add(-time.Second),
	}, nil)

	_, _, err := svc.JoinRaid(ctx, 7, 222, "bob")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "join window has closed")
}

func TestRaidService_ResolveRaid_OutcomePerParticipant(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockRaidRepo := new(MockRaidRepository)
	mockSettingsRepo := new(MockChatSettingsRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.RaidRepo = mockRaidRepo
	mockUoW.ChatSettingsRepo = mockSettingsRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	// Default table: rolls 31..65 land on the coin band. rollFn returns
	// 49 for the outcome roll (-> roll 50 -> coin) and 0 for the reward
	// roll (-> reward = RaidRewardMin).
	svc := newRaidTestService(mockFactory, now, 49, 0)

	raid := &models.Raid{ID: 7, ChatID: -100, State: models.RaidStateOpen, EntryFee: 500}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaidRepo.On("GetByID", ctx, int64(7)).Return(raid, nil)
	mockRaidRepo.On("UpdateState", ctx, int64(7), models.RaidStateResolving).Return(nil)
	mockSettingsRepo.On("GetByChat", ctx, int64(-100)).Return(nil, nil)
	mockRaidRepo.On("GetParticipants", ctx, int64(7)).Return([]*models.RaidParticipant{
		{RaidID: 7, TelegramID: 111, Username: "alice"},
	}, nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(111)).Return(&models.User{TelegramID: 111, Balance: 1500}, nil)
	mockUserRepo.On("AddBalance", ctx, int64(111), int64(400)).Return(nil) // default RaidRewardMin
	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeRaidReward && h.ChangeAmount == 400
	})).Return(nil)

	mockRaidRepo.On("Delete", ctx, int64(7)).Return(nil)

	result, err := svc.ResolveRaid(ctx, 7)

	assert.NoError(t, err)
	assert.Len(t, result.Outcomes, 1)
	assert.Equal(t, models.OutcomeCoin, result.Outcomes[0].Kind)
	assert.Equal(t, int64(400), result.Outcomes[0].Amount)

	mockRaidRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestRaidService_ResolveRaid_ItemPoolEmptyFallsBackToCoin(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockRaidRepo := new(MockRaidRepository)
	mockCharacterRepo := new(MockCharacterRepository)
	mockSettingsRepo := new(MockChatSettingsRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.RaidRepo = mockRaidRepo
	mockUoW.CharacterRepo = mockCharacterRepo
	mockUoW.ChatSettingsRepo = mockSettingsRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	// Roll 9 -> roll 10 lands in the item band (6..30 with defaults);
	// the empty pool downgrades it to a coin paying RaidRewardMin.
	svc := newRaidTestService(mockFactory, now, 9, 0)

	raid := &models.Raid{ID: 7, ChatID: -100, State: models.RaidStateOpen}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaidRepo.On("GetByID", ctx, int64(7)).Return(raid, nil)
	mockRaidRepo.On("UpdateState", ctx, int64(7), models.RaidStateResolving).Return(nil)
	mockSettingsRepo.On("GetByChat", ctx, int64(-100)).Return(nil, nil)
	mockRaidRepo.On("GetParticipants", ctx, int64(7)).Return([]*models.RaidParticipant{
		{RaidID: 7, TelegramID: 111, Username: "alice"},
	}, nil)

	mockCharacterRepo.On("GetRandomSpawnable", ctx, models.RarityRare).Return(nil, nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(111)).Return(&models.User{TelegramID: 111, Balance: 1500}, nil)
	mockUserRepo.On("AddBalance", ctx, int64(111), int64(400)).Return(nil)
	mockBalanceHistoryRepo.On("Record", ctx, mock.Anything).Return(nil)
	mockRaidRepo.On("Delete", ctx, int64(7)).Return(nil)

	result, err := svc.ResolveRaid(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeCoin, result.Outcomes[0].Kind)
	assert.Nil(t, result.Outcomes[0].Character)
}

func TestRaidService_ResolveRaid_LossFloorsAtZero(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockRaidRepo := new(MockRaidRepository)
	mockSettingsRepo := new(MockChatSettingsRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.RaidRepo = mockRaidRepo
	mockUoW.ChatSettingsRepo = mockSettingsRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	// Roll 69 -> roll 70 lands in the loss band (66..85 with defaults);
	// penalty roll 0 -> penalty = RaidPenaltyMin (100). Wallet only has
	// 60, so the deduction floors there.
	svc := newRaidTestService(mockFactory, now, 69, 0)

	raid := &models.Raid{ID: 7, ChatID: -100, State: models.RaidStateOpen}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaidRepo.On("GetByID", ctx, int64(7)).Return(raid, nil)
	mockRaidRepo.On("UpdateState", ctx, int64(7), models.RaidStateResolving).Return(nil)
	mockSettingsRepo.On("GetByChat", ctx, int64(-100)).Return(nil, nil)
	mockRaidRepo.On("GetParticipants", ctx, int64(7)).Return([]*models.RaidParticipant{
		{RaidID: 7, TelegramID: 111, Username: "alice"},
	}, nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(111)).Return(&models.User{TelegramID: 111, Balance: 60}, nil)
	mockUserRepo.On("DeductBalanceUpTo", ctx, int64(111), int64(100)).Return(int64(60), nil)
	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TransactionType == models.TransactionTypeRaidPenalty && h.ChangeAmount == -60
	})).Return(nil)
	mockRaidRepo.On("Delete", ctx, int64(7)).Return(nil)

	result, err := svc.ResolveRaid(ctx, 7)

	assert.NoError(t, err)
	assert.Equal(t, models.OutcomeLoss, result.Outcomes[0].Kind)
	assert.Equal(t, int64(-60), result.Outcomes[0].Amount)
}

func TestRaidService_ResolveRaid_AlreadyResolved(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockRaidRepo := new(MockRaidRepository)

	mockUoW.RaidRepo = mockRaidRepo

	svc := newRaidTestService(mockFactory, now, 0)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockRaidRepo.On("GetByID", ctx, int64(7)).Return(nil, nil)

	result, err := svc.ResolveRaid(ctx, 7)

	assert.NoError(t, err)
	assert.Nil(t, result, "a raid another sweep already resolved is not an error")
}
