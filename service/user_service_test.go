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

func TestUserService_GetOrCreateUser_ExistingUser(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	svc := NewUserService(mockFactory)

	existingUser := &models.User{
		TelegramID: 123456,
		Username:   "testuser",
		Balance:    50000,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(existingUser, nil)

	user, err := svc.GetOrCreateUser(ctx, 123456, "testuser")

	assert.NoError(t, err)
	assert.Equal(t, existingUser, user)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertNotCalled(t, "Record")
}

func TestUserService_GetOrCreateUser_NewUser(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	svc := NewUserService(mockFactory)

	newUser := &models.User{
		TelegramID: 123456,
		Username:   "newuser",
		Balance:    1000,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(nil, nil)
	mockUserRepo.On("Create", ctx, int64(123456), "newuser", int64(1000)).Return(newUser, nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TelegramID == 123456 &&
			h.BalanceBefore == 0 &&
			h.BalanceAfter == 1000 &&
			h.TransactionType == models.TransactionTypeInitial
	})).Return(nil)

	user, err := svc.GetOrCreateUser(ctx, 123456, "newuser")

	assert.NoError(t, err)
	assert.Equal(t, newUser, user)

	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertExpectations(t)
}

func TestUserService_GetOrCreateUser_RefreshesStaleUsername(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.UserRepo = mockUserRepo

	svc := NewUserService(mockFactory)

	existingUser := &models.User{TelegramID: 123456, Username: "oldname", Balance: 500}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(existingUser, nil)
	mockUserRepo.On("UpdateUsername", ctx, int64(123456), "newname").Return(nil)

	user, err := svc.GetOrCreateUser(ctx, 123456, "newname")

	assert.NoError(t, err)
	assert.Equal(t, "newname", user.Username)
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_ClaimDaily_OnCooldown(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockCooldownRepo := new(MockCooldownRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.CooldownRepo = mockCooldownRepo

	svc := NewUserService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(&models.User{TelegramID: 123456, Balance: 500}, nil)
	mockCooldownRepo.On("Get", ctx, int64(123456), models.CooldownScopeDaily).Return(&models.Cooldown{
		TelegramID:  123456,
		Scope:       models.CooldownScopeDaily,
		AvailableAt: time.Now().UTC().Add(3 * time.Hour),
	}, nil)

	granted, _, err := svc.ClaimDaily(ctx, 123456)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already claimed")
	assert.Zero(t, granted)
	mockUoW.AssertNotCalled(t, "Commit")
	mockUserRepo.AssertNotCalled(t, "AddBalance")
}

func TestUserService_ClaimDaily_WithPassBonus(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockCooldownRepo := new(MockCooldownRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)
	mockPassRepo := new(MockPassRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.CooldownRepo = mockCooldownRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo
	mockUoW.PassRepo = mockPassRepo

	svc := NewUserService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(&models.User{TelegramID: 123456, Balance: 500}, nil)
	mockCooldownRepo.On("Get", ctx, int64(123456), models.CooldownScopeDaily).Return(nil, nil)
	mockPassRepo.On("GetActiveByUser", ctx, int64(123456), mock.AnythingOfType("time.Time")).Return(&models.Pass{
		Tier:      models.PassTierSilver,
		ExpiresAt: time.Now().Add(10 * 24 * time.Hour),
	}, nil)

	// 500 base reward + 100 silver bonus
	mockUserRepo.On("AddBalance", ctx, int64(123456), int64(600)).Return(nil)
	mockCooldownRepo.On("Set", ctx, int64(123456), models.CooldownScopeDaily, mock.AnythingOfType("time.Time")).Return(nil)
	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == 600 && h.TransactionType == models.TransactionTypeDaily
	})).Return(nil)

	granted, newBalance, err := svc.ClaimDaily(ctx, 123456)

	assert.NoError(t, err)
	assert.Equal(t, int64(600), granted)
	assert.Equal(t, int64(1100), newBalance)
	mockUserRepo.AssertExpectations(t)
	mockCooldownRepo.AssertExpectations(t)
}

func TestUserService_Transfer(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo

	svc := NewUserService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(111)).Return(&models.User{TelegramID: 111, Balance: 5000}, nil)
	mockUserRepo.On("GetByTelegramID", ctx, int64(222)).Return(&models.User{TelegramID: 222, Balance: 100}, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(111), int64(1500)).Return(nil)
	mockUserRepo.On("AddBalance", ctx, int64(222), int64(1500)).Return(nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TelegramID == 111 && h.TransactionType == models.TransactionTypeTransferOut && h.ChangeAmount == -1500
	})).Return(nil)
	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TelegramID == 222 && h.TransactionType == models.TransactionTypeTransferIn && h.ChangeAmount == 1500
	})).Return(nil)

	result, err := svc.Transfer(ctx, 111, 222, 1500, "alice", "bob")

	assert.NoError(t, err)
	assert.Equal(t, int64(1500), result.Amount)
	assert.Equal(t, int64(3500), result.NewBalance)

	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertExpectations(t)
}

func TestUserService_Transfer_ToSelf(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())

	mockFactory := new(MockUnitOfWorkFactory)
	svc := NewUserService(mockFactory)

	_, err := svc.Transfer(context.Background(), 111, 111, 100, "alice", "alice")

	assert.Error(t, err)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestUserService_Deposit_InsufficientBalance(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.UserRepo = mockUserRepo

	svc := NewUserService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(&models.User{TelegramID: 123456, Balance: 100}, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(123456), int64(500)).Return(ErrInsufficientFunds)

	_, err := svc.Deposit(ctx, 123456, 500)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
	mockUoW.AssertNotCalled(t, "Commit")
}
