package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"waifubot/config"
	"waifubot/models"
)

func TestGamblingService_PlaceBet_Win(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)
	mockBetRepo := new(MockBetRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo
	mockUoW.BetRepo = mockBetRepo

	svc := NewGamblingService(mockFactory).(*gamblingService)
	svc.rollFn = func() float64 { return 0.1 } // below any probability under test

	existingUser := &models.User{
		TelegramID: 123456,
		Username:   "testuser",
		Balance:    10000,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByUserSince", ctx, int64(123456), mock.AnythingOfType("time.Time")).Return([]*models.Bet{}, nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(existingUser, nil)
	// 0.5 odds, 1000 bet pays 1000 on a win
	mockUserRepo.On("AddBalance", ctx, int64(123456), int64(1000)).Return(nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.TelegramID == 123456 &&
			h.BalanceBefore == 10000 &&
			h.BalanceAfter == 11000 &&
			h.ChangeAmount == 1000 &&
			h.TransactionType == models.TransactionTypeBetWin
	})).Return(nil).Run(func(args mock.Arguments) {
		history := args.Get(1).(*models.BalanceHistory)
		history.ID = 42
	})

	mockBetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.TelegramID == 123456 &&
			b.Amount == 1000 &&
			b.WinProbability == 0.5 &&
			b.Won == true &&
			b.WinAmount == 1000 &&
			*b.BalanceHistoryID == 42
	})).Return(nil)

	result, err := svc.PlaceBet(ctx, 123456, 0.5, 1000)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.True(t, result.Won)
	assert.Equal(t, int64(1000), result.BetAmount)
	assert.Equal(t, int64(1000), result.WinAmount)
	assert.Equal(t, int64(11000), result.NewBalance)

	mockFactory.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBalanceHistoryRepo.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
}

func TestGamblingService_PlaceBet_Loss(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockBalanceHistoryRepo := new(MockBalanceHistoryRepository)
	mockBetRepo := new(MockBetRepository)

	mockUoW.UserRepo = mockUserRepo
	mockUoW.BalanceHistoryRepo = mockBalanceHistoryRepo
	mockUoW.BetRepo = mockBetRepo

	svc := NewGamblingService(mockFactory).(*gamblingService)
	svc.rollFn = func() float64 { return 0.9 } // above any probability under test

	existingUser := &models.User{
		TelegramID: 123456,
		Username:   "testuser",
		Balance:    10000,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockBetRepo.On("GetByUserSince", ctx, int64(123456), mock.AnythingOfType("time.Time")).Return([]*models.Bet{}, nil)

	mockUserRepo.On("GetByTelegramID", ctx, int64(123456)).Return(existingUser, nil)
	mockUserRepo.On("DeductBalance", ctx, int64(123456), int64(1000)).Return(nil)

	mockBalanceHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.ChangeAmount == -1000 &&
			h.BalanceAfter == 9000 &&
			h.TransactionType == models.TransactionTypeBetLoss
	})).Return(nil)

	mockBetRepo.On("Create", ctx, mock.MatchedBy(func(b *models.Bet) bool {
		return b.Amount == 1000 && !b.Won
	})).Return(nil)

	result, err := svc.PlaceBet(ctx, 123456, 0.5, 1000)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.False(t, result.Won)
	assert.Equal(t, int64(9000), result.NewBalance)

	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockBetRepo.AssertExpectations(t)
}

func TestGamblingService_PlaceBet_DailyLimitReached(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockBetRepo := new(MockBetRepository)

	mockUoW.BetRepo = mockBetRepo

	svc := NewGamblingService(mockFactory)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// Already risked the full daily limit
	mockBetRepo.On("GetByUserSince", ctx, int64(123456), mock.AnythingOfType("time.Time")).Return([]*models.Bet{
		{Amount: 25000},
	}, nil)

	result, err := svc.PlaceBet(ctx, 123456, 0.5, 1000)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "daily gambling limit")
}

func TestGamblingService_PlaceBet_InvalidInputs(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	svc := NewGamblingService(mockFactory)

	_, err := svc.PlaceBet(ctx, 123456, 0, 1000)
	assert.Error(t, err, "probability 0 is invalid")

	_, err = svc.PlaceBet(ctx, 123456, 1, 1000)
	assert.Error(t, err, "probability 1 is invalid")

	_, err = svc.PlaceBet(ctx, 123456, 0.5, 0)
	assert.Error(t, err, "zero bet is invalid")

	mockFactory.AssertNotCalled(t, "Create")
}
