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

func newTradeTestService(factory UnitOfWorkFactory, now time.Time) *tradeService {
	svc := NewTradeService(factory).(*tradeService)
	svc.nowFn = func() time.Time { return now }
	return svc
}

func TestTradeService_Propose(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockCollectionRepo := new(MockCollectionRepository)
	mockTradeRepo := new(MockTradeRepository)

	mockUoW.CollectionRepo = mockCollectionRepo
	mockUoW.TradeRepo = mockTradeRepo

	svc := newTradeTestService(mockFactory, now)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockCollectionRepo.On("GetByID", ctx, int64(10)).Return(&models.OwnedCharacter{ID: 10, TelegramID: 111}, nil)
	mockCollectionRepo.On("GetByID", ctx, int64(20)).Return(&models.OwnedCharacter{ID: 20, TelegramID: 222}, nil)

	mockTradeRepo.On("Create", ctx, mock.MatchedBy(func(tr *models.Trade) bool {
		return tr.ID != "" &&
			tr.ProposerID == 111 &&
			tr.RecipientID == 222 &&
			tr.State == models.TradeStatePending &&
			tr.ExpiresAt.Equal(now.Add(models.TradeTTL))
	})).Return(nil)

	trade, err := svc.Propose(ctx, -100, 111, 222, 10, 20)

	assert.NoError(t, err)
	assert.NotEmpty(t, trade.ID)
	mockTradeRepo.AssertExpectations(t)
}

func TestTradeService_Propose_NotOwned(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockCollectionRepo := new(MockCollectionRepository)
	mockTradeRepo := new(MockTradeRepository)

	mockUoW.CollectionRepo = mockCollectionRepo
	mockUoW.TradeRepo = mockTradeRepo

	svc := newTradeTestService(mockFactory, now)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// The offered copy belongs to someone else
	mockCollectionRepo.On("GetByID", ctx, int64(10)).Return(&models.OwnedCharacter{ID: 10, TelegramID: 999}, nil)

	_, err := svc.Propose(ctx, -100, 111, 222, 10, 20)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "do not own")
	mockTradeRepo.AssertNotCalled(t, "Create")
}

func TestTradeService_Respond_Accept(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockCollectionRepo := new(MockCollectionRepository)
	mockTradeRepo := new(MockTradeRepository)

	mockUoW.CollectionRepo = mockCollectionRepo
	mockUoW.TradeRepo = mockTradeRepo

	svc := newTradeTestService(mockFactory, now)

	trade := &models.Trade{
		ID:               "t-1",
		ProposerID:       111,
		RecipientID:      222,
		ProposerOwnedID:  10,
		RecipientOwnedID: 20,
		State:            models.TradeStatePending,
		ExpiresAt:        now.Add(time.Minute),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTradeRepo.On("GetByID", ctx, "t-1").Return(trade, nil)
	mockCollectionRepo.On("GetByID", ctx, int64(10)).Return(&models.OwnedCharacter{ID: 10, TelegramID: 111}, nil)
	mockCollectionRepo.On("GetByID", ctx, int64(20)).Return(&models.OwnedCharacter{ID: 20, TelegramID: 222}, nil)
	mockCollectionRepo.On("TransferOwnership", ctx, int64(10), int64(222)).Return(nil)
	mockCollectionRepo.On("TransferOwnership", ctx, int64(20), int64(111)).Return(nil)
	mockTradeRepo.On("UpdateState", ctx, "t-1", models.TradeStateAccepted).Return(nil)

	got, err := svc.Respond(ctx, "t-1", 222, true)

	assert.NoError(t, err)
	assert.Equal(t, models.TradeStateAccepted, got.State)
	mockCollectionRepo.AssertExpectations(t)
}

func TestTradeService_Respond_OnlyRecipient(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockTradeRepo := new(MockTradeRepository)

	mockUoW.TradeRepo = mockTradeRepo

	svc := newTradeTestService(mockFactory, now)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTradeRepo.On("GetByID", ctx, "t-1").Return(&models.Trade{
		ID:          "t-1",
		ProposerID:  111,
		RecipientID: 222,
		State:       models.TradeStatePending,
		ExpiresAt:   now.Add(time.Minute),
	}, nil)

	// The proposer tapping their own Accept button is rejected
	_, err := svc.Respond(ctx, "t-1", 111, true)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not for you")
}

func TestTradeService_Respond_ExpiredLazily(t *testing.T) {
	config.SetTestConfig(config.NewTestConfig())
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockCollectionRepo := new(MockCollectionRepository)
	mockTradeRepo := new(MockTradeRepository)

	mockUoW.CollectionRepo = mockCollectionRepo
	mockUoW.TradeRepo = mockTradeRepo

	svc := newTradeTestService(mockFactory, now)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockTradeRepo.On("GetByID", ctx, "t-1").Return(&models.Trade{
		ID:          "t-1",
		ProposerID:  111,
		RecipientID: 222,
		State:       models.TradeStatePending,
		ExpiresAt:   now.Add(-time.Second),
	}, nil)
	mockTradeRepo.On("UpdateState", ctx, "t-1", models.TradeStateExpired).Return(nil)

	got, err := svc.Respond(ctx, "t-1", 222, true)

	assert.Error(t, err)
	assert.Equal(t, models.TradeStateExpired, got.State)
	mockCollectionRepo.AssertNotCalled(t, "TransferOwnership")
}
