package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"waifubot/models"
)

type tradeService struct {
	uowFactory UnitOfWorkFactory
	nowFn      func() time.Time
}

// NewTradeService creates a new trade service
func NewTradeService(uowFactory UnitOfWorkFactory) TradeService {
	return &tradeService{
		uowFactory: uowFactory,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Propose creates a pending character-for-character trade offer. Both
// sides' ownership is verified up front; the swap itself happens on accept.
func (s *tradeService) Propose(ctx context.Context, chatID, proposerID, recipientID, proposerOwnedID, recipientOwnedID int64) (*models.Trade, error) {
	if proposerID == recipientID {
		return nil, fmt.Errorf("cannot trade with yourself")
	}
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	offered, err := uow.CollectionRepository().GetByID(ctx, proposerOwnedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get offered character: %w", err)
	}
	if offered == nil || offered.TelegramID != proposerID {
		return nil, fmt.Errorf("you do not own character #%d", proposerOwnedID)
	}

	wanted, err := uow.CollectionRepository().GetByID(ctx, recipientOwnedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requested character: %w", err)
	}
	if wanted == nil || wanted.TelegramID != recipientID {
		return nil, fmt.Errorf("they do not own character #%d", recipientOwnedID)
	}

	trade := &models.Trade{
		ID:               uuid.New().String(),
		ChatID:           chatID,
		ProposerID:       proposerID,
		RecipientID:      recipientID,
		ProposerOwnedID:  proposerOwnedID,
		RecipientOwnedID: recipientOwnedID,
		State:            models.TradeStatePending,
		CreatedAt:        now,
		ExpiresAt:        now.Add(models.TradeTTL),
	}
	if err := uow.TradeRepository().Create(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return trade, nil
}

// Respond accepts or declines a pending offer. Only the recipient may
// respond; expiry is applied lazily when the offer is touched.
func (s *tradeService) Respond(ctx context.Context, tradeID string, responderID int64, accept bool) (*models.Trade, error) {
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	trade, err := uow.TradeRepository().GetByID(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	if trade == nil {
		return nil, fmt.Errorf("trade not found")
	}
	if trade.RecipientID != responderID {
		return nil, fmt.Errorf("this offer is not for you")
	}
	if !trade.IsPending() {
		return nil, fmt.Errorf("this trade is already %s", trade.State)
	}

	if trade.Expired(now) {
		if err := uow.TradeRepository().UpdateState(ctx, tradeID, models.TradeStateExpired); err != nil {
			return nil, fmt.Errorf("failed to expire trade: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		trade.State = models.TradeStateExpired
		return trade, fmt.Errorf("this offer has expired")
	}

	if !accept {
		if err := uow.TradeRepository().UpdateState(ctx, tradeID, models.TradeStateDeclined); err != nil {
			return nil, fmt.Errorf("failed to decline trade: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		trade.State = models.TradeStateDeclined
		return trade, nil
	}

	// Re-verify ownership: either side may have traded or lost the
	// character since the offer was made
	offered, err := uow.CollectionRepository().GetByID(ctx, trade.ProposerOwnedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get offered character: %w", err)
	}
	if offered == nil || offered.TelegramID != trade.ProposerID {
		return nil, fmt.Errorf("the offered character is no longer available")
	}

	wanted, err := uow.CollectionRepository().GetByID(ctx, trade.RecipientOwnedID)
	if err != nil {
		return nil, fmt.Errorf("failed to get requested character: %w", err)
	}
	if wanted == nil || wanted.TelegramID != trade.RecipientID {
		return nil, fmt.Errorf("your side of the trade is no longer available")
	}

	if err := uow.CollectionRepository().TransferOwnership(ctx, trade.ProposerOwnedID, trade.RecipientID); err != nil {
		return nil, fmt.Errorf("failed to transfer offered character: %w", err)
	}
	if err := uow.CollectionRepository().TransferOwnership(ctx, trade.RecipientOwnedID, trade.ProposerID); err != nil {
		return nil, fmt.Errorf("failed to transfer requested character: %w", err)
	}

	if err := uow.TradeRepository().UpdateState(ctx, tradeID, models.TradeStateAccepted); err != nil {
		return nil, fmt.Errorf("failed to accept trade: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	trade.State = models.TradeStateAccepted
	return trade, nil
}
