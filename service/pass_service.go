package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waifubot/models"
)

type passService struct {
	uowFactory UnitOfWorkFactory
	nowFn      func() time.Time
}

// NewPassService creates a new pass service
func NewPassService(uowFactory UnitOfWorkFactory) PassService {
	return &passService{
		uowFactory: uowFactory,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Buy purchases a pass of the given tier. One active pass per user.
func (s *passService) Buy(ctx context.Context, telegramID int64, tier models.PassTier) (*models.Pass, error) {
	if !models.ValidPassTier(string(tier)) {
		return nil, fmt.Errorf("unknown pass tier %q", tier)
	}
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	existing, err := uow.PassRepository().GetActiveByUser(ctx, telegramID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing pass: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("you already have an active %s pass until %s", existing.Tier, existing.ExpiresAt.Format("Jan 2"))
	}

	price := tier.Price()
	if err := uow.UserRepository().DeductBalance(ctx, telegramID, price); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, fmt.Errorf("insufficient balance: the %s pass costs %d gems", tier, price)
		}
		return nil, fmt.Errorf("failed to deduct pass price: %w", err)
	}

	pass := &models.Pass{
		TelegramID:  telegramID,
		Tier:        tier,
		PurchasedAt: now,
		ExpiresAt:   now.AddDate(0, 0, tier.ValidDays()),
	}
	if err := uow.PassRepository().Create(ctx, pass); err != nil {
		return nil, fmt.Errorf("failed to create pass: %w", err)
	}

	passID := pass.ID
	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - price,
		ChangeAmount:    -price,
		TransactionType: models.TransactionTypePassPurchase,
		RelatedID:       &passID,
		RelatedType:     relatedPass(),
		TransactionMetadata: map[string]any{
			"tier": string(tier),
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return pass, nil
}

// Claim grants the per-tier pass reward, at most once per 24 hours
func (s *passService) Claim(ctx context.Context, telegramID int64) (int64, *models.Pass, error) {
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, nil, fmt.Errorf("user not found")
	}

	pass, err := uow.PassRepository().GetActiveByUser(ctx, telegramID, now)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get pass: %w", err)
	}
	if pass == nil {
		return 0, nil, fmt.Errorf("you do not have an active pass")
	}
	if !pass.CanClaim(now) {
		remaining := pass.NextClaimAt().Sub(now).Round(time.Minute)
		return 0, pass, fmt.Errorf("already claimed, next claim in %s", remaining)
	}

	granted := pass.Tier.ClaimReward()
	if err := uow.UserRepository().AddBalance(ctx, telegramID, granted); err != nil {
		return 0, nil, fmt.Errorf("failed to add claim reward: %w", err)
	}
	if err := uow.PassRepository().RecordClaim(ctx, pass.ID, now); err != nil {
		return 0, nil, fmt.Errorf("failed to record claim: %w", err)
	}

	passID := pass.ID
	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + granted,
		ChangeAmount:    granted,
		TransactionType: models.TransactionTypePassClaim,
		RelatedID:       &passID,
		RelatedType:     relatedPass(),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	pass.LastClaimAt = &now
	pass.ClaimsMade++
	return granted, pass, nil
}

// Status returns the user's active pass, if any
func (s *passService) Status(ctx context.Context, telegramID int64) (*models.Pass, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pass, err := uow.PassRepository().GetActiveByUser(ctx, telegramID, s.nowFn())
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return pass, nil
}

func relatedPass() *models.RelatedType {
	rt := models.RelatedTypePass
	return &rt
}
