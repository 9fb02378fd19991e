package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"waifubot/config"
	"waifubot/models"
)

type gamblingService struct {
	uowFactory UnitOfWorkFactory
	rollFn     func() float64 // injectable for deterministic tests
}

// NewGamblingService creates a new gambling service
func NewGamblingService(uowFactory UnitOfWorkFactory) GamblingService {
	return &gamblingService{
		uowFactory: uowFactory,
		rollFn:     rand.Float64,
	}
}

func (s *gamblingService) PlaceBet(ctx context.Context, telegramID int64, winProbability float64, betAmount int64) (*models.BetResult, error) {
	// Validate inputs
	if winProbability <= 0 || winProbability >= 1 {
		return nil, fmt.Errorf("win probability must be between 0 and 1 (exclusive)")
	}
	if betAmount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive")
	}

	// Check daily risk limit against the start of the current UTC day
	cfg := config.Get()
	limitStart := time.Now().UTC().Truncate(24 * time.Hour)

	dailyRisk, err := s.GetDailyRiskAmount(ctx, telegramID, limitStart)
	if err != nil {
		return nil, fmt.Errorf("failed to check daily risk amount: %w", err)
	}

	if dailyRisk+betAmount > cfg.DailyGambleLimit {
		remainingLimit := cfg.DailyGambleLimit - dailyRisk
		if remainingLimit <= 0 {
			return nil, fmt.Errorf("daily gambling limit of %d gems reached", cfg.DailyGambleLimit)
		}
		return nil, fmt.Errorf("bet amount would exceed daily limit, you have %d gems remaining today", remainingLimit)
	}

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

	// Fair payout, no house edge: betting X at probability P wins
	// X * ((1-P)/P) on success
	winAmount := int64(float64(betAmount) * ((1 - winProbability) / winProbability))

	won := s.rollFn() < winProbability

	var newBalance int64
	var changeAmount int64
	var transactionType models.TransactionType

	if won {
		newBalance = user.Balance + winAmount
		changeAmount = winAmount
		transactionType = models.TransactionTypeBetWin

		if err := uow.UserRepository().AddBalance(ctx, telegramID, winAmount); err != nil {
			return nil, fmt.Errorf("failed to add winnings: %w", err)
		}
	} else {
		newBalance = user.Balance - betAmount
		changeAmount = -betAmount
		transactionType = models.TransactionTypeBetLoss

		if err := uow.UserRepository().DeductBalance(ctx, telegramID, betAmount); err != nil {
			if errors.Is(err, ErrInsufficientFunds) {
				return nil, fmt.Errorf("insufficient balance: have %d, need %d", user.Balance, betAmount)
			}
			return nil, fmt.Errorf("failed to deduct bet amount: %w", err)
		}
	}

	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    changeAmount,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"bet_amount":      betAmount,
			"win_probability": winProbability,
			"won":             won,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	bet := &models.Bet{
		TelegramID:       telegramID,
		Amount:           betAmount,
		WinProbability:   winProbability,
		Won:              won,
		WinAmount:        winAmount,
		BalanceHistoryID: &history.ID,
	}
	if err := uow.BetRepository().Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet record: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.BetResult{
		Won:        won,
		BetAmount:  betAmount,
		WinAmount:  winAmount,
		NewBalance: newBalance,
	}, nil
}

func (s *gamblingService) GetDailyRiskAmount(ctx context.Context, telegramID int64, since time.Time) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	bets, err := uow.BetRepository().GetByUserSince(ctx, telegramID, since)
	if err != nil {
		return 0, fmt.Errorf("failed to get bets since %v: %w", since, err)
	}

	// Only the staked amounts count against the limit, not winnings
	var totalRisked int64
	for _, bet := range bets {
		totalRisked += bet.Amount
	}

	return totalRisked, nil
}
