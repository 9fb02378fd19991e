package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"waifubot/config"
	"waifubot/events"
	"waifubot/models"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateUser retrieves an existing user or creates a new one with the
// configured starting balance
func (s *userService) GetOrCreateUser(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if user != nil {
		// Keep the stored username current for scoreboards and mentions
		if username != "" && username != user.Username {
			if err := uow.UserRepository().UpdateUsername(ctx, telegramID, username); err != nil {
				return nil, fmt.Errorf("failed to update username: %w", err)
			}
			user.Username = username
		}
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return user, nil
	}

	cfg := config.Get()
	user, err = uow.UserRepository().Create(ctx, telegramID, username, cfg.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   0,
		BalanceAfter:    cfg.StartingBalance,
		ChangeAmount:    cfg.StartingBalance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"username": username,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		TelegramID:     telegramID,
		Username:       username,
		InitialBalance: cfg.StartingBalance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// ClaimDaily grants the daily reward once per 24 hours. Active pass holders
// get their tier bonus on top.
func (s *userService) ClaimDaily(ctx context.Context, telegramID int64) (int64, int64, error) {
	cfg := config.Get()
	now := time.Now().UTC()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, 0, fmt.Errorf("user not found")
	}

	cooldown, err := uow.CooldownRepository().Get(ctx, telegramID, models.CooldownScopeDaily)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check daily cooldown: %w", err)
	}
	if cooldown != nil && cooldown.Blocked(now) {
		remaining := cooldown.Remaining(now).Round(time.Minute)
		return 0, 0, fmt.Errorf("daily reward already claimed, try again in %s", remaining)
	}

	granted := cfg.DailyReward

	// Pass holders get their tier bonus on top of the base reward
	pass, err := uow.PassRepository().GetActiveByUser(ctx, telegramID, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check pass: %w", err)
	}
	if pass != nil {
		granted += pass.Tier.DailyBonus()
	}

	if err := uow.UserRepository().AddBalance(ctx, telegramID, granted); err != nil {
		return 0, 0, fmt.Errorf("failed to add daily reward: %w", err)
	}

	nextAt := now.Add(time.Duration(cfg.DailyCooldownHours) * time.Hour)
	if err := uow.CooldownRepository().Set(ctx, telegramID, models.CooldownScopeDaily, nextAt); err != nil {
		return 0, 0, fmt.Errorf("failed to set daily cooldown: %w", err)
	}

	newBalance := user.Balance + granted
	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    newBalance,
		ChangeAmount:    granted,
		TransactionType: models.TransactionTypeDaily,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, 0, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return granted, newBalance, nil
}

// Deposit moves gems from wallet to bank
func (s *userService) Deposit(ctx context.Context, telegramID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	if err := uow.UserRepository().DeductBalance(ctx, telegramID, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, fmt.Errorf("insufficient balance: have %d, need %d", user.Balance, amount)
		}
		return nil, fmt.Errorf("failed to deduct from wallet: %w", err)
	}
	if err := uow.UserRepository().AddBankBalance(ctx, telegramID, amount); err != nil {
		return nil, fmt.Errorf("failed to add to bank: %w", err)
	}

	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeDeposit,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.Balance -= amount
	user.BankBalance += amount
	return user, nil
}

// Withdraw moves gems from bank to wallet
func (s *userService) Withdraw(ctx context.Context, telegramID int64, amount int64) (*models.User, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("withdraw amount must be positive")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	if err := uow.UserRepository().DeductBankBalance(ctx, telegramID, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, fmt.Errorf("insufficient bank balance: have %d, need %d", user.BankBalance, amount)
		}
		return nil, fmt.Errorf("failed to deduct from bank: %w", err)
	}
	if err := uow.UserRepository().AddBalance(ctx, telegramID, amount); err != nil {
		return nil, fmt.Errorf("failed to add to wallet: %w", err)
	}

	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeWithdraw,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	user.Balance += amount
	user.BankBalance -= amount
	return user, nil
}

// Transfer moves gems from one user's wallet to another's
func (s *userService) Transfer(ctx context.Context, fromID, toID int64, amount int64, fromUsername, toUsername string) (*models.TransferResult, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("transfer amount must be positive")
	}
	if fromID == toID {
		return nil, fmt.Errorf("cannot transfer to yourself")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	fromUser, err := uow.UserRepository().GetByTelegramID(ctx, fromID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sender: %w", err)
	}
	if fromUser == nil {
		return nil, fmt.Errorf("sender not found")
	}

	toUser, err := uow.UserRepository().GetByTelegramID(ctx, toID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient: %w", err)
	}
	if toUser == nil {
		return nil, fmt.Errorf("recipient has not started the bot yet")
	}

	if err := uow.UserRepository().DeductBalance(ctx, fromID, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, fmt.Errorf("insufficient balance: have %d, need %d", fromUser.Balance, amount)
		}
		return nil, fmt.Errorf("failed to deduct from sender: %w", err)
	}
	if err := uow.UserRepository().AddBalance(ctx, toID, amount); err != nil {
		return nil, fmt.Errorf("failed to credit recipient: %w", err)
	}

	outHistory := &models.BalanceHistory{
		TelegramID:      fromID,
		BalanceBefore:   fromUser.Balance,
		BalanceAfter:    fromUser.Balance - amount,
		ChangeAmount:    -amount,
		TransactionType: models.TransactionTypeTransferOut,
		TransactionMetadata: map[string]any{
			"recipient_id":       toID,
			"recipient_username": toUsername,
		},
	}
	if err := RecordBalanceChange(ctx, uow, outHistory); err != nil {
		return nil, fmt.Errorf("failed to record sender balance change: %w", err)
	}

	inHistory := &models.BalanceHistory{
		TelegramID:      toID,
		BalanceBefore:   toUser.Balance,
		BalanceAfter:    toUser.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeTransferIn,
		TransactionMetadata: map[string]any{
			"sender_id":       fromID,
			"sender_username": fromUsername,
		},
	}
	if err := RecordBalanceChange(ctx, uow, inHistory); err != nil {
		return nil, fmt.Errorf("failed to record recipient balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.TransferResult{
		Amount:        amount,
		RecipientName: toUsername,
		NewBalance:    fromUser.Balance - amount,
	}, nil
}
