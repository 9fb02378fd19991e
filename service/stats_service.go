package service

import (
	"context"
	"fmt"
	"time"

	"waifubot/models"
)

type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

// GetScoreboard returns the top users by total balance, annotated with
// their collection sizes
func (s *statsService) GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error) {
	if limit < 1 {
		limit = 10
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	entries, err := uow.UserRepository().GetScoreboard(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get scoreboard: %w", err)
	}

	for i, entry := range entries {
		entry.Rank = i + 1
		size, err := uow.CollectionRepository().CountByUser(ctx, entry.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("failed to count collection: %w", err)
		}
		entry.CollectionSize = size
	}

	return entries, nil
}

// GetProfile returns a user's combined profile
func (s *statsService) GetProfile(ctx context.Context, telegramID int64) (*models.UserProfile, error) {
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
		return nil, nil
	}

	size, err := uow.CollectionRepository().CountByUser(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to count collection: %w", err)
	}

	pass, err := uow.PassRepository().GetActiveByUser(ctx, telegramID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}

	betStats, err := uow.BetRepository().GetStats(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet stats: %w", err)
	}

	return &models.UserProfile{
		User:           user,
		CollectionSize: size,
		ActivePass:     pass,
		BetStats:       betStats,
	}, nil
}
