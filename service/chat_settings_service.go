package service

import (
	"context"
	"fmt"

	"waifubot/models"
)

type chatSettingsService struct {
	uowFactory UnitOfWorkFactory
}

// NewChatSettingsService creates a new chat settings service
func NewChatSettingsService(uowFactory UnitOfWorkFactory) ChatSettingsService {
	return &chatSettingsService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateSettings returns the chat's settings, persisting defaults on
// first use
func (s *chatSettingsService) GetOrCreateSettings(ctx context.Context, chatID int64) (*models.ChatSettings, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	settings, err := uow.ChatSettingsRepository().GetByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat settings: %w", err)
	}
	if settings == nil {
		settings = models.DefaultChatSettings(chatID)
		if err := uow.ChatSettingsRepository().Upsert(ctx, settings); err != nil {
			return nil, fmt.Errorf("failed to create default settings: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, nil
}

// UpdateSettings validates and persists changed settings
func (s *chatSettingsService) UpdateSettings(ctx context.Context, settings *models.ChatSettings) error {
	if settings.SpawnThreshold < 1 {
		return fmt.Errorf("spawn threshold must be at least 1")
	}
	if settings.RaidEntryFee < 0 {
		return fmt.Errorf("raid entry fee cannot be negative")
	}
	if settings.RaidJoinWindowSeconds < 10 {
		return fmt.Errorf("raid join window must be at least 10 seconds")
	}
	if settings.RaidRewardMin < 0 || settings.RaidRewardMax < settings.RaidRewardMin {
		return fmt.Errorf("raid reward range is invalid")
	}
	if settings.RaidPenaltyMin < 0 || settings.RaidPenaltyMax < settings.RaidPenaltyMin {
		return fmt.Errorf("raid penalty range is invalid")
	}
	if !models.ValidRarity(string(settings.RaidItemRarity)) {
		return fmt.Errorf("unknown rarity %q", settings.RaidItemRarity)
	}
	if err := settings.OutcomeTable().Validate(); err != nil {
		return fmt.Errorf("invalid outcome weights: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.ChatSettingsRepository().Upsert(ctx, settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
