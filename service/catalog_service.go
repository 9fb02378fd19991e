package service

import (
	"context"
	"fmt"
	"strings"

	"waifubot/models"
)

type catalogService struct {
	uowFactory UnitOfWorkFactory
}

// NewCatalogService creates a new catalog service
func NewCatalogService(uowFactory UnitOfWorkFactory) CatalogService {
	return &catalogService{
		uowFactory: uowFactory,
	}
}

// AddCharacter creates a catalog entry. New entries are spawnable by
// default.
func (s *catalogService) AddCharacter(ctx context.Context, name, series string, rarity models.Rarity, imageURL string) (*models.Character, error) {
	name = strings.TrimSpace(name)
	series = strings.TrimSpace(series)
	if name == "" || series == "" {
		return nil, fmt.Errorf("name and series are required")
	}
	if !models.ValidRarity(string(rarity)) {
		return nil, fmt.Errorf("unknown rarity %q", rarity)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	character := &models.Character{
		Name:      name,
		Series:    series,
		Rarity:    rarity,
		ImageURL:  imageURL,
		Spawnable: true,
	}
	if err := uow.CharacterRepository().Create(ctx, character); err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return character, nil
}

// RemoveCharacter soft-deletes a catalog entry. Granted copies keep their
// denormalized fields and are untouched.
func (s *catalogService) RemoveCharacter(ctx context.Context, id int64) error {
	return s.setRemoved(ctx, id, true)
}

// RestoreCharacter undoes a soft delete
func (s *catalogService) RestoreCharacter(ctx context.Context, id int64) error {
	return s.setRemoved(ctx, id, false)
}

func (s *catalogService) setRemoved(ctx context.Context, id int64, removed bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	character, err := uow.CharacterRepository().GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get character: %w", err)
	}
	if character == nil {
		return fmt.Errorf("character #%d not found", id)
	}

	if err := uow.CharacterRepository().SetRemoved(ctx, id, removed); err != nil {
		return fmt.Errorf("failed to update character: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetSeriesSpawnable toggles spawn eligibility for every entry in a series
func (s *catalogService) SetSeriesSpawnable(ctx context.Context, series string, spawnable bool) (int64, error) {
	series = strings.TrimSpace(series)
	if series == "" {
		return 0, fmt.Errorf("series is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	affected, err := uow.CharacterRepository().SetSeriesSpawnable(ctx, series, spawnable)
	if err != nil {
		return 0, fmt.Errorf("failed to update series: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("no characters found for series %q", series)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return affected, nil
}

// ZeroBalance zeroes a user's wallet, recording the correction in the
// ledger
func (s *catalogService) ZeroBalance(ctx context.Context, telegramID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}
	if user.Balance == 0 {
		return nil
	}

	if err := uow.UserRepository().SetBalance(ctx, telegramID, 0); err != nil {
		return fmt.Errorf("failed to zero balance: %w", err)
	}

	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    0,
		ChangeAmount:    -user.Balance,
		TransactionType: models.TransactionTypeAdminAdjust,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WipeCollection clears a user's collection and returns how many copies
// were removed
func (s *catalogService) WipeCollection(ctx context.Context, telegramID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	removed, err := uow.CollectionRepository().WipeUser(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to wipe collection: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return removed, nil
}
