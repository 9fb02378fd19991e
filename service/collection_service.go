package service

import (
	"context"
	"fmt"

	"waifubot/models"
)

type collectionService struct {
	uowFactory UnitOfWorkFactory
}

// NewCollectionService creates a new collection service
func NewCollectionService(uowFactory UnitOfWorkFactory) CollectionService {
	return &collectionService{
		uowFactory: uowFactory,
	}
}

// GetPage returns one page of a user's collection (newest first) plus the
// total collection size. Pages are 1-based.
func (s *collectionService) GetPage(ctx context.Context, telegramID int64, page, pageSize int) ([]*models.OwnedCharacter, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	total, err := uow.CollectionRepository().CountByUser(ctx, telegramID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count collection: %w", err)
	}

	owned, err := uow.CollectionRepository().GetByUser(ctx, telegramID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get collection page: %w", err)
	}

	return owned, total, nil
}
