package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// CollectionRepository implements the service.CollectionRepository interface
type CollectionRepository struct {
	q queryable
}

// NewCollectionRepository creates a new collection repository
func NewCollectionRepository(db *database.DB) *CollectionRepository {
	return &CollectionRepository{q: db.Pool}
}

// newCollectionRepositoryWithTx creates a new collection repository with a transaction
func newCollectionRepositoryWithTx(tx queryable) *CollectionRepository {
	return &CollectionRepository{q: tx}
}

// Grant inserts an owned copy into a user's collection
func (r *CollectionRepository) Grant(ctx context.Context, owned *models.OwnedCharacter) error {
	query := `
		INSERT INTO owned_characters (
			telegram_id, character_id, name, series, rarity, image_url, obtained_via
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, obtained_at
	`

	err := r.q.QueryRow(ctx, query,
		owned.TelegramID,
		owned.CharacterID,
		owned.Name,
		owned.Series,
		owned.Rarity,
		owned.ImageURL,
		owned.ObtainedVia,
	).Scan(&owned.ID, &owned.ObtainedAt)

	if err != nil {
		return fmt.Errorf("failed to grant character %q to user %d: %w", owned.Name, owned.TelegramID, err)
	}
	return nil
}

// GetByID retrieves a single owned copy
func (r *CollectionRepository) GetByID(ctx context.Context, id int64) (*models.OwnedCharacter, error) {
	query := `
		SELECT id, telegram_id, character_id, name, series, rarity, image_url, obtained_via, obtained_at
		FROM owned_characters
		WHERE id = $1
	`

	var o models.OwnedCharacter
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.TelegramID, &o.CharacterID, &o.Name, &o.Series,
		&o.Rarity, &o.ImageURL, &o.ObtainedVia, &o.ObtainedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owned character %d: %w", id, err)
	}
	return &o, nil
}

// GetByUser returns a page of a user's collection, newest first
func (r *CollectionRepository) GetByUser(ctx context.Context, telegramID int64, limit, offset int) ([]*models.OwnedCharacter, error) {
	query := `
		SELECT id, telegram_id, character_id, name, series, rarity, image_url, obtained_via, obtained_at
		FROM owned_characters
		WHERE telegram_id = $1
		ORDER BY obtained_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, telegramID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection for user %d: %w", telegramID, err)
	}
	defer rows.Close()

	var owned []*models.OwnedCharacter
	for rows.Next() {
		var o models.OwnedCharacter
		if err := rows.Scan(
			&o.ID, &o.TelegramID, &o.CharacterID, &o.Name, &o.Series,
			&o.Rarity, &o.ImageURL, &o.ObtainedVia, &o.ObtainedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan owned character: %w", err)
		}
		owned = append(owned, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate collection: %w", err)
	}
	return owned, nil
}

// CountByUser returns the collection size
func (r *CollectionRepository) CountByUser(ctx context.Context, telegramID int64) (int, error) {
	query := `SELECT COUNT(*) FROM owned_characters WHERE telegram_id = $1`

	var count int
	if err := r.q.QueryRow(ctx, query, telegramID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count collection for user %d: %w", telegramID, err)
	}
	return count, nil
}

// TransferOwnership moves an owned copy to another user
func (r *CollectionRepository) TransferOwnership(ctx context.Context, ownedID, toTelegramID int64) error {
	query := `
		UPDATE owned_characters
		SET telegram_id = $1, obtained_via = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, toTelegramID, models.ObtainedViaTrade, ownedID)
	if err != nil {
		return fmt.Errorf("failed to transfer owned character %d: %w", ownedID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("owned character %d not found", ownedID)
	}
	return nil
}

// WipeUser deletes a user's entire collection and returns the count
func (r *CollectionRepository) WipeUser(ctx context.Context, telegramID int64) (int64, error) {
	query := `DELETE FROM owned_characters WHERE telegram_id = $1`

	result, err := r.q.Exec(ctx, query, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to wipe collection for user %d: %w", telegramID, err)
	}
	return result.RowsAffected(), nil
}
