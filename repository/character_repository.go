package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
)

// CharacterRepository implements the service.CharacterRepository interface
type CharacterRepository struct {
	q queryable
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(db *database.DB) *CharacterRepository {
	return &CharacterRepository{q: db.Pool}
}

// newCharacterRepositoryWithTx creates a new character repository with a transaction
func newCharacterRepositoryWithTx(tx queryable) *CharacterRepository {
	return &CharacterRepository{q: tx}
}

// Create inserts a new catalog entry
func (r *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	query := `
		INSERT INTO characters (name, series, rarity, image_url, spawnable)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, removed, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		character.Name,
		character.Series,
		character.Rarity,
		character.ImageURL,
		character.Spawnable,
	).Scan(&character.ID, &character.Removed, &character.CreatedAt, &character.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create character %q: %w", character.Name, err)
	}
	return nil
}

// GetByID retrieves a catalog entry, including removed ones
func (r *CharacterRepository) GetByID(ctx context.Context, id int64) (*models.Character, error) {
	query := `
		SELECT id, name, series, rarity, image_url, spawnable, removed, created_at, updated_at
		FROM characters
		WHERE id = $1
	`

	var c models.Character
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Series, &c.Rarity, &c.ImageURL,
		&c.Spawnable, &c.Removed, &c.CreatedAt, &c.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get character %d: %w", id, err)
	}
	return &c, nil
}

// List returns catalog entries ordered by series and name
func (r *CharacterRepository) List(ctx context.Context, includeRemoved bool, limit int) ([]*models.Character, error) {
	query := `
		SELECT id, name, series, rarity, image_url, spawnable, removed, created_at, updated_at
		FROM characters
		WHERE removed = FALSE OR $1
		ORDER BY series, name
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, includeRemoved, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	defer rows.Close()

	var characters []*models.Character
	for rows.Next() {
		var c models.Character
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Series, &c.Rarity, &c.ImageURL,
			&c.Spawnable, &c.Removed, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan character: %w", err)
		}
		characters = append(characters, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate characters: %w", err)
	}
	return characters, nil
}

// SetRemoved soft-deletes or restores a catalog entry
func (r *CharacterRepository) SetRemoved(ctx context.Context, id int64, removed bool) error {
	query := `
		UPDATE characters
		SET removed = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, removed, id)
	if err != nil {
		return fmt.Errorf("failed to update character %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("character %d not found", id)
	}
	return nil
}

// SetSeriesSpawnable toggles spawn eligibility for a whole series
func (r *CharacterRepository) SetSeriesSpawnable(ctx context.Context, series string, spawnable bool) (int64, error) {
	query := `
		UPDATE characters
		SET spawnable = $1, updated_at = NOW()
		WHERE LOWER(series) = LOWER($2) AND removed = FALSE
	`

	result, err := r.q.Exec(ctx, query, spawnable, series)
	if err != nil {
		return 0, fmt.Errorf("failed to update series %q: %w", series, err)
	}
	return result.RowsAffected(), nil
}

// GetRandomSpawnable picks a uniformly random spawnable entry of the given
// rarity. Returns nil when the pool is empty.
func (r *CharacterRepository) GetRandomSpawnable(ctx context.Context, rarity models.Rarity) (*models.Character, error) {
	// The spawnable pool per rarity is small enough that ORDER BY random()
	// is fine here
	query := `
		SELECT id, name, series, rarity, image_url, spawnable, removed, created_at, updated_at
		FROM characters
		WHERE rarity = $1 AND spawnable AND NOT removed
		ORDER BY random()
		LIMIT 1
	`

	var c models.Character
	err := r.q.QueryRow(ctx, query, rarity).Scan(
		&c.ID, &c.Name, &c.Series, &c.Rarity, &c.ImageURL,
		&c.Spawnable, &c.Removed, &c.CreatedAt, &c.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick random %s character: %w", rarity, err)
	}
	return &c, nil
}

// CountSpawnable returns the number of spawnable entries per rarity
func (r *CharacterRepository) CountSpawnable(ctx context.Context) (map[models.Rarity]int, error) {
	query := `
		SELECT rarity, COUNT(*)
		FROM characters
		WHERE spawnable AND NOT removed
		GROUP BY rarity
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count spawnable characters: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Rarity]int)
	for rows.Next() {
		var rarity models.Rarity
		var count int
		if err := rows.Scan(&rarity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan spawnable count: %w", err)
		}
		counts[rarity] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate spawnable counts: %w", err)
	}
	return counts, nil
}
