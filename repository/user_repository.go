package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"waifubot/database"
	"waifubot/models"
	"waifubot/service"
)

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByTelegramID retrieves a user by their Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `
		SELECT telegram_id, username, balance, bank_balance, experience, created_at, updated_at
		FROM users
		WHERE telegram_id = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, telegramID).Scan(
		&user.TelegramID,
		&user.Username,
		&user.Balance,
		&user.BankBalance,
		&user.Experience,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID %d: %w", telegramID, err)
	}

	return &user, nil
}

// Create creates a new user with the initial wallet balance
func (r *UserRepository) Create(ctx context.Context, telegramID int64, username string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, username, balance)
		VALUES ($1, $2, $3)
		RETURNING telegram_id, username, balance, bank_balance, experience, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, telegramID, username, initialBalance).Scan(
		&user.TelegramID,
		&user.Username,
		&user.Balance,
		&user.BankBalance,
		&user.Experience,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user with telegram ID %d: %w", telegramID, err)
	}

	return &user, nil
}

// UpdateUsername refreshes the stored username
func (r *UserRepository) UpdateUsername(ctx context.Context, telegramID int64, username string) error {
	query := `
		UPDATE users
		SET username = $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, username, telegramID)
	if err != nil {
		return fmt.Errorf("failed to update username for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with telegram ID %d not found", telegramID)
	}
	return nil
}

// AddBalance adds to a user's wallet atomically
func (r *UserRepository) AddBalance(ctx context.Context, telegramID int64, amount int64) error {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with telegram ID %d not found", telegramID)
	}
	return nil
}

// DeductBalance deducts from a user's wallet using a single conditional
// update, so concurrent spends can never drive the balance negative.
func (r *UserRepository) DeductBalance(ctx context.Context, telegramID int64, amount int64) error {
	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE telegram_id = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrInsufficientFunds
	}
	return nil
}

// DeductBalanceUpTo deducts at most amount from the wallet, flooring at
// zero, and returns how much was actually taken.
func (r *UserRepository) DeductBalanceUpTo(ctx context.Context, telegramID int64, amount int64) (int64, error) {
	// RETURNING sees the post-update row, so the taken amount is computed
	// against the old balance locked in the CTE
	query := `
		WITH before AS (
			SELECT balance FROM users WHERE telegram_id = $2 FOR UPDATE
		)
		UPDATE users
		SET balance = balance - LEAST(balance, $1), updated_at = NOW()
		FROM before
		WHERE users.telegram_id = $2
		RETURNING LEAST(before.balance, $1)
	`

	var taken int64
	err := r.q.QueryRow(ctx, query, amount, telegramID).Scan(&taken)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("user with telegram ID %d not found", telegramID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct balance for user %d: %w", telegramID, err)
	}
	return taken, nil
}

// AddBankBalance adds to a user's bank atomically
func (r *UserRepository) AddBankBalance(ctx context.Context, telegramID int64, amount int64) error {
	query := `
		UPDATE users
		SET bank_balance = bank_balance + $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to add bank balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with telegram ID %d not found", telegramID)
	}
	return nil
}

// DeductBankBalance deducts from a user's bank conditionally
func (r *UserRepository) DeductBankBalance(ctx context.Context, telegramID int64, amount int64) error {
	query := `
		UPDATE users
		SET bank_balance = bank_balance - $1, updated_at = NOW()
		WHERE telegram_id = $2 AND bank_balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to deduct bank balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return service.ErrInsufficientFunds
	}
	return nil
}

// SetBalance overwrites the wallet balance (admin corrections)
func (r *UserRepository) SetBalance(ctx context.Context, telegramID int64, balance int64) error {
	query := `
		UPDATE users
		SET balance = $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, balance, telegramID)
	if err != nil {
		return fmt.Errorf("failed to set balance for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with telegram ID %d not found", telegramID)
	}
	return nil
}

// AddExperience increments the experience counter
func (r *UserRepository) AddExperience(ctx context.Context, telegramID int64, amount int64) error {
	query := `
		UPDATE users
		SET experience = experience + $1, updated_at = NOW()
		WHERE telegram_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, telegramID)
	if err != nil {
		return fmt.Errorf("failed to add experience for user %d: %w", telegramID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user with telegram ID %d not found", telegramID)
	}
	return nil
}

// GetScoreboard returns the top users by total balance
func (r *UserRepository) GetScoreboard(ctx context.Context, limit int) ([]*models.ScoreboardEntry, error) {
	query := `
		SELECT telegram_id, username, balance + bank_balance AS total_balance, experience
		FROM users
		ORDER BY total_balance DESC, telegram_id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get scoreboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.ScoreboardEntry
	for rows.Next() {
		var entry models.ScoreboardEntry
		if err := rows.Scan(&entry.TelegramID, &entry.Username, &entry.TotalBalance, &entry.Experience); err != nil {
			return nil, fmt.Errorf("failed to scan scoreboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scoreboard: %w", err)
	}

	return entries, nil
}
