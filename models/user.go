package models

import (
	"time"
)

// User represents a Telegram user with wallet and bank balances
type User struct {
	TelegramID  int64     `db:"telegram_id"`
	Username    string    `db:"username"`
	Balance     int64     `db:"balance"`      // wallet, spendable
	BankBalance int64     `db:"bank_balance"` // deposited, untouched by raids and bets
	Experience  int64     `db:"experience"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// CanAfford checks if the user has sufficient wallet balance for an amount
func (u *User) CanAfford(amount int64) bool {
	return u.Balance >= amount
}

// TotalBalance returns wallet plus bank
func (u *User) TotalBalance() int64 {
	return u.Balance + u.BankBalance
}
