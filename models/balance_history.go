package models

import (
	"errors"
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial      TransactionType = "initial"
	TransactionTypeDaily        TransactionType = "daily"
	TransactionTypeBetWin       TransactionType = "bet_win"
	TransactionTypeBetLoss      TransactionType = "bet_loss"
	TransactionTypeRaidEntry    TransactionType = "raid_entry"
	TransactionTypeRaidReward   TransactionType = "raid_reward"
	TransactionTypeRaidPenalty  TransactionType = "raid_penalty"
	TransactionTypeTransferIn   TransactionType = "transfer_in"
	TransactionTypeTransferOut  TransactionType = "transfer_out"
	TransactionTypeDeposit      TransactionType = "deposit"
	TransactionTypeWithdraw     TransactionType = "withdraw"
	TransactionTypePassPurchase TransactionType = "pass_purchase"
	TransactionTypePassClaim    TransactionType = "pass_claim"
	TransactionTypeAdminAdjust  TransactionType = "admin_adjust"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeBet  RelatedType = "bet"
	RelatedTypeRaid RelatedType = "raid"
	RelatedTypePass RelatedType = "pass"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	TelegramID          int64           `db:"telegram_id"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *int64          `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount > 0
}

// ValidateTransaction performs basic validation on the transaction
func (bh *BalanceHistory) ValidateTransaction() error {
	if bh.BalanceAfter != bh.BalanceBefore+bh.ChangeAmount {
		return errors.New("balance calculation is inconsistent")
	}
	return nil
}

// GetTransactionDescription returns a human-readable description of the transaction
func (bh *BalanceHistory) GetTransactionDescription() string {
	switch bh.TransactionType {
	case TransactionTypeInitial:
		return "Starting balance"
	case TransactionTypeDaily:
		return "Daily reward"
	case TransactionTypeBetWin:
		return "Bet win"
	case TransactionTypeBetLoss:
		return "Bet loss"
	case TransactionTypeRaidEntry:
		return "Raid entry fee"
	case TransactionTypeRaidReward:
		return "Raid reward"
	case TransactionTypeRaidPenalty:
		return "Raid penalty"
	case TransactionTypeTransferIn:
		return "Payment received"
	case TransactionTypeTransferOut:
		return "Payment sent"
	case TransactionTypeDeposit:
		return "Bank deposit"
	case TransactionTypeWithdraw:
		return "Bank withdrawal"
	case TransactionTypePassPurchase:
		return "Pass purchase"
	case TransactionTypePassClaim:
		return "Pass claim"
	case TransactionTypeAdminAdjust:
		return "Admin correction"
	default:
		return string(bh.TransactionType)
	}
}
