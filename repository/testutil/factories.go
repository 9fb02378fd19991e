package testutil

import (
	"time"

	"waifubot/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(telegramID int64, username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		TelegramID: telegramID,
		Username:   username,
		Balance:    1000,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CreateTestCharacter creates a test catalog entry
func CreateTestCharacter(name, series string, rarity models.Rarity) *models.Character {
	return &models.Character{
		Name:      name,
		Series:    series,
		Rarity:    rarity,
		ImageURL:  "https://example.com/" + name + ".png",
		Spawnable: true,
	}
}

// CreateTestRaid creates a test raid with its join window still open
func CreateTestRaid(chatID, initiatorID int64, entryFee int64) *models.Raid {
	return &models.Raid{
		ChatID:       chatID,
		InitiatorID:  initiatorID,
		EntryFee:     entryFee,
		State:        models.RaidStateOpen,
		JoinDeadline: time.Now().UTC().Add(time.Minute),
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(telegramID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   1000,
		BalanceAfter:    500,
		ChangeAmount:    -500,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
	}
}
