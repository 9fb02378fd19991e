package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGems(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 💎"},
		{42, "42 💎"},
		{1000, "1,000 💎"},
		{1234567, "1,234,567 💎"},
		{-500, "-500 💎"},
		{-1234567, "-1,234,567 💎"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatGems(tt.amount), "amount %d", tt.amount)
	}
}

func TestCommandArgs(t *testing.T) {
	assert.Nil(t, commandArgs(""))
	assert.Empty(t, commandArgs("/balance"))
	assert.Equal(t, []string{"500"}, commandArgs("/deposit 500"))
	assert.Equal(t, []string{"buy", "gold"}, commandArgs("/pass  buy   gold"))
}

func TestUserFacing(t *testing.T) {
	assert.Equal(t, "something went wrong", userFacing(nil))
	assert.Equal(t, "plain message", userFacing(errors.New("plain message")))

	wrapped := fmt.Errorf("failed to place bet: %w",
		fmt.Errorf("failed to deduct: %w", errors.New("insufficient balance")))
	assert.Equal(t, "insufficient balance", userFacing(wrapped))
}
