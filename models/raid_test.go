package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeTable_Pick(t *testing.T) {
	table := OutcomeTable{Critical: 5, Item: 25, Coin: 35, Loss: 20, Nothing: 15}

	tests := []struct {
		roll int
		want OutcomeKind
	}{
		{1, OutcomeCritical},
		{5, OutcomeCritical},
		{6, OutcomeItem},
		{30, OutcomeItem},
		{31, OutcomeCoin},
		{65, OutcomeCoin},
		{66, OutcomeLoss},
		{85, OutcomeLoss},
		{86, OutcomeNothing},
		{100, OutcomeNothing},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, table.Pick(tt.roll), "roll %d", tt.roll)
	}
}

func TestOutcomeTable_Pick_ZeroWeightBandSkipped(t *testing.T) {
	table := OutcomeTable{Critical: 0, Item: 0, Coin: 100, Loss: 0, Nothing: 0}

	assert.Equal(t, OutcomeCoin, table.Pick(1))
	assert.Equal(t, OutcomeCoin, table.Pick(100))
}

func TestOutcomeTable_Validate(t *testing.T) {
	assert.NoError(t, DefaultOutcomeTable().Validate())

	bad := OutcomeTable{Critical: 5, Item: 25, Coin: 35, Loss: 20, Nothing: 10}
	assert.Error(t, bad.Validate(), "weights summing to 95 must be rejected")

	negative := OutcomeTable{Critical: -5, Item: 30, Coin: 35, Loss: 20, Nothing: 20}
	assert.Error(t, negative.Validate())
}

func TestRaid_CanAcceptJoins(t *testing.T) {
	now := time.Now()
	raid := &Raid{State: RaidStateOpen, JoinDeadline: now.Add(time.Minute)}

	assert.True(t, raid.CanAcceptJoins(now))
	assert.False(t, raid.CanAcceptJoins(now.Add(2*time.Minute)), "past the deadline")

	raid.State = RaidStateResolving
	assert.False(t, raid.CanAcceptJoins(now), "resolving raids take no joins")
}

func TestRaidResult_TotalGained(t *testing.T) {
	result := &RaidResult{
		Outcomes: []*RaidOutcome{
			{Kind: OutcomeCoin, Amount: 500},
			{Kind: OutcomeLoss, Amount: -200},
			{Kind: OutcomeCritical, Amount: 1600},
			{Kind: OutcomeNothing, Amount: 0},
		},
	}
	assert.Equal(t, int64(2100), result.TotalGained(), "only positive amounts count")
}
