package bot

import (
	"context"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"waifubot/events"
	"waifubot/models"
)

func TestEventSubscriptions_BalanceChangeLogged(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	bus := events.NewBus()
	registerEventSubscriptions(bus)

	bus.Emit(context.Background(), events.BalanceChangeEvent{
		TelegramID:      111,
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: models.TransactionTypeBetWin,
		ChangeAmount:    500,
	})

	assert.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Message == "Balance changed" && entry.Data["telegramID"] == int64(111) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "balance change event was never handled")
}

func TestEventSubscriptions_CommittedFlushReachesHandlers(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	bus := events.NewBus()
	registerEventSubscriptions(bus)

	// Services publish through a transactional bus that only delivers on
	// commit; the delivered events must land in the subscribed handlers.
	txBus := events.NewTransactionalBus(bus)
	txBus.Publish(events.RaidStateChangeEvent{
		RaidID:   7,
		ChatID:   -100,
		OldState: "open",
		NewState: "resolving",
	})
	assert.NoError(t, txBus.Flush(context.Background()))

	assert.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Message == "Raid state changed" && entry.Data["raidID"] == int64(7) {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond, "raid state event was never handled")
}

func TestEventSubscriptions_MismatchedPayloadDoesNotPanic(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	handleUserCreated(context.Background(), events.BalanceChangeEvent{TelegramID: 1})

	entry := hook.LastEntry()
	assert.NotNil(t, entry)
	assert.Equal(t, log.ErrorLevel, entry.Level)
}
