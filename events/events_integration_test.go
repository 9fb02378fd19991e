package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"waifubot/models"

	"github.com/stretchr/testify/assert"
)

// TestEventDeliveryIntegration tests the complete event flow from TransactionalBus to main Bus
func TestEventDeliveryIntegration(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan BalanceChangeEvent, 1)
	var wg sync.WaitGroup
	wg.Add(1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		defer wg.Done()
		if balanceEvent, ok := event.(BalanceChangeEvent); ok {
			select {
			case eventReceived <- balanceEvent:
			case <-time.After(1 * time.Second):
				t.Error("Timeout sending event to channel")
			}
		} else {
			t.Errorf("Expected BalanceChangeEvent, got %T", event)
		}
	})

	testEvent := BalanceChangeEvent{
		TelegramID:      123456,
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: models.TransactionTypeBetWin,
		ChangeAmount:    500,
	}

	// Publish event to transactional bus (simulating service layer)
	transactionalBus.Publish(testEvent)

	// Flush events (simulating successful transaction commit)
	ctx := context.Background()
	err := transactionalBus.Flush(ctx)
	assert.NoError(t, err)

	wg.Wait()

	select {
	case receivedEvent := <-eventReceived:
		assert.Equal(t, testEvent.TelegramID, receivedEvent.TelegramID)
		assert.Equal(t, testEvent.OldBalance, receivedEvent.OldBalance)
		assert.Equal(t, testEvent.NewBalance, receivedEvent.NewBalance)
		assert.Equal(t, testEvent.TransactionType, receivedEvent.TransactionType)
		assert.Equal(t, testEvent.ChangeAmount, receivedEvent.ChangeAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("Event was not received within timeout")
	}
}

// TestMultipleEventsDelivery tests delivering multiple events in sequence
func TestMultipleEventsDelivery(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventsReceived := make(chan CharacterGrantedEvent, 3)
	var wg sync.WaitGroup
	wg.Add(3)

	mainBus.Subscribe(EventTypeCharacterGranted, func(ctx context.Context, event Event) {
		defer wg.Done()
		if grantEvent, ok := event.(CharacterGrantedEvent); ok {
			eventsReceived <- grantEvent
		}
	})

	grants := []CharacterGrantedEvent{
		{TelegramID: 1, CharacterID: 10, Name: "Rem", Rarity: models.RarityRare, Via: models.ObtainedViaGrab},
		{TelegramID: 2, CharacterID: 11, Name: "Ram", Rarity: models.RarityEpic, Via: models.ObtainedViaRaid},
		{TelegramID: 3, CharacterID: 12, Name: "Emilia", Rarity: models.RarityLegendary, Via: models.ObtainedViaTrade},
	}

	for _, event := range grants {
		transactionalBus.Publish(event)
	}

	ctx := context.Background()
	err := transactionalBus.Flush(ctx)
	assert.NoError(t, err)

	wg.Wait()

	receivedEvents := make([]CharacterGrantedEvent, 0, 3)
	for i := 0; i < 3; i++ {
		select {
		case event := <-eventsReceived:
			receivedEvents = append(receivedEvents, event)
		case <-time.After(2 * time.Second):
			t.Fatalf("Only received %d out of 3 events", len(receivedEvents))
		}
	}

	assert.Len(t, receivedEvents, 3)

	// Handlers run on goroutines, so delivery order may vary
	userIDs := make(map[int64]bool)
	for _, received := range receivedEvents {
		userIDs[received.TelegramID] = true
	}

	assert.True(t, userIDs[1])
	assert.True(t, userIDs[2])
	assert.True(t, userIDs[3])
}

// TestTransactionalBusFlushCancelledContext tests that a flush on a dead
// context fails and drops the pending events instead of delivering them
func TestTransactionalBusFlushCancelledContext(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	transactionalBus.Publish(BalanceChangeEvent{
		TelegramID:   123456,
		OldBalance:   1000,
		NewBalance:   1500,
		ChangeAmount: 500,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := transactionalBus.Flush(ctx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	select {
	case <-eventReceived:
		t.Fatal("Event was delivered despite the cancelled context")
	case <-time.After(100 * time.Millisecond):
		// Expected
	}

	// A later flush must not resurrect the dropped events
	assert.NoError(t, transactionalBus.Flush(context.Background()))
	select {
	case <-eventReceived:
		t.Fatal("Dropped event was delivered by a later flush")
	case <-time.After(100 * time.Millisecond):
		// Expected
	}
}

// TestTransactionalBusDiscard tests that discarded events are not delivered
func TestTransactionalBusDiscard(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	eventReceived := make(chan bool, 1)

	mainBus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		eventReceived <- true
	})

	testEvent := BalanceChangeEvent{
		TelegramID:      123456,
		OldBalance:      1000,
		NewBalance:      1500,
		TransactionType: models.TransactionTypeBetWin,
		ChangeAmount:    500,
	}
	transactionalBus.Publish(testEvent)

	// Discard instead of flush (simulating transaction rollback)
	transactionalBus.Discard()

	select {
	case <-eventReceived:
		t.Fatal("Event was received despite being discarded")
	case <-time.After(100 * time.Millisecond):
		// Expected - no event should be received
	}
}
