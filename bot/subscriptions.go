package bot

import (
	"context"

	log "github.com/sirupsen/logrus"

	"waifubot/events"
)

// registerEventSubscriptions wires the bot-level event handlers. Services
// publish through the transactional bus, so everything arriving here is
// already committed; these handlers form the audit trail of the economy.
func registerEventSubscriptions(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChange, handleBalanceChange)
	bus.Subscribe(events.EventTypeUserCreated, handleUserCreated)
	bus.Subscribe(events.EventTypeCharacterGranted, handleCharacterGranted)
	bus.Subscribe(events.EventTypeRaidStateChange, handleRaidStateChange)

	log.Info("Event subscriptions registered")
}

func handleBalanceChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.BalanceChangeEvent)
	if !ok {
		log.Errorf("Received non-BalanceChangeEvent in balance change handler: %T", event)
		return
	}

	log.WithFields(log.Fields{
		"telegramID":      e.TelegramID,
		"oldBalance":      e.OldBalance,
		"newBalance":      e.NewBalance,
		"changeAmount":    e.ChangeAmount,
		"transactionType": e.TransactionType,
	}).Info("Balance changed")
}

func handleUserCreated(ctx context.Context, event events.Event) {
	e, ok := event.(events.UserCreatedEvent)
	if !ok {
		log.Errorf("Received non-UserCreatedEvent in user created handler: %T", event)
		return
	}

	log.WithFields(log.Fields{
		"telegramID":     e.TelegramID,
		"username":       e.Username,
		"initialBalance": e.InitialBalance,
	}).Info("User registered")
}

func handleCharacterGranted(ctx context.Context, event events.Event) {
	e, ok := event.(events.CharacterGrantedEvent)
	if !ok {
		log.Errorf("Received non-CharacterGrantedEvent in character granted handler: %T", event)
		return
	}

	log.WithFields(log.Fields{
		"telegramID":  e.TelegramID,
		"characterID": e.CharacterID,
		"name":        e.Name,
		"rarity":      e.Rarity,
		"via":         e.Via,
	}).Info("Character granted")
}

func handleRaidStateChange(ctx context.Context, event events.Event) {
	e, ok := event.(events.RaidStateChangeEvent)
	if !ok {
		log.Errorf("Received non-RaidStateChangeEvent in raid state handler: %T", event)
		return
	}

	log.WithFields(log.Fields{
		"raidID":   e.RaidID,
		"chatID":   e.ChatID,
		"oldState": e.OldState,
		"newState": e.NewState,
	}).Info("Raid state changed")
}
