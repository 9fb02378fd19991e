package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"

	"waifubot/database"
	"waifubot/events"
	"waifubot/service"
)

// unitOfWork implements the service.UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	userRepo           service.UserRepository
	balanceHistoryRepo service.BalanceHistoryRepository
	characterRepo      service.CharacterRepository
	collectionRepo     service.CollectionRepository
	spawnRepo          service.SpawnRepository
	raidRepo           service.RaidRepository
	cooldownRepo       service.CooldownRepository
	chatSettingsRepo   service.ChatSettingsRepository
	betRepo            service.BetRepository
	passRepo           service.PassRepository
	tradeRepo          service.TradeRepository
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories bound to the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.balanceHistoryRepo = newBalanceHistoryRepositoryWithTx(tx)
	u.characterRepo = newCharacterRepositoryWithTx(tx)
	u.collectionRepo = newCollectionRepositoryWithTx(tx)
	u.spawnRepo = newSpawnRepositoryWithTx(tx)
	u.raidRepo = newRaidRepositoryWithTx(tx)
	u.cooldownRepo = newCooldownRepositoryWithTx(tx)
	u.chatSettingsRepo = newChatSettingsRepositoryWithTx(tx)
	u.betRepo = newBetRepositoryWithTx(tx)
	u.passRepo = newPassRepositoryWithTx(tx)
	u.tradeRepo = newTradeRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// The transaction is already committed, so a flush failure only costs
	// the notifications, not the data.
	if u.transactionalBus != nil {
		if err := u.transactionalBus.Flush(u.ctx); err != nil {
			log.WithError(err).Error("Failed to flush events after commit")
		}
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

func (u *unitOfWork) BalanceHistoryRepository() service.BalanceHistoryRepository {
	if u.balanceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.balanceHistoryRepo
}

func (u *unitOfWork) CharacterRepository() service.CharacterRepository {
	if u.characterRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.characterRepo
}

func (u *unitOfWork) CollectionRepository() service.CollectionRepository {
	if u.collectionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.collectionRepo
}

func (u *unitOfWork) SpawnRepository() service.SpawnRepository {
	if u.spawnRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.spawnRepo
}

func (u *unitOfWork) RaidRepository() service.RaidRepository {
	if u.raidRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.raidRepo
}

func (u *unitOfWork) CooldownRepository() service.CooldownRepository {
	if u.cooldownRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.cooldownRepo
}

func (u *unitOfWork) ChatSettingsRepository() service.ChatSettingsRepository {
	if u.chatSettingsRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.chatSettingsRepo
}

func (u *unitOfWork) BetRepository() service.BetRepository {
	if u.betRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.betRepo
}

func (u *unitOfWork) PassRepository() service.PassRepository {
	if u.passRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.passRepo
}

func (u *unitOfWork) TradeRepository() service.TradeRepository {
	if u.tradeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.tradeRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
