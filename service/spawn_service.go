package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"waifubot/events"
	"waifubot/models"
)

// grabCooldown is a short anti-spam gate on /grab attempts
const grabCooldown = 10 * time.Second

// grabExperience is awarded per successful grab
const grabExperience = 10

type spawnService struct {
	uowFactory UnitOfWorkFactory
	rollFn     func(n int) int
	nowFn      func() time.Time
}

// NewSpawnService creates a new spawn service
func NewSpawnService(uowFactory UnitOfWorkFactory) SpawnService {
	return &spawnService{
		uowFactory: uowFactory,
		rollFn:     rand.Intn,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// TriggerSpawn picks a rarity-weighted random character and makes it the
// chat's active spawn, replacing any unclaimed one.
func (s *spawnService) TriggerSpawn(ctx context.Context, chatID int64) (*models.Character, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	settings, err := getOrDefaultSettings(ctx, uow, chatID)
	if err != nil {
		return nil, err
	}
	if !settings.SpawnEnabled {
		return nil, nil
	}

	rarity, err := s.pickRarity(ctx, uow)
	if err != nil {
		return nil, err
	}
	if rarity == "" {
		// Nothing spawnable anywhere in the catalog
		return nil, nil
	}

	character, err := uow.CharacterRepository().GetRandomSpawnable(ctx, rarity)
	if err != nil {
		return nil, fmt.Errorf("failed to pick spawn: %w", err)
	}
	if character == nil {
		return nil, nil
	}

	spawn := &models.Spawn{
		ChatID:      chatID,
		CharacterID: character.ID,
		SpawnedAt:   s.nowFn(),
	}
	if err := uow.SpawnRepository().Upsert(ctx, spawn); err != nil {
		return nil, fmt.Errorf("failed to persist spawn: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return character, nil
}

// pickRarity rolls a rarity weighted by Rarity.SpawnWeight, skipping
// rarities whose spawnable pool is empty.
func (s *spawnService) pickRarity(ctx context.Context, uow UnitOfWork) (models.Rarity, error) {
	counts, err := uow.CharacterRepository().CountSpawnable(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to count spawnable characters: %w", err)
	}

	rarities := []models.Rarity{
		models.RarityCommon,
		models.RarityRare,
		models.RarityEpic,
		models.RarityLegendary,
	}

	total := 0
	for _, r := range rarities {
		if counts[r] > 0 {
			total += r.SpawnWeight()
		}
	}
	if total == 0 {
		return "", nil
	}

	roll := s.rollFn(total)
	for _, r := range rarities {
		if counts[r] == 0 {
			continue
		}
		roll -= r.SpawnWeight()
		if roll < 0 {
			return r, nil
		}
	}
	return rarities[len(rarities)-1], nil
}

// SetSpawnMessage stores the announcement message for the active spawn
func (s *spawnService) SetSpawnMessage(ctx context.Context, chatID int64, messageID int) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.SpawnRepository().SetMessageID(ctx, chatID, messageID); err != nil {
		return fmt.Errorf("failed to set spawn message: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Grab claims the chat's active spawn by name. The match is
// case-insensitive against the full character name.
func (s *spawnService) Grab(ctx context.Context, chatID, telegramID int64, name string) (*models.OwnedCharacter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tell me who you are grabbing")
	}
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cooldown, err := uow.CooldownRepository().Get(ctx, telegramID, models.CooldownScopeGrab)
	if err != nil {
		return nil, fmt.Errorf("failed to check grab cooldown: %w", err)
	}
	if cooldown != nil && cooldown.Blocked(now) {
		return nil, fmt.Errorf("slow down, try again in a few seconds")
	}
	if err := uow.CooldownRepository().Set(ctx, telegramID, models.CooldownScopeGrab, now.Add(grabCooldown)); err != nil {
		return nil, fmt.Errorf("failed to set grab cooldown: %w", err)
	}

	spawn, err := uow.SpawnRepository().GetByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active spawn: %w", err)
	}
	if spawn == nil {
		return nil, fmt.Errorf("there is nobody to grab right now")
	}

	character, err := uow.CharacterRepository().GetByID(ctx, spawn.CharacterID)
	if err != nil {
		return nil, fmt.Errorf("failed to get spawned character: %w", err)
	}
	if character == nil {
		// Catalog entry vanished under the spawn; clear and report
		_ = uow.SpawnRepository().Delete(ctx, chatID)
		return nil, fmt.Errorf("there is nobody to grab right now")
	}

	if !strings.EqualFold(character.Name, name) {
		// Commit so the anti-spam cooldown survives the wrong guess
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, fmt.Errorf("that is not her name")
	}

	owned := models.CopyOf(character, telegramID, models.ObtainedViaGrab)
	if err := uow.CollectionRepository().Grant(ctx, owned); err != nil {
		return nil, fmt.Errorf("failed to grant character: %w", err)
	}

	if err := uow.UserRepository().AddExperience(ctx, telegramID, grabExperience); err != nil {
		return nil, fmt.Errorf("failed to award experience: %w", err)
	}

	if err := uow.SpawnRepository().Delete(ctx, chatID); err != nil {
		return nil, fmt.Errorf("failed to clear spawn: %w", err)
	}

	uow.EventBus().Publish(events.CharacterGrantedEvent{
		TelegramID:  telegramID,
		CharacterID: character.ID,
		Name:        character.Name,
		Rarity:      character.Rarity,
		Via:         models.ObtainedViaGrab,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return owned, nil
}
