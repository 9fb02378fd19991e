package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"

	"waifubot/events"
	"waifubot/models"
)

// raidStartCooldown throttles how often a single user can start or join
// raids across chats.
const raidStartCooldown = 5 * time.Minute

type raidService struct {
	uowFactory UnitOfWorkFactory
	rollFn     func(n int) int // returns a uniform int in [0,n); injectable for tests
	nowFn      func() time.Time
}

// NewRaidService creates a new raid service
func NewRaidService(uowFactory UnitOfWorkFactory) RaidService {
	return &raidService{
		uowFactory: uowFactory,
		rollFn:     rand.Intn,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// StartRaid opens a raid in the chat. The initiator pays the entry fee and
// becomes the first participant. The partial unique index on open raids is
// the authority on "one raid per chat"; a conflicting insert surfaces as
// ErrRaidActive.
func (s *raidService) StartRaid(ctx context.Context, chatID, initiatorID int64, username string) (*models.Raid, error) {
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	settings, err := getOrDefaultSettings(ctx, uow, chatID)
	if err != nil {
		return nil, err
	}
	if !settings.RaidEnabled {
		return nil, fmt.Errorf("raids are disabled in this chat")
	}

	user, err := uow.UserRepository().GetByTelegramID(ctx, initiatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	cooldown, err := uow.CooldownRepository().Get(ctx, initiatorID, models.CooldownScopeRaid)
	if err != nil {
		return nil, fmt.Errorf("failed to check raid cooldown: %w", err)
	}
	if cooldown != nil && cooldown.Blocked(now) {
		remaining := cooldown.Remaining(now).Round(time.Second)
		return nil, fmt.Errorf("you can raid again in %s", remaining)
	}

	// Debit before insert so a failed fee never leaves a fee-less raid
	if err := uow.UserRepository().DeductBalance(ctx, initiatorID, settings.RaidEntryFee); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, fmt.Errorf("insufficient balance: the entry fee is %d gems", settings.RaidEntryFee)
		}
		return nil, fmt.Errorf("failed to deduct entry fee: %w", err)
	}

	raid := &models.Raid{
		ChatID:       chatID,
		InitiatorID:  initiatorID,
		EntryFee:     settings.RaidEntryFee,
		State:        models.RaidStateOpen,
		JoinDeadline: now.Add(settings.JoinWindow()),
	}
	if err := uow.RaidRepository().Create(ctx, raid); err != nil {
		if errors.Is(err, ErrRaidActive) {
			return nil, ErrRaidActive
		}
		return nil, fmt.Errorf("failed to create raid: %w", err)
	}

	participant := &models.RaidParticipant{
		RaidID:     raid.ID,
		TelegramID: initiatorID,
		Username:   username,
	}
	if err := uow.RaidRepository().AddParticipant(ctx, participant); err != nil {
		return nil, fmt.Errorf("failed to add initiator to raid: %w", err)
	}

	if err := uow.CooldownRepository().Set(ctx, initiatorID, models.CooldownScopeRaid, now.Add(raidStartCooldown)); err != nil {
		return nil, fmt.Errorf("failed to set raid cooldown: %w", err)
	}

	raidID := raid.ID
	history := &models.BalanceHistory{
		TelegramID:      initiatorID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - settings.RaidEntryFee,
		ChangeAmount:    -settings.RaidEntryFee,
		TransactionType: models.TransactionTypeRaidEntry,
		RelatedID:       &raidID,
		RelatedType:     relatedRaid(),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.RaidStateChangeEvent{
		RaidID:   raid.ID,
		ChatID:   chatID,
		OldState: "",
		NewState: string(models.RaidStateOpen),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return raid, nil
}

// JoinRaid adds a paying participant to an open raid. The unique
// participant row guarantees a double tap never charges twice.
func (s *raidService) JoinRaid(ctx context.Context, raidID, telegramID int64, username string) (*models.Raid, int, error) {
	now := s.nowFn()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	raid, err := uow.RaidRepository().GetByID(ctx, raidID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get raid: %w", err)
	}
	if raid == nil {
		return nil, 0, fmt.Errorf("this raid is over")
	}
	if !raid.CanAcceptJoins(now) {
		return nil, 0, fmt.Errorf("the join window has closed")
	}

	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, 0, fmt.Errorf("user not found")
	}

	cooldown, err := uow.CooldownRepository().Get(ctx, telegramID, models.CooldownScopeRaid)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check raid cooldown: %w", err)
	}
	if cooldown != nil && cooldown.Blocked(now) {
		remaining := cooldown.Remaining(now).Round(time.Second)
		return nil, 0, fmt.Errorf("you can raid again in %s", remaining)
	}

	// Insert the participant row before charging: the unique constraint
	// rejects a double join here, before any money moves
	participant := &models.RaidParticipant{
		RaidID:     raidID,
		TelegramID: telegramID,
		Username:   username,
	}
	if err := uow.RaidRepository().AddParticipant(ctx, participant); err != nil {
		if errors.Is(err, ErrAlreadyJoined) {
			return nil, 0, ErrAlreadyJoined
		}
		return nil, 0, fmt.Errorf("failed to add participant: %w", err)
	}

	if err := uow.UserRepository().DeductBalance(ctx, telegramID, raid.EntryFee); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return nil, 0, fmt.Errorf("insufficient balance: the entry fee is %d gems", raid.EntryFee)
		}
		return nil, 0, fmt.Errorf("failed to deduct entry fee: %w", err)
	}

	if err := uow.CooldownRepository().Set(ctx, telegramID, models.CooldownScopeRaid, now.Add(raidStartCooldown)); err != nil {
		return nil, 0, fmt.Errorf("failed to set raid cooldown: %w", err)
	}

	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - raid.EntryFee,
		ChangeAmount:    -raid.EntryFee,
		TransactionType: models.TransactionTypeRaidEntry,
		RelatedID:       &raidID,
		RelatedType:     relatedRaid(),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, 0, fmt.Errorf("failed to record balance change: %w", err)
	}

	count, err := uow.RaidRepository().CountParticipants(ctx, raidID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count participants: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return raid, count, nil
}

// SetAnnouncement stores the announcement message ID so the resolver can
// edit it when the raid ends.
func (s *raidService) SetAnnouncement(ctx context.Context, raidID int64, messageID int) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.RaidRepository().SetMessageID(ctx, raidID, messageID); err != nil {
		return fmt.Errorf("failed to set raid message: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetDueRaids returns open raids whose join window has elapsed
func (s *raidService) GetDueRaids(ctx context.Context, now time.Time) ([]*models.Raid, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	raids, err := uow.RaidRepository().GetDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due raids: %w", err)
	}
	return raids, nil
}

// ResolveRaid rolls an outcome for every participant, applies the effects
// and deletes the raid record. Bands are evaluated as cumulative thresholds
// in a fixed order, so equal tables always map a given roll to the same band.
func (s *raidService) ResolveRaid(ctx context.Context, raidID int64) (*models.RaidResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	raid, err := uow.RaidRepository().GetByID(ctx, raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get raid: %w", err)
	}
	if raid == nil {
		// Already resolved by another pass
		return nil, nil
	}

	if err := uow.RaidRepository().UpdateState(ctx, raidID, models.RaidStateResolving); err != nil {
		return nil, fmt.Errorf("failed to mark raid resolving: %w", err)
	}

	settings, err := getOrDefaultSettings(ctx, uow, raid.ChatID)
	if err != nil {
		return nil, err
	}
	table := settings.OutcomeTable()
	if err := table.Validate(); err != nil {
		log.WithFields(log.Fields{
			"chatID": raid.ChatID,
			"error":  err,
		}).Warn("Invalid outcome table in chat settings, using defaults")
		table = models.DefaultOutcomeTable()
	}

	participants, err := uow.RaidRepository().GetParticipants(ctx, raidID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	result := &models.RaidResult{Raid: raid}
	for _, p := range participants {
		outcome, err := s.resolveParticipant(ctx, uow, raid, settings, table, p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve participant %d: %w", p.TelegramID, err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	if err := uow.RaidRepository().Delete(ctx, raidID); err != nil {
		return nil, fmt.Errorf("failed to delete raid: %w", err)
	}

	uow.EventBus().Publish(events.RaidStateChangeEvent{
		RaidID:    raid.ID,
		ChatID:    raid.ChatID,
		OldState:  string(models.RaidStateOpen),
		NewState:  string(models.RaidStateResolving),
		MessageID: raid.MessageID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// resolveParticipant rolls one outcome and applies its effect inside the
// raid's transaction.
func (s *raidService) resolveParticipant(ctx context.Context, uow UnitOfWork, raid *models.Raid, settings *models.ChatSettings, table models.OutcomeTable, p *models.RaidParticipant) (*models.RaidOutcome, error) {
	roll := s.rollFn(100) + 1 // uniform in [1,100]
	kind := table.Pick(roll)

	outcome := &models.RaidOutcome{
		TelegramID: p.TelegramID,
		Username:   p.Username,
		Kind:       kind,
	}

	if kind == models.OutcomeItem {
		character, err := uow.CharacterRepository().GetRandomSpawnable(ctx, settings.RaidItemRarity)
		if err != nil {
			return nil, fmt.Errorf("failed to pick raid item: %w", err)
		}
		if character == nil {
			// Empty pool for the configured rarity falls back to gems
			kind = models.OutcomeCoin
			outcome.Kind = kind
		} else {
			owned := models.CopyOf(character, p.TelegramID, models.ObtainedViaRaid)
			if err := uow.CollectionRepository().Grant(ctx, owned); err != nil {
				return nil, fmt.Errorf("failed to grant raid item: %w", err)
			}
			outcome.Character = owned
			uow.EventBus().Publish(events.CharacterGrantedEvent{
				TelegramID:  p.TelegramID,
				CharacterID: character.ID,
				Name:        character.Name,
				Rarity:      character.Rarity,
				Via:         models.ObtainedViaRaid,
			})
		}
	}

	switch kind {
	case models.OutcomeCritical:
		// Criticals pay double a regular gem reward
		amount := 2 * s.rollRange(settings.RaidRewardMin, settings.RaidRewardMax)
		if err := s.creditRaidReward(ctx, uow, raid, p.TelegramID, amount); err != nil {
			return nil, err
		}
		outcome.Amount = amount

	case models.OutcomeCoin:
		amount := s.rollRange(settings.RaidRewardMin, settings.RaidRewardMax)
		if err := s.creditRaidReward(ctx, uow, raid, p.TelegramID, amount); err != nil {
			return nil, err
		}
		outcome.Amount = amount

	case models.OutcomeLoss:
		amount := s.rollRange(settings.RaidPenaltyMin, settings.RaidPenaltyMax)
		taken, err := s.applyRaidPenalty(ctx, uow, raid, p.TelegramID, amount)
		if err != nil {
			return nil, err
		}
		outcome.Amount = -taken
	}

	return outcome, nil
}

func (s *raidService) creditRaidReward(ctx context.Context, uow UnitOfWork, raid *models.Raid, telegramID, amount int64) error {
	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user %d not found", telegramID)
	}

	if err := uow.UserRepository().AddBalance(ctx, telegramID, amount); err != nil {
		return fmt.Errorf("failed to credit raid reward: %w", err)
	}

	raidID := raid.ID
	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance + amount,
		ChangeAmount:    amount,
		TransactionType: models.TransactionTypeRaidReward,
		RelatedID:       &raidID,
		RelatedType:     relatedRaid(),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return fmt.Errorf("failed to record raid reward: %w", err)
	}
	return nil
}

// applyRaidPenalty takes at most amount from the wallet, flooring at zero.
// The bank is never touched by raids.
func (s *raidService) applyRaidPenalty(ctx context.Context, uow UnitOfWork, raid *models.Raid, telegramID, amount int64) (int64, error) {
	user, err := uow.UserRepository().GetByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, fmt.Errorf("user %d not found", telegramID)
	}

	taken, err := uow.UserRepository().DeductBalanceUpTo(ctx, telegramID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to apply raid penalty: %w", err)
	}
	if taken == 0 {
		return 0, nil
	}

	raidID := raid.ID
	history := &models.BalanceHistory{
		TelegramID:      telegramID,
		BalanceBefore:   user.Balance,
		BalanceAfter:    user.Balance - taken,
		ChangeAmount:    -taken,
		TransactionType: models.TransactionTypeRaidPenalty,
		RelatedID:       &raidID,
		RelatedType:     relatedRaid(),
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, fmt.Errorf("failed to record raid penalty: %w", err)
	}
	return taken, nil
}

// rollRange returns a uniform int64 in [min,max]
func (s *raidService) rollRange(min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + int64(s.rollFn(int(max-min+1)))
}

func relatedRaid() *models.RelatedType {
	rt := models.RelatedTypeRaid
	return &rt
}

// getOrDefaultSettings reads the chat's settings inside the caller's
// transaction, falling back to defaults without persisting them.
func getOrDefaultSettings(ctx context.Context, uow UnitOfWork, chatID int64) (*models.ChatSettings, error) {
	settings, err := uow.ChatSettingsRepository().GetByChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat settings: %w", err)
	}
	if settings == nil {
		settings = models.DefaultChatSettings(chatID)
	}
	return settings, nil
}
