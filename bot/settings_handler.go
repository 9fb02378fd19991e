package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"

	"waifubot/models"
)

// settingsHandler shows or edits per-chat configuration. Reads are open
// to everyone, writes need chat admin rights (or the bot owner).
func (b *Bot) settingsHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	settings, err := b.settingsService.GetOrCreateSettings(ctx, chatID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		b.sendMessage(ctx, chatID, renderSettings(settings), nil)
		return
	}

	if !b.canEditSettings(ctx, chatID, update.Message.From.ID) {
		b.sendMessage(ctx, chatID, "Only chat admins can change settings.", nil)
		return
	}

	if err := applySetting(settings, args); err != nil {
		b.sendMessage(ctx, chatID, "❌ "+err.Error(), nil)
		return
	}
	if err := b.settingsService.UpdateSettings(ctx, settings); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, "✅ Settings updated.\n\n"+renderSettings(settings), nil)
}

// canEditSettings reports whether the user may change this chat's settings.
// Bot owners always can; otherwise the user must be a chat admin.
func (b *Bot) canEditSettings(ctx context.Context, chatID, userID int64) bool {
	if b.cfg.IsOwner(userID) {
		return true
	}

	member, err := b.tg.GetChatMember(ctx, &tgbot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"chatID": chatID,
			"userID": userID,
			"error":  err,
		}).Warn("Failed to check chat member status")
		return false
	}

	return member.Type == tgmodels.ChatMemberTypeOwner ||
		member.Type == tgmodels.ChatMemberTypeAdministrator
}

// applySetting mutates settings in place based on "/settings <key> <value...>".
func applySetting(s *models.ChatSettings, args []string) error {
	key := strings.ToLower(args[0])
	if len(args) < 2 {
		return fmt.Errorf("usage: /settings %s <value>", key)
	}
	val := strings.ToLower(args[1])

	onOff := func() (bool, error) {
		switch val {
		case "on":
			return true, nil
		case "off":
			return false, nil
		}
		return false, fmt.Errorf("expected on or off, got %q", args[1])
	}

	switch key {
	case "spawn":
		v, err := onOff()
		if err != nil {
			return err
		}
		s.SpawnEnabled = v
	case "raid":
		v, err := onOff()
		if err != nil {
			return err
		}
		s.RaidEnabled = v
	case "threshold":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("threshold must be a number")
		}
		s.SpawnThreshold = n
	case "fee":
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("fee must be a number")
		}
		s.RaidEntryFee = n
	case "window":
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("window must be a number of seconds")
		}
		s.RaidJoinWindowSeconds = n
	case "reward":
		lo, hi, err := parseRange(args[1:])
		if err != nil {
			return err
		}
		s.RaidRewardMin, s.RaidRewardMax = lo, hi
	case "penalty":
		lo, hi, err := parseRange(args[1:])
		if err != nil {
			return err
		}
		s.RaidPenaltyMin, s.RaidPenaltyMax = lo, hi
	case "rarity":
		if !models.ValidRarity(val) {
			return fmt.Errorf("unknown rarity %q", args[1])
		}
		s.RaidItemRarity = models.Rarity(val)
	case "weights":
		// /settings weights <critical> <item> <coin> <loss> <nothing>
		if len(args) != 6 {
			return fmt.Errorf("usage: /settings weights <critical> <item> <coin> <loss> <nothing>")
		}
		weights := make([]int, 5)
		for i, a := range args[1:] {
			n, err := strconv.Atoi(a)
			if err != nil {
				return fmt.Errorf("weights must be numbers")
			}
			weights[i] = n
		}
		s.WeightCritical = weights[0]
		s.WeightItem = weights[1]
		s.WeightCoin = weights[2]
		s.WeightLoss = weights[3]
		s.WeightNothing = weights[4]
	default:
		return fmt.Errorf("unknown setting %q", args[0])
	}
	return nil
}

func parseRange(args []string) (int64, int64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected <min> <max>")
	}
	lo, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("min must be a number")
	}
	hi, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("max must be a number")
	}
	return lo, hi, nil
}

func renderSettings(s *models.ChatSettings) string {
	flag := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	return fmt.Sprintf(
		"⚙️ <b>Chat settings</b>\n\n"+
			"Spawns: %s (every %d messages)\n"+
			"Raids: %s\n"+
			"Raid fee: %s\n"+
			"Join window: %ds\n"+
			"Reward: %d–%d | Penalty: %d–%d\n"+
			"Item rarity: %s\n"+
			"Weights: crit %d / item %d / coin %d / loss %d / nothing %d\n\n"+
			"Keys: spawn, raid, threshold, fee, window, reward, penalty, rarity, weights",
		flag(s.SpawnEnabled), s.SpawnThreshold,
		flag(s.RaidEnabled),
		formatGems(s.RaidEntryFee),
		s.RaidJoinWindowSeconds,
		s.RaidRewardMin, s.RaidRewardMax, s.RaidPenaltyMin, s.RaidPenaltyMax,
		s.RaidItemRarity,
		s.WeightCritical, s.WeightItem, s.WeightCoin, s.WeightLoss, s.WeightNothing,
	)
}
