package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"

	"waifubot/models"
	"waifubot/service"
)

func (b *Bot) raidHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if update.Message.Chat.Type != "group" && update.Message.Chat.Type != "supergroup" {
		b.sendMessage(ctx, chatID, "Raids only work in group chats.", nil)
		return
	}

	userID := update.Message.From.ID
	userName := displayName(update.Message.From)
	if _, err := b.userService.GetOrCreateUser(ctx, userID, userName); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	raid, err := b.raidService.StartRaid(ctx, chatID, userID, userName)
	if err != nil {
		if errors.Is(err, service.ErrRaidActive) {
			b.sendMessage(ctx, chatID, "⚔️ A raid is already active in this chat!", nil)
			return
		}
		b.replyError(ctx, chatID, err)
		return
	}

	text := raidAnnouncement(raid, userName, 1)
	sent := b.sendMessage(ctx, chatID, text, raidKeyboard(raid.ID))
	if sent != nil {
		if err := b.raidService.SetAnnouncement(ctx, raid.ID, sent.ID); err != nil {
			log.WithField("error", err).Warn("Failed to store raid announcement")
		}
	}
}

// raidCallbackHandler handles the Join button. Data is "raid:join:<id>".
func (b *Bot) raidCallbackHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	raidID, ok := parseRaidCallback(cb.Data)
	if !ok {
		b.answerCallback(ctx, cb.ID, "", false)
		return
	}

	userID := cb.From.ID
	userName := displayName(&cb.From)
	if _, err := b.userService.GetOrCreateUser(ctx, userID, userName); err != nil {
		b.answerCallback(ctx, cb.ID, userFacing(err), true)
		return
	}

	raid, participants, err := b.raidService.JoinRaid(ctx, raidID, userID, userName)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyJoined) {
			b.answerCallback(ctx, cb.ID, "You are already in!", false)
			return
		}
		b.answerCallback(ctx, cb.ID, userFacing(err), true)
		return
	}

	b.answerCallback(ctx, cb.ID, fmt.Sprintf("Joined! Entry fee: %d gems.", raid.EntryFee), false)

	// Refresh the participant count on the announcement
	if cb.Message.Message != nil {
		b.editMessage(ctx, cb.Message.Message.Chat.ID, cb.Message.Message.ID,
			raidAnnouncement(raid, "", participants), raidKeyboard(raid.ID))
	}
}

func parseRaidCallback(data string) (int64, bool) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[1] != "join" {
		return 0, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func raidKeyboard(raidID int64) *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "⚔️ Join the raid", CallbackData: fmt.Sprintf("raid:join:%d", raidID)},
			},
		},
	}
}

func raidAnnouncement(raid *models.Raid, initiatorName string, participants int) string {
	var sb strings.Builder
	sb.WriteString("⚔️ <b>A raid is forming!</b>\n\n")
	if initiatorName != "" {
		fmt.Fprintf(&sb, "Started by <b>%s</b>\n", html.EscapeString(initiatorName))
	}
	fmt.Fprintf(&sb, "Entry fee: <b>%s</b>\n", formatGems(raid.EntryFee))
	fmt.Fprintf(&sb, "Raiders: <b>%d</b>\n\n", participants)
	fmt.Fprintf(&sb, "Join before <b>%s</b> UTC!", raid.JoinDeadline.Format("15:04:05"))
	return sb.String()
}

// reportRaidResult posts the per-participant outcome summary, replacing
// the join announcement.
func (b *Bot) reportRaidResult(ctx context.Context, result *models.RaidResult) {
	raid := result.Raid

	if len(result.Outcomes) <= 1 {
		text := "⚔️ Nobody joined the raid. It disbands quietly."
		if len(result.Outcomes) == 1 {
			o := result.Outcomes[0]
			text = fmt.Sprintf("⚔️ %s raided alone...\n\n%s", mention(o.TelegramID, o.Username), formatOutcome(o))
		}
		b.finishRaidMessage(ctx, raid, text)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚔️ <b>The raid is over!</b> %d raiders:\n\n", len(result.Outcomes))
	for _, o := range result.Outcomes {
		fmt.Fprintf(&sb, "%s — %s\n", mention(o.TelegramID, o.Username), formatOutcome(o))
	}
	if gained := result.TotalGained(); gained > 0 {
		fmt.Fprintf(&sb, "\nTotal loot: <b>%s</b>", formatGems(gained))
	}
	b.finishRaidMessage(ctx, raid, sb.String())
}

func (b *Bot) finishRaidMessage(ctx context.Context, raid *models.Raid, text string) {
	if raid.MessageID != 0 {
		b.editMessage(ctx, raid.ChatID, raid.MessageID, text, nil)
		return
	}
	b.sendMessage(ctx, raid.ChatID, text, nil)
}

func formatOutcome(o *models.RaidOutcome) string {
	switch o.Kind {
	case models.OutcomeCritical:
		return fmt.Sprintf("💥 <b>critical hit!</b> +%s", formatGems(o.Amount))
	case models.OutcomeItem:
		return fmt.Sprintf("🎴 found %s", formatCharacter(o.Character))
	case models.OutcomeCoin:
		return fmt.Sprintf("💰 looted +%s", formatGems(o.Amount))
	case models.OutcomeLoss:
		return fmt.Sprintf("🤕 got hurt, %s", formatGems(o.Amount))
	default:
		return "😶 found nothing"
	}
}
