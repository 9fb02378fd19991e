package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

const haremPageSize = 10

func (b *Bot) haremHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	userID := update.Message.From.ID
	userName := displayName(update.Message.From)
	if _, err := b.userService.GetOrCreateUser(ctx, userID, userName); err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}

	text, keyboard, err := b.renderHaremPage(ctx, userID, userName, 1)
	if err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, text, keyboard)
}

// haremCallbackHandler pages through a collection. Callback data is
// "harem:<ownerID>:<page>" and only the owner may flip pages.
func (b *Bot) haremCallbackHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		b.answerCallback(ctx, cb.ID, "", false)
		return
	}
	ownerID, err1 := strconv.ParseInt(parts[1], 10, 64)
	page, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		b.answerCallback(ctx, cb.ID, "", false)
		return
	}

	if cb.From.ID != ownerID {
		b.answerCallback(ctx, cb.ID, "That's not your harem.", true)
		return
	}
	b.answerCallback(ctx, cb.ID, "", false)

	text, keyboard, err := b.renderHaremPage(ctx, ownerID, displayName(&cb.From), page)
	if err != nil {
		return
	}
	if cb.Message.Message != nil {
		b.editMessage(ctx, cb.Message.Message.Chat.ID, cb.Message.Message.ID, text, keyboard)
	}
}

func (b *Bot) renderHaremPage(ctx context.Context, userID int64, userName string, page int) (string, *tgmodels.InlineKeyboardMarkup, error) {
	owned, total, err := b.collectionSvc.GetPage(ctx, userID, page, haremPageSize)
	if err != nil {
		return "", nil, err
	}

	if total == 0 {
		return fmt.Sprintf("%s's harem is empty. Grab someone!", mention(userID, userName)), nil, nil
	}

	totalPages := (total + haremPageSize - 1) / haremPageSize
	if page > totalPages {
		page = totalPages
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎴 <b>%s's harem</b> — %d characters\n\n", userName, total)
	for _, o := range owned {
		fmt.Fprintf(&sb, "<code>#%d</code> %s\n", o.ID, formatCharacter(o))
	}
	fmt.Fprintf(&sb, "\nPage %d/%d", page, totalPages)

	return sb.String(), haremKeyboard(userID, page, totalPages), nil
}

func haremKeyboard(ownerID int64, page, totalPages int) *tgmodels.InlineKeyboardMarkup {
	if totalPages <= 1 {
		return nil
	}

	var row []tgmodels.InlineKeyboardButton
	if page > 1 {
		row = append(row, tgmodels.InlineKeyboardButton{
			Text:         "⬅️",
			CallbackData: fmt.Sprintf("harem:%d:%d", ownerID, page-1),
		})
	}
	if page < totalPages {
		row = append(row, tgmodels.InlineKeyboardButton{
			Text:         "➡️",
			CallbackData: fmt.Sprintf("harem:%d:%d", ownerID, page+1),
		})
	}

	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{row},
	}
}
