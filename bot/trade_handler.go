package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

func (b *Bot) tradeHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	recipient := replyTo(update.Message)
	if recipient == nil || recipient.IsBot {
		b.sendMessage(ctx, chatID, "Reply to your trade partner with <code>/trade &lt;your #&gt; &lt;their #&gt;</code>\nFind the numbers in /harem.", nil)
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		b.sendMessage(ctx, chatID, "Usage: <code>/trade &lt;your #&gt; &lt;their #&gt;</code>", nil)
		return
	}
	myOwnedID, err1 := strconv.ParseInt(args[0], 10, 64)
	theirOwnedID, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil {
		b.sendMessage(ctx, chatID, "Character numbers must be numeric, see /harem.", nil)
		return
	}

	proposerID := update.Message.From.ID
	proposerName := displayName(update.Message.From)
	recipientName := displayName(recipient)

	if _, err := b.userService.GetOrCreateUser(ctx, proposerID, proposerName); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if _, err := b.userService.GetOrCreateUser(ctx, recipient.ID, recipientName); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	trade, err := b.tradeService.Propose(ctx, chatID, proposerID, recipient.ID, myOwnedID, theirOwnedID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	text := fmt.Sprintf(
		"🔄 %s offers %s a trade:\n\ngives <code>#%d</code> for <code>#%d</code>\n\nOnly %s can respond. The offer expires in 10 minutes.",
		mention(proposerID, proposerName), mention(recipient.ID, recipientName),
		trade.ProposerOwnedID, trade.RecipientOwnedID,
		mention(recipient.ID, recipientName),
	)
	b.sendMessage(ctx, chatID, text, tradeKeyboard(trade.ID))
}

// tradeCallbackHandler handles Accept/Decline. Data is
// "trade:accept:<uuid>" or "trade:decline:<uuid>".
func (b *Bot) tradeCallbackHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	cb := update.CallbackQuery
	if cb == nil {
		return
	}

	parts := strings.SplitN(cb.Data, ":", 3)
	if len(parts) != 3 {
		b.answerCallback(ctx, cb.ID, "", false)
		return
	}
	accept := parts[1] == "accept"
	tradeID := parts[2]

	trade, err := b.tradeService.Respond(ctx, tradeID, cb.From.ID, accept)
	if err != nil {
		b.answerCallback(ctx, cb.ID, userFacing(err), true)
		return
	}
	b.answerCallback(ctx, cb.ID, "", false)

	if cb.Message.Message == nil {
		return
	}

	var text string
	if accept {
		text = fmt.Sprintf("✅ Trade complete! <code>#%d</code> ⇄ <code>#%d</code>",
			trade.ProposerOwnedID, trade.RecipientOwnedID)
	} else {
		text = "❌ Trade declined."
	}
	b.editMessage(ctx, cb.Message.Message.Chat.ID, cb.Message.Message.ID, text, nil)
}

func tradeKeyboard(tradeID string) *tgmodels.InlineKeyboardMarkup {
	return &tgmodels.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
			{
				{Text: "✅ Accept", CallbackData: "trade:accept:" + tradeID},
				{Text: "❌ Decline", CallbackData: "trade:decline:" + tradeID},
			},
		},
	}
}
