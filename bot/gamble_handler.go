package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// defaultGambleChance is used when /gamble is called without a chance
const defaultGambleChance = 0.5

func (b *Bot) gambleHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 1 || len(args) > 2 {
		b.sendMessage(ctx, chatID, "Usage: <code>/gamble &lt;amount&gt; [chance%]</code>\nExample: <code>/gamble 100 25</code> pays 3:1 at 25% odds.", nil)
		return
	}

	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		b.sendMessage(ctx, chatID, "Amount must be a positive number.", nil)
		return
	}

	chance := defaultGambleChance
	if len(args) == 2 {
		raw := strings.TrimSuffix(args[1], "%")
		pct, err := strconv.ParseFloat(raw, 64)
		if err != nil || pct < 1 || pct > 99 {
			b.sendMessage(ctx, chatID, "Chance must be between 1 and 99 percent.", nil)
			return
		}
		chance = pct / 100
	}

	userID := update.Message.From.ID
	if _, err := b.userService.GetOrCreateUser(ctx, userID, displayName(update.Message.From)); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	result, err := b.gamblingService.PlaceBet(ctx, userID, chance, amount)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	var text string
	if result.Won {
		text = fmt.Sprintf("🎉 <b>You won %s!</b>\n👛 Wallet: <b>%s</b>",
			formatGems(result.WinAmount), formatGems(result.NewBalance))
	} else {
		text = fmt.Sprintf("💀 <b>You lost %s.</b>\n👛 Wallet: <b>%s</b>",
			formatGems(result.BetAmount), formatGems(result.NewBalance))
	}
	b.sendMessage(ctx, chatID, text, nil)
}
