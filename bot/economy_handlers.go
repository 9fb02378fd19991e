package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

func (b *Bot) balanceHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	user, err := b.userService.GetOrCreateUser(ctx, update.Message.From.ID, displayName(update.Message.From))
	if err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}

	text := fmt.Sprintf(
		"👛 Wallet: <b>%s</b>\n🏦 Bank: <b>%s</b>\n💎 Total: <b>%s</b>",
		formatGems(user.Balance), formatGems(user.BankBalance), formatGems(user.TotalBalance()),
	)
	b.sendMessage(ctx, update.Message.Chat.ID, text, nil)
}

func (b *Bot) dailyHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	userID := update.Message.From.ID

	if _, err := b.userService.GetOrCreateUser(ctx, userID, displayName(update.Message.From)); err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}

	granted, newBalance, err := b.userService.ClaimDaily(ctx, userID)
	if err != nil {
		b.replyError(ctx, update.Message.Chat.ID, err)
		return
	}

	text := fmt.Sprintf("🎁 Daily claimed: <b>+%s</b>\n👛 Wallet: <b>%s</b>", formatGems(granted), formatGems(newBalance))
	b.sendMessage(ctx, update.Message.Chat.ID, text, nil)
}

func (b *Bot) depositHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	b.bankHandler(ctx, update, true)
}

func (b *Bot) withdrawHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	b.bankHandler(ctx, update, false)
}

func (b *Bot) bankHandler(ctx context.Context, update *tgmodels.Update, deposit bool) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		usage := "/deposit <amount>"
		if !deposit {
			usage = "/withdraw <amount>"
		}
		b.sendMessage(ctx, chatID, "Usage: <code>"+usage+"</code>", nil)
		return
	}

	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		b.sendMessage(ctx, chatID, "Amount must be a positive number.", nil)
		return
	}

	userID := update.Message.From.ID
	if _, err := b.userService.GetOrCreateUser(ctx, userID, displayName(update.Message.From)); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	var text string
	if deposit {
		user, err := b.userService.Deposit(ctx, userID, amount)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		text = fmt.Sprintf("🏦 Deposited <b>%s</b>\n👛 Wallet: <b>%s</b> · 🏦 Bank: <b>%s</b>",
			formatGems(amount), formatGems(user.Balance), formatGems(user.BankBalance))
	} else {
		user, err := b.userService.Withdraw(ctx, userID, amount)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		text = fmt.Sprintf("🏦 Withdrew <b>%s</b>\n👛 Wallet: <b>%s</b> · 🏦 Bank: <b>%s</b>",
			formatGems(amount), formatGems(user.Balance), formatGems(user.BankBalance))
	}
	b.sendMessage(ctx, chatID, text, nil)
}

func (b *Bot) payHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	recipient := replyTo(update.Message)
	if recipient == nil {
		b.sendMessage(ctx, chatID, "Reply to the person you want to pay: <code>/pay &lt;amount&gt;</code>", nil)
		return
	}
	if recipient.IsBot {
		b.sendMessage(ctx, chatID, "Bots do not need gems.", nil)
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		b.sendMessage(ctx, chatID, "Usage: reply with <code>/pay &lt;amount&gt;</code>", nil)
		return
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || amount <= 0 {
		b.sendMessage(ctx, chatID, "Amount must be a positive number.", nil)
		return
	}

	fromID := update.Message.From.ID
	fromName := displayName(update.Message.From)
	toName := displayName(recipient)

	if _, err := b.userService.GetOrCreateUser(ctx, fromID, fromName); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if _, err := b.userService.GetOrCreateUser(ctx, recipient.ID, toName); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	result, err := b.userService.Transfer(ctx, fromID, recipient.ID, amount, fromName, toName)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	text := fmt.Sprintf("💸 %s paid %s <b>%s</b>",
		mention(fromID, fromName), mention(recipient.ID, toName), formatGems(result.Amount))
	b.sendMessage(ctx, chatID, text, nil)
}
