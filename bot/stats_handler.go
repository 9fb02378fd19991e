package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

func (b *Bot) topHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	entries, err := b.statsService.GetScoreboard(ctx, 10)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if len(entries) == 0 {
		b.sendMessage(ctx, chatID, "Nobody here yet. Go earn some gems!", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 <b>Richest collectors</b>\n\n")
	medals := []string{"🥇", "🥈", "🥉"}
	for _, e := range entries {
		prefix := fmt.Sprintf("%d.", e.Rank)
		if e.Rank <= len(medals) {
			prefix = medals[e.Rank-1]
		}
		sb.WriteString(fmt.Sprintf("%s %s — %s, %d waifus\n",
			prefix, html.EscapeString(e.Username), formatGems(e.TotalBalance), e.CollectionSize))
	}
	b.sendMessage(ctx, chatID, sb.String(), nil)
}

func (b *Bot) profileHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	// /profile on a reply shows the replied-to user's profile.
	target := update.Message.From
	if r := replyTo(update.Message); r != nil && !r.IsBot {
		target = r
	}

	if target.ID == update.Message.From.ID {
		if _, err := b.userService.GetOrCreateUser(ctx, target.ID, displayName(target)); err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
	}

	profile, err := b.statsService.GetProfile(ctx, target.ID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if profile == nil {
		b.sendMessage(ctx, chatID, "That user hasn't played yet.", nil)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 <b>%s</b>\n\n", html.EscapeString(profile.User.Username)))
	sb.WriteString(fmt.Sprintf("💎 Wallet: %s\n", formatGems(profile.User.Balance)))
	sb.WriteString(fmt.Sprintf("🏦 Bank: %s\n", formatGems(profile.User.BankBalance)))
	sb.WriteString(fmt.Sprintf("✨ Experience: %d\n", profile.User.Experience))
	sb.WriteString(fmt.Sprintf("🎴 Collection: %d waifus\n", profile.CollectionSize))
	if profile.ActivePass != nil {
		sb.WriteString(fmt.Sprintf("🎫 Pass: %s (until %s)\n",
			profile.ActivePass.Tier, profile.ActivePass.ExpiresAt.UTC().Format("2006-01-02")))
	}
	if profile.BetStats != nil && profile.BetStats.TotalBets > 0 {
		s := profile.BetStats
		sb.WriteString(fmt.Sprintf("\n🎲 Bets: %d (%d won / %d lost)\n", s.TotalBets, s.TotalWins, s.TotalLosses))
		sb.WriteString(fmt.Sprintf("Wagered: %s | Biggest win: %s\n", formatGems(s.TotalWagered), formatGems(s.BiggestWin)))
	}
	b.sendMessage(ctx, chatID, sb.String(), nil)
}
