package bot

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"waifubot/models"
)

func (b *Bot) passHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if _, err := b.userService.GetOrCreateUser(ctx, userID, displayName(update.Message.From)); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		b.passStatus(ctx, chatID, userID)
		return
	}

	switch strings.ToLower(args[0]) {
	case "buy":
		if len(args) != 2 || !models.ValidPassTier(strings.ToLower(args[1])) {
			b.sendMessage(ctx, chatID, "Usage: <code>/pass buy silver|gold</code>", nil)
			return
		}
		tier := models.PassTier(strings.ToLower(args[1]))
		pass, err := b.passService.Buy(ctx, userID, tier)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		text := fmt.Sprintf("🎫 You bought a <b>%s pass</b> for %s!\nValid until %s. Use <code>/pass claim</code> once a day.",
			pass.Tier, formatGems(tier.Price()), pass.ExpiresAt.UTC().Format("2006-01-02"))
		b.sendMessage(ctx, chatID, text, nil)

	case "claim":
		granted, pass, err := b.passService.Claim(ctx, userID)
		if err != nil {
			b.replyError(ctx, chatID, err)
			return
		}
		text := fmt.Sprintf("🎫 Pass claim: +%s\nNext claim after %s UTC.",
			formatGems(granted), pass.NextClaimAt().UTC().Format("15:04:05"))
		b.sendMessage(ctx, chatID, text, nil)

	default:
		b.sendMessage(ctx, chatID, "Usage: <code>/pass</code>, <code>/pass buy silver|gold</code> or <code>/pass claim</code>", nil)
	}
}

func (b *Bot) passStatus(ctx context.Context, chatID, userID int64) {
	pass, err := b.passService.Status(ctx, userID)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	if pass == nil {
		text := fmt.Sprintf(
			"You have no active pass.\n\n🎫 <b>Silver</b> — %s: +%s per claim, +%s daily bonus\n🎫 <b>Gold</b> — %s: +%s per claim, +%s daily bonus\n\nBuy with <code>/pass buy silver|gold</code>.",
			formatGems(models.PassTierSilver.Price()), formatGems(models.PassTierSilver.ClaimReward()), formatGems(models.PassTierSilver.DailyBonus()),
			formatGems(models.PassTierGold.Price()), formatGems(models.PassTierGold.ClaimReward()), formatGems(models.PassTierGold.DailyBonus()),
		)
		b.sendMessage(ctx, chatID, text, nil)
		return
	}
	text := fmt.Sprintf(
		"🎫 Active <b>%s pass</b>\nExpires: %s\nClaims made: %d\nNext claim: %s UTC",
		pass.Tier,
		pass.ExpiresAt.UTC().Format("2006-01-02"),
		pass.ClaimsMade,
		pass.NextClaimAt().UTC().Format("2006-01-02 15:04:05"),
	)
	b.sendMessage(ctx, chatID, text, nil)
}
