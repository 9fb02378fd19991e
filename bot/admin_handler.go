package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"waifubot/models"
)

// requireOwner gates the catalog and account-correction commands. It
// returns false after replying when the sender is not a bot owner.
func (b *Bot) requireOwner(ctx context.Context, update *tgmodels.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}
	if !b.cfg.IsOwner(update.Message.From.ID) {
		b.sendMessage(ctx, update.Message.Chat.ID, "This command is owner-only.", nil)
		return false
	}
	return true
}

// addCharHandler handles "/addchar name | series | rarity | image_url"
// (image URL optional).
func (b *Bot) addCharHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if !b.requireOwner(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	_, rest, found := strings.Cut(update.Message.Text, " ")
	if !found {
		b.sendMessage(ctx, chatID, "Usage: <code>/addchar name | series | rarity | image_url</code>", nil)
		return
	}
	parts := strings.Split(rest, "|")
	if len(parts) < 3 || len(parts) > 4 {
		b.sendMessage(ctx, chatID, "Usage: <code>/addchar name | series | rarity | image_url</code>", nil)
		return
	}
	name := strings.TrimSpace(parts[0])
	series := strings.TrimSpace(parts[1])
	rarity := strings.ToLower(strings.TrimSpace(parts[2]))
	imageURL := ""
	if len(parts) == 4 {
		imageURL = strings.TrimSpace(parts[3])
	}
	if !models.ValidRarity(rarity) {
		b.sendMessage(ctx, chatID, "Rarity must be one of: common, rare, epic, legendary.", nil)
		return
	}

	char, err := b.catalogService.AddCharacter(ctx, name, series, models.Rarity(rarity), imageURL)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Added <code>#%d</code> %s <b>%s</b> · %s",
		char.ID, char.Rarity.Emoji(), html.EscapeString(char.Name), html.EscapeString(char.Series)), nil)
}

func (b *Bot) removeCharHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	b.catalogToggleHandler(ctx, update, "removechar", b.catalogService.RemoveCharacter, "removed from the spawn pool")
}

func (b *Bot) restoreCharHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	b.catalogToggleHandler(ctx, update, "restorechar", b.catalogService.RestoreCharacter, "restored")
}

func (b *Bot) catalogToggleHandler(ctx context.Context, update *tgmodels.Update, name string, op func(context.Context, int64) error, verb string) {
	if !b.requireOwner(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		b.sendMessage(ctx, chatID, fmt.Sprintf("Usage: <code>/%s &lt;character id&gt;</code>", name), nil)
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, chatID, "Character id must be a number.", nil)
		return
	}
	if err := op(ctx, id); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Character <code>#%d</code> %s.", id, verb), nil)
}

// seriesHandler handles "/series on|off <series name>".
func (b *Bot) seriesHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if !b.requireOwner(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) < 2 || (args[0] != "on" && args[0] != "off") {
		b.sendMessage(ctx, chatID, "Usage: <code>/series on|off &lt;series name&gt;</code>", nil)
		return
	}
	series := strings.Join(args[1:], " ")

	affected, err := b.catalogService.SetSeriesSpawnable(ctx, series, args[0] == "on")
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ %d characters of <i>%s</i> switched %s.",
		affected, html.EscapeString(series), args[0]), nil)
}

func (b *Bot) zeroHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if !b.requireOwner(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	target, ok := b.correctionTarget(ctx, update, "zero")
	if !ok {
		return
	}
	if err := b.catalogService.ZeroBalance(ctx, target); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Wallet of <code>%d</code> zeroed.", target), nil)
}

func (b *Bot) wipeHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if !b.requireOwner(ctx, update) {
		return
	}
	chatID := update.Message.Chat.ID

	target, ok := b.correctionTarget(ctx, update, "wipe")
	if !ok {
		return
	}
	removed, err := b.catalogService.WipeCollection(ctx, target)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Removed %d characters from <code>%d</code>.", removed, target), nil)
}

// correctionTarget resolves the subject of /zero and /wipe: either the
// replied-to user or an explicit Telegram ID argument.
func (b *Bot) correctionTarget(ctx context.Context, update *tgmodels.Update, name string) (int64, bool) {
	chatID := update.Message.Chat.ID

	if r := replyTo(update.Message); r != nil && !r.IsBot {
		return r.ID, true
	}
	args := commandArgs(update.Message.Text)
	if len(args) != 1 {
		b.sendMessage(ctx, chatID, fmt.Sprintf("Reply to the user or pass their id: <code>/%s &lt;telegram id&gt;</code>", name), nil)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, chatID, "Telegram id must be a number.", nil)
		return 0, false
	}
	return id, true
}
