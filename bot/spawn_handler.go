package bot

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"
)

// defaultHandler counts ordinary group chatter toward the next spawn
func (b *Bot) defaultHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}
	// Spawns only make sense in group chats
	if msg.Chat.Type != "group" && msg.Chat.Type != "supergroup" {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	settings, err := b.settingsService.GetOrCreateSettings(ctx, msg.Chat.ID)
	if err != nil {
		log.WithField("error", err).Error("Failed to load chat settings")
		return
	}
	if !settings.SpawnEnabled {
		return
	}

	b.countersMu.Lock()
	b.spawnCounters[msg.Chat.ID]++
	due := b.spawnCounters[msg.Chat.ID] >= settings.SpawnThreshold
	if due {
		b.spawnCounters[msg.Chat.ID] = 0
	}
	b.countersMu.Unlock()

	if !due {
		return
	}

	character, err := b.spawnService.TriggerSpawn(ctx, msg.Chat.ID)
	if err != nil {
		log.WithField("error", err).Error("Failed to trigger spawn")
		return
	}
	if character == nil {
		return
	}

	caption := fmt.Sprintf(
		"%s A wild character appeared!\nSeries: <b>%s</b>\n\nClaim her with <code>/grab &lt;name&gt;</code>",
		character.Rarity.Emoji(), html.EscapeString(character.Series),
	)
	sent := b.sendPhoto(ctx, msg.Chat.ID, character.ImageURL, caption)
	if sent != nil {
		if err := b.spawnService.SetSpawnMessage(ctx, msg.Chat.ID, sent.ID); err != nil {
			log.WithField("error", err).Warn("Failed to store spawn message")
		}
	}
}

func (b *Bot) grabHandler(ctx context.Context, tg *tgbot.Bot, update *tgmodels.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text)
	if len(args) == 0 {
		b.sendMessage(ctx, chatID, "Usage: <code>/grab &lt;name&gt;</code>", nil)
		return
	}
	name := strings.Join(args, " ")

	userID := update.Message.From.ID
	userName := displayName(update.Message.From)
	if _, err := b.userService.GetOrCreateUser(ctx, userID, userName); err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	owned, err := b.spawnService.Grab(ctx, chatID, userID, name)
	if err != nil {
		b.replyError(ctx, chatID, err)
		return
	}

	text := fmt.Sprintf("💘 %s grabbed %s!", mention(userID, userName), formatCharacter(owned))
	b.sendMessage(ctx, chatID, text, nil)
}
