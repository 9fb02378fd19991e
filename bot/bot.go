package bot

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	log "github.com/sirupsen/logrus"

	"waifubot/config"
	"waifubot/events"
	"waifubot/service"
)

// Bot wraps the Telegram bot with all command and callback handlers
type Bot struct {
	tg  *tgbot.Bot
	cfg *config.Config

	userService     service.UserService
	gamblingService service.GamblingService
	raidService     service.RaidService
	spawnService    service.SpawnService
	collectionSvc   service.CollectionService
	tradeService    service.TradeService
	passService     service.PassService
	settingsService service.ChatSettingsService
	catalogService  service.CatalogService
	statsService    service.StatsService

	// Per-chat message counters driving spawns. Advisory only: a lost
	// count just delays the next spawn by a few messages.
	countersMu    sync.Mutex
	spawnCounters map[int64]int
}

// Deps bundles the services a Bot needs
type Deps struct {
	EventBus        *events.Bus
	UserService     service.UserService
	GamblingService service.GamblingService
	RaidService     service.RaidService
	SpawnService    service.SpawnService
	CollectionSvc   service.CollectionService
	TradeService    service.TradeService
	PassService     service.PassService
	SettingsService service.ChatSettingsService
	CatalogService  service.CatalogService
	StatsService    service.StatsService
}

// New creates a new Telegram bot and registers all handlers
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := &Bot{
		cfg:             cfg,
		userService:     deps.UserService,
		gamblingService: deps.GamblingService,
		raidService:     deps.RaidService,
		spawnService:    deps.SpawnService,
		collectionSvc:   deps.CollectionSvc,
		tradeService:    deps.TradeService,
		passService:     deps.PassService,
		settingsService: deps.SettingsService,
		catalogService:  deps.CatalogService,
		statsService:    deps.StatsService,
		spawnCounters:   make(map[int64]int),
	}

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(b.defaultHandler),
		tgbot.WithCallbackQueryDataHandler("raid:", tgbot.MatchTypePrefix, b.raidCallbackHandler),
		tgbot.WithCallbackQueryDataHandler("trade:", tgbot.MatchTypePrefix, b.tradeCallbackHandler),
		tgbot.WithCallbackQueryDataHandler("harem:", tgbot.MatchTypePrefix, b.haremCallbackHandler),
	}

	tg, err := tgbot.New(cfg.TelegramToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	b.tg = tg

	b.registerCommands()

	if deps.EventBus != nil {
		registerEventSubscriptions(deps.EventBus)
	}

	return b, nil
}

// Start begins long polling. Blocks until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	log.Info("Bot connected, starting long polling")
	b.tg.Start(ctx)
}

// sendMessage sends an HTML message, logging instead of failing the
// handler when Telegram rejects it
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *tgmodels.InlineKeyboardMarkup) *tgmodels.Message {
	params := &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	msg, err := b.tg.SendMessage(ctx, params)
	if err != nil {
		log.WithFields(log.Fields{
			"chatID": chatID,
			"error":  err,
		}).Error("Failed to send message")
		return nil
	}
	return msg
}

// sendPhoto posts a photo with an HTML caption, falling back to a plain
// message when the image cannot be sent
func (b *Bot) sendPhoto(ctx context.Context, chatID int64, photoURL, caption string) *tgmodels.Message {
	if photoURL == "" {
		return b.sendMessage(ctx, chatID, caption, nil)
	}

	msg, err := b.tg.SendPhoto(ctx, &tgbot.SendPhotoParams{
		ChatID:    chatID,
		Photo:     &tgmodels.InputFileString{Data: photoURL},
		Caption:   caption,
		ParseMode: tgmodels.ParseModeHTML,
	})
	if err != nil {
		log.WithFields(log.Fields{
			"chatID": chatID,
			"error":  err,
		}).Warn("Failed to send photo, falling back to text")
		return b.sendMessage(ctx, chatID, caption, nil)
	}
	return msg
}

// editMessage edits a previously sent message in place
func (b *Bot) editMessage(ctx context.Context, chatID int64, messageID int, text string, keyboard *tgmodels.InlineKeyboardMarkup) {
	params := &tgbot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
		ParseMode: tgmodels.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	if _, err := b.tg.EditMessageText(ctx, params); err != nil {
		log.WithFields(log.Fields{
			"chatID":    chatID,
			"messageID": messageID,
			"error":     err,
		}).Error("Failed to edit message")
	}
}

// answerCallback acknowledges a button press, optionally with an alert
func (b *Bot) answerCallback(ctx context.Context, callbackID, text string, alert bool) {
	_, err := b.tg.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		log.WithField("error", err).Debug("Failed to answer callback query")
	}
}

// displayName picks the best handle Telegram gives us for a user
func displayName(u *tgmodels.User) string {
	if u == nil {
		return "someone"
	}
	if u.Username != "" {
		return u.Username
	}
	return u.FirstName
}
