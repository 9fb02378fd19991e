package cmd

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"waifubot/bot"
	"waifubot/config"
	"waifubot/database"
	"waifubot/events"
	"waifubot/repository"
	"waifubot/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting waifubot...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Info("Initializing services...")
	userService := service.NewUserService(uowFactory)
	gamblingService := service.NewGamblingService(uowFactory)
	raidService := service.NewRaidService(uowFactory)
	spawnService := service.NewSpawnService(uowFactory)
	collectionService := service.NewCollectionService(uowFactory)
	tradeService := service.NewTradeService(uowFactory)
	passService := service.NewPassService(uowFactory)
	settingsService := service.NewChatSettingsService(uowFactory)
	catalogService := service.NewCatalogService(uowFactory)
	statsService := service.NewStatsService(uowFactory)

	// Initialize Telegram bot
	log.Info("Initializing Telegram bot...")
	b, err := bot.New(cfg, bot.Deps{
		EventBus:        eventBus,
		UserService:     userService,
		GamblingService: gamblingService,
		RaidService:     raidService,
		SpawnService:    spawnService,
		CollectionSvc:   collectionService,
		TradeService:    tradeService,
		PassService:     passService,
		SettingsService: settingsService,
		CatalogService:  catalogService,
		StatsService:    statsService,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	// Background raid resolution. Picks up raids whose join window has
	// elapsed, including ones left over from a previous run.
	stopWorker := b.StartRaidResolutionWorker(ctx)
	defer stopWorker()

	log.Info("Bot is running. Press Ctrl+C to exit.")
	b.Start(ctx)

	log.Info("Shutdown complete")
	return nil
}
