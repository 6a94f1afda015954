package main

import (
	"os"
	"path/filepath"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rateminder/server/config"
	"rateminder/server/internal/api"
	"rateminder/server/internal/collector"
	"rateminder/server/internal/database"
	"rateminder/server/internal/engine"
	"rateminder/server/internal/ledger"
	"rateminder/server/internal/notify"
	"rateminder/server/internal/processor"
	"rateminder/server/internal/queue"
	"rateminder/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	pricing, err := config.LoadPricingConfig(cfg.Paths.PricingConfigPath)
	if err != nil {
		logger.WithError(err).Warn("Failed to load pricing config, using defaults")
		pricing = config.DefaultPricingConfig()
	}

	for _, dir := range []string{cfg.Paths.LedgerPath, cfg.Paths.DatabasePath} {
		if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
			logger.WithError(err).Fatal("Failed to create data directory")
		}
	}

	// Initialize the mirror store
	logger.Infof("Using database at: %s", cfg.Paths.DatabasePath)
	db, err := database.NewDatabase(cfg.Paths.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	gormDB, err := gorm.Open(sqlite.Open(cfg.Paths.DatabasePath), &gorm.Config{})
	if err != nil {
		logger.WithError(err).Fatal("Failed to open gorm connection")
	}

	// Mirror-store pipeline: queue feeding batched upserts
	changeQueue := queue.NewChangeQueue(cfg.BatchProcessing.QueueSize, logger)
	changeQueue.Start()
	defer changeQueue.Close()

	batchProcessor := processor.NewBatchProcessor(gormDB, changeQueue, cfg, logger)
	batchProcessor.Start()
	defer batchProcessor.Stop()

	// Rebuild engine state from the change ledger
	records := ledger.Read(cfg.Paths.LedgerPath)
	logger.WithField("records", len(records)).Info("Replayed change ledger")

	pricingEngine := engine.New(pricing, records, logger)
	writer := ledger.NewWriter(cfg.Paths.LedgerPath, logger)
	source := collector.NewScriptCollector(cfg.Paths.AutomationScript, logger)
	notifier := notify.NewService(logger, cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Enabled)

	runScheduler := scheduler.NewScheduler(pricingEngine, source, writer, changeQueue, notifier, pricing, logger)
	if err := runScheduler.Start(cfg.Schedule.Cron, cfg.Schedule.RunOnStartup); err != nil {
		logger.WithError(err).Fatal("Failed to start pricing scheduler")
	}
	defer runScheduler.Stop()

	// HTTP API
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	handler := api.NewHandler(db, runScheduler, logger)
	api.SetupRoutes(router, handler)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}
