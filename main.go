package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/twuijri/Vex/internal/aiprovider"
	"github.com/twuijri/Vex/internal/config"
	"github.com/twuijri/Vex/internal/guard"
	"github.com/twuijri/Vex/internal/repository"
	"github.com/twuijri/Vex/internal/server"
	"github.com/twuijri/Vex/internal/telegram_bot"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.LoadConfig("configs/config.yml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repository.MigrateDB(db, logger)

	// Repositories
	groupRepo := repository.NewGroupRepository(db, logger)
	adminRepo := repository.NewAdminRepository(db, logger)
	alertRepo := repository.NewAlertRepository(db, logger)
	providerRepo := repository.NewProviderRepository(db, logger)
	statRepo := repository.NewUsageStatRepository(db, logger)

	// AI cascade over the configured providers
	cascade := aiprovider.NewCascade(providerRepo, statRepo, adminRepo, logger)

	// Telegram bot doubles as the pipeline's transport and role checker
	bot, err := telegram_bot.NewBot(cfg.Telegram.BotToken, groupRepo, adminRepo, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Telegram bot", zap.Error(err))
	}

	pipeline := guard.NewPipeline(groupRepo, adminRepo, bot, alertRepo, cascade, bot, logger)
	bot.SetPipeline(pipeline)

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		if err := bot.Start(ctx); err != nil {
			logger.Error("Telegram bot failed", zap.Error(err))
		}
	}()

	srv := server.NewServer(db, cfg, logger)
	go func() {
		if err := srv.Run(":" + cfg.Server.Port); err != nil {
			logger.Error("Server failed", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Application stopped.")
}
