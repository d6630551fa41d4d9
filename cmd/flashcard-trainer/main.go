package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/go-telegram/bot"
	"github.com/smith3v/flashcard-trainer/pkg/bot/handlers"
	"github.com/smith3v/flashcard-trainer/pkg/config"
	"github.com/smith3v/flashcard-trainer/pkg/db"
	"github.com/smith3v/flashcard-trainer/pkg/logger"
	"github.com/smith3v/flashcard-trainer/pkg/review"
	"github.com/smith3v/flashcard-trainer/pkg/store"
)

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	var cards store.CardStore
	var settings review.SettingsSource
	switch config.AppConfig.Storage.Backend {
	case "file":
		cards = store.NewFileStore(config.AppConfig.Storage.Path, nil)
	default:
		if err := db.InitDB(config.AppConfig.Storage, config.AppConfig.Database); err != nil {
			logger.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		cards = store.NewGormStore(db.DB, nil)
		settings = db.DailyNewCardOverride
	}

	selector := review.NewSelector(cards, config.AppConfig.Srs.DailyNewCardLimit, settings, nil)
	manager := review.NewManager(cards, selector, nil, nil)
	review.SetDefaultManager(manager)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	opts := []bot.Option{
		bot.WithDefaultHandler(handlers.HandleDefault),
	}
	b, err := bot.New(config.AppConfig.Telegram.Token, opts...)
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, handlers.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/review", bot.MatchTypeExact, handlers.HandleReview)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/setlimit", bot.MatchTypePrefix, handlers.HandleSetLimit)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, review.RevealCallbackPrefix, bot.MatchTypePrefix, handlers.HandleRevealCallback)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, review.GradeCallbackPrefix, bot.MatchTypePrefix, handlers.HandleGradeCallback)

	go manager.StartSweeper(ctx)

	logger.Info("Starting bot...")
	b.Start(ctx)
}
