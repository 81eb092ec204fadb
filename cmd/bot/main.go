package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/exam-prep-bot/internal/api"
	"github.com/aliskhannn/exam-prep-bot/internal/config"
	"github.com/aliskhannn/exam-prep-bot/internal/delivery/telegram"
	"github.com/aliskhannn/exam-prep-bot/internal/infra/postgres"
	"github.com/aliskhannn/exam-prep-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/exam-prep-bot/internal/logger"
	"github.com/aliskhannn/exam-prep-bot/internal/service"
	"github.com/aliskhannn/exam-prep-bot/internal/session"
	"github.com/aliskhannn/exam-prep-bot/internal/stats"
	"github.com/aliskhannn/exam-prep-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DB.DSN()
	if err != nil {
		lg.Fatal("database is not configured", zap.Error(err))
	}

	pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
		MaxConns:        int32(cfg.DB.MaxConnections),
		MaxConnLifetime: cfg.DB.MaxConnLifetime,
	})
	if err != nil {
		lg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	stateRepo := repository.NewClientStateRepository(pool)
	apiClient := api.NewClient(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout)

	defaults := session.Settings{
		ExamCountry:  cfg.Defaults.ExamCountry,
		ExamLanguage: cfg.Defaults.ExamLanguage,
		UILanguage:   cfg.Defaults.UILanguage,
	}
	factory := func(telegramID int64) (*session.Store, *stats.Store) {
		clientLogger := lg.With(zap.Int64("telegram_id", telegramID))
		return session.New(apiClient,
				session.WithLogger(clientLogger),
				session.WithSettings(defaults),
			),
			stats.New(apiClient,
				stats.WithLogger(clientLogger),
				stats.WithMaxAge(cfg.Cache.StatsMaxAge),
			)
	}

	clients := storage.NewClients(stateRepo, factory, lg)
	quizStorage := storage.NewQuizStorage()
	prompts := storage.NewMessageStorage()

	userService := service.NewUserService(lg)
	studyService := service.NewStudyService(apiClient, quizStorage, cfg.Quiz.BatchSize, cfg.Quiz.Mode, lg)
	progressService := service.NewProgressService(apiClient, lg)
	settingsService := service.NewSettingsService()
	syncService := service.NewSyncService(clients, cfg.Sync.Schedule, lg)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		lg.Fatal("failed to create telegram bot", zap.Error(err))
	}
	bot.Debug = cfg.Env == "local"
	lg.Info("authorized on telegram", zap.String("username", bot.Self.UserName))

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Запустить бота"},
		{Command: "quiz", Description: "Начать повторение"},
		{Command: "topics", Description: "Повторение по теме"},
		{Command: "stats", Description: "Статистика и дневная цель"},
		{Command: "settings", Description: "Настройки"},
		{Command: "examdate", Description: "Дата экзамена (ГГГГ-ММ-ДД)"},
		{Command: "dailygoal", Description: "Своя дневная цель"},
		{Command: "help", Description: "Помощь"},
	}
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	handler := telegram.NewHandler(
		bot,
		lg,
		clients,
		userService,
		studyService,
		progressService,
		settingsService,
		prompts,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncService.Start(gctx)
	})
	g.Go(func() error {
		return handler.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		lg.Error("bot stopped with error", zap.Error(err))
	}

	lg.Info("shutdown complete")
}
