// Package app инициализирует все компоненты приложения.
// app.go собирает приложение: создаёт БД-пул, репозитории, движок сада, сервисы,
// обработчики и собирает всё в один объект App.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/bot"
	"serotonyl.ru/garden-bot/internal/common"
	"serotonyl.ru/garden-bot/internal/config"
	"serotonyl.ru/garden-bot/internal/db/postgres"
	"serotonyl.ru/garden-bot/internal/features/admin"
	"serotonyl.ru/garden-bot/internal/features/garden"
	"serotonyl.ru/garden-bot/internal/features/members"
	"serotonyl.ru/garden-bot/internal/jobs"
	"serotonyl.ru/garden-bot/internal/metrics"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler // nil, если напоминания выключены
	Metrics   *metrics.Server // nil, если METRICS_ADDR пуст
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI
}

// EngineOptions переводит конфиг в настройки движка сада.
func EngineOptions(cfg *config.Config) (garden.Options, error) {
	mode, err := garden.ParseHarvestMode(cfg.GardenHarvestMode)
	if err != nil {
		return garden.Options{}, err
	}
	return garden.Options{
		DailyGating: cfg.GardenDailyGating,
		HarvestMode: mode,
		StrictSlots: cfg.IsDevelopment(),
	}, nil
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен: компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := EngineOptions(cfg)
	if err != nil {
		return nil, err
	}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.BotAPIDebug
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Репозитории ===
	memberRepo := members.NewRepository(pool)
	gardenRepo := garden.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 4. Сервисы ===
	clock := common.NewClock(cfg.AppTimezone)
	engine := garden.NewEngine(clock, opts)
	memberService := members.NewService(memberRepo)
	gardenService := garden.NewService(gardenRepo, engine, cfg)
	adminService := admin.NewService(adminRepo, cfg)

	log.WithFields(log.Fields{
		"daily_gating": opts.DailyGating,
		"harvest_mode": opts.HarvestMode.String(),
		"strict_slots": opts.StrictSlots,
		"timezone":     cfg.AppTimezone,
	}).Info("Движок сада настроен")

	// === 5. Обработчики ===
	gardenHandler := garden.NewHandler(gardenService, botAPI)
	adminHandler := admin.NewHandler(adminService, gardenService, memberService, botAPI)

	// === 6. Собираем бота ===
	b := bot.New(botAPI, cfg, gardenHandler, adminHandler, memberService)

	application := &App{
		Bot:    b,
		DB:     pool,
		BotAPI: botAPI,
	}

	// === 7. Планировщик задач ===
	if cfg.RemindersEnabled {
		application.Scheduler = jobs.NewScheduler(gardenService, clock.Location(), cfg.RemindersCron, b.SendMessageToUser)
	}

	// === 8. Метрики и healthcheck ===
	if cfg.MetricsAddr != "" {
		application.Metrics = metrics.NewServer(cfg.MetricsAddr, pool)
	}

	return application, nil
}
