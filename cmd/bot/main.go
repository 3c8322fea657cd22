// Package main: точка входа бота «Сад намазов».
// Загружает конфигурацию, инициализирует приложение и запускает.
// Поддерживает graceful shutdown по SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/app"
	"serotonyl.ru/garden-bot/internal/config"
)

// shutdownTimeout: сколько ждём остановки HTTP-сервера метрик.
const shutdownTimeout = 5 * time.Second

func main() {
	setupLogging()

	// .env нужен только для локального запуска, в docker переменные уже заданы
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("Не удалось прочитать .env")
	}

	log.Info("=== Бот запускается ===")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	if !cfg.IsDevelopment() {
		log.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Не удалось инициализировать приложение")
	}
	defer application.DB.Close()
	defer application.Bot.Close()

	if application.Scheduler != nil {
		if err := application.Scheduler.Start(ctx); err != nil {
			log.WithError(err).Fatal("Не удалось запустить планировщик")
		}
		defer application.Scheduler.Stop()
	}

	if application.Metrics != nil {
		application.Metrics.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := application.Metrics.Stop(shutdownCtx); err != nil {
				log.WithError(err).Warn("Сервер метрик остановлен с ошибкой")
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		application.Bot.Start(ctx)
	}()

	log.Info("=== Бот готов к работе ===")

	<-ctx.Done()
	log.Info("Получен сигнал остановки, останавливаемся...")
	wg.Wait()

	log.Info("=== Бот остановлен ===")
}

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}
