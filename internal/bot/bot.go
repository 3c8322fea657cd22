// Package bot содержит главный модуль бота: polling, фильтры и маршрутизацию команд.
package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/bot/filters"
	"serotonyl.ru/garden-bot/internal/bot/middleware"
	"serotonyl.ru/garden-bot/internal/config"
	"serotonyl.ru/garden-bot/internal/metrics"
)

// GardenCommands: обработчики команд сада (*garden.Handler).
type GardenCommands interface {
	HandleStart(ctx context.Context, chatID, userID int64)
	HandleCharacter(ctx context.Context, chatID, userID int64, args []string)
	HandleGarden(ctx context.Context, chatID, userID int64)
	HandlePray(ctx context.Context, chatID, userID int64, args []string)
	HandleHarvest(ctx context.Context, chatID, userID int64, args []string)
	HandleLevel(ctx context.Context, chatID, userID int64)
	HandleBadges(ctx context.Context, chatID, userID int64)
	HandleProfile(ctx context.Context, chatID, userID int64)
	HandleRestart(ctx context.Context, chatID, userID int64, args []string)
}

// AdminPanel: админ-панель (*admin.Handler).
type AdminPanel interface {
	HandleAdminMessage(ctx context.Context, chatID, userID int64, text string) bool
}

// MemberTracker: справочник пользователей (*members.Service).
type MemberTracker interface {
	Touch(ctx context.Context, userID int64, username, firstName, lastName string)
}

// Маршруты для метрик
const (
	routeIgnored     = "ignored"
	routeFiltered    = "filtered"
	routeRateLimited = "rate_limited"
	routeAdmin       = "admin"
	routeUnknown     = "unknown"
	routePanic       = "panic"
)

// Bot: главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	garden  GardenCommands
	admin   AdminPanel
	members MemberTracker

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	garden GardenCommands,
	admin AdminPanel,
	members MemberTracker,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		chatFilter:  filters.NewChatFilter(cfg.BotAllowGroups),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		garden:      garden,
		admin:       admin,
		members:     members,
		parser:      NewCommandParser(),
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram. Возвращается после
// отмены ctx, дождавшись обработки уже принятых апдейтов.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.drain()
	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			if !b.acquire(ctx) {
				log.Info("Бот останавливается (ctx done)...")
				b.api.StopReceivingUpdates()
				return
			}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// acquire занимает слот inflight. false: ctx отменён раньше, чем слот освободился.
func (b *Bot) acquire(ctx context.Context) bool {
	select {
	case b.inflight <- struct{}{}:
		return true
	case <-ctx.Done():
		return false
	}
}

// drain ждёт, пока освободятся все слоты inflight.
func (b *Bot) drain() {
	for i := 0; i < cap(b.inflight); i++ {
		b.inflight <- struct{}{}
	}
	for i := 0; i < cap(b.inflight); i++ {
		<-b.inflight
	}
}

// Close освобождает фоновые ресурсы бота.
func (b *Bot) Close() {
	b.rateLimiter.Close()
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	route := routePanic
	middleware.Safe(update.UpdateID, func() {
		route = b.handleMessage(ctx, update.Message)
	})
	metrics.UpdatesTotal.WithLabelValues(route).Inc()
	metrics.UpdateDuration.Observe(time.Since(start).Seconds())
}

// handleMessage проводит сообщение через фильтры и возвращает маршрут.
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) string {
	if message == nil || message.Text == "" {
		return routeIgnored
	}

	if !b.chatFilter.CheckAccess(message) {
		return routeFiltered
	}
	if !b.rateLimiter.Allow(message.From.ID) {
		return routeRateLimited
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	b.members.Touch(ctx, userID, message.From.UserName, message.From.FirstName, message.From.LastName)

	// В личке сначала даём шанс админ-панели. Текст логируется только после неё:
	// в панель приходит пароль.
	if message.Chat.IsPrivate() && b.admin.HandleAdminMessage(ctx, chatID, userID, message.Text) {
		return routeAdmin
	}
	middleware.LogMessage(message)

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return routeIgnored
	}

	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")
	return b.routeCommand(ctx, chatID, userID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) string {
	switch cmd {
	case "start", "help", "помощь", "старт":
		b.garden.HandleStart(ctx, chatID, userID)
		return "start"

	case "персонаж", "character":
		b.garden.HandleCharacter(ctx, chatID, userID, args)
		return "character"

	case "сад", "garden":
		b.garden.HandleGarden(ctx, chatID, userID)
		return "garden"

	case "намаз", "pray":
		b.garden.HandlePray(ctx, chatID, userID, args)
		return "pray"

	case "урожай", "harvest":
		b.garden.HandleHarvest(ctx, chatID, userID, args)
		return "harvest"

	case "уровень", "level":
		b.garden.HandleLevel(ctx, chatID, userID)
		return "level"

	case "значки", "badges":
		b.garden.HandleBadges(ctx, chatID, userID)
		return "badges"

	case "профиль", "profile":
		b.garden.HandleProfile(ctx, chatID, userID)
		return "profile"

	case "заново", "restart":
		b.garden.HandleRestart(ctx, chatID, userID, args)
		return "restart"
	}
	return routeUnknown
}

// SendMessageToUser отправляет сообщение пользователю (для напоминаний).
func (b *Bot) SendMessageToUser(userID int64, text string) {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
	}
}

// CommandParser парсит команды с префиксами !, . и /.
type CommandParser struct {
	validPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"!", ".", "/"},
	}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс "@botname" у slash-команд в группах отбрасывается.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix {
		return "", nil, false
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}

	return command, args, true
}
