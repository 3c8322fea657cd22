// Package admin: handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает через Reply Keyboard в личных сообщениях.
// Поток: /login → пароль → клавиатура → выбор действия → пошаговый диалог.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/common"
	"serotonyl.ru/garden-bot/internal/features/garden"
	"serotonyl.ru/garden-bot/internal/features/members"
)

// Sender: то, что умеет отправлять сообщения (*tgbotapi.BotAPI).
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Gardens: операции над садами, доступные админу.
type Gardens interface {
	Get(ctx context.Context, userID int64) (garden.AccountState, error)
	Restart(ctx context.Context, userID int64) error
	Stats(ctx context.Context) (garden.Stats, error)
	Engine() *garden.Engine
}

// Directory: поиск пользователей по ID или @username.
type Directory interface {
	Resolve(ctx context.Context, ref string) (*members.Member, error)
	Count(ctx context.Context) (int64, error)
}

// Handler обрабатывает админ-команды.
type Handler struct {
	service *Service
	gardens Gardens
	members Directory
	bot     Sender
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, gardens Gardens, members Directory, bot Sender) *Handler {
	return &Handler{
		service: service,
		gardens: gardens,
		members: members,
		bot:     bot,
	}
}

// isPanelTrigger: текст, открывающий панель.
func isPanelTrigger(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "/login", "!login", "админ", "панель", "/admin":
		return true
	}
	return false
}

// isCommand: текст с префиксом команды бота (!, . или /).
func isCommand(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "!") || strings.HasPrefix(text, ".") || strings.HasPrefix(text, "/")
}

// HandleAdminMessage обрабатывает сообщение администратора в личке.
// Возвращает false, если сообщение не относится к панели: тогда его
// обрабатывают обычные команды сада.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID, userID int64, text string) bool {
	if !h.service.IsAdmin(userID) {
		return false
	}

	state := h.service.GetState(userID)

	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	if !h.service.HasActiveSession(ctx, userID) {
		if !isPanelTrigger(text) {
			return false
		}
		h.sendMessage(chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, StateAwaitingPassword, nil)
		return true
	}

	// Кнопки работают из любого состояния
	switch text {
	case ButtonViewGarden:
		h.sendMessage(chatID, "Отправьте ID или @username пользователя:")
		h.service.SetState(userID, StateViewUser, nil)
		return true
	case ButtonResetGarden:
		h.sendMessage(chatID, "Чей сад сбросить? Отправьте ID или @username:")
		h.service.SetState(userID, StateResetUser, nil)
		return true
	case ButtonStats:
		h.service.ClearState(userID)
		h.handleStats(ctx, chatID)
		return true
	case ButtonLogout:
		h.handleLogout(ctx, chatID, userID)
		return true
	}

	if isPanelTrigger(text) {
		h.service.ClearState(userID)
		h.showKeyboard(chatID, "✅ Админ-панель открыта")
		return true
	}

	// Команда посреди диалога прерывает его и уходит обычным обработчикам
	if state != nil && isCommand(text) {
		h.service.ClearState(userID)
		if state.State == StateResetConfirm {
			h.sendMessage(chatID, "Сброс отменён")
		}
		return false
	}

	if state != nil {
		switch state.State {
		case StateViewUser:
			h.handleViewUser(ctx, chatID, userID, text)
			return true
		case StateResetUser:
			h.handleResetUser(ctx, chatID, userID, text)
			return true
		case StateResetConfirm:
			h.handleResetConfirm(ctx, chatID, userID, text, state.Data)
			return true
		}
	}
	return false
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID, userID int64, password string) {
	h.service.ClearState(userID)

	err := h.service.Login(ctx, userID, strings.TrimSpace(password))
	if err != nil {
		switch {
		case errors.Is(err, common.ErrWrongPassword), errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(chatID, "❌ "+err.Error())
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка входа в админ-панель")
			h.sendMessage(chatID, "❌ Не удалось войти, попробуйте позже")
		}
		return
	}

	h.showKeyboard(chatID, "✅ Аутентификация успешна!")
}

// --- Просмотр сада ---

func (h *Handler) handleViewUser(ctx context.Context, chatID, userID int64, text string) {
	member, ok := h.resolve(ctx, chatID, text)
	if !ok {
		return
	}
	h.service.ClearState(userID)

	state, err := h.gardens.Get(ctx, member.UserID)
	if err != nil {
		log.WithError(err).WithField("target", member.UserID).Error("Ошибка загрузки сада")
		h.sendMessage(chatID, "❌ Не удалось загрузить сад")
		return
	}

	h.sendMessage(chatID, fmt.Sprintf("👤 %s (id %d)\n\n%s",
		member.DisplayName(), member.UserID, FormatUserGarden(h.gardens.Engine(), state)))
}

// FormatUserGarden показывает сад глазами админа, для пустого сада без приветствия.
func FormatUserGarden(e *garden.Engine, state garden.AccountState) string {
	if !state.OnboardingComplete {
		return "Сад не создан"
	}
	return garden.FormatGarden(e, state)
}

// --- Сброс сада (2 шага) ---

func (h *Handler) handleResetUser(ctx context.Context, chatID, userID int64, text string) {
	member, ok := h.resolve(ctx, chatID, text)
	if !ok {
		return
	}
	h.sendMessage(chatID, fmt.Sprintf("⚠️ Сбросить сад %s (id %d)? Весь прогресс и значки пропадут.\nОтправьте «да» для подтверждения.",
		member.DisplayName(), member.UserID))
	h.service.SetState(userID, StateResetConfirm, member)
}

func (h *Handler) handleResetConfirm(ctx context.Context, chatID, userID int64, text string, data any) {
	h.service.ClearState(userID)

	member, ok := data.(*members.Member)
	if !ok || !strings.EqualFold(strings.TrimSpace(text), "да") {
		h.sendMessage(chatID, "Сброс отменён")
		return
	}

	if err := h.gardens.Restart(ctx, member.UserID); err != nil {
		log.WithError(err).WithField("target", member.UserID).Error("Ошибка сброса сада")
		h.sendMessage(chatID, "❌ Не удалось сбросить сад")
		return
	}

	log.WithFields(log.Fields{
		"admin_id": userID,
		"target":   member.UserID,
	}).Warn("Администратор сбросил сад пользователя")
	h.sendMessage(chatID, fmt.Sprintf("✅ Сад %s сброшен", member.DisplayName()))
}

// --- Статистика ---

func (h *Handler) handleStats(ctx context.Context, chatID int64) {
	stats, err := h.gardens.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения статистики садов")
		h.sendMessage(chatID, "❌ Не удалось получить статистику")
		return
	}
	users, err := h.members.Count(ctx)
	if err != nil {
		log.WithError(err).Warn("Ошибка подсчёта пользователей")
	}

	h.sendMessage(chatID, FormatStats(stats, users))
}

// FormatStats: карточка общей статистики.
func FormatStats(stats garden.Stats, users int64) string {
	return fmt.Sprintf(
		"📊 Статистика\n\n"+
			"👥 Пользователей: %s\n"+
			"🌻 Садов: %s (создано: %s)\n"+
			"🏅 Значков всего: %s\n"+
			"⭐ Максимальный уровень: %d",
		common.FormatNumber(users),
		common.FormatNumber(stats.Accounts), common.FormatNumber(stats.Onboarded),
		common.FormatNumber(stats.TotalBadges),
		stats.MaxLevel,
	)
}

// --- Выход ---

func (h *Handler) handleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выхода из админ-панели")
	}
	msg := tgbotapi.NewMessage(chatID, "👋 Сессия закрыта")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}

// resolve находит пользователя по тексту админа.
func (h *Handler) resolve(ctx context.Context, chatID int64, text string) (*members.Member, bool) {
	member, err := h.members.Resolve(ctx, text)
	if err != nil {
		if errors.Is(err, members.ErrNotFound) {
			h.sendMessage(chatID, "❌ Пользователь не найден. Попробуйте ещё раз.")
		} else {
			h.sendMessage(chatID, "❌ Не понял. Отправьте числовой ID или @username.")
		}
		return nil, false
	}
	return member, true
}

// showKeyboard отображает клавиатуру админ-панели.
func (h *Handler) showKeyboard(chatID int64, text string) {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonViewGarden),
			tgbotapi.NewKeyboardButton(ButtonResetGarden),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonStats),
			tgbotapi.NewKeyboardButton(ButtonLogout),
		),
	)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
