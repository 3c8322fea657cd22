// Package garden: handlers.go обрабатывает команды сада.
// Обработчик только разбирает аргументы, вызывает Service и отправляет текст из render.go.
package garden

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/common"
)

// Sender: то, что умеет отправлять сообщения (*tgbotapi.BotAPI).
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Handler обрабатывает команды сада.
type Handler struct {
	service *Service
	bot     Sender
}

// NewHandler создаёт новый обработчик команд сада.
func NewHandler(service *Service, bot Sender) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleStart: !start, !help. Без сада показывает приветствие.
func (h *Handler) HandleStart(ctx context.Context, chatID, userID int64) {
	state, err := h.service.Get(ctx, userID)
	if err != nil {
		h.replyError(chatID, userID, err)
		return
	}
	if !state.OnboardingComplete {
		h.sendMessage(chatID, WelcomeText)
		return
	}
	h.sendMessage(chatID, HelpText)
}

// HandleCharacter: !персонаж <мальчик|девочка>.
func (h *Handler) HandleCharacter(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❓ Укажи персонажа: !персонаж мальчик или !персонаж девочка")
		return
	}
	character, err := ParseCharacter(args[0])
	if err != nil {
		h.replyError(chatID, userID, err)
		return
	}

	state, err := h.service.Onboard(ctx, userID, character)
	if err != nil {
		h.replyError(chatID, userID, err)
		return
	}
	h.sendMessage(chatID, "🎉 Сад создан! Твой садовник: "+state.Character.Title()+"\n\n"+HelpText)
}

// HandleGarden: !сад.
func (h *Handler) HandleGarden(ctx context.Context, chatID, userID int64) {
	state, err := h.service.Get(ctx, userID)
	if err != nil {
		h.replyError(chatID, userID, err)
		return
	}
	h.sendMessage(chatID, FormatGarden(h.service.Engine(), state))
}

// HandlePray: !намаз <вакит>.
func (h *Handler) HandlePray(ctx context.Context, chatID, userID int64, args []string) {
	slot, ok := h.parseSlotArg(chatID, userID, args, "!намаз")
	if !ok {
		return
	}

	outcome, err := h.service.Complete(ctx, userID, slot)
	if err != nil {
		h.replyError(chatID, userID, err)
		return
	}
	h.sendMessage(chatID, FormatCompletion(outcome))
}

// HandleHarvest: !урожай <вакит>.
func (h *Handler) HandleHarvest(ctx context.Context, chatID, userID int64, args []string) {
	slot, ok := h.parseSlotArg(chatID, userID, args, "!урожай")
	if !ok {
		return
	}

	res, err := h.service.Harvest(ctx, userID, slot)
	if err != nil {
		if errors.Is(err, common.ErrHarvestNotReady) {
			h.sendMessage(chatID, FormatNotReady(h.service.Engine(), res.State, slot))
			return
		}
		h.replyError(chatID, userID, err)
		return
	}
	h.sendMessage(chatID, FormatHarvest(slot, res))
}

// HandleLevel: !уровень.
func (h *Handler) HandleLevel(ctx context.Context, chatID, userID int64) {
	state, ok := h.onboardedState(ctx, chatID, userID)
	if !ok {
		return
	}
	h.sendMessage(chatID, FormatLevel(h.service.Engine(), state))
}

// HandleBadges: !значки.
func (h *Handler) HandleBadges(ctx context.Context, chatID, userID int64) {
	state, ok := h.onboardedState(ctx, chatID, userID)
	if !ok {
		return
	}
	h.sendMessage(chatID, FormatBadges(state))
}

// HandleProfile: !профиль.
func (h *Handler) HandleProfile(ctx context.Context, chatID, userID int64) {
	state, ok := h.onboardedState(ctx, chatID, userID)
	if !ok {
		return
	}
	h.sendMessage(chatID, FormatProfile(state))
}

// HandleRestart: !заново да. Без подтверждения только предупреждает.
func (h *Handler) HandleRestart(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 || !isConfirmation(args[0]) {
		h.sendMessage(chatID, "⚠️ Весь прогресс, цветы и значки пропадут.\nЧтобы начать заново, напиши: !заново да")
		return
	}

	if err := h.service.Restart(ctx, userID); err != nil {
		h.replyError(chatID, userID, err)
		return
	}
	h.sendMessage(chatID, "🧹 Сад очищен.\n\n"+WelcomeText)
}

// onboardedState загружает сад и проверяет, что он создан.
func (h *Handler) onboardedState(ctx context.Context, chatID, userID int64) (AccountState, bool) {
	state, err := h.service.Get(ctx, userID)
	if err != nil {
		h.replyError(chatID, userID, err)
		return state, false
	}
	if !state.OnboardingComplete {
		h.sendMessage(chatID, WelcomeText)
		return state, false
	}
	return state, true
}

// parseSlotArg разбирает вакит из аргументов команды.
func (h *Handler) parseSlotArg(chatID, userID int64, args []string, command string) (Slot, bool) {
	if len(args) == 0 {
		h.sendMessage(chatID, "❓ Укажи вакит: "+command+" фаджр (или зухр, аср, магриб, иша, 1-5)")
		return 0, false
	}
	slot, err := ParseSlot(strings.Join(args, " "))
	if err != nil {
		h.replyError(chatID, userID, err)
		return 0, false
	}
	return slot, true
}

// replyError переводит ошибку сервиса в понятный пользователю текст.
func (h *Handler) replyError(chatID, userID int64, err error) {
	h.sendMessage(chatID, ErrorText(err))
	if errors.Is(err, common.ErrPersistence) || errors.Is(err, common.ErrCorruptState) {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка сада")
	}
}

// ErrorText возвращает текст ответа на ошибку.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrNotOnboarded):
		return "🌱 Сначала создай сад: !персонаж мальчик или !персонаж девочка"
	case errors.Is(err, common.ErrAlreadyOnboarded):
		return "🌻 Сад уже создан. Посмотреть: !сад. Начать заново: !заново да"
	case errors.Is(err, common.ErrUnknownCharacter):
		return "❓ Такого персонажа нет. Выбери: мальчик или девочка"
	case errors.Is(err, common.ErrInvalidSlot):
		return "❓ Не знаю такого вакита. Доступны: фаджр, зухр, аср, магриб, иша (или 1-5)"
	case errors.Is(err, common.ErrAlreadyCompletedToday):
		return "✅ Этот намаз сегодня уже отмечен. Возвращайся завтра!"
	case errors.Is(err, common.ErrHarvestNotReady):
		return "⏳ Урожай ещё не готов"
	case errors.Is(err, common.ErrCorruptState):
		return "❌ Данные сада повреждены, напиши администратору"
	case errors.Is(err, common.ErrCommitUncertain):
		return "⚠️ Не удалось подтвердить сохранение. Проверь !сад, прежде чем отмечать снова"
	}
	return "❌ Не удалось сохранить сад, попробуй ещё раз чуть позже"
}

func isConfirmation(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "да", "yes", "y", "д":
		return true
	}
	return false
}

// sendMessage: вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
