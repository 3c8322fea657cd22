// Package filters решает, какие сообщения бот вообще обрабатывает.
package filters

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// ChatFilter пропускает личные сообщения, а группы: только если это
// разрешено BOT_ALLOW_GROUPS. Каналы и служебные сообщения игнорируются.
type ChatFilter struct {
	allowGroups bool
}

// NewChatFilter создаёт фильтр чатов.
func NewChatFilter(allowGroups bool) *ChatFilter {
	return &ChatFilter{allowGroups: allowGroups}
}

// CheckAccess сообщает, нужно ли обрабатывать сообщение.
func (f *ChatFilter) CheckAccess(message *tgbotapi.Message) bool {
	if message == nil || message.Chat == nil {
		log.WithField("component", "ChatFilter").Warn("nil message/chat")
		return false
	}
	if message.From == nil || message.From.IsBot {
		return false
	}

	logger := log.WithFields(log.Fields{
		"component": "ChatFilter",
		"chat_id":   message.Chat.ID,
		"chat_type": message.Chat.Type,
		"user_id":   message.From.ID,
	})

	switch {
	case message.Chat.IsPrivate():
		return true
	case message.Chat.IsGroup(), message.Chat.IsSuperGroup():
		if !f.allowGroups {
			logger.Debug("deny: groups disabled")
		}
		return f.allowGroups
	default:
		logger.Debug("deny: unsupported chat type")
		return false
	}
}
