// Package middleware содержит промежуточные обработчики для логирования,
// восстановления после паники и rate-limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// maxLoggedRunes: сколько символов текста попадает в лог.
const maxLoggedRunes = 50

// MessageFields собирает поля лога для входящего сообщения.
func MessageFields(message *tgbotapi.Message) log.Fields {
	fields := log.Fields{
		"chat_id": message.Chat.ID,
		"text":    truncate(message.Text, maxLoggedRunes),
	}
	if message.From != nil {
		fields["user_id"] = message.From.ID
		fields["username"] = message.From.UserName
	}
	return fields
}

// LogMessage логирует входящее сообщение на уровне debug.
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}
	log.WithFields(MessageFields(message)).Debug("Входящее сообщение")
}

// truncate обрезает строку по рунам, чтобы не рвать кириллицу посередине.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
