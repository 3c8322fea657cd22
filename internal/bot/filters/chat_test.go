package filters

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

func message(chatType string, from *tgbotapi.User) *tgbotapi.Message {
	return &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 1, Type: chatType},
		From: from,
	}
}

func TestChatFilter(t *testing.T) {
	user := &tgbotapi.User{ID: 7}
	bot := &tgbotapi.User{ID: 8, IsBot: true}

	tests := []struct {
		name        string
		allowGroups bool
		msg         *tgbotapi.Message
		want        bool
	}{
		{"nil", false, nil, false},
		{"private", false, message("private", user), true},
		{"private without sender", false, message("private", nil), false},
		{"bot sender", true, message("private", bot), false},
		{"group denied", false, message("group", user), false},
		{"group allowed", true, message("group", user), true},
		{"supergroup allowed", true, message("supergroup", user), true},
		{"channel", true, message("channel", user), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewChatFilter(tt.allowGroups).CheckAccess(tt.msg))
		})
	}
}
