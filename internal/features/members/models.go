// Package members ведёт справочник пользователей бота.
// Каждый, кто написал боту, попадает в таблицу members: по ней админка
// находит сад по @username, а статистика считает аудиторию.
package members

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Member: пользователь бота.
type Member struct {
	UserID     int64     `db:"user_id"`      // Telegram user ID
	Username   string    `db:"username"`     // @username (может быть пустым)
	FirstName  string    `db:"first_name"`   // Имя
	LastName   string    `db:"last_name"`    // Фамилия (может быть пустой)
	CreatedAt  time.Time `db:"created_at"`   // Первое сообщение боту
	LastSeenAt time.Time `db:"last_seen_at"` // Последнее сообщение боту
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username: возвращает его, иначе, имя + фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name == "" {
		return fmt.Sprintf("id%d", m.UserID)
	}
	return name
}

// UserRef ссылается на пользователя из текста админа: либо ID, либо @username.
type UserRef struct {
	UserID   int64
	Username string
}

// ParseUserRef разбирает "123456", "@name" или "name".
func ParseUserRef(text string) (UserRef, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return UserRef{}, fmt.Errorf("пустая ссылка на пользователя")
	}
	if id, err := strconv.ParseInt(text, 10, 64); err == nil {
		if id <= 0 {
			return UserRef{}, fmt.Errorf("некорректный id %d", id)
		}
		return UserRef{UserID: id}, nil
	}
	name := strings.TrimPrefix(text, "@")
	if name == "" || strings.ContainsAny(name, " \t\n@") {
		return UserRef{}, fmt.Errorf("некорректный username %q", text)
	}
	return UserRef{Username: name}, nil
}
