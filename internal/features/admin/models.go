// Package admin реализует админ-панель с парольной аутентификацией.
// models.go описывает сессии, попытки входа и состояния диалога.
package admin

import "time"

// AdminSession: активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// DialogState: состояние пошагового диалога с админом.
// Панель работает по шагам: кнопка → ввод пользователя → подтверждение.
type DialogState struct {
	State     string    // Текущее состояние (StateAwaitingPassword, ...)
	Data      any       // Данные шага (выбранный пользователь)
	ExpiresAt time.Time // Когда состояние истекает
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                  // Нет активного состояния
	StateAwaitingPassword = "awaiting_password" // Ждём пароль
	StateViewUser         = "view_user"         // Ждём пользователя для просмотра сада
	StateResetUser        = "reset_user"        // Ждём пользователя для сброса сада
	StateResetConfirm     = "reset_confirm"     // Ждём подтверждения сброса
)

// Параметры безопасности
const (
	MaxFailedAttempts = 3              // Неудачных попыток до блокировки
	AttemptsWindow    = time.Hour      // Окно подсчёта попыток
	SessionTTL        = 24 * time.Hour // Время жизни сессии
	DialogTTL         = 5 * time.Minute
)

// Кнопки панели
const (
	ButtonViewGarden  = "🌻 Сад пользователя"
	ButtonResetGarden = "🧹 Сбросить сад"
	ButtonStats       = "📊 Статистика"
	ButtonLogout      = "🚪 Выйти"
)
