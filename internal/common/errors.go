// Package common: errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Обработчики различают их через errors.Is и отправляют пользователю
// понятные сообщения.
package common

import "errors"

// Ошибки сада (движок прогрессии)
var (
	// ErrHarvestNotReady: урожай ещё не созрел (не хватает цветов до порога уровня)
	ErrHarvestNotReady = errors.New("урожай ещё не готов")
	// ErrInvalidSlot: неизвестный вакит (ошибка программиста или ввода)
	ErrInvalidSlot = errors.New("неизвестный вакит")
	// ErrAlreadyCompletedToday: вакит уже отмечен сегодня
	ErrAlreadyCompletedToday = errors.New("этот вакит сегодня уже отмечен")
	// ErrCorruptState: сохранённое состояние нарушает инварианты
	ErrCorruptState = errors.New("состояние сада повреждено")
)

// Ошибки онбординга
var (
	// ErrNotOnboarded: пользователь ещё не выбрал персонажа
	ErrNotOnboarded = errors.New("сад ещё не создан")
	// ErrAlreadyOnboarded: сад уже создан
	ErrAlreadyOnboarded = errors.New("сад уже создан")
	// ErrUnknownCharacter: неизвестный персонаж
	ErrUnknownCharacter = errors.New("неизвестный персонаж")
)

// ErrPersistence: не удалось загрузить или сохранить состояние в БД.
// Генерируется слоем хранения, движок его никогда не возвращает.
var ErrPersistence = errors.New("ошибка хранилища")

// ErrCommitUncertain: COMMIT не подтвердился, и неизвестно, применился ли он
// на сервере. Приходит вместе с ErrPersistence, повторять такую запись нельзя.
var ErrCommitUncertain = errors.New("результат фиксации неизвестен")

// Ошибки админки
var (
	// ErrNotAdmin: пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword: неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts: слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired: сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
