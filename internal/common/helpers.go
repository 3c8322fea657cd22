// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, календарные часы.
package common

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// DateLayout: формат календарной даты, в котором хранится lastCompletionDate.
const DateLayout = "2006-01-02"

// Clock отдаёт текущее время и календарный день в часовом поясе приложения.
// Сад считает «сегодня» именно по этим часам.
type Clock interface {
	Now() time.Time
	Today() string
}

// ZoneClock: часы в заданном часовом поясе.
type ZoneClock struct {
	loc *time.Location
}

// NewClock создаёт часы для часового пояса tz (например, "Europe/Moscow").
// Если зону загрузить не удалось: используем UTC+3 вручную, как раньше для Москвы.
func NewClock(tz string) *ZoneClock {
	return &ZoneClock{loc: LoadLocation(tz)}
}

// LoadLocation загружает часовой пояс с запасным вариантом UTC+3.
func LoadLocation(tz string) *time.Location {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.WithError(err).WithField("tz", tz).Warn("Не удалось загрузить часовой пояс, используем UTC+3")
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// Now возвращает текущее время в часовом поясе часов.
func (c *ZoneClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Today возвращает текущую дату в формате 2006-01-02.
func (c *ZoneClock) Today() string {
	return c.Now().Format(DateLayout)
}

// Location возвращает часовой пояс часов (нужен планировщику).
func (c *ZoneClock) Location() *time.Location {
	return c.loc
}

// Pluralize выбирает форму слова для числа n по правилам русского языка.
//
// Правила:
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, 23, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
func Pluralize(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeFlowers возвращает правильную форму слова «цветок».
//
// Примеры:
//
//	PluralizeFlowers(1)  → "цветок"
//	PluralizeFlowers(3)  → "цветка"
//	PluralizeFlowers(5)  → "цветков"
//	PluralizeFlowers(11) → "цветков"
func PluralizeFlowers(n int) string {
	return Pluralize(n, "цветок", "цветка", "цветков")
}

// PluralizeBadges возвращает правильную форму слова «значок».
func PluralizeBadges(n int) string {
	return Pluralize(n, "значок", "значка", "значков")
}

// PluralizePrayers возвращает правильную форму слова «намаз».
func PluralizePrayers(n int) string {
	return Pluralize(n, "намаз", "намаза", "намазов")
}

// PluralizeDays возвращает правильную форму слова «день».
func PluralizeDays(n int) string {
	return Pluralize(n, "день", "дня", "дней")
}

// FormatFlowers форматирует количество цветов: FormatFlowers(3) → "3 цветка".
func FormatFlowers(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeFlowers(n))
}

// FormatBadges форматирует количество значков: FormatBadges(5) → "5 значков".
func FormatBadges(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeBadges(n))
}
