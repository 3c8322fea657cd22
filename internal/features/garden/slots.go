// Package garden: сад из пяти грядок, по одной на каждый ежедневный намаз.
// slots.go описывает фиксированный набор вакитов (грядок).
package garden

import (
	"fmt"
	"strings"

	"serotonyl.ru/garden-bot/internal/common"
)

// Slot: один из пяти фиксированных вакитов. Набор никогда не меняется.
type Slot int

// Вакиты в порядке следования в течение дня.
const (
	SlotFajr Slot = iota
	SlotDhuhr
	SlotAsr
	SlotMaghrib
	SlotIsha

	// SlotCount: количество грядок в саду.
	SlotCount = 5
)

// AllSlots перечисляет вакиты в порядке отображения.
var AllSlots = [SlotCount]Slot{SlotFajr, SlotDhuhr, SlotAsr, SlotMaghrib, SlotIsha}

var slotIDs = [SlotCount]string{"fajr", "dhuhr", "asr", "maghrib", "isha"}

var slotTitles = [SlotCount]string{"Фаджр", "Зухр", "Аср", "Магриб", "Иша"}

var slotEmoji = [SlotCount]string{"🌅", "☀️", "🌤", "🌇", "🌙"}

// slotAliases: все варианты написания вакита в командах.
var slotAliases = map[string]Slot{
	"fajr": SlotFajr, "фаджр": SlotFajr, "фаджер": SlotFajr, "утро": SlotFajr,
	"dhuhr": SlotDhuhr, "зухр": SlotDhuhr, "полдень": SlotDhuhr,
	"asr": SlotAsr, "аср": SlotAsr,
	"maghrib": SlotMaghrib, "магриб": SlotMaghrib, "вечер": SlotMaghrib,
	"isha": SlotIsha, "иша": SlotIsha, "ночь": SlotIsha,
}

// Valid сообщает, входит ли значение в фиксированный набор вакитов.
func (s Slot) Valid() bool {
	return s >= 0 && s < SlotCount
}

// String возвращает идентификатор вакита, который хранится в БД ("fajr", ...).
func (s Slot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("slot(%d)", int(s))
	}
	return slotIDs[s]
}

// Title возвращает название вакита для сообщений.
func (s Slot) Title() string {
	if !s.Valid() {
		return s.String()
	}
	return slotTitles[s]
}

// Emoji возвращает значок вакита.
func (s Slot) Emoji() string {
	if !s.Valid() {
		return "❔"
	}
	return slotEmoji[s]
}

// ParseSlot разбирает вакит из текста команды: идентификатор, русское название
// или номер грядки (1-5).
func ParseSlot(text string) (Slot, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if slot, ok := slotAliases[key]; ok {
		return slot, nil
	}
	if len(key) == 1 && key[0] >= '1' && key[0] <= '5' {
		return Slot(key[0] - '1'), nil
	}
	return 0, fmt.Errorf("%w: %q", common.ErrInvalidSlot, text)
}
