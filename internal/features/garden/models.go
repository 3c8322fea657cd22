// Package garden: models.go описывает состояние сада пользователя.
//
// AccountState хранится как обычное значение: грядки лежат в массиве фиксированной длины,
// поэтому копия состояния всегда глубокая. Все операции движка принимают
// состояние по значению и возвращают новое, вызывающий код просто заменяет
// старое значение новым.
package garden

import (
	"fmt"
	"strings"

	"serotonyl.ru/garden-bot/internal/common"
)

// Character: персонаж-садовник, выбранный при онбординге.
type Character string

// Доступные персонажи.
const (
	CharacterNone Character = ""
	CharacterBoy  Character = "boy"
	CharacterGirl Character = "girl"
)

// ParseCharacter разбирает персонажа из текста команды.
func ParseCharacter(text string) (Character, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "boy", "мальчик", "м":
		return CharacterBoy, nil
	case "girl", "девочка", "д":
		return CharacterGirl, nil
	}
	return CharacterNone, fmt.Errorf("%w: %q", common.ErrUnknownCharacter, text)
}

// Title возвращает подпись персонажа для сообщений.
func (c Character) Title() string {
	switch c {
	case CharacterBoy:
		return "👦 Мальчик-садовник"
	case CharacterGirl:
		return "👧 Девочка-садовница"
	}
	return "—"
}

// SlotProgress: прогресс одной грядки.
type SlotProgress struct {
	Count              int    // Отметки, ещё не собранные в урожай
	LastCompletionDate string // Дата последней отметки (2006-01-02), "" если не было
	HarvestCount       int    // Сколько раз с грядки собирали урожай
}

// AccountState: полное состояние сада пользователя.
type AccountState struct {
	Slots              [SlotCount]SlotProgress
	TotalBadges        int
	OnboardingComplete bool
	Character          Character
}

// NewAccountState создаёт нулевое состояние сада после онбординга.
func NewAccountState(character Character) AccountState {
	return AccountState{
		OnboardingComplete: true,
		Character:          character,
	}
}

// Slot возвращает прогресс грядки. Для неизвестного вакита: нулевое значение.
func (a AccountState) Slot(slot Slot) SlotProgress {
	if !slot.Valid() {
		return SlotProgress{}
	}
	return a.Slots[slot]
}

// HarvestTotal: сумма harvestCount по всем грядкам.
func (a AccountState) HarvestTotal() int {
	total := 0
	for _, p := range a.Slots {
		total += p.HarvestCount
	}
	return total
}

// Validate проверяет инварианты состояния:
//   - count и harvestCount не отрицательны
//   - totalBadges равен сумме harvestCount по грядкам
func (a AccountState) Validate() error {
	for _, slot := range AllSlots {
		p := a.Slots[slot]
		if p.Count < 0 {
			return fmt.Errorf("%w: %s count=%d", common.ErrCorruptState, slot, p.Count)
		}
		if p.HarvestCount < 0 {
			return fmt.Errorf("%w: %s harvest_count=%d", common.ErrCorruptState, slot, p.HarvestCount)
		}
	}
	if sum := a.HarvestTotal(); a.TotalBadges != sum {
		return fmt.Errorf("%w: total_badges=%d, сумма по грядкам=%d", common.ErrCorruptState, a.TotalBadges, sum)
	}
	return nil
}
