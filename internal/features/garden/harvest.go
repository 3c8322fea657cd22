// Package garden: harvest.go считает стадии роста и выполняет сбор урожая.
//
// Три отметки = один цветок. Цветы копятся на грядке, пока их не соберут:
// урожай забирает столько цветов, сколько требует порог текущего уровня,
// выдаёт значок и поднимает уровень.
package garden

import (
	"fmt"

	"serotonyl.ru/garden-bot/internal/common"
)

// Stage: стадия роста внутри текущей тройки отметок.
type Stage int

// Стадии: пусто → посажено → бутон → (цветок) пусто.
const (
	StageEmpty Stage = iota
	StagePlanted
	StageBudding
)

// String возвращает идентификатор стадии.
func (s Stage) String() string {
	switch s {
	case StagePlanted:
		return "planted"
	case StageBudding:
		return "budding"
	}
	return "empty"
}

// Emoji возвращает значок стадии.
func (s Stage) Emoji() string {
	switch s {
	case StagePlanted:
		return "🌱"
	case StageBudding:
		return "🌿"
	}
	return "🟫"
}

// Title возвращает название стадии.
func (s Stage) Title() string {
	switch s {
	case StagePlanted:
		return "посажено"
	case StageBudding:
		return "бутон"
	}
	return "пусто"
}

// StageOf возвращает стадию по счётчику: count mod 3.
func StageOf(count int) Stage {
	if count <= 0 {
		return StageEmpty
	}
	return Stage(count % 3)
}

// RewardUnits возвращает число накопленных цветов: floor(count / 3).
func RewardUnits(count int) int {
	if count <= 0 {
		return 0
	}
	return count / 3
}

// Stage возвращает стадию грядки slot.
func (e *Engine) Stage(state AccountState, slot Slot) Stage {
	if e.checkSlot(slot) != nil {
		return StageEmpty
	}
	return StageOf(state.Slots[slot].Count)
}

// AccumulatedRewardUnits возвращает число цветов на грядке slot.
func (e *Engine) AccumulatedRewardUnits(state AccountState, slot Slot) int {
	if e.checkSlot(slot) != nil {
		return 0
	}
	return RewardUnits(state.Slots[slot].Count)
}

// CanHarvest сообщает, можно ли собрать урожай с грядки slot на текущем уровне.
func (e *Engine) CanHarvest(state AccountState, slot Slot) bool {
	if e.checkSlot(slot) != nil {
		return false
	}
	return e.eligible(RewardUnits(state.Slots[slot].Count), e.Level(state))
}

// eligible применяет правило доступности урожая.
func (e *Engine) eligible(units, level int) bool {
	threshold := HarvestThreshold(level)
	if e.opts.HarvestMode == HarvestExactMatch {
		return units == threshold
	}
	return units >= threshold
}

// HarvestResult: итог сбора урожая.
type HarvestResult struct {
	State          AccountState // Новое состояние (или исходное при ошибке)
	Tier           BadgeTier    // Полученный значок
	UnitsHarvested int          // Сколько цветов забрал урожай
	Level          int          // Уровень после урожая
}

// Harvest собирает урожай с грядки slot.
//
// Порог берётся по уровню ДО урожая. Эффект:
//
//	units = HarvestThreshold(level)
//	count = max(0, count - units*3)
//	harvestCount += 1, totalBadges += 1
//	tier = AssignBadge(harvestCount)
//
// Если урожай не готов: ErrHarvestNotReady и исходное состояние без изменений.
func (e *Engine) Harvest(state AccountState, slot Slot) (HarvestResult, error) {
	if err := e.checkSlot(slot); err != nil {
		return HarvestResult{State: state, Level: e.Level(state)}, err
	}

	level := e.Level(state)
	p := state.Slots[slot]
	units := RewardUnits(p.Count)
	if !e.eligible(units, level) {
		return HarvestResult{State: state, Level: level}, fmt.Errorf("%w: %s, цветов %d из %d",
			common.ErrHarvestNotReady, slot, units, HarvestThreshold(level))
	}

	harvested := HarvestThreshold(level)
	p.Count -= harvested * 3
	if p.Count < 0 {
		p.Count = 0
	}
	p.HarvestCount++
	state.Slots[slot] = p
	state.TotalBadges++

	return HarvestResult{
		State:          state,
		Tier:           AssignBadge(p.HarvestCount),
		UnitsHarvested: harvested,
		Level:          Level(state.TotalBadges),
	}, nil
}

// TotalFlowers: сколько цветов сейчас растёт во всём саду.
func TotalFlowers(state AccountState) int {
	total := 0
	for _, p := range state.Slots {
		total += RewardUnits(p.Count)
	}
	return total
}
