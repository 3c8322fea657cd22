// Package garden: counter.go отвечает за отметку выполненного намаза.
// Каждая отметка сажает семя на грядке своего вакита.
package garden

import (
	"fmt"

	"serotonyl.ru/garden-bot/internal/common"
)

// RecordCompletion отмечает выполнение вакита slot и возвращает новое состояние.
//
// Алгоритм:
//  1. Проверяем вакит
//  2. Если включено дневное ограничение и вакит уже отмечен сегодня: ErrAlreadyCompletedToday
//  3. count += 1, lastCompletionDate = сегодня
//
// При любой ошибке возвращается исходное состояние без изменений.
func (e *Engine) RecordCompletion(state AccountState, slot Slot) (AccountState, error) {
	if err := e.checkSlot(slot); err != nil {
		return state, err
	}

	today := e.clock.Today()
	p := state.Slots[slot]

	if e.opts.DailyGating && CompletedToday(p, today) {
		return state, fmt.Errorf("%w: %s", common.ErrAlreadyCompletedToday, slot)
	}

	p.Count++
	p.LastCompletionDate = today
	state.Slots[slot] = p
	return state, nil
}

// CompletedToday сообщает, отмечена ли грядка в день today.
func CompletedToday(p SlotProgress, today string) bool {
	return p.LastCompletionDate != "" && p.LastCompletionDate == today
}

// Bloomed сообщает, что между before и after на грядке распустился новый цветок
// (закрылась очередная тройка отметок).
func Bloomed(before, after SlotProgress) bool {
	return RewardUnits(after.Count) > RewardUnits(before.Count)
}
