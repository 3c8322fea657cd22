// Package garden: engine.go собирает движок прогрессии сада.
//
// Движок синхронный и чистый: никакого I/O, никаких горутин, никаких блокировок.
// Сериализацией чтение → изменение → запись занимается Service.
package garden

import (
	"fmt"
	"strings"

	"serotonyl.ru/garden-bot/internal/common"
)

// DayClock отдаёт текущий календарный день в формате 2006-01-02.
type DayClock interface {
	Today() string
}

// HarvestMode: правило доступности урожая.
type HarvestMode int

const (
	// HarvestAtLeast: урожай доступен, когда цветов не меньше порога уровня.
	HarvestAtLeast HarvestMode = iota
	// HarvestExactMatch (старое поведение): урожай доступен, только когда цветов ровно столько,
	// сколько требует порог. Стоит включать только для совместимости.
	HarvestExactMatch
)

// String возвращает значение режима, как оно пишется в конфиге.
func (m HarvestMode) String() string {
	if m == HarvestExactMatch {
		return "exact"
	}
	return "at_least"
}

// ParseHarvestMode разбирает режим из конфига ("at_least" или "exact").
func ParseHarvestMode(s string) (HarvestMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "at_least", "atleast", "gte":
		return HarvestAtLeast, nil
	case "exact", "exact_match":
		return HarvestExactMatch, nil
	}
	return HarvestAtLeast, fmt.Errorf("неизвестный режим урожая %q", s)
}

// Options настраивает движок.
type Options struct {
	// DailyGating: не больше одной отметки на грядку за календарный день.
	// Выключается только для тестирования.
	DailyGating bool
	// HarvestMode: правило доступности урожая.
	HarvestMode HarvestMode
	// StrictSlots: паника на неизвестном ваките (режим разработки).
	// В продакшене неизвестный вакит не меняет состояние и возвращает ErrInvalidSlot.
	StrictSlots bool
}

// DefaultOptions возвращает боевые настройки: дневное ограничение включено, урожай «не меньше порога».
func DefaultOptions() Options {
	return Options{DailyGating: true, HarvestMode: HarvestAtLeast}
}

// Engine: движок прогрессии сада.
type Engine struct {
	clock DayClock
	opts  Options
}

// NewEngine создаёт движок с часами clock и настройками opts.
func NewEngine(clock DayClock, opts Options) *Engine {
	return &Engine{clock: clock, opts: opts}
}

// Options возвращает настройки движка.
func (e *Engine) Options() Options {
	return e.opts
}

// Today возвращает текущий день по часам движка.
func (e *Engine) Today() string {
	return e.clock.Today()
}

// checkSlot проверяет вакит. В строгом режиме неизвестный вакит: паника.
func (e *Engine) checkSlot(slot Slot) error {
	if slot.Valid() {
		return nil
	}
	if e.opts.StrictSlots {
		panic(fmt.Sprintf("garden: неизвестный вакит %d", int(slot)))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidSlot, slot)
}

// Level возвращает текущий уровень аккаунта.
func (e *Engine) Level(state AccountState) int {
	return Level(state.TotalBadges)
}

// Threshold возвращает порог урожая для текущего уровня аккаунта.
func (e *Engine) Threshold(state AccountState) int {
	return HarvestThreshold(e.Level(state))
}

// SlotView: всё, что нужно показать по одной грядке.
type SlotView struct {
	Slot           Slot
	Progress       SlotProgress
	Stage          Stage
	Units          int
	CompletedToday bool
	CanHarvest     bool
}

// View собирает представление всех грядок для отрисовки.
func (e *Engine) View(state AccountState) [SlotCount]SlotView {
	today := e.clock.Today()
	var out [SlotCount]SlotView
	for _, slot := range AllSlots {
		p := state.Slots[slot]
		out[slot] = SlotView{
			Slot:           slot,
			Progress:       p,
			Stage:          StageOf(p.Count),
			Units:          RewardUnits(p.Count),
			CompletedToday: CompletedToday(p, today),
			CanHarvest:     e.CanHarvest(state, slot),
		}
	}
	return out
}
