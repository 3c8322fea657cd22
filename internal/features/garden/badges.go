// Package garden: badges.go определяет значки за урожай.
// Значок зависит только от того, какой по счёту урожай собран с грядки.
package garden

// BadgeTier: ранг значка.
type BadgeTier int

// Ранги значков по возрастанию.
const (
	BadgeNone BadgeTier = iota
	BadgeFirstHarvest
	BadgeGardener
	BadgeMasterGardener
)

// String возвращает идентификатор ранга.
func (t BadgeTier) String() string {
	switch t {
	case BadgeFirstHarvest:
		return "first_harvest"
	case BadgeGardener:
		return "gardener"
	case BadgeMasterGardener:
		return "master_gardener"
	}
	return "none"
}

// Title возвращает название значка для сообщений.
func (t BadgeTier) Title() string {
	switch t {
	case BadgeFirstHarvest:
		return "🌱 Первый урожай"
	case BadgeGardener:
		return "🌷 Садовник"
	case BadgeMasterGardener:
		return "🌳 Мастер-садовник"
	}
	return "—"
}

// AssignBadge возвращает ранг значка за harvestCount-й урожай с грядки.
//
//	1  → Первый урожай
//	2  → Садовник
//	3+ → Мастер-садовник
func AssignBadge(harvestCount int) BadgeTier {
	switch {
	case harvestCount <= 0:
		return BadgeNone
	case harvestCount == 1:
		return BadgeFirstHarvest
	case harvestCount == 2:
		return BadgeGardener
	default:
		return BadgeMasterGardener
	}
}

// EarnedBadge: один значок в галерее.
type EarnedBadge struct {
	Slot    Slot
	Harvest int // Номер урожая на грядке (1, 2, ...)
	Tier    BadgeTier
}

// BadgeGallery собирает все заработанные значки: по одному на каждый урожай
// каждой грядки. Длина результата равна state.TotalBadges.
func BadgeGallery(state AccountState) []EarnedBadge {
	var out []EarnedBadge
	for _, slot := range AllSlots {
		for i := 1; i <= state.Slots[slot].HarvestCount; i++ {
			out = append(out, EarnedBadge{Slot: slot, Harvest: i, Tier: AssignBadge(i)})
		}
	}
	return out
}
