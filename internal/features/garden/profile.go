// Package garden: profile.go собирает сводку для профиля садовника.
package garden

import "sort"

// latestBadgesShown: сколько последних значков показывает профиль.
const latestBadgesShown = 3

// Profile: сводка по всему саду. Ничего из этого не хранится.
type Profile struct {
	Level           int
	LevelName       string
	TotalBadges     int
	Flowers         int  // Цветы, которые сейчас растут
	Seeds           int  // Отметки в незакрытых тройках
	LifetimePrayers int  // Все отметки, включая ушедшие в урожай
	MostPrayed      Slot // Имеет смысл только при HasMostPrayed
	HasMostPrayed   bool
	ActiveDays      int           // Разные даты последних отметок по грядкам
	LatestBadges    []EarnedBadge // Последний значок каждой грядки, свежие первыми
}

// HarvestedPrayers: сколько отметок забрали totalBadges урожаев.
// k-й урожай собирается на уровне k и съедает HarvestThreshold(k) цветов по 3 отметки.
func HarvestedPrayers(totalBadges int) int {
	total := 0
	for k := 1; k <= totalBadges; k++ {
		total += HarvestThreshold(k) * 3
	}
	return total
}

// BuildProfile считает профиль по состоянию.
func BuildProfile(state AccountState) Profile {
	level := Level(state.TotalBadges)
	p := Profile{
		Level:           level,
		LevelName:       LevelName(level),
		TotalBadges:     state.TotalBadges,
		Flowers:         TotalFlowers(state),
		LifetimePrayers: HarvestedPrayers(state.TotalBadges),
	}

	days := make(map[string]struct{})
	maxCount := 0
	for _, slot := range AllSlots {
		sp := state.Slots[slot]
		p.Seeds += sp.Count % 3
		p.LifetimePrayers += sp.Count
		if sp.Count > maxCount {
			maxCount = sp.Count
			p.MostPrayed = slot
			p.HasMostPrayed = true
		}
		if sp.LastCompletionDate != "" {
			days[sp.LastCompletionDate] = struct{}{}
		}
	}
	p.ActiveDays = len(days)
	p.LatestBadges = latestBadges(state)
	return p
}

// latestBadges берёт последний значок каждой грядки и сортирует по дате
// последней отметки. Грядки без даты идут в конце.
func latestBadges(state AccountState) []EarnedBadge {
	type dated struct {
		badge EarnedBadge
		date  string
	}
	var all []dated
	for _, slot := range AllSlots {
		sp := state.Slots[slot]
		if sp.HarvestCount == 0 {
			continue
		}
		all = append(all, dated{
			badge: EarnedBadge{Slot: slot, Harvest: sp.HarvestCount, Tier: AssignBadge(sp.HarvestCount)},
			date:  sp.LastCompletionDate,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].date == "" || all[j].date == "" {
			return all[j].date == "" && all[i].date != ""
		}
		return all[i].date > all[j].date
	})

	if len(all) > latestBadgesShown {
		all = all[:latestBadgesShown]
	}
	out := make([]EarnedBadge, 0, len(all))
	for _, d := range all {
		out = append(out, d.badge)
	}
	return out
}
