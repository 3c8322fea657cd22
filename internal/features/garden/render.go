// Package garden: render.go собирает тексты сообщений.
// Здесь нет I/O: функции принимают состояние и возвращают строку.
package garden

import (
	"fmt"
	"strings"

	"serotonyl.ru/garden-bot/internal/common"
)

// WelcomeText: приветствие для пользователя без сада.
const WelcomeText = "🌱 Ассаламу алейкум! Это твой сад намазов.\n\n" +
	"Каждый отмеченный намаз сажает семя на грядке своего вакита. " +
	"Три отметки дают цветок, а собранный урожай приносит значок и новый уровень.\n\n" +
	"Выбери садовника:\n" +
	"  !персонаж мальчик\n" +
	"  !персонаж девочка"

// HelpText: список команд.
const HelpText = "📖 Команды сада\n\n" +
	"!сад — посмотреть грядки\n" +
	"!намаз <вакит> — отметить намаз (фаджр, зухр, аср, магриб, иша или 1-5)\n" +
	"!урожай <вакит> — собрать урожай с грядки\n" +
	"!уровень — уровень и порог урожая\n" +
	"!значки — галерея значков\n" +
	"!профиль — сводка за всё время\n" +
	"!заново да — начать сад с нуля"

// FormatGarden рисует сад целиком.
//
// Пример:
//
//	🌻 Сад · 👦 Мальчик-садовник
//	Уровень 2 · Сеятель · порог урожая: 3 цветка
//
//	🌅 Фаджр: 🌱 посажено ●○○ · 2 цветка ✅
//	...
func FormatGarden(e *Engine, state AccountState) string {
	if !state.OnboardingComplete {
		return WelcomeText
	}

	level := e.Level(state)
	threshold := HarvestThreshold(level)

	var b strings.Builder
	fmt.Fprintf(&b, "🌻 Сад · %s\n", state.Character.Title())
	fmt.Fprintf(&b, "Уровень %d · %s · порог урожая: %s\n\n", level, LevelName(level), common.FormatFlowers(threshold))

	var ready []string
	for _, v := range e.View(state) {
		fmt.Fprintf(&b, "%s %s — %s %s %s · %s",
			v.Slot.Emoji(), v.Slot.Title(),
			v.Stage.Emoji(), v.Stage.Title(),
			common.ProgressBar(v.Progress.Count%3, 3),
			common.FormatFlowers(v.Units),
		)
		if v.CompletedToday {
			b.WriteString(" ✅")
		}
		b.WriteString("\n")
		if v.CanHarvest {
			ready = append(ready, v.Slot.Title())
		}
	}

	fmt.Fprintf(&b, "\n🌷 Всего цветов: %d · 🏅 %s", TotalFlowers(state), common.FormatBadges(state.TotalBadges))
	if len(ready) > 0 {
		fmt.Fprintf(&b, "\n🧺 Готово к урожаю: %s", strings.Join(ready, ", "))
	}
	return b.String()
}

// FormatCompletion: ответ на отметку намаза.
func FormatCompletion(o CompletionOutcome) string {
	p := o.State.Slot(o.Slot)
	stage := StageOf(p.Count)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s отмечен! %s %s %s", o.Slot.Emoji(), o.Slot.Title(),
		stage.Emoji(), stage.Title(), common.ProgressBar(p.Count%3, 3))
	if o.Bloomed {
		fmt.Fprintf(&b, "\n🌸 Распустился цветок! На грядке %s.", common.FormatFlowers(RewardUnits(p.Count)))
	}
	if o.CanHarvest {
		fmt.Fprintf(&b, "\n🧺 Урожай готов: !урожай %s", strings.ToLower(o.Slot.Title()))
	}
	return b.String()
}

// FormatHarvest: ответ на собранный урожай.
func FormatHarvest(slot Slot, res HarvestResult) string {
	return fmt.Sprintf(
		"🧺 Урожай с грядки %s %s собран: %s.\n"+
			"Новый значок: %s\n"+
			"⭐ Уровень %d · %s · новый порог урожая: %s",
		slot.Emoji(), slot.Title(), common.FormatFlowers(res.UnitsHarvested),
		res.Tier.Title(),
		res.Level, LevelName(res.Level), common.FormatFlowers(HarvestThreshold(res.Level)),
	)
}

// FormatNotReady: ответ, когда урожай ещё не созрел.
func FormatNotReady(e *Engine, state AccountState, slot Slot) string {
	units := e.AccumulatedRewardUnits(state, slot)
	threshold := e.Threshold(state)
	if e.Options().HarvestMode == HarvestExactMatch && units > threshold {
		return fmt.Sprintf("⏳ На грядке %s %s, а урожай собирается только ровно при %d.",
			slot.Title(), common.FormatFlowers(units), threshold)
	}
	missing := threshold - units
	return fmt.Sprintf("⏳ Урожай с грядки %s ещё не готов: %s из %d. Осталось %s.",
		slot.Title(), common.FormatFlowers(units), threshold, common.FormatFlowers(missing))
}

// FormatLevel: карточка уровня.
func FormatLevel(e *Engine, state AccountState) string {
	level := e.Level(state)
	text := fmt.Sprintf(
		"⭐ Уровень %d · %s\n"+
			"🏅 %s\n"+
			"🧺 Порог урожая: %s на грядке",
		level, LevelName(level),
		common.FormatBadges(state.TotalBadges),
		common.FormatFlowers(HarvestThreshold(level)),
	)
	if toNext := LevelsToNextName(level); toNext > 0 {
		text += fmt.Sprintf("\nДо следующего звания: %s", common.FormatBadges(toNext))
	}
	return text
}

// FormatBadges: галерея значков.
func FormatBadges(state AccountState) string {
	gallery := BadgeGallery(state)
	if len(gallery) == 0 {
		return "🏅 Значков пока нет. Собери первый урожай!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏅 Твои значки (%d):\n", len(gallery))
	for _, badge := range gallery {
		fmt.Fprintf(&b, "\n%s %s — %d-й урожай: %s", badge.Slot.Emoji(), badge.Slot.Title(), badge.Harvest, badge.Tier.Title())
	}
	return b.String()
}

// FormatProfile: карточка профиля садовника.
func FormatProfile(state AccountState) string {
	p := BuildProfile(state)

	var b strings.Builder
	fmt.Fprintf(&b, "👤 Профиль · %s\n", state.Character.Title())
	fmt.Fprintf(&b, "⭐ Уровень %d · %s · 🏅 %s\n\n", p.Level, p.LevelName, common.FormatBadges(p.TotalBadges))
	fmt.Fprintf(&b, "🕌 Всего отмечено: %d %s\n", p.LifetimePrayers, common.PluralizePrayers(p.LifetimePrayers))
	fmt.Fprintf(&b, "🌷 Растёт: %s · 🌱 семян: %d\n", common.FormatFlowers(p.Flowers), p.Seeds)
	fmt.Fprintf(&b, "📅 Активных дней: %d %s", p.ActiveDays, common.PluralizeDays(p.ActiveDays))
	if p.HasMostPrayed {
		fmt.Fprintf(&b, "\n%s Чаще всего: %s", p.MostPrayed.Emoji(), p.MostPrayed.Title())
	}

	if len(p.LatestBadges) > 0 {
		b.WriteString("\n\nПоследние значки:")
		for _, badge := range p.LatestBadges {
			fmt.Fprintf(&b, "\n%s %s: %s", badge.Slot.Emoji(), badge.Slot.Title(), badge.Tier.Title())
		}
	}
	return b.String()
}

// FormatReminder: текст ежедневного напоминания.
func FormatReminder(pending []Slot) string {
	names := make([]string, 0, len(pending))
	for _, slot := range pending {
		names = append(names, slot.Emoji()+" "+slot.Title())
	}
	return fmt.Sprintf("🌙 Не забудь отметить намазы! Сегодня ещё не отмечены: %s.\n"+
		"Каждая отметка — новое семя в твоём саду.", strings.Join(names, ", "))
}
