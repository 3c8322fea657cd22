// Package garden: levels.go считает уровень аккаунта и порог урожая.
// Уровень никогда не хранится: он всегда выводится из totalBadges.
package garden

// Level возвращает уровень по общему числу значков: totalBadges + 1 (минимум 1).
func Level(totalBadges int) int {
	if totalBadges < 0 {
		return 1
	}
	return totalBadges + 1
}

// HarvestThreshold: сколько цветов нужно накопить на грядке для урожая на уровне level.
//
// Таблица порогов:
//
//	Уровень 1-2: 3 цветка
//	Уровень 3-4: 5 цветов
//	Уровень 5+:  7 цветов
func HarvestThreshold(level int) int {
	switch {
	case level <= 2:
		return 3
	case level <= 4:
		return 5
	default:
		return 7
	}
}

// levelNames: косметические названия уровней по диапазонам.
var levelNames = []struct {
	maxLevel int
	name     string
}{
	{3, "Сеятель"},
	{6, "Цветовод"},
	{9, "Садовник"},
	{12, "Опытный садовник"},
}

// LevelName возвращает название уровня. Выше 12-го: «Мастер-садовник».
func LevelName(level int) string {
	for _, ln := range levelNames {
		if level <= ln.maxLevel {
			return ln.name
		}
	}
	return "Мастер-садовник"
}

// LevelsToNextName возвращает, сколько уровней осталось до следующего названия.
// 0: названия выше нет.
func LevelsToNextName(level int) int {
	for _, ln := range levelNames {
		if level <= ln.maxLevel {
			return ln.maxLevel - level + 1
		}
	}
	return 0
}
