// Package common: pluralize.go содержит вспомогательные функции
// для форматирования чисел в сообщениях бота.
package common

import (
	"fmt"
	"strings"
)

// FormatNumber форматирует число с разделителями тысяч (пробелами).
// Пример: FormatNumber(2350) → "2 350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s %03d", FormatNumber(n/1000), n%1000)
}

// ProgressBar рисует полосу прогресса из filled закрашенных и total-filled пустых клеток.
// Пример: ProgressBar(2, 3) → "●●○"
func ProgressBar(filled, total int) string {
	if total <= 0 {
		return ""
	}
	if filled < 0 {
		filled = 0
	}
	if filled > total {
		filled = total
	}
	return strings.Repeat("●", filled) + strings.Repeat("○", total-filled)
}
