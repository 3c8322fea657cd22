package middleware

import (
	"fmt"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/metrics"
)

// Safe выполняет fn и сообщает, была ли паника.
// Паника в одном апдейте не должна ронять весь бот.
func Safe(updateID int, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			logPanic(updateID, r)
			panicked = true
		}
	}()
	fn()
	return false
}

func logPanic(updateID int, r any) {
	metrics.PanicsRecovered.Inc()
	log.WithFields(log.Fields{
		"component": "panic_recovery",
		"update_id": updateID,
		"panic":     fmt.Sprintf("%v", r),
		"stack":     string(debug.Stack()),
	}).Error("ПАНИКА в обработчике — восстановлено")
}
