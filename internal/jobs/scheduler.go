// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает ежедневные напоминания о неотмеченных намазах.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Reminders: источник напоминаний (garden.Service).
type Reminders interface {
	SendReminders(ctx context.Context, sendFunc func(userID int64, text string)) (int, error)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	reminders Reminders
	sendFunc  func(userID int64, text string)
}

// NewScheduler создаёт планировщик в часовом поясе loc.
// spec: расписание напоминаний в формате cron ("0 20 * * *").
func NewScheduler(reminders Reminders, loc *time.Location, spec string, sendFunc func(userID int64, text string)) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		spec:      spec,
		reminders: reminders,
		sendFunc:  sendFunc,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunReminders(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание напоминаний %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.WithField("spec", s.spec).Info("Планировщик задач запущен")
	return nil
}

// RunReminders: один прогон рассылки напоминаний.
func (s *Scheduler) RunReminders(ctx context.Context) {
	log.Debug("[CRON] Рассылка напоминаний")
	if _, err := s.reminders.SendReminders(ctx, s.sendFunc); err != nil {
		log.WithError(err).Error("[CRON] Ошибка напоминаний")
	}
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("Планировщик задач остановлен")
}
