// Package garden: service.go связывает движок, хранилище и блокировки.
//
// Каждое изменение сада идёт по одному пути: блокировка пользователя →
// транзакция (чтение → движок → запись) → разблокировка. Поэтому две
// одновременные отметки одного пользователя никогда не теряют друг друга.
package garden

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/common"
	"serotonyl.ru/garden-bot/internal/concurrency"
	"serotonyl.ru/garden-bot/internal/config"
	"serotonyl.ru/garden-bot/internal/metrics"
)

// Store: хранилище садов. Реализуется Repository.
type Store interface {
	Load(ctx context.Context, userID int64) (AccountState, error)
	Update(ctx context.Context, userID int64, fn func(AccountState) (AccountState, error)) (AccountState, error)
	ListReminderTargets(ctx context.Context, today string) ([]ReminderTarget, error)
	Stats(ctx context.Context) (Stats, error)
}

// Service управляет садами пользователей.
type Service struct {
	store   Store                    // Хранилище садов
	engine  *Engine                  // Движок прогрессии
	locks   *concurrency.LockManager // Блокировки по user_id
	retries int                      // Повторы сохранения
	backoff time.Duration            // Пауза между повторами
}

// NewService создаёт новый сервис садов.
func NewService(store Store, engine *Engine, cfg *config.Config) *Service {
	return &Service{
		store:   store,
		engine:  engine,
		locks:   concurrency.NewLockManager(),
		retries: cfg.GardenSaveRetries,
		backoff: cfg.GardenSaveBackoff,
	}
}

// Engine возвращает движок (нужен обработчикам для отрисовки).
func (s *Service) Engine() *Engine {
	return s.engine
}

// update применяет fn к саду пользователя под блокировкой.
// Ошибки хранилища повторяются s.retries раз, ошибки движка возвращаются сразу.
// Неподтверждённый COMMIT не повторяется: без дневного ограничения повтор
// засчитал бы намаз дважды.
func (s *Service) update(ctx context.Context, userID int64, fn func(AccountState) (AccountState, error)) (AccountState, error) {
	var state AccountState
	err := s.locks.WithLock(userID, func() error {
		var err error
		for attempt := 0; ; attempt++ {
			state, err = s.store.Update(ctx, userID, fn)
			if err == nil || !errors.Is(err, common.ErrPersistence) {
				return err
			}

			metrics.PersistenceFailures.Inc()
			log.WithError(err).WithFields(log.Fields{
				"user_id": userID,
				"attempt": attempt + 1,
			}).Warn("Не удалось сохранить сад")

			if attempt >= s.retries || errors.Is(err, common.ErrCommitUncertain) {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff * time.Duration(attempt+1)):
			}
		}
	})
	return state, err
}

// Get возвращает сад пользователя. Для нового пользователя: нулевое состояние.
func (s *Service) Get(ctx context.Context, userID int64) (AccountState, error) {
	return s.store.Load(ctx, userID)
}

// Onboard создаёт сад: выбирает персонажа и обнуляет прогресс.
func (s *Service) Onboard(ctx context.Context, userID int64, character Character) (AccountState, error) {
	state, err := s.update(ctx, userID, func(current AccountState) (AccountState, error) {
		if current.OnboardingComplete {
			return current, common.ErrAlreadyOnboarded
		}
		return NewAccountState(character), nil
	})
	if err != nil {
		return state, err
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"character": character,
	}).Info("Сад создан")
	return state, nil
}

// CompletionOutcome: итог отметки намаза.
type CompletionOutcome struct {
	State      AccountState
	Slot       Slot
	Bloomed    bool // Распустился новый цветок
	CanHarvest bool // Урожай с грядки готов
}

// Complete отмечает намаз в ваките slot.
//
// Алгоритм:
//  1. Проверяем, что сад создан
//  2. Движок увеличивает счётчик (или отказывает: уже отмечено сегодня)
//  3. Сохраняем и сообщаем, распустился ли цветок и готов ли урожай
func (s *Service) Complete(ctx context.Context, userID int64, slot Slot) (CompletionOutcome, error) {
	var before SlotProgress
	state, err := s.update(ctx, userID, func(current AccountState) (AccountState, error) {
		if !current.OnboardingComplete {
			return current, common.ErrNotOnboarded
		}
		before = current.Slot(slot)
		return s.engine.RecordCompletion(current, slot)
	})
	if err != nil {
		countRejection(err)
		return CompletionOutcome{State: state, Slot: slot}, err
	}

	metrics.CompletionsTotal.WithLabelValues(slot.String()).Inc()
	outcome := CompletionOutcome{
		State:      state,
		Slot:       slot,
		Bloomed:    Bloomed(before, state.Slot(slot)),
		CanHarvest: s.engine.CanHarvest(state, slot),
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"slot":    slot,
		"count":   state.Slot(slot).Count,
		"bloomed": outcome.Bloomed,
	}).Debug("Намаз отмечен")
	return outcome, nil
}

// Harvest собирает урожай с грядки slot.
// Если урожай не готов: ErrHarvestNotReady, состояние не меняется.
func (s *Service) Harvest(ctx context.Context, userID int64, slot Slot) (HarvestResult, error) {
	var res HarvestResult
	state, err := s.update(ctx, userID, func(current AccountState) (AccountState, error) {
		if !current.OnboardingComplete {
			return current, common.ErrNotOnboarded
		}
		var err error
		res, err = s.engine.Harvest(current, slot)
		return res.State, err
	})
	if err != nil {
		if errors.Is(err, common.ErrHarvestNotReady) {
			metrics.HarvestNotReady.Inc()
		}
		return HarvestResult{State: state, Level: s.engine.Level(state)}, err
	}

	metrics.HarvestsTotal.WithLabelValues(slot.String(), res.Tier.String()).Inc()
	log.WithFields(log.Fields{
		"user_id": userID,
		"slot":    slot,
		"tier":    res.Tier,
		"level":   res.Level,
	}).Info("Урожай собран")
	return res, nil
}

// Restart начинает сад заново: весь прогресс и значки сбрасываются,
// пользователь снова выбирает персонажа.
func (s *Service) Restart(ctx context.Context, userID int64) error {
	_, err := s.update(ctx, userID, func(AccountState) (AccountState, error) {
		return AccountState{}, nil
	})
	if err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Сад сброшен")
	return nil
}

// Stats возвращает общую статистику садов.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

// SendReminders отправляет напоминания всем, у кого сегодня остались
// неотмеченные вакиты. Запускается кроном раз в день.
func (s *Service) SendReminders(ctx context.Context, sendFunc func(userID int64, text string)) (int, error) {
	targets, err := s.store.ListReminderTargets(ctx, s.engine.Today())
	if err != nil {
		return 0, err
	}

	for _, t := range targets {
		sendFunc(t.UserID, FormatReminder(t.Pending))
		metrics.RemindersSent.Inc()
	}

	log.WithField("sent", len(targets)).Info("Напоминания отправлены")
	return len(targets), nil
}

// countRejection пишет в метрики причину отказа в отметке.
func countRejection(err error) {
	var reason string
	switch {
	case errors.Is(err, common.ErrAlreadyCompletedToday):
		reason = "already_today"
	case errors.Is(err, common.ErrInvalidSlot):
		reason = "invalid_slot"
	case errors.Is(err, common.ErrNotOnboarded):
		reason = "not_onboarded"
	default:
		return
	}
	metrics.CompletionsRejected.WithLabelValues(reason).Inc()
}
