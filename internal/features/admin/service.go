// Package admin: service.go содержит логику аутентификации, управления сессиями
// и state-машину для пошаговых админ-действий.
package admin

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/common"
	"serotonyl.ru/garden-bot/internal/config"
)

// SessionStore: хранилище сессий и попыток входа. Реализуется Repository.
type SessionStore interface {
	CreateSession(ctx context.Context, session *AdminSession) error
	GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error)
	DeactivateSession(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	CountFailedAttempts(ctx context.Context, userID int64, since time.Time) (int, error)
}

// Service управляет админ-панелью.
type Service struct {
	repo     SessionStore
	cfg      *config.Config
	now      func() time.Time
	states   map[int64]*DialogState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис админ-панели.
func NewService(repo SessionStore, cfg *config.Config) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
		states: make(map[int64]*DialogState),
	}
}

// IsAdmin: пользователь указан в ADMIN_IDS.
func (s *Service) IsAdmin(userID int64) bool {
	return s.cfg.IsAdmin(userID)
}

// Login проверяет пароль и открывает сессию на SessionTTL.
// Защита от перебора: MaxFailedAttempts неудач за AttemptsWindow блокируют вход.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	failed, err := s.repo.CountFailedAttempts(ctx, userID, s.now().Add(-AttemptsWindow))
	if err != nil {
		return fmt.Errorf("ошибка проверки попыток входа: %w", err)
	}
	if failed >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := CheckPassword(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось записать попытку входа")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	token, err := generateSecureToken()
	if err != nil {
		return err
	}
	if err := s.repo.CreateSession(ctx, &AdminSession{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    s.now().Add(SessionTTL),
	}); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Администратор вошёл в панель")
	return nil
}

// HasActiveSession проверяет сессию и отмечает активность.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) bool {
	session, err := s.repo.GetActiveSession(ctx, userID)
	if err != nil || session == nil {
		return false
	}
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось обновить активность сессии")
	}
	return true
}

// Logout закрывает сессию и сбрасывает диалог.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSession(ctx, userID)
}

// GetState возвращает текущее состояние диалога (nil, если нет или истекло).
func (s *Service) GetState(userID int64) *DialogState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok || s.now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога на DialogTTL.
func (s *Service) SetState(userID int64, stateName string, data any) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	s.states[userID] = &DialogState{
		State:     stateName,
		Data:      data,
		ExpiresAt: s.now().Add(DialogTTL),
	}
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}
