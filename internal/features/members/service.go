// Package members, service.go: регистрация пользователей и поиск по ссылке.
package members

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Directory: хранилище пользователей. Реализуется Repository.
type Directory interface {
	Upsert(ctx context.Context, m *Member) error
	GetByUserID(ctx context.Context, userID int64) (*Member, error)
	GetByUsername(ctx context.Context, username string) (*Member, error)
	Count(ctx context.Context) (int64, error)
}

// Service управляет справочником пользователей.
type Service struct {
	repo Directory
}

// NewService создаёт новый сервис пользователей.
func NewService(repo Directory) *Service {
	return &Service{repo: repo}
}

// Touch запоминает пользователя при каждом сообщении.
// Ошибка не мешает обработке команды, поэтому только логируется.
func (s *Service) Touch(ctx context.Context, userID int64, username, firstName, lastName string) {
	err := s.repo.Upsert(ctx, &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось сохранить пользователя")
	}
}

// Resolve находит пользователя по ID или @username.
// Для ID, которого нет в справочнике, возвращает «голого» Member: сад мог
// появиться раньше справочника.
func (s *Service) Resolve(ctx context.Context, ref string) (*Member, error) {
	parsed, err := ParseUserRef(ref)
	if err != nil {
		return nil, err
	}
	if parsed.Username != "" {
		return s.repo.GetByUsername(ctx, parsed.Username)
	}

	m, err := s.repo.GetByUserID(ctx, parsed.UserID)
	if err != nil {
		log.WithError(err).WithField("user_id", parsed.UserID).Debug("Пользователь не в справочнике")
		return &Member{UserID: parsed.UserID}, nil
	}
	return m, nil
}

// Count возвращает размер справочника.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
