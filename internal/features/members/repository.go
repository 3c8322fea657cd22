// Package members: repository.go отвечает за все операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound: пользователь ни разу не писал боту.
var ErrNotFound = errors.New("пользователь не найден")

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Upsert добавляет пользователя или обновляет имя/username и last_seen_at.
func (r *Repository) Upsert(ctx context.Context, m *Member) error {
	query := `
		INSERT INTO members (user_id, username, first_name, last_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    last_seen_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, m.UserID, m.Username, m.FirstName, m.LastName); err != nil {
		return fmt.Errorf("ошибка сохранения пользователя (user_id=%d): %w", m.UserID, err)
	}
	return nil
}

// GetByUserID ищет пользователя по ID, ErrNotFound если его нет.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `
		SELECT user_id, username, first_name, last_name, created_at, last_seen_at
		FROM members
		WHERE user_id = $1
	`
	return r.queryOne(ctx, query, userID)
}

// GetByUsername ищет без учёта регистра. Если не найден: ErrNotFound.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Member, error) {
	query := `
		SELECT user_id, username, first_name, last_name, created_at, last_seen_at
		FROM members
		WHERE LOWER(username) = LOWER($1)
	`
	return r.queryOne(ctx, query, username)
}

// Count возвращает число пользователей, когда-либо писавших боту.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return n, nil
}

func (r *Repository) queryOne(ctx context.Context, query string, arg any) (*Member, error) {
	var m Member
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&m.UserID, &m.Username, &m.FirstName, &m.LastName, &m.CreatedAt, &m.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w (%v)", ErrNotFound, arg)
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (%v): %w", arg, err)
	}
	return &m, nil
}
