// Package garden: repository.go хранит состояние сада в таблицах
// garden_accounts и garden_slots.
//
// Отсутствие записи равносильно нулевому состоянию с onboarding_complete = FALSE.
package garden

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/garden-bot/internal/common"
)

// querier: общее у пула и транзакции.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository предоставляет методы для работы с садами пользователей.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий садов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Load возвращает состояние сада без блокировки (для просмотра).
func (r *Repository) Load(ctx context.Context, userID int64) (AccountState, error) {
	state, err := loadState(ctx, r.db, userID, false)
	if err != nil {
		return AccountState{}, fmt.Errorf("%w: загрузка сада (user_id=%d): %w", common.ErrPersistence, userID, err)
	}
	return state, nil
}

// Update выполняет чтение → изменение → запись в одной транзакции.
// Строка аккаунта блокируется через SELECT ... FOR UPDATE, поэтому два
// параллельных изменения одного сада (даже из разных процессов) не теряют друг друга.
//
// Ошибка fn откатывает транзакцию и возвращается как есть (без ErrPersistence).
func (r *Repository) Update(ctx context.Context, userID int64, fn func(AccountState) (AccountState, error)) (AccountState, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return AccountState{}, fmt.Errorf("%w: начало транзакции: %w", common.ErrPersistence, err)
	}
	// Откатываем транзакцию, если что-то пошло не так
	defer tx.Rollback(ctx)

	// Заготовка строки, чтобы было что блокировать
	if _, err := tx.Exec(ctx,
		`INSERT INTO garden_accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID,
	); err != nil {
		return AccountState{}, fmt.Errorf("%w: создание аккаунта (user_id=%d): %w", common.ErrPersistence, userID, err)
	}

	current, err := loadState(ctx, tx, userID, true)
	if err != nil {
		return AccountState{}, fmt.Errorf("%w: загрузка сада (user_id=%d): %w", common.ErrPersistence, userID, err)
	}
	if err := current.Validate(); err != nil {
		return current, err
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}
	if next == current {
		return current, nil
	}

	if err := saveState(ctx, tx, userID, next); err != nil {
		return current, fmt.Errorf("%w: сохранение сада (user_id=%d): %w", common.ErrPersistence, userID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return current, fmt.Errorf("%w: %w (user_id=%d): %w", common.ErrPersistence, common.ErrCommitUncertain, userID, err)
	}
	return next, nil
}

// loadState читает аккаунт и грядки. forUpdate блокирует строку аккаунта.
func loadState(ctx context.Context, q querier, userID int64, forUpdate bool) (AccountState, error) {
	query := `
		SELECT onboarding_complete, gardener, total_badges
		FROM garden_accounts
		WHERE user_id = $1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		state     AccountState
		character string
	)
	err := q.QueryRow(ctx, query, userID).Scan(&state.OnboardingComplete, &character, &state.TotalBadges)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountState{}, nil
		}
		return AccountState{}, err
	}
	state.Character = Character(character)

	rows, err := q.Query(ctx, `
		SELECT slot, count, last_completion_date, harvest_count
		FROM garden_slots
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return AccountState{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			p  SlotProgress
		)
		if err := rows.Scan(&id, &p.Count, &p.LastCompletionDate, &p.HarvestCount); err != nil {
			return AccountState{}, fmt.Errorf("ошибка сканирования грядки: %w", err)
		}
		slot, err := ParseSlot(id)
		if err != nil {
			return AccountState{}, fmt.Errorf("%w: %w", common.ErrCorruptState, err)
		}
		state.Slots[slot] = p
	}
	if err := rows.Err(); err != nil {
		return AccountState{}, fmt.Errorf("ошибка чтения грядок: %w", err)
	}

	return state, nil
}

// saveState записывает аккаунт и все пять грядок одним батчем.
func saveState(ctx context.Context, tx pgx.Tx, userID int64, state AccountState) error {
	_, err := tx.Exec(ctx, `
		UPDATE garden_accounts
		SET onboarding_complete = $2, gardener = $3, total_badges = $4, updated_at = NOW()
		WHERE user_id = $1
	`, userID, state.OnboardingComplete, string(state.Character), state.TotalBadges)
	if err != nil {
		return fmt.Errorf("ошибка обновления аккаунта: %w", err)
	}

	batch := &pgx.Batch{}
	for _, slot := range AllSlots {
		p := state.Slots[slot]
		batch.Queue(`
			INSERT INTO garden_slots (user_id, slot, count, last_completion_date, harvest_count)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, slot) DO UPDATE
			SET count = EXCLUDED.count,
			    last_completion_date = EXCLUDED.last_completion_date,
			    harvest_count = EXCLUDED.harvest_count,
			    updated_at = NOW()
		`, userID, slot.String(), p.Count, p.LastCompletionDate, p.HarvestCount)
	}

	br := tx.SendBatch(ctx, batch)
	for range AllSlots {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("ошибка обновления грядки: %w", err)
		}
	}
	return br.Close()
}

// ReminderTarget: пользователь, у которого сегодня остались неотмеченные вакиты.
type ReminderTarget struct {
	UserID  int64
	Pending []Slot
}

// ListReminderTargets возвращает пользователей с завершённым онбордингом,
// у которых есть вакиты, не отмеченные в день today.
func (r *Repository) ListReminderTargets(ctx context.Context, today string) ([]ReminderTarget, error) {
	rows, err := r.db.Query(ctx, `
		SELECT a.user_id, s.slot, s.last_completion_date
		FROM garden_accounts a
		LEFT JOIN garden_slots s ON s.user_id = a.user_id
		WHERE a.onboarding_complete = TRUE
		ORDER BY a.user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: получение садов для напоминаний: %w", common.ErrPersistence, err)
	}
	defer rows.Close()

	done := make(map[int64]*[SlotCount]bool)
	var order []int64
	for rows.Next() {
		var (
			userID   int64
			slotID   *string
			lastDate *string
		)
		if err := rows.Scan(&userID, &slotID, &lastDate); err != nil {
			return nil, fmt.Errorf("%w: ошибка сканирования: %w", common.ErrPersistence, err)
		}
		marks, ok := done[userID]
		if !ok {
			marks = &[SlotCount]bool{}
			done[userID] = marks
			order = append(order, userID)
		}
		if slotID == nil || lastDate == nil {
			continue
		}
		if slot, err := ParseSlot(*slotID); err == nil && *lastDate == today {
			marks[slot] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ошибка чтения строк: %w", common.ErrPersistence, err)
	}

	var out []ReminderTarget
	for _, userID := range order {
		var pending []Slot
		for _, slot := range AllSlots {
			if !done[userID][slot] {
				pending = append(pending, slot)
			}
		}
		if len(pending) > 0 {
			out = append(out, ReminderTarget{UserID: userID, Pending: pending})
		}
	}
	return out, nil
}

// Stats: общая статистика садов для админки.
type Stats struct {
	Accounts    int64
	Onboarded   int64
	TotalBadges int64
	MaxLevel    int
}

// Stats возвращает общую статистику по всем садам.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var (
		s        Stats
		maxBadge int64
	)
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE onboarding_complete),
		       COALESCE(SUM(total_badges), 0),
		       COALESCE(MAX(total_badges), 0)
		FROM garden_accounts
	`).Scan(&s.Accounts, &s.Onboarded, &s.TotalBadges, &maxBadge)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: статистика садов: %w", common.ErrPersistence, err)
	}
	s.MaxLevel = Level(int(maxBadge))
	return s, nil
}
