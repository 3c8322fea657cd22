package garden

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"serotonyl.ru/garden-bot/internal/common"
	dbpg "serotonyl.ru/garden-bot/internal/db/postgres"
)

// startPostgres поднимает Postgres в контейнере и применяет миграции.
// Без Docker тест пропускается.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("интеграционный тест пропущен в -short режиме")
	}

	ctx := context.Background()
	var (
		container *postgres.PostgresContainer
		err       error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("Docker недоступен: %v", r)
			}
		}()
		container, err = postgres.Run(ctx,
			"postgres:15-alpine",
			postgres.WithDatabase("garden"),
			postgres.WithUsername("garden"),
			postgres.WithPassword("garden"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
	}()
	if err != nil {
		t.Skipf("не удалось запустить контейнер Postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("не удалось остановить контейнер: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := dbpg.Connect(ctx, dsn, 10, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, dbpg.Migrate(ctx, pool))
	// Повторный запуск ничего не ломает
	require.NoError(t, dbpg.Migrate(ctx, pool))
	return pool
}

func TestRepository_Integration(t *testing.T) {
	pool := startPostgres(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	e, clock := newTestEngine(Options{DailyGating: true})

	t.Run("absent account is zero state", func(t *testing.T) {
		state, err := repo.Load(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(AccountState{}, state))
	})

	t.Run("round trip", func(t *testing.T) {
		state, err := repo.Update(ctx, 2, func(AccountState) (AccountState, error) {
			return NewAccountState(CharacterGirl), nil
		})
		require.NoError(t, err)

		for i := 0; i < 3; i++ {
			state, err = repo.Update(ctx, 2, func(s AccountState) (AccountState, error) {
				return e.RecordCompletion(s, Slot(i))
			})
			require.NoError(t, err)
		}

		loaded, err := repo.Load(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(state, loaded))
		assert.Equal(t, clock.day, loaded.Slots[SlotAsr].LastCompletionDate)
		assert.Equal(t, CharacterGirl, loaded.Character)
	})

	t.Run("fn error rolls back", func(t *testing.T) {
		before, err := repo.Load(ctx, 2)
		require.NoError(t, err)

		_, err = repo.Update(ctx, 2, func(s AccountState) (AccountState, error) {
			s.Slots[SlotFajr].Count = 100
			return s, common.ErrHarvestNotReady
		})
		assert.ErrorIs(t, err, common.ErrHarvestNotReady)
		assert.False(t, errors.Is(err, common.ErrPersistence))

		after, err := repo.Load(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(before, after))
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		ungatedEngine := ungated()
		_, err := repo.Update(ctx, 3, func(AccountState) (AccountState, error) {
			return NewAccountState(CharacterBoy), nil
		})
		require.NoError(t, err)

		const n = 20
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, 3, func(s AccountState) (AccountState, error) {
					return ungatedEngine.RecordCompletion(s, SlotIsha)
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		state, err := repo.Load(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, n, state.Slots[SlotIsha].Count)
	})

	t.Run("reminder targets and stats", func(t *testing.T) {
		targets, err := repo.ListReminderTargets(ctx, clock.day)
		require.NoError(t, err)

		byUser := map[int64][]Slot{}
		for _, tg := range targets {
			byUser[tg.UserID] = tg.Pending
		}
		assert.Equal(t, []Slot{SlotMaghrib, SlotIsha}, byUser[2])
		assert.Equal(t, []Slot{SlotFajr, SlotDhuhr, SlotAsr, SlotMaghrib}, byUser[3])
		assert.NotContains(t, byUser, int64(1), "без онбординга напоминаний нет")

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.Onboarded)
		assert.Equal(t, 1, stats.MaxLevel)
	})
}
