package garden

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/garden-bot/internal/common"
	"serotonyl.ru/garden-bot/internal/config"
)

// memStore: хранилище в памяти. Update намеренно не атомарен:
// чтение и запись берут мьютекс по отдельности, сериализацию даёт Service.
type memStore struct {
	mu       sync.Mutex
	states   map[int64]AccountState
	failures int // сколько следующих Update завершатся ErrPersistence
	lost     int // сколько следующих Update сохранят состояние, но вернут ErrCommitUncertain
	calls    int
	targets  []ReminderTarget
	today    string
}

func newMemStore() *memStore {
	return &memStore{states: make(map[int64]AccountState)}
}

func (m *memStore) Load(_ context.Context, userID int64) (AccountState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *memStore) Update(_ context.Context, userID int64, fn func(AccountState) (AccountState, error)) (AccountState, error) {
	m.mu.Lock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		m.mu.Unlock()
		return AccountState{}, fmt.Errorf("%w: соединение потеряно", common.ErrPersistence)
	}
	current := m.states[userID]
	m.mu.Unlock()

	next, err := fn(current)
	if err != nil {
		return current, err
	}
	runtime.Gosched()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = next
	if m.lost > 0 {
		m.lost--
		return current, fmt.Errorf("%w: %w: обрыв после COMMIT", common.ErrPersistence, common.ErrCommitUncertain)
	}
	return next, nil
}

func (m *memStore) ListReminderTargets(_ context.Context, today string) ([]ReminderTarget, error) {
	m.today = today
	return m.targets, nil
}

func (m *memStore) Stats(context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Stats
	for _, st := range m.states {
		s.Accounts++
		if st.OnboardingComplete {
			s.Onboarded++
		}
		s.TotalBadges += int64(st.TotalBadges)
	}
	return s, nil
}

func newTestService(opts Options) (*Service, *memStore, *fixedClock) {
	store := newMemStore()
	clock := &fixedClock{day: "2026-03-01"}
	cfg := &config.Config{GardenSaveRetries: 2, GardenSaveBackoff: time.Millisecond}
	return NewService(store, NewEngine(clock, opts), cfg), store, clock
}

const testUser int64 = 1001

func TestService_Onboard(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(DefaultOptions())

	state, err := svc.Get(ctx, testUser)
	require.NoError(t, err)
	assert.False(t, state.OnboardingComplete, "новый пользователь — нулевое состояние")

	state, err = svc.Onboard(ctx, testUser, CharacterGirl)
	require.NoError(t, err)
	assert.True(t, state.OnboardingComplete)
	assert.Equal(t, CharacterGirl, state.Character)

	_, err = svc.Onboard(ctx, testUser, CharacterBoy)
	assert.ErrorIs(t, err, common.ErrAlreadyOnboarded)

	state, err = svc.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, CharacterGirl, state.Character)
}

func TestService_CompleteRequiresOnboarding(t *testing.T) {
	svc, store, _ := newTestService(DefaultOptions())

	_, err := svc.Complete(context.Background(), testUser, SlotFajr)
	assert.ErrorIs(t, err, common.ErrNotOnboarded)
	assert.Empty(t, cmp.Diff(AccountState{}, store.states[testUser]))
}

func TestService_CompleteAndBloom(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(Options{DailyGating: false})
	_, err := svc.Onboard(ctx, testUser, CharacterBoy)
	require.NoError(t, err)

	var outcome CompletionOutcome
	for i := 1; i <= 9; i++ {
		outcome, err = svc.Complete(ctx, testUser, SlotMaghrib)
		require.NoError(t, err)
		assert.Equal(t, i%3 == 0, outcome.Bloomed, "i=%d", i)
	}
	assert.Equal(t, 9, outcome.State.Slots[SlotMaghrib].Count)
	assert.True(t, outcome.CanHarvest)
}

func TestService_DailyGating(t *testing.T) {
	ctx := context.Background()
	svc, _, clock := newTestService(DefaultOptions())
	_, err := svc.Onboard(ctx, testUser, CharacterBoy)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, testUser, SlotFajr)
	require.NoError(t, err)

	outcome, err := svc.Complete(ctx, testUser, SlotFajr)
	assert.ErrorIs(t, err, common.ErrAlreadyCompletedToday)
	assert.Equal(t, 1, outcome.State.Slots[SlotFajr].Count)

	clock.day = "2026-03-02"
	outcome, err = svc.Complete(ctx, testUser, SlotFajr)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.State.Slots[SlotFajr].Count)
}

func TestService_HarvestNotReadyKeepsStoredState(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(Options{DailyGating: false})
	_, err := svc.Onboard(ctx, testUser, CharacterGirl)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = svc.Complete(ctx, testUser, SlotAsr)
		require.NoError(t, err)
	}
	before := store.states[testUser]

	res, err := svc.Harvest(ctx, testUser, SlotAsr)
	assert.ErrorIs(t, err, common.ErrHarvestNotReady)
	assert.Empty(t, cmp.Diff(before, res.State))
	assert.Empty(t, cmp.Diff(before, store.states[testUser]))
	assert.Equal(t, 1, res.Level)
}

func TestService_Harvest(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(Options{DailyGating: false})
	_, err := svc.Onboard(ctx, testUser, CharacterBoy)
	require.NoError(t, err)
	for i := 0; i < 9; i++ {
		_, err = svc.Complete(ctx, testUser, SlotIsha)
		require.NoError(t, err)
	}

	res, err := svc.Harvest(ctx, testUser, SlotIsha)
	require.NoError(t, err)
	assert.Equal(t, BadgeFirstHarvest, res.Tier)
	assert.Equal(t, 2, res.Level)

	state, err := svc.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, state.TotalBadges)
	assert.Equal(t, 0, state.Slots[SlotIsha].Count)
}

func TestService_Restart(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(Options{DailyGating: false})
	_, err := svc.Onboard(ctx, testUser, CharacterBoy)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, testUser, SlotDhuhr)
	require.NoError(t, err)

	require.NoError(t, svc.Restart(ctx, testUser))

	state, err := svc.Get(ctx, testUser)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(AccountState{}, state))

	_, err = svc.Onboard(ctx, testUser, CharacterGirl)
	assert.NoError(t, err, "после сброса можно снова выбрать персонажа")
}

func TestService_RetriesPersistenceFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers", func(t *testing.T) {
		svc, store, _ := newTestService(DefaultOptions())
		store.failures = 2

		_, err := svc.Onboard(ctx, testUser, CharacterBoy)
		require.NoError(t, err)
		assert.True(t, store.states[testUser].OnboardingComplete)
		assert.Equal(t, 3, store.calls)
	})

	t.Run("gives up", func(t *testing.T) {
		svc, store, _ := newTestService(DefaultOptions())
		store.failures = 3

		_, err := svc.Onboard(ctx, testUser, CharacterBoy)
		assert.ErrorIs(t, err, common.ErrPersistence)
		assert.False(t, store.states[testUser].OnboardingComplete)
	})

	t.Run("engine errors are not retried", func(t *testing.T) {
		svc, store, _ := newTestService(DefaultOptions())
		_, err := svc.Complete(ctx, testUser, SlotFajr)
		assert.ErrorIs(t, err, common.ErrNotOnboarded)
		assert.Equal(t, 1, store.calls)
	})

	t.Run("uncertain commit is not retried", func(t *testing.T) {
		opts := DefaultOptions()
		opts.DailyGating = false
		svc, store, _ := newTestService(opts)
		_, err := svc.Onboard(ctx, testUser, CharacterBoy)
		require.NoError(t, err)
		store.calls = 0
		store.lost = 1

		_, err = svc.Complete(ctx, testUser, SlotFajr)
		assert.ErrorIs(t, err, common.ErrCommitUncertain)
		assert.ErrorIs(t, err, common.ErrPersistence)
		assert.Equal(t, 1, store.calls)
		assert.Equal(t, 1, store.states[testUser].Slots[SlotFajr].Count, "намаз засчитан один раз")
		assert.Contains(t, ErrorText(err), "Проверь !сад")
	})

	t.Run("context cancelled", func(t *testing.T) {
		svc, store, _ := newTestService(DefaultOptions())
		store.failures = 5
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Onboard(cctx, testUser, CharacterBoy)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestService_ConcurrentCompletionsAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(Options{DailyGating: false})
	_, err := svc.Onboard(ctx, testUser, CharacterBoy)
	require.NoError(t, err)

	const n = 60
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Complete(ctx, testUser, AllSlots[i%SlotCount])
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	state, err := svc.Get(ctx, testUser)
	require.NoError(t, err)
	for _, slot := range AllSlots {
		assert.Equal(t, n/SlotCount, state.Slots[slot].Count, slot.String())
	}
}

func TestService_InvalidSlotDoesNotTouchState(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(DefaultOptions())
	_, err := svc.Onboard(ctx, testUser, CharacterBoy)
	require.NoError(t, err)
	before := store.states[testUser]

	_, err = svc.Complete(ctx, testUser, Slot(9))
	assert.ErrorIs(t, err, common.ErrInvalidSlot)
	assert.Empty(t, cmp.Diff(before, store.states[testUser]))
}

func TestService_SendReminders(t *testing.T) {
	svc, store, _ := newTestService(DefaultOptions())
	store.targets = []ReminderTarget{
		{UserID: 1, Pending: []Slot{SlotAsr, SlotIsha}},
		{UserID: 2, Pending: []Slot{SlotFajr}},
	}

	sent := map[int64]string{}
	n, err := svc.SendReminders(context.Background(), func(userID int64, text string) {
		sent[userID] = text
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "2026-03-01", store.today)
	assert.Contains(t, sent[1], "Аср")
	assert.Contains(t, sent[1], "Иша")
	assert.Contains(t, sent[2], "Фаджр")
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(DefaultOptions())
	_, err := svc.Onboard(ctx, 1, CharacterBoy)
	require.NoError(t, err)
	_, err = svc.Onboard(ctx, 2, CharacterGirl)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Accounts)
	assert.Equal(t, int64(2), stats.Onboarded)
}
