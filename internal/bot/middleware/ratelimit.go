package middleware

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/garden-bot/internal/metrics"
)

// cleanupInterval: как часто удаляются пользователи без свежих запросов.
const cleanupInterval = 5 * time.Minute

// RateLimiter ограничивает количество сообщений на пользователя
// скользящим окном: не больше limit за window.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewRateLimiter запускает лимитер вместе с фоновой очисткой.
// Close обязателен при остановке бота.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close останавливает очистку и дожидается её выхода.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	<-rl.done
}

// Allow отмечает запрос пользователя и сообщает, укладывается ли он в лимит.
func (rl *RateLimiter) Allow(userID int64) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	recent := rl.recent(rl.requests[userID], now.Add(-rl.window))

	if len(recent) >= rl.limit {
		rl.requests[userID] = recent
		metrics.RateLimited.Inc()
		log.WithField("user_id", userID).Debug("Превышен лимит сообщений")
		return false
	}

	rl.requests[userID] = append(recent, now)
	return true
}

// tracked: число пользователей в памяти лимитера.
func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.requests)
}

func (rl *RateLimiter) recent(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// cleanup выкидывает пользователей, у которых окно опустело.
func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.window)
	for userID, times := range rl.requests {
		recent := rl.recent(times, cutoff)
		if len(recent) == 0 {
			delete(rl.requests, userID)
		} else {
			rl.requests[userID] = recent
		}
	}
}

func (rl *RateLimiter) cleanupLoop() {
	defer close(rl.done)
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}
