package concurrency

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockManager_SameKeySameMutex(t *testing.T) {
	lm := NewLockManager()

	assert.Same(t, lm.GetLock(42), lm.GetLock(42))
	assert.NotSame(t, lm.GetLock(42), lm.GetLock(43))
}

func TestLockManager_WithLockSerializes(t *testing.T) {
	lm := NewLockManager()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = lm.WithLock(7, func() error {
				// чтение → изменение → запись без атомиков: гонка видна под -race
				v := counter
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}
