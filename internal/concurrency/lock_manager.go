// Package concurrency содержит именованные блокировки для сериализации
// операций чтение → изменение → запись по одному пользователю.
package concurrency

import (
	"sync"
)

// LockManager выдаёт отдельный мьютекс на каждый ключ (user_id).
// Мьютексы не удаляются: пользователей немного, а удаление под нагрузкой
// даёт гонку между двумя владельцами одного ключа.
type LockManager struct {
	locks sync.Map
}

// NewLockManager создаёт пустой менеджер блокировок.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// GetLock возвращает мьютекс для ключа.
func (lm *LockManager) GetLock(key int64) *sync.Mutex {
	lock, _ := lm.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// WithLock выполняет fn, удерживая мьютекс ключа.
func (lm *LockManager) WithLock(key int64, fn func() error) error {
	mu := lm.GetLock(key)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}
