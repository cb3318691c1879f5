// Package keylock эксклюзивные блокировки по ключу внутри одного процесса.
package keylock

import (
	"context"
	"fmt"
	"sync"
)

type entry struct {
	ch   chan struct{}
	refs int
}

// Locker набор блокировок по ключу. Неиспользуемые ключи удаляются.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// New создает Locker.
func New() *Locker {
	return &Locker{locks: make(map[string]*entry)}
}

// Lock ждет блокировку key или отмену ctx и возвращает функцию снятия.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				l.release(key, e)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("keylock.Lock %s: %w", key, ctx.Err())
	}
}

func (l *Locker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// Len число ключей, по которым есть держатели или ожидающие.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
