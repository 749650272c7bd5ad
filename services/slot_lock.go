package services

import (
	"context"
	"sync"
)

// SlotLocker serializes mutations of one booking slot. Acquire blocks until
// the slot is free or ctx is done; the returned func releases it.
type SlotLocker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// LocalSlotLocker guards slots within a single process. A slot's entry lives
// only while someone holds or waits for it.
type LocalSlotLocker struct {
	mu    sync.Mutex
	slots map[string]*slotEntry
}

type slotEntry struct {
	sem  chan struct{}
	refs int
}

func NewLocalSlotLocker() *LocalSlotLocker {
	return &LocalSlotLocker{slots: make(map[string]*slotEntry)}
}

func (l *LocalSlotLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.slots[key]
	if !ok {
		entry = &slotEntry{sem: make(chan struct{}, 1)}
		l.slots[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.sem
				l.forget(key, entry)
			})
		}, nil
	case <-ctx.Done():
		l.forget(key, entry)
		return nil, ctx.Err()
	}
}

func (l *LocalSlotLocker) forget(key string, entry *slotEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.slots, key)
	}
}
