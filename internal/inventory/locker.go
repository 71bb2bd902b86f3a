package inventory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Key identifies one ledger record.
type Key struct {
	StoreID uuid.UUID
	ItemID  uuid.UUID
}

func (k Key) less(other Key) bool {
	if c := bytes.Compare(k.StoreID[:], other.StoreID[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(k.ItemID[:], other.ItemID[:]) < 0
}

// KeyLocker serializes work per Key. Waiters are granted the lock in arrival
// order and may give up through their context.
type KeyLocker struct {
	mu      sync.Mutex
	entries map[Key]*lockEntry
}

type lockEntry struct {
	held    bool
	waiters []chan struct{}
	refs    int
}

func NewKeyLocker() *KeyLocker {
	return &KeyLocker{entries: make(map[Key]*lockEntry)}
}

// Lock blocks until key is owned or ctx is done. The returned func releases it
// and must be called exactly once.
func (l *KeyLocker) Lock(ctx context.Context, key Key) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	if !entry.held && len(entry.waiters) == 0 {
		entry.held = true
		l.mu.Unlock()
		return l.releaser(key), nil
	}
	ready := make(chan struct{})
	entry.waiters = append(entry.waiters, ready)
	l.mu.Unlock()

	select {
	case <-ready:
		return l.releaser(key), nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, waiter := range entry.waiters {
			if waiter == ready {
				entry.waiters = append(entry.waiters[:i], entry.waiters[i+1:]...)
				entry.refs--
				if entry.refs == 0 {
					delete(l.entries, key)
				}
				l.mu.Unlock()
				return nil, ctx.Err()
			}
		}
		l.mu.Unlock()
		// handed over while we were giving up; pass it on.
		l.release(key)
		return nil, ctx.Err()
	}
}

// LockKeys locks every distinct key in a fixed global order so callers that
// need several records cannot deadlock each other.
func (l *KeyLocker) LockKeys(ctx context.Context, keys ...Key) (func(), error) {
	ordered := uniqueSorted(keys)
	releases := make([]func(), 0, len(ordered))
	unlockAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, key := range ordered {
		release, err := l.Lock(ctx, key)
		if err != nil {
			unlockAll()
			return nil, err
		}
		releases = append(releases, release)
	}
	return unlockAll, nil
}

func (l *KeyLocker) releaser(key Key) func() {
	var once sync.Once
	return func() {
		once.Do(func() { l.release(key) })
	}
}

func (l *KeyLocker) release(key Key) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[key]
	if !ok {
		return
	}
	entry.refs--
	if len(entry.waiters) > 0 {
		next := entry.waiters[0]
		entry.waiters = entry.waiters[1:]
		close(next)
	} else {
		entry.held = false
	}
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *KeyLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func uniqueSorted(keys []Key) []Key {
	seen := make(map[Key]struct{}, len(keys))
	out := make([]Key, 0, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}
