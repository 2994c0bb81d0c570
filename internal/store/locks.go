package store

import (
	"context"
	"sort"
	"sync"
)

// ListsScopeKey names the container holding every list.
const ListsScopeKey = "lists"

// SubHeadingsScopeKey names the sub-heading container of a list.
func SubHeadingsScopeKey(listID string) string { return "subheadings:" + listID }

// PhotosScopeKey names the photo container of a reminder.
func PhotosScopeKey(reminderID string) string { return "photos:" + reminderID }

// scopeLocks is a keyed mutex. Each key names an ordering container so that
// only one reorder runs per container while disjoint containers proceed in
// parallel.
type scopeLocks struct {
	mu sync.Mutex
	m  map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func newScopeLocks() *scopeLocks {
	return &scopeLocks{m: make(map[string]*keyLock)}
}

func (l *scopeLocks) acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	k, ok := l.m[key]
	if !ok {
		k = &keyLock{ch: make(chan struct{}, 1)}
		l.m[key] = k
	}
	k.refs++
	l.mu.Unlock()

	select {
	case k.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.release(key, false)
		return ctx.Err()
	}
}

func (l *scopeLocks) release(key string, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := l.m[key]
	if held {
		<-k.ch
	}
	k.refs--
	if k.refs == 0 {
		delete(l.m, key)
	}
}

// lock acquires every key in sorted order and returns a function releasing
// them. Duplicate keys are collapsed.
func (l *scopeLocks) lock(ctx context.Context, keys []string) (func(), error) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	held := make([]string, 0, len(uniq))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i], true)
		}
	}
	for _, k := range uniq {
		if err := l.acquire(ctx, k); err != nil {
			unlock()
			return nil, err
		}
		held = append(held, k)
	}
	return unlock, nil
}
