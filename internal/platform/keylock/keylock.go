// Package keylock serializes mutations per entity identifier. Aggregate
// updates for one rated item (and counter updates for one forum thread)
// must be linearized while unrelated entities proceed in parallel.
package keylock

import "sync"

// Table holds one mutex per key, created on first use.
// Entries are never evicted; the key space (items, threads) is bounded
// by catalog size, not by request volume.
type Table struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Table {
	return &Table{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
// Callers must defer the returned func so the critical section is
// released on every exit path.
func (t *Table) Lock(key string) func() {
	t.mu.Lock()
	m, ok := t.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.locks[key] = m
	}
	t.mu.Unlock()

	m.Lock()
	return m.Unlock
}
