package keylock

import (
	"sync"
	"testing"
	"time"
)

func TestLock_SerializesSameKey(t *testing.T) {
	tbl := New()
	const n = 100

	counter := 0
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			unlock := tbl.Lock("item-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	if counter != n {
		t.Fatalf("expected %d increments, got %d", n, counter)
	}
}

func TestLock_DifferentKeysDoNotBlock(t *testing.T) {
	tbl := New()

	unlockA := tbl.Lock("item-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := tbl.Lock("item-b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock on a different key blocked")
	}
}

func TestLock_ReleasedOnUnlock(t *testing.T) {
	tbl := New()

	unlock := tbl.Lock("thread-1")
	unlock()

	done := make(chan struct{})
	go func() {
		u := tbl.Lock("thread-1")
		u()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock was not released")
	}
}
