package doclock

import (
	"sync"
	"testing"
	"time"
)

func TestLockAllSerializesOverlappingBatches(t *testing.T) {
	locks := New()

	unlock := locks.LockAll([]string{"FC-001-001-0000002", "FC-001-001-0000001"})

	acquired := make(chan struct{})
	go func() {
		second := locks.LockAll([]string{"FC-001-001-0000001"})
		close(acquired)
		second()
	}()

	select {
	case <-acquired:
		t.Fatal("overlapping batch acquired the lock while held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not released")
	}
}

func TestLockAllHandlesDuplicates(t *testing.T) {
	locks := New()

	// A repeated name must be locked once, not deadlock on itself.
	done := make(chan struct{})
	go func() {
		unlock := locks.LockAll([]string{"FC-001-001-0000001", "FC-001-001-0000001"})
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("LockAll deadlocked on duplicate names")
	}
}

func TestLockAllConcurrentDisjointSets(t *testing.T) {
	locks := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			names := []string{"A", "B", "C"}
			if n%2 == 0 {
				names = []string{"C", "B", "A"}
			}
			unlock := locks.LockAll(names)
			unlock()
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("opposite lock orders deadlocked")
	}
}
