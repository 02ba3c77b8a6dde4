// Package doclock provides an in-process keyed mutex over document names.
// The submitter and the status poller share one Set, so a submission and a
// poll tick never run their read-classify-write cycle over the same
// document at the same time. Cross-process writers are serialized by the
// store's advisory lock.
package doclock

import (
	"sort"
	"sync"
)

// Set hands out one mutex per document name on demand.
type Set struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func New() *Set {
	return &Set{locks: make(map[string]*sync.Mutex)}
}

func (s *Set) get(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	return m
}

// LockAll acquires the locks for every name in sorted order, skipping
// duplicates, and returns the release function. The fixed order keeps
// overlapping batches from deadlocking against each other.
func (s *Set) LockAll(names []string) func() {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	held := make([]*sync.Mutex, 0, len(sorted))
	seen := make(map[string]struct{}, len(sorted))
	for _, name := range sorted {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		m := s.get(name)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
