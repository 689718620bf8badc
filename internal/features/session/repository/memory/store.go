package memory

import (
	"context"
	"sync"
	"time"
)

type entry[T any] struct {
	value    T
	lastSeen time.Time
	holds    int
}

// Store is an in-process session map. Entries not read within ttl are
// evicted by Run unless somebody holds them.
type Store[T any] struct {
	mu      sync.Mutex
	items   map[string]*entry[T]
	ttl     time.Duration
	now     func() time.Time
	onEvict func(id string, v T)
	onSize  func(n int)
}

type Option[T any] func(*Store[T])

// WithEvict runs fn for every entry dropped by expiry.
func WithEvict[T any](fn func(id string, v T)) Option[T] {
	return func(s *Store[T]) { s.onEvict = fn }
}

// WithSizeObserver reports the entry count after each change.
func WithSizeObserver[T any](fn func(n int)) Option[T] {
	return func(s *Store[T]) { s.onSize = fn }
}

// WithClock replaces time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) { s.now = now }
}

func NewStore[T any](ttl time.Duration, opts ...Option[T]) *Store[T] {
	s := &Store[T]{
		items: make(map[string]*entry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store[T]) Put(id string, v T) {
	s.mu.Lock()
	s.items[id] = &entry[T]{value: v, lastSeen: s.now()}
	n := len(s.items)
	s.mu.Unlock()
	s.reportSize(n)
}

// Get returns the value and refreshes its expiry.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	e.lastSeen = s.now()
	return e.value, true
}

// Hold pins the entry against expiry until release is called. Releasing
// counts as an access.
func (s *Store[T]) Hold(id string) (T, func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if !ok {
		var zero T
		return zero, func() {}, false
	}
	e.holds++
	e.lastSeen = s.now()

	var once sync.Once
	release := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			e.holds--
			e.lastSeen = s.now()
		})
	}
	return e.value, release, true
}

func (s *Store[T]) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	n := len(s.items)
	s.mu.Unlock()
	s.reportSize(n)
}

func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store[T]) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	expired := make(map[string]T)
	for id, e := range s.items {
		if e.holds == 0 && e.lastSeen.Before(cutoff) {
			expired[id] = e.value
			delete(s.items, id)
		}
	}
	n := len(s.items)
	s.mu.Unlock()

	if s.onEvict != nil {
		for id, v := range expired {
			s.onEvict(id, v)
		}
	}
	if len(expired) > 0 {
		s.reportSize(n)
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (s *Store[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store[T]) reportSize(n int) {
	if s.onSize != nil {
		s.onSize(n)
	}
}
