// Package observable holds a value and fans every change out to subscribers.
//
// Notifications are synchronous and delivered in registration order. An
// Update does not return until every subscriber has seen the new value, and
// concurrent updates are delivered one at a time in the order they were
// applied. A callback must not call Update or Subscribe on the store that is
// notifying it; doing so deadlocks. Unsubscribing from a callback is allowed.
package observable

import "sync"

type subscription[T any] struct {
	id uint64
	fn func(T)
}

type Store[T any] struct {
	dispatch sync.Mutex // serializes mutate-then-notify

	mu     sync.Mutex
	value  T
	subs   []subscription[T]
	nextID uint64
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial}
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function removes the subscription and is safe to call twice.
func (s *Store[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	// copy on write; a dispatch in progress keeps its own snapshot
	subs := make([]subscription[T], len(s.subs), len(s.subs)+1)
	copy(subs, s.subs)
	s.subs = append(subs, subscription[T]{id: id, fn: fn})
	current := s.value
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *Store[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]subscription[T], 0, len(s.subs))
	for _, sub := range s.subs {
		if sub.id != id {
			subs = append(subs, sub)
		}
	}
	s.subs = subs
}

// Update applies fn to the current value and notifies subscribers with the result.
func (s *Store[T]) Update(fn func(T) T) T {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	next, subs := s.apply(fn)
	for _, sub := range subs {
		sub.fn(next)
	}
	return next
}

// UpdateIf is Update that skips notification when fn reports no change.
func (s *Store[T]) UpdateIf(fn func(T) (T, bool)) bool {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	var changed bool
	next, subs := s.apply(func(v T) T {
		var n T
		n, changed = fn(v)
		if !changed {
			return v
		}
		return n
	})
	if !changed {
		return false
	}
	for _, sub := range subs {
		sub.fn(next)
	}
	return true
}

// Set replaces the value and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

func (s *Store[T]) apply(fn func(T) T) (T, []subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	return s.value, s.subs
}

// Len reports the number of live subscriptions.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
