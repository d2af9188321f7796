package store

import (
	"sync"

	"github.com/hupe1980/chatflow/core"
)

// Store holds the ordered message sequence for one conversation. It is safe
// for concurrent access.
//
// Contract:
//   - Messages returns a defensive copy of the most recently committed
//     sequence; immediately after Set/Update return, Messages reflects the
//     new value even if subscribers have not been notified yet
//   - Set/Update commit atomically under one write lock; the Update function
//     receives a copy of the previous sequence and must be pure
//   - Subscribers are notified after commit, outside the lock, in
//     subscription order, with the committed snapshot.
type Store struct {
	mu       sync.RWMutex
	messages []core.Message
	subs     []subscription
	nextSub  int
}

type subscription struct {
	id int
	fn func([]core.Message)
}

// New constructs a store seeded with the given messages. The seed slice is
// copied; callers may reuse it afterwards.
func New(seed []core.Message) *Store {
	s := &Store{messages: make([]core.Message, len(seed))}
	copy(s.messages, seed)
	return s
}

// Messages returns a copy of the current sequence.
func (s *Store) Messages() []core.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the current number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Set replaces the whole sequence and notifies subscribers.
func (s *Store) Set(messages []core.Message) {
	s.Update(func([]core.Message) []core.Message { return messages })
}

// Update applies fn to the current sequence and commits the result
// atomically, then notifies subscribers with the committed snapshot. fn is
// called with a copy of the previous sequence, so interleaved updates from
// multiple in-flight requests compose by ordinary function composition.
func (s *Store) Update(fn func(prev []core.Message) []core.Message) {
	s.mu.Lock()
	prev := make([]core.Message, len(s.messages))
	copy(prev, s.messages)
	next := fn(prev)
	committed := make([]core.Message, len(next))
	copy(committed, next)
	s.messages = committed
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	// Notification happens after the commit is visible to Messages, so a
	// subscriber re-reading the store observes its own trigger.
	snapshot := make([]core.Message, len(committed))
	copy(snapshot, committed)
	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// Subscribe registers fn to run after every commit with the new sequence.
// The returned cancel function removes the subscription; it is idempotent.
func (s *Store) Subscribe(fn func(messages []core.Message)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}
