package appstate

import (
	"maps"
	"slices"
	"sync"
)

// Readable is a value that can be observed.
type Readable[T any] interface {
	Get() T
	Subscribe(fn func(T)) (unsubscribe func())
}

// Store holds one value and notifies subscribers on every Set or Update.
// Subscribers are called synchronously, outside the store lock, so they may
// read or write other stores.
type Store[T any] struct {
	mu     sync.Mutex
	value  T
	subs   map[int]func(T)
	nextID int
}

func NewStore[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subs: map[int]func(T){}}
}

func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Store[T]) Set(value T) {
	s.mu.Lock()
	s.value = value
	subs := s.snapshot()
	s.mu.Unlock()
	for _, fn := range subs {
		fn(value)
	}
}

// Update applies fn to the current value under the lock.
func (s *Store[T]) Update(fn func(T) T) {
	s.mu.Lock()
	s.value = fn(s.value)
	value := s.value
	subs := s.snapshot()
	s.mu.Unlock()
	for _, sub := range subs {
		sub(value)
	}
}

// Subscribe calls fn with the current value right away and then on each change.
func (s *Store[T]) Subscribe(fn func(T)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	value := s.value
	s.mu.Unlock()

	fn(value)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store[T]) snapshot() []func(T) {
	subs := make([]func(T), 0, len(s.subs))
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		subs = append(subs, s.subs[id])
	}
	return subs
}

// Derived is a read-only store recomputed from a source on every change.
type Derived[S, T any] struct {
	store *Store[T]
	stop  func()
}

func NewDerived[S, T any](source Readable[S], fn func(S) T) *Derived[S, T] {
	d := &Derived[S, T]{store: NewStore(fn(source.Get()))}
	d.stop = source.Subscribe(func(value S) {
		d.store.Set(fn(value))
	})
	return d
}

func (d *Derived[S, T]) Get() T {
	return d.store.Get()
}

func (d *Derived[S, T]) Subscribe(fn func(T)) func() {
	return d.store.Subscribe(fn)
}

// Close detaches the derived store from its source.
func (d *Derived[S, T]) Close() {
	d.stop()
}
