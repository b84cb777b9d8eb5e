package runtime

import "sync"

// Local holds one value per goroutine.
type Local[T any] struct {
	m    sync.Map
	init func() T
}

func NewLocal[T any](init func() T) *Local[T] {
	return &Local[T]{init: init}
}

// Load returns the value of the calling goroutine, creating it with the
// init function on first use.
func (l *Local[T]) Load() T {
	key := GoroutineID()
	if value, ok := l.m.Load(key); ok {
		return value.(T)
	}

	var value T
	if l.init != nil {
		value = l.init()
		l.m.Store(key, value)
	}
	return value
}

func (l *Local[T]) Store(value T) {
	l.m.Store(GoroutineID(), value)
}

// Exists reports whether the calling goroutine has a value.
func (l *Local[T]) Exists() bool {
	_, ok := l.m.Load(GoroutineID())
	return ok
}

func (l *Local[T]) Remove() {
	l.m.Delete(GoroutineID())
}
