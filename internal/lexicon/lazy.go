package lexicon

import (
	"sync"
	"sync/atomic"
)

// Lazy holds a value that is loaded on first use and never invalidated.
// Get is safe for concurrent use; the loader runs at most once.
type Lazy[T any] struct {
	once   sync.Once
	load   func() (T, error)
	loaded atomic.Bool
	value  T
	err    error
}

// NewLazy wraps load so that it runs on the first call to Get.
func NewLazy[T any](load func() (T, error)) *Lazy[T] {
	return &Lazy[T]{load: load}
}

// Get returns the loaded value, loading it first if needed. A failed load is
// remembered and its error returned to every caller.
func (l *Lazy[T]) Get() (T, error) {
	l.once.Do(func() {
		l.value, l.err = l.load()
		l.loaded.Store(true)
	})
	return l.value, l.err
}

// Loaded reports whether the loader has already run.
func (l *Lazy[T]) Loaded() bool {
	return l.loaded.Load()
}
