// Package ring provides a fixed-capacity rolling window.
package ring

// Window keeps the most recent capacity items in insertion order.
// Pushing past capacity evicts the oldest item first (FIFO).
// Zero-Alloc after construction: the backing slice is allocated once.
type Window[T any] struct {
	items []T
	head  int // Next write position
	count int
}

// New creates a window holding at most capacity items.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{items: make([]T, capacity)}
}

// Push appends v, evicting the oldest item when full.
func (w *Window[T]) Push(v T) {
	w.items[w.head] = v
	w.head = (w.head + 1) % len(w.items)
	if w.count < len(w.items) {
		w.count++
	}
}

// Len returns the number of stored items.
func (w *Window[T]) Len() int { return w.count }

// First returns the oldest item.
func (w *Window[T]) First() (T, bool) {
	var zero T
	if w.count == 0 {
		return zero, false
	}
	return w.items[w.start()], true
}

// Last returns the most recent item.
func (w *Window[T]) Last() (T, bool) {
	var zero T
	if w.count == 0 {
		return zero, false
	}
	idx := w.head - 1
	if idx < 0 {
		idx = len(w.items) - 1
	}
	return w.items[idx], true
}

// Items returns a copy of the stored items, oldest first.
func (w *Window[T]) Items() []T {
	out := make([]T, 0, w.count)
	start := w.start()
	for i := 0; i < w.count; i++ {
		out = append(out, w.items[(start+i)%len(w.items)])
	}
	return out
}

// start is the index of the oldest item.
func (w *Window[T]) start() int {
	start := w.head - w.count
	if start < 0 {
		start += len(w.items)
	}
	return start
}
