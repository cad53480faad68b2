package history

// DropoutStack is a bounded LIFO. Pushing onto a full stack silently drops
// the oldest element.
type DropoutStack[T any] struct {
	items []T
	top   int
	size  int
}

// NewDropoutStack returns a stack holding at most capacity elements. A
// capacity below one is raised to one.
func NewDropoutStack[T any](capacity int) *DropoutStack[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &DropoutStack[T]{items: make([]T, capacity)}
}

// Push adds v on top, evicting the bottom element when full.
func (s *DropoutStack[T]) Push(v T) {
	s.items[s.top] = v
	s.top = (s.top + 1) % len(s.items)
	if s.size < len(s.items) {
		s.size++
	}
}

// Pop removes and returns the top element.
func (s *DropoutStack[T]) Pop() (T, bool) {
	var zero T
	if s.size == 0 {
		return zero, false
	}
	s.top = (s.top - 1 + len(s.items)) % len(s.items)
	v := s.items[s.top]
	s.items[s.top] = zero
	s.size--
	return v, true
}

// Peek returns the top element without removing it.
func (s *DropoutStack[T]) Peek() (T, bool) {
	if s.size == 0 {
		var zero T
		return zero, false
	}
	return s.items[(s.top-1+len(s.items))%len(s.items)], true
}

// Len returns the number of stored elements.
func (s *DropoutStack[T]) Len() int { return s.size }

// Cap returns the maximum number of stored elements.
func (s *DropoutStack[T]) Cap() int { return len(s.items) }

// Clear drops every element.
func (s *DropoutStack[T]) Clear() {
	clear(s.items)
	s.top, s.size = 0, 0
}
