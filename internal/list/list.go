// Package list replaces the original C tool's intrusive doubly-linked
// list (embedded `lnode`/`llist` hooks in every AST/IR node) with a
// generic owning ordered container, per spec.md §9 ("Design Notes":
// "Replace with a generic owning ordered container and use explicit
// indices/ids for back-references. Do not re-implement intrusive
// lists."). Every AST node list, IR declaration list, and labeled/data
// block in this module is one of these.
package list

// List is an ordered, owned sequence of T. Appending is the only way to
// add an element — once appended, position is addressed by a stable
// integer index for the life of the List, matching the "each node is
// appended to its parent list once" lifecycle spec.md §3 describes.
type List[T any] struct {
	items []T
}

// New returns an empty List.
func New[T any]() *List[T] {
	return &List[T]{}
}

// Append adds v to the end of the list and returns its index.
func (l *List[T]) Append(v T) int {
	l.items = append(l.items, v)
	return len(l.items) - 1
}

// Len returns the number of elements.
func (l *List[T]) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *List[T]) At(i int) T { return l.items[i] }

// Set replaces the element at index i.
func (l *List[T]) Set(i int, v T) { l.items[i] = v }

// Slice returns the underlying elements in order. Callers must not retain
// a reference expecting further Appends to extend it in place.
func (l *List[T]) Slice() []T { return l.items }

// Empty reports whether the list has no elements.
func (l *List[T]) Empty() bool { return len(l.items) == 0 }

// First returns the first element and true, or the zero value and false.
func (l *List[T]) First() (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[0], true
}

// Last returns the last element and true, or the zero value and false.
func (l *List[T]) Last() (T, bool) {
	var zero T
	if len(l.items) == 0 {
		return zero, false
	}
	return l.items[len(l.items)-1], true
}
