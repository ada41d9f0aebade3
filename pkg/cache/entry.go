package cache

import (
	"reflect"
)

// Entry wraps a cached value so that stores which cannot hold nil can still
// represent a cached absent result.
type Entry[T any] struct {
	// Value is the cached value, possibly nil.
	Value T `msgpack:"v" json:"v"`
}

// NewEntry wraps value in an Entry.
func NewEntry[T any](value T) Entry[T] {
	return Entry[T]{Value: value}
}

// Equal reports whether both entries wrap equal values.
func (e Entry[T]) Equal(other Entry[T]) bool {
	return reflect.DeepEqual(e.Value, other.Value)
}
