package iterable

import "io"

// Iterator returns one item from a collection with every call to Next().
// The error is io.EOF when the iterator is exhausted.
type Iterator[T any] interface {
	Next() (T, error)
}

type iterator[T any] struct {
	next func() (T, error)
}

func (it *iterator[T]) Next() (T, error) {
	return it.next()
}

func NewIterator[T any](next func() (T, error)) Iterator[T] {
	return &iterator[T]{next}
}

// Collect drains an iterator into a slice.
func Collect[T any](it Iterator[T]) ([]T, error) {
	var items []T
	for {
		item, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Iterator2 returns a pair of values with every call to Next().
// The error is io.EOF when the iterator is exhausted.
type Iterator2[K any, V any] interface {
	Next() (K, V, error)
}

type iterator2[K any, V any] struct {
	next func() (K, V, error)
}

func (it *iterator2[K, V]) Next() (K, V, error) {
	return it.next()
}

func NewIterator2[K any, V any](next func() (K, V, error)) Iterator2[K, V] {
	return &iterator2[K, V]{next}
}

type mapEntry[K comparable, V any] struct {
	k K
	v V
}

// FromMap iterates the entries of a map in unspecified order.
func FromMap[Map ~map[K]V, K comparable, V any](m Map) Iterator2[K, V] {
	entries := make([]mapEntry[K, V], 0, len(m))
	for k, v := range m {
		entries = append(entries, mapEntry[K, V]{k, v})
	}
	i := 0
	return NewIterator2(func() (K, V, error) {
		if i < len(entries) {
			e := entries[i]
			i++
			return e.k, e.v, nil
		}
		var k K
		var v V
		return k, v, io.EOF
	})
}

// CollectMap drains a pair iterator into a map.
func CollectMap[K comparable, V any](it Iterator2[K, V]) (map[K]V, error) {
	m := map[K]V{}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}
