package world

import "sort"

// Table is a typed ID → record map for one entity category.
// Accessed only from the tick goroutine, so no locks.
type Table[T any] struct {
	data map[uint32]*T
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{
		data: make(map[uint32]*T, 256),
	}
}

func (t *Table[T]) Set(id uint32, rec *T) {
	t.data[id] = rec
}

func (t *Table[T]) Get(id uint32) (*T, bool) {
	rec, ok := t.data[id]
	return rec, ok
}

// Remove deletes id and returns the removed record, if any.
func (t *Table[T]) Remove(id uint32) (*T, bool) {
	rec, ok := t.data[id]
	if ok {
		delete(t.data, id)
	}
	return rec, ok
}

func (t *Table[T]) Has(id uint32) bool {
	_, ok := t.data[id]
	return ok
}

func (t *Table[T]) Len() int {
	return len(t.data)
}

// IDs returns every ID in ascending order.
func (t *Table[T]) IDs() []uint32 {
	ids := make([]uint32, 0, len(t.data))
	for id := range t.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each visits records in ascending ID order, so anything derived from a
// walk (auto-target ties, selection order) is deterministic.
func (t *Table[T]) Each(fn func(uint32, *T)) {
	for _, id := range t.IDs() {
		fn(id, t.data[id])
	}
}

func (t *Table[T]) Clear() {
	clear(t.data)
}
