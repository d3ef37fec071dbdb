package intern

import (
	"encoding/binary"
	"iter"
	"slices"
)

// Lists interns ordered lists of handles. Order is significant: [a b] and
// [b a] get different handles. The empty list is a regular entry.
type Lists[K ~uint32, E ~uint32] struct {
	keys  *Table[K, string]
	lists [][]E
}

// NewLists creates an empty list table.
func NewLists[K ~uint32, E ~uint32](name string, capacity int) *Lists[K, E] {
	return &Lists[K, E]{
		keys:  NewTable[K, string](name, capacity),
		lists: make([][]E, 1, capacity+1),
	}
}

func listKey[E ~uint32](elems []E) string {
	buf := make([]byte, 0, 4*len(elems))
	for _, e := range elems {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e))
	}
	return string(buf)
}

// Intern returns the handle for elems. The slice is copied.
func (l *Lists[K, E]) Intern(elems []E) K {
	id := l.keys.Intern(listKey(elems))
	if int(id) == len(l.lists) {
		l.lists = append(l.lists, slices.Clone(elems))
	}
	return id
}

// Has reports whether id was issued by this table.
func (l *Lists[K, E]) Has(id K) bool {
	return l.keys.Has(id)
}

// Lookup returns a copy of the list behind id.
func (l *Lists[K, E]) Lookup(id K) ([]E, bool) {
	if !l.keys.Has(id) {
		return nil, false
	}
	return slices.Clone(l.lists[id]), true
}

// MustLookup returns a copy of the list behind id, panicking on a foreign handle.
func (l *Lists[K, E]) MustLookup(id K) []E {
	l.keys.MustLookup(id)
	return slices.Clone(l.lists[id])
}

// Len returns the number of interned lists.
func (l *Lists[K, E]) Len() int {
	return l.keys.Len()
}

// All iterates over every list in handle order. Yielded slices must not be modified.
func (l *Lists[K, E]) All() iter.Seq2[K, []E] {
	return func(yield func(K, []E) bool) {
		for id := range l.keys.All() {
			if !yield(id, l.lists[id]) {
				return
			}
		}
	}
}
