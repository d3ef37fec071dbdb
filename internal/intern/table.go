// Package intern provides append-only, content-addressed tables that hand out
// small dense handles for structurally equal values.
//
// Handle 0 is reserved in every table and never refers to a value, mirroring
// the NoTypeID/NoStringID convention of the type and string interners.
package intern

import (
	"iter"

	"fortio.org/safecast"
	"github.com/cockroachdb/errors"
)

// Table interns comparable values of type V behind handles of type K.
type Table[K ~uint32, V comparable] struct {
	name  string
	items []V
	index map[V]K
}

// NewTable creates an empty table. name is used in contract violation messages.
func NewTable[K ~uint32, V comparable](name string, capacity int) *Table[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	var zero V
	items := make([]V, 1, capacity+1)
	items[0] = zero // reserved slot for handle 0
	return &Table[K, V]{
		name:  name,
		items: items,
		index: make(map[V]K, capacity),
	}
}

// Intern returns the handle of v, allocating a new one on first sight.
func (t *Table[K, V]) Intern(v V) K {
	if id, ok := t.index[v]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.items))
	if err != nil {
		panic(errors.Wrapf(err, "intern: %s table overflow", t.name))
	}
	id := K(n)
	t.items = append(t.items, v)
	t.index[v] = id
	return id
}

// Find reports the handle of v without interning it.
func (t *Table[K, V]) Find(v V) (K, bool) {
	id, ok := t.index[v]
	return id, ok
}

// Has reports whether id was issued by this table.
func (t *Table[K, V]) Has(id K) bool {
	return id != 0 && int(id) < len(t.items)
}

// Lookup returns the value behind id.
func (t *Table[K, V]) Lookup(id K) (V, bool) {
	if !t.Has(id) {
		var zero V
		return zero, false
	}
	return t.items[id], true
}

// MustLookup returns the value behind id and panics when the table did not
// issue it. Resolving a foreign or zero handle is a caller bug.
func (t *Table[K, V]) MustLookup(id K) V {
	v, ok := t.Lookup(id)
	if !ok {
		panic(errors.AssertionFailedf("intern: %s handle %d was not issued by this table (len=%d)", t.name, id, len(t.items)-1))
	}
	return v
}

// Len returns the number of interned values, excluding the reserved slot.
func (t *Table[K, V]) Len() int {
	return len(t.items) - 1
}

// All iterates over every interned value in handle (insertion) order.
func (t *Table[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := 1; i < len(t.items); i++ {
			if !yield(K(uint32(i)), t.items[i]) { //nolint:gosec // bounded by Intern
				return
			}
		}
	}
}
