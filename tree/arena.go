package tree

const none = -1

type slot[T any] struct {
	filled bool
	item   T

	// Free list neighbours, only meaningful while the slot is empty
	prev, next int
}

// Arena is an index addressed store with slot reuse. An index returned by Insert stays valid until
// it is handed to Free, and freed slots are reused lowest index first. The free list is doubly
// linked through the empty slots themselves and kept in index order.
//
// An Arena is not safe for concurrent use.
type Arena[T any] struct {
	slots    []slot[T]
	freeHead int
	live     int
}

// NewArena returns an empty arena.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{freeHead: none}
}

// Insert stores item in the lowest free slot, or a new one at the end, and returns its index.
func (a *Arena[T]) Insert(item T) int {
	a.live++
	if a.freeHead == none {
		a.slots = append(a.slots, slot[T]{filled: true, item: item, prev: none, next: none})
		return len(a.slots) - 1
	}

	i := a.freeHead
	next := a.slots[i].next
	a.freeHead = next
	if next != none {
		a.slots[next].prev = none
	}
	a.slots[i] = slot[T]{filled: true, item: item, prev: none, next: none}
	return i
}

// Free empties slot i and returns what it held. Freeing an empty or out of range slot fails with
// ErrSlotEmpty and changes nothing.
func (a *Arena[T]) Free(i int) (T, error) {
	if !a.Filled(i) {
		var zero T
		return zero, ErrSlotEmpty
	}
	item := a.slots[i].item

	// Find the neighbours that keep the free list ordered by index
	prev, next := none, a.freeHead
	for next != none && next < i {
		prev = next
		next = a.slots[next].next
	}
	a.slots[i] = slot[T]{prev: prev, next: next}
	if prev == none {
		a.freeHead = i
	} else {
		a.slots[prev].next = i
	}
	if next != none {
		a.slots[next].prev = i
	}
	a.live--
	return item, nil
}

// Get returns a pointer to the item in slot i. The pointer is only valid until the next Insert.
func (a *Arena[T]) Get(i int) (*T, bool) {
	if !a.Filled(i) {
		return nil, false
	}
	return &a.slots[i].item, true
}

// Filled reports whether slot i holds an item.
func (a *Arena[T]) Filled(i int) bool {
	return i >= 0 && i < len(a.slots) && a.slots[i].filled
}

// Len returns the number of live items.
func (a *Arena[T]) Len() int { return a.live }

// Cap returns the number of slots, live or free.
func (a *Arena[T]) Cap() int { return len(a.slots) }

// FreeHead returns the slot the next Insert will reuse, if any.
func (a *Arena[T]) FreeHead() (int, bool) {
	return a.freeHead, a.freeHead != none
}

// FreeList returns the free slot indices in list order.
func (a *Arena[T]) FreeList() []int {
	var l []int
	for i := a.freeHead; i != none; i = a.slots[i].next {
		l = append(l, i)
	}
	return l
}
