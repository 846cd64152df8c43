package tree

import (
	"github.com/pkg/errors"

	"github.com/tit-vcs/tit/internal/blob"
)

const snapshotVersion = 1

type slotRecord struct {
	_struct  bool `codec:",toarray"`
	Filled   bool
	Prev     int
	Next     int
	Value    Node
	Hash     uint64
	Parent   NodeID
	Children []NodeID
}

type treeRecord struct {
	_struct  bool `codec:",toarray"`
	Version  uint8
	Root     NodeID
	FreeHead int
	Hashing  bool
	Slots    []slotRecord
}

// MarshalBinary encodes the whole tree, slot layout and free list included, as a compressed blob.
func (t *HashTree) MarshalBinary() ([]byte, error) {
	rec := treeRecord{
		Version:  snapshotVersion,
		Root:     t.root,
		FreeHead: t.arena.freeHead,
		Hashing:  t.hashing,
		Slots:    make([]slotRecord, len(t.arena.slots)),
	}
	for i, s := range t.arena.slots {
		rec.Slots[i] = slotRecord{
			Filled:   s.filled,
			Prev:     s.prev,
			Next:     s.next,
			Value:    s.item.value,
			Hash:     s.item.hash,
			Parent:   s.item.parent,
			Children: s.item.children,
		}
	}
	return blob.Encode(&rec)
}

// UnmarshalBinary replaces t with the tree encoded in data. The decoded tree is checked for
// structural consistency and, when it was saved with hashing on, for correct hashes.
func (t *HashTree) UnmarshalBinary(data []byte) error {
	var rec treeRecord
	if err := blob.Decode(data, &rec); err != nil {
		return errors.Wrap(err, "tree snapshot")
	}
	if rec.Version != snapshotVersion {
		return errors.Errorf("tree snapshot: unsupported version %d", rec.Version)
	}

	n := len(rec.Slots)
	inRange := func(i int) bool { return i == none || (i >= 0 && i < n) }
	a := &Arena[entry]{freeHead: rec.FreeHead, slots: make([]slot[entry], n)}
	for i, s := range rec.Slots {
		if !s.Filled {
			if !inRange(s.Prev) || !inRange(s.Next) {
				return errors.Errorf("tree snapshot: slot %d has a broken free list link", i)
			}
			a.slots[i] = slot[entry]{prev: s.Prev, next: s.Next}
			continue
		}
		if !inRange(int(s.Parent)) {
			return errors.Errorf("tree snapshot: slot %d has an unknown parent", i)
		}
		for _, c := range s.Children {
			if c < 0 || int(c) >= n || !rec.Slots[c].Filled {
				return errors.Errorf("tree snapshot: slot %d has an unknown child %d", i, c)
			}
		}
		a.live++
		a.slots[i] = slot[entry]{
			filled: true,
			item:   entry{value: s.Value, hash: s.Hash, parent: s.Parent, children: s.Children},
			prev:   none,
			next:   none,
		}
	}
	if !inRange(rec.FreeHead) || (rec.FreeHead != none && rec.Slots[rec.FreeHead].Filled) {
		return errors.New("tree snapshot: broken free list head")
	}
	for i, steps := rec.FreeHead, 0; i != none; i, steps = a.slots[i].next, steps+1 {
		if a.slots[i].filled || steps > n {
			return errors.New("tree snapshot: broken free list")
		}
	}
	if rec.Root != NoNode && (!inRange(int(rec.Root)) || !rec.Slots[rec.Root].Filled) {
		return errors.New("tree snapshot: unknown root")
	}

	decoded := &HashTree{arena: a, root: rec.Root, hashing: rec.Hashing}
	if err := decoded.Verify(); err != nil {
		return errors.Wrap(err, "tree snapshot")
	}
	*t = *decoded
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(data []byte) (*HashTree, error) {
	t := New()
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return t, nil
}
