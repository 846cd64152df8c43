package tree

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// NodeID is a node's stable identity inside one HashTree: its arena slot index.
type NodeID int

// NoNode is the NodeID of nothing: the root's parent, an empty tree's root.
const NoNode NodeID = -1

type entry struct {
	value    Node
	hash     uint64
	parent   NodeID
	children []NodeID
}

// HashTree is an arena backed tree whose nodes carry a 64-bit content hash computed from their
// own value and the hashes of their children in order. With hashing enabled every mutating method
// leaves all hashes up to date before returning. Bulk builders can switch hashing off and switch it
// back on afterwards, which recomputes everything once.
//
// A HashTree is not safe for concurrent use.
type HashTree struct {
	arena   *Arena[entry]
	root    NodeID
	hashing bool
}

// New returns an empty tree with hashing enabled.
func New() *HashTree {
	return &HashTree{arena: NewArena[entry](), root: NoNode, hashing: true}
}

func (t *HashTree) entry(id NodeID) (*entry, bool) {
	return t.arena.Get(int(id))
}

// Root returns the root node, if the tree has one.
func (t *HashTree) Root() (NodeID, bool) {
	return t.root, t.root != NoNode
}

// Node returns the value stored at id.
func (t *HashTree) Node(id NodeID) (Node, bool) {
	e, ok := t.entry(id)
	if !ok {
		return Node{}, false
	}
	return e.value, true
}

// Hash returns the stored hash of id. It is zero for nodes created while hashing was off.
func (t *HashTree) Hash(id NodeID) (uint64, bool) {
	e, ok := t.entry(id)
	if !ok {
		return 0, false
	}
	return e.hash, true
}

// RootHash returns the root's hash, or zero for an empty tree.
func (t *HashTree) RootHash() uint64 {
	h, _ := t.Hash(t.root)
	return h
}

// Parent returns the parent of id. The second result is false for roots and unknown nodes.
func (t *HashTree) Parent(id NodeID) (NodeID, bool) {
	e, ok := t.entry(id)
	if !ok || e.parent == NoNode {
		return NoNode, false
	}
	return e.parent, true
}

// Children returns the children of id in order. The slice belongs to the tree and must not be
// modified.
func (t *HashTree) Children(id NodeID) []NodeID {
	e, ok := t.entry(id)
	if !ok {
		return nil
	}
	return e.children
}

// Contains reports whether id is a live node.
func (t *HashTree) Contains(id NodeID) bool {
	return t.arena.Filled(int(id))
}

// Len returns the number of live nodes, including orphans left behind by InsertRoot.
func (t *HashTree) Len() int {
	return t.arena.Len()
}

// Hashing reports whether hashes are maintained on every mutation.
func (t *HashTree) Hashing() bool {
	return t.hashing
}

// SetHashing switches incremental hashing. Switching it back on recomputes every hash before
// returning.
func (t *HashTree) SetHashing(on bool) {
	if on && !t.hashing {
		t.hashing = true
		t.RefreshHashes()
		return
	}
	t.hashing = on
}

func (t *HashTree) computeHash(e *entry) uint64 {
	d := xxhash.New()
	e.value.writeTo(d)
	var buf [8]byte
	for _, c := range e.children {
		ce, _ := t.entry(c)
		binary.LittleEndian.PutUint64(buf[:], ce.hash)
		d.Write(buf[:])
	}
	return d.Sum64()
}

// propagate recomputes the hash of id and of every ancestor up to the root.
func (t *HashTree) propagate(id NodeID) {
	if !t.hashing {
		return
	}
	for id != NoNode {
		e, _ := t.entry(id)
		e.hash = t.computeHash(e)
		id = e.parent
	}
}

// InsertRoot makes a new root holding v. Any previous root and its subtree are left in the arena
// as unreachable orphans; callers wanting them gone must Remove them first.
func (t *HashTree) InsertRoot(v Node) NodeID {
	id := NodeID(t.arena.Insert(entry{value: v, parent: NoNode}))
	t.root = id
	t.propagate(id)
	return id
}

// Insert appends a new child holding v to parent.
func (t *HashTree) Insert(parent NodeID, v Node) (NodeID, error) {
	if !t.Contains(parent) {
		return NoNode, opError("insert", parent, ErrParentNotFound)
	}
	id := NodeID(t.arena.Insert(entry{value: v, parent: parent}))

	// The insert may have grown the arena, so look the parent up again
	p, _ := t.entry(parent)
	p.children = append(p.children, id)
	t.propagate(id)
	return id, nil
}

// SetValue replaces the value at id.
func (t *HashTree) SetValue(id NodeID, v Node) error {
	e, ok := t.entry(id)
	if !ok {
		return opError("set value", id, ErrNodeNotFound)
	}
	e.value = v
	t.propagate(id)
	return nil
}

// Move detaches id from its parent and appends it to newParent's children. Roots cannot be
// moved, and neither can a node be moved below itself.
func (t *HashTree) Move(id, newParent NodeID) error {
	e, ok := t.entry(id)
	if !ok {
		return opError("move", id, ErrNodeNotFound)
	}
	if !t.Contains(newParent) {
		return opError("move", newParent, ErrParentNotFound)
	}
	if e.parent == NoNode {
		return opError("move", id, ErrIsRoot)
	}
	for a := newParent; a != NoNode; {
		if a == id {
			return opError("move", id, ErrCycle)
		}
		ae, _ := t.entry(a)
		a = ae.parent
	}

	oldParent := e.parent
	op, _ := t.entry(oldParent)
	op.children = removeID(op.children, id)
	np, _ := t.entry(newParent)
	np.children = append(np.children, id)
	e.parent = newParent

	t.propagate(oldParent)
	t.propagate(newParent)
	return nil
}

// Remove deletes the subtree rooted at id and returns the value id held. Removing the root leaves
// the tree empty.
func (t *HashTree) Remove(id NodeID) (Node, error) {
	e, ok := t.entry(id)
	if !ok {
		return Node{}, opError("remove", id, ErrNodeNotFound)
	}
	value := e.value
	parent := e.parent

	if parent != NoNode {
		p, _ := t.entry(parent)
		p.children = removeID(p.children, id)
	} else if id == t.root {
		t.root = NoNode
	}

	// Freeing in reverse pre-order releases every node after all of its descendants
	order := t.preorder(id)
	for i := len(order) - 1; i >= 0; i-- {
		if _, err := t.arena.Free(int(order[i])); err != nil {
			return Node{}, opError("remove", order[i], err)
		}
	}

	t.propagate(parent)
	return value, nil
}

// preorder lists the subtree rooted at id, parents before children, children in order.
func (t *HashTree) preorder(id NodeID) []NodeID {
	var out []NodeID
	stack := []NodeID{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		children := t.Children(n)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// RefreshHashes recomputes every hash reachable from the root, bottom up. It does nothing while
// hashing is disabled.
func (t *HashTree) RefreshHashes() {
	if !t.hashing || t.root == NoNode {
		return
	}
	type frame struct {
		id      NodeID
		visited bool
	}
	stack := []frame{{id: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e, _ := t.entry(f.id)
		if f.visited {
			e.hash = t.computeHash(e)
			continue
		}
		stack = append(stack, frame{id: f.id, visited: true})
		for _, c := range e.children {
			stack = append(stack, frame{id: c})
		}
	}
}

// Verify checks the structure reachable from the root: children are live and point back at their
// parent, and with hashing on every stored hash matches a fresh computation from the node's value
// and its children's stored hashes.
func (t *HashTree) Verify() error {
	if t.root == NoNode {
		return nil
	}
	if re, ok := t.entry(t.root); !ok {
		return opError("verify", t.root, ErrNodeNotFound)
	} else if re.parent != NoNode {
		return opError("verify", t.root, ErrCycle)
	}

	seen := make(map[NodeID]bool)
	stack := []NodeID{t.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return opError("verify", id, ErrCycle)
		}
		seen[id] = true

		e, _ := t.entry(id)
		for _, c := range e.children {
			ce, ok := t.entry(c)
			if !ok {
				return opError("verify", c, ErrNodeNotFound)
			}
			if ce.parent != id {
				return opError("verify", c, ErrParentNotFound)
			}
			stack = append(stack, c)
		}
		if t.hashing && e.hash != t.computeHash(e) {
			return opError("verify", id, ErrHashMismatch)
		}
	}
	return nil
}

// Lookup resolves a path against the tree.
func (t *HashTree) Lookup(p Path) (NodeID, bool) {
	id := t.root
	if id == NoNode {
		return NoNode, false
	}
	for _, i := range p {
		children := t.Children(id)
		if i < 0 || i >= len(children) {
			return NoNode, false
		}
		id = children[i]
	}
	return id, true
}

// PathOf returns the path leading from the root to id.
func (t *HashTree) PathOf(id NodeID) (Path, bool) {
	if !t.Contains(id) {
		return nil, false
	}
	var rev []int
	for {
		e, _ := t.entry(id)
		if e.parent == NoNode {
			break
		}
		rev = append(rev, indexOf(t.Children(e.parent), id))
		id = e.parent
	}
	if id != t.root {
		// Orphaned subtree
		return nil, false
	}
	p := make(Path, len(rev))
	for i := range rev {
		p[i] = rev[len(rev)-1-i]
	}
	return p, true
}

// Walk visits every node reachable from the root in pre-order.
func (t *HashTree) Walk(visit func(id NodeID, depth int)) {
	if t.root == NoNode {
		return
	}
	type frame struct {
		id    NodeID
		depth int
	}
	stack := []frame{{id: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(f.id, f.depth)
		children := t.Children(f.id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{id: children[i], depth: f.depth + 1})
		}
	}
}

// Clone returns a deep copy with identical slot layout.
func (t *HashTree) Clone() *HashTree {
	c := &HashTree{arena: NewArena[entry](), root: t.root, hashing: t.hashing}
	c.arena.freeHead = t.arena.freeHead
	c.arena.live = t.arena.live
	c.arena.slots = make([]slot[entry], len(t.arena.slots))
	for i, s := range t.arena.slots {
		if s.filled {
			s.item.children = append([]NodeID(nil), s.item.children...)
		}
		c.arena.slots[i] = s
	}
	return c
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	i := indexOf(ids, id)
	if i < 0 {
		return ids
	}
	return append(ids[:i], ids[i+1:]...)
}

func indexOf(ids []NodeID, id NodeID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
