package tree

// Tree is the read-only view Diff works on. HashTree implements it.
type Tree interface {
	Root() (NodeID, bool)
	Node(id NodeID) (Node, bool)
	Children(id NodeID) []NodeID
}

// Diff returns the changes that turn base into target, comparing children by position.
//
// For two nodes at the same path an Update is emitted when kind, role or value differ, and their
// children are compared pairwise. A base node without counterpart becomes a single Deletion for its
// whole subtree. A target node without counterpart becomes an Addition followed by nested
// Additions for all of its descendants. Changes come out in pre-order.
//
// When both trees are HashTrees with hashing enabled, positions whose subtree hashes agree are
// skipped without being walked.
func Diff(base, target Tree) []Change {
	var changes []Change
	same := subtreeHashes(base, target)

	type pair struct {
		a, b NodeID
		path Path
	}
	ra, ok := base.Root()
	if !ok {
		ra = NoNode
	}
	rb, ok := target.Root()
	if !ok {
		rb = NoNode
	}

	stack := []pair{{a: ra, b: rb, path: Path{}}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case p.a != NoNode && p.b != NoNode:
			if same != nil && same(p.a, p.b) {
				continue
			}
			na, _ := base.Node(p.a)
			nb, _ := target.Node(p.b)
			if !na.Equal(nb) {
				changes = append(changes, NewUpdate(p.path, nb))
			}
			ca, cb := base.Children(p.a), target.Children(p.b)
			n := len(ca)
			if len(cb) > n {
				n = len(cb)
			}
			for i := n - 1; i >= 0; i-- {
				stack = append(stack, pair{a: at(ca, i), b: at(cb, i), path: p.path.Child(i)})
			}

		case p.a != NoNode:
			changes = append(changes, NewDeletion(p.path))

		case p.b != NoNode:
			nb, _ := target.Node(p.b)
			changes = append(changes, NewAddition(p.path, nb))
			cb := target.Children(p.b)
			for i := len(cb) - 1; i >= 0; i-- {
				stack = append(stack, pair{a: NoNode, b: cb[i], path: p.path.Child(i)})
			}
		}
	}
	return changes
}

func at(ids []NodeID, i int) NodeID {
	if i < len(ids) {
		return ids[i]
	}
	return NoNode
}

// subtreeHashes returns a comparison of stored subtree hashes when both trees maintain them.
func subtreeHashes(base, target Tree) func(a, b NodeID) bool {
	ha, ok := base.(*HashTree)
	if !ok || !ha.Hashing() {
		return nil
	}
	hb, ok := target.(*HashTree)
	if !ok || !hb.Hashing() {
		return nil
	}
	return func(a, b NodeID) bool {
		x, _ := ha.Hash(a)
		y, _ := hb.Hash(b)
		return x == y
	}
}

// Equal reports whether two trees have the same shape and structurally equal nodes at every
// position. Node identities and slot layout are not compared.
func Equal(a, b Tree) bool {
	ra, okA := a.Root()
	rb, okB := b.Root()
	if okA != okB {
		return false
	}
	if !okA {
		return true
	}

	type pair struct{ a, b NodeID }
	stack := []pair{{ra, rb}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		na, _ := a.Node(p.a)
		nb, _ := b.Node(p.b)
		if !na.Equal(nb) {
			return false
		}
		ca, cb := a.Children(p.a), b.Children(p.b)
		if len(ca) != len(cb) {
			return false
		}
		for i := range ca {
			stack = append(stack, pair{ca[i], cb[i]})
		}
	}
	return true
}

// Lookup resolves p against any Tree.
func Lookup(t Tree, p Path) (NodeID, bool) {
	id, ok := t.Root()
	if !ok {
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
