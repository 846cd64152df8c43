package tree

import "sort"

// PatchOption configures Patch.
type PatchOption func(*patchConfig)

type patchConfig struct {
	baseHash *uint64
}

// WithBaseHash makes Patch refuse, with ErrBaseMismatch, to touch a tree whose root hash is not h.
// Passing the root hash of the tree a changeset was computed against catches changesets applied to
// the wrong base, which path checks alone cannot always tell.
func WithBaseHash(h uint64) PatchOption {
	return func(c *patchConfig) {
		c.baseHash = &h
	}
}

type opKind uint8

const (
	opUpdate opKind = iota
	opDelete
	opAdd
)

// ref names a node during a patch: an existing node, or the node created by pending op number op.
type ref struct {
	id NodeID
	op int
}

var rootRef = ref{id: NoNode, op: -1}

func existing(id NodeID) ref { return ref{id: id, op: -1} }

type pendingOp struct {
	kind   opKind
	target ref
	node   Node
}

type patcher struct {
	t   *HashTree
	ops []pendingOp
}

// Patch applies changes, as produced by Diff against a tree equal to t, to t in place.
//
// The tree is walked level by level and every change is matched to the node it addresses; all
// mutations are only collected on the way down and applied once the walk succeeded. A change that
// does not fit the tree yields a *PatchError and leaves t untouched.
func Patch(t *HashTree, changes []Change, opts ...PatchOption) error {
	var cfg patchConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.baseHash != nil && baseHash(t) != *cfg.baseHash {
		return &PatchError{Path: Path{}, Err: ErrBaseMismatch}
	}
	if len(changes) == 0 {
		return nil
	}

	p := &patcher{t: t}
	if root, ok := t.Root(); ok {
		if err := p.descend(existing(root), Path{}, changes); err != nil {
			return err
		}
	} else if err := p.plantRoot(changes); err != nil {
		return err
	}
	return p.apply()
}

func baseHash(t *HashTree) uint64 {
	if t.Hashing() {
		return t.RootHash()
	}
	c := t.Clone()
	c.SetHashing(true)
	return c.RootHash()
}

// plantRoot handles a changeset for an empty tree, which must start with an Addition at the root.
func (p *patcher) plantRoot(changes []Change) error {
	var add *Change
	var rest []Change
	for i, c := range changes {
		if len(c.Path) > 0 {
			rest = append(rest, c)
			continue
		}
		if c.Kind != Addition || add != nil {
			return &PatchError{Path: c.Path, Err: ErrPathNotFound}
		}
		add = &changes[i]
	}
	if add == nil {
		return &PatchError{Path: changes[0].Path, Err: ErrPathNotFound}
	}
	p.ops = append(p.ops, pendingOp{kind: opAdd, target: rootRef, node: add.Node})
	return p.descend(ref{id: NoNode, op: len(p.ops) - 1}, Path{}, rest)
}

// descend matches changes, all of which lie at or below path, against the node r at path.
func (p *patcher) descend(r ref, path Path, changes []Change) error {
	level := len(path)

	var own []Change
	groups := make(map[int][]Change)
	for _, c := range changes {
		if len(c.Path) == level {
			own = append(own, c)
			continue
		}
		groups[c.Path[level]] = append(groups[c.Path[level]], c)
	}

	// A node takes at most one change of its own, whatever the order
	deleted := false
	for i, c := range own {
		switch {
		case c.Kind == Addition:
			return &PatchError{Path: c.Path, Err: ErrUnexpectedAddition}
		case i > 0, r.op >= 0:
			return &PatchError{Path: c.Path, Err: ErrConflictingChanges}
		case c.Kind == Update:
			p.ops = append(p.ops, pendingOp{kind: opUpdate, target: r, node: c.Node})
		case c.Kind == Deletion:
			deleted = true
			p.ops = append(p.ops, pendingOp{kind: opDelete, target: r})
		default:
			return &PatchError{Path: c.Path, Err: ErrConflictingChanges}
		}
	}
	if deleted && len(groups) > 0 {
		return &PatchError{Path: path, Err: ErrConflictingChanges}
	}

	var children []NodeID
	if r.op < 0 {
		children = p.t.Children(r.id)
	}
	childDeleted := false
	for i, child := range children {
		g, ok := groups[i]
		if !ok {
			continue
		}
		delete(groups, i)
		for _, c := range g {
			if len(c.Path) == level+1 && c.Kind == Deletion {
				childDeleted = true
			}
		}
		if err := p.descend(existing(child), path.Child(i), g); err != nil {
			return err
		}
	}

	// What is left addresses positions past the existing children: new subtrees
	added := make([]int, 0, len(groups))
	for i := range groups {
		added = append(added, i)
	}
	sort.Ints(added)
	next := len(children)
	for _, i := range added {
		childPath := path.Child(i)
		if childDeleted {
			return &PatchError{Path: childPath, Err: ErrConflictingChanges}
		}

		var add *Change
		var rest []Change
		g := groups[i]
		for j, c := range g {
			if len(c.Path) > level+1 {
				rest = append(rest, c)
				continue
			}
			if c.Kind != Addition || add != nil {
				return &PatchError{Path: c.Path, Err: ErrPathNotFound}
			}
			add = &g[j]
		}
		if add == nil {
			return &PatchError{Path: g[0].Path, Err: ErrPathNotFound}
		}
		if i != next {
			return &PatchError{Path: childPath, Err: ErrAdditionOutOfOrder}
		}
		next++

		p.ops = append(p.ops, pendingOp{kind: opAdd, target: r, node: add.Node})
		if err := p.descend(ref{id: NoNode, op: len(p.ops) - 1}, childPath, rest); err != nil {
			return err
		}
	}
	return nil
}

// apply performs the collected operations in descent order, with hashing suspended.
func (p *patcher) apply() error {
	t := p.t
	hashing := t.Hashing()
	t.SetHashing(false)
	defer t.SetHashing(hashing)

	created := make([]NodeID, len(p.ops))
	resolve := func(r ref) NodeID {
		if r.op >= 0 {
			return created[r.op]
		}
		return r.id
	}
	for i, op := range p.ops {
		var err error
		switch op.kind {
		case opUpdate:
			err = t.SetValue(resolve(op.target), op.node)
		case opDelete:
			_, err = t.Remove(resolve(op.target))
		case opAdd:
			if op.target == rootRef {
				created[i] = t.InsertRoot(op.node)
			} else {
				created[i], err = t.Insert(resolve(op.target), op.node)
			}
		}
		if err != nil {
			// Validation guarantees this cannot happen on a consistent tree
			return err
		}
	}
	return nil
}
