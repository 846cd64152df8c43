package tree

import "fmt"

// MoveKind classifies a detected move.
type MoveKind uint8

const (
	// Moved means the node now lives under a different parent.
	Moved MoveKind = iota
	// Renamed means the node kept its parent but its value changed.
	Renamed
)

func (k MoveKind) String() string {
	if k == Renamed {
		return "renamed"
	}
	return "moved"
}

// Move pairs a node that left a position in the base tree with a node carrying the same key that
// showed up at another position, or with another value, in the target tree.
type Move struct {
	Kind MoveKind
	From Path
	To   Path
	Old  Node
	New  Node
}

func (m Move) String() string {
	return fmt.Sprintf("%s %v -> %v", m.Kind, m.From, m.To)
}

// DetectMoves looks for moves and renames among changes computed by Diff(base, target). Nodes
// touched by an Update or Deletion in base are sources, nodes touched by an Update or Addition in
// target are destinations, and a source matches the first unused destination, in changeset order,
// with the same key. Nodes for which key reports false take no part.
//
// This is a heuristic on top of Diff: it does not alter the changeset, and a changeset is
// applied the same way whether or not moves were detected in it.
func DetectMoves(base, target Tree, changes []Change, key func(Node) (string, bool)) []Move {
	type candidate struct {
		path Path
		node Node
		key  string
		used bool
	}
	var sources, dests []*candidate
	for _, c := range changes {
		if c.Kind == Update || c.Kind == Deletion {
			if id, ok := Lookup(base, c.Path); ok {
				n, _ := base.Node(id)
				if k, ok := key(n); ok {
					sources = append(sources, &candidate{path: c.Path, node: n, key: k})
				}
			}
		}
		if c.Kind == Update || c.Kind == Addition {
			if id, ok := Lookup(target, c.Path); ok {
				n, _ := target.Node(id)
				if k, ok := key(n); ok {
					dests = append(dests, &candidate{path: c.Path, node: n, key: k})
				}
			}
		}
	}

	var moves []Move
	for _, s := range sources {
		for _, d := range dests {
			if d.used || d.key != s.key {
				continue
			}
			fromParent, _ := s.path.Parent()
			toParent, _ := d.path.Parent()
			sameParent := fromParent.Equal(toParent)
			if sameParent && optEqual(s.node.Value, d.node.Value) {
				// Only shifted between siblings
				continue
			}
			kind := Moved
			if sameParent {
				kind = Renamed
			}
			d.used = true
			moves = append(moves, Move{Kind: kind, From: s.path, To: d.path, Old: s.node, New: d.node})
			break
		}
	}
	return moves
}
