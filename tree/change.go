package tree

import "fmt"

// ChangeKind tells the three kinds of change apart.
type ChangeKind uint8

const (
	Update ChangeKind = iota
	Addition
	Deletion
)

func (k ChangeKind) String() string {
	switch k {
	case Update:
		return "update"
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	}
	return fmt.Sprintf("ChangeKind(%d)", uint8(k))
}

// Change is one unit of a changeset. Node is the new node for updates and additions and is left
// zero for deletions. Paths are relative to the base tree the changeset was computed against.
type Change struct {
	_struct bool       `codec:",toarray"`
	Kind    ChangeKind `json:"kind"`
	Path    Path       `json:"path"`
	Node    Node       `json:"node"`
}

func NewUpdate(p Path, n Node) Change {
	return Change{Kind: Update, Path: p, Node: n}
}

func NewAddition(p Path, n Node) Change {
	return Change{Kind: Addition, Path: p, Node: n}
}

func NewDeletion(p Path) Change {
	return Change{Kind: Deletion, Path: p}
}

// Equal compares kind, path and, except for deletions, the node.
func (c Change) Equal(o Change) bool {
	if c.Kind != o.Kind || !c.Path.Equal(o.Path) {
		return false
	}
	return c.Kind == Deletion || c.Node.Equal(o.Node)
}

func (c Change) String() string {
	if c.Kind == Deletion {
		return fmt.Sprintf("%s %v", c.Kind, c.Path)
	}
	return fmt.Sprintf("%s %v %v", c.Kind, c.Path, c.Node)
}
