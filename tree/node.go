package tree

import (
	"encoding/binary"
	"fmt"
	"hash"
	"strconv"
)

// Node is the payload stored at every tree position. Kind is the node type (a grammar kind, "dir",
// "file"...), Value an optional scalar and Role the optional structural role, such as the grammar
// field the node fills in its parent.
type Node struct {
	_struct bool    `codec:",toarray"`
	Kind    string  `json:"kind"`
	Value   *string `json:"value,omitempty"`
	Role    *string `json:"role,omitempty"`
}

// NewNode returns a node of the given kind with neither value nor role.
func NewNode(kind string) Node {
	return Node{Kind: kind}
}

// WithValue returns a copy of n carrying value v.
func (n Node) WithValue(v string) Node {
	n.Value = &v
	return n
}

// WithRole returns a copy of n carrying role r.
func (n Node) WithRole(r string) Node {
	n.Role = &r
	return n
}

// Equal reports structural equality: kind, value and role all match.
func (n Node) Equal(o Node) bool {
	return n.Kind == o.Kind && optEqual(n.Value, o.Value) && optEqual(n.Role, o.Role)
}

func optEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (n Node) String() string {
	s := n.Kind
	if n.Role != nil {
		s = *n.Role + ":" + s
	}
	if n.Value != nil {
		s += " " + strconv.Quote(*n.Value)
	}
	return s
}

// GoString is used by %#v and keeps pointer addresses out of debug output.
func (n Node) GoString() string {
	return fmt.Sprintf("tree.Node{Kind:%q, Value:%s, Role:%s}", n.Kind, optString(n.Value), optString(n.Role))
}

func optString(s *string) string {
	if s == nil {
		return "nil"
	}
	return strconv.Quote(*s)
}

// writeTo feeds an unambiguous rendering of n into h. Strings are length prefixed and optional
// fields carry a presence byte, so ("ab", nil) and ("a", "b") never collide.
func (n Node) writeTo(h hash.Hash64) {
	var buf [binary.MaxVarintLen64]byte
	writeString := func(s string) {
		l := binary.PutUvarint(buf[:], uint64(len(s)))
		h.Write(buf[:l])
		h.Write([]byte(s))
	}
	writeOpt := func(s *string) {
		if s == nil {
			h.Write([]byte{0})
			return
		}
		h.Write([]byte{1})
		writeString(*s)
	}
	writeString(n.Kind)
	writeOpt(n.Value)
	writeOpt(n.Role)
}
