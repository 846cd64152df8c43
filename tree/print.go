package tree

import (
	"bytes"
	"fmt"
	"io"
)

// Fprint writes an indented view of the tree to w, one node per line.
func (t *HashTree) Fprint(w io.Writer) error {
	if t.root == NoNode {
		_, err := fmt.Fprintln(w, "(empty)")
		return err
	}

	type frame struct {
		id     NodeID
		indent string
		prefix string
		last   bool
		top    bool
	}
	stack := []frame{{id: t.root, top: true}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		e, _ := t.entry(f.id)
		line := f.indent + f.prefix + e.value.String()
		if t.hashing {
			line += fmt.Sprintf("  #%016x", e.hash)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}

		indent := f.indent
		switch {
		case f.top:
		case f.last:
			indent += "    "
		default:
			indent += "┃   "
		}
		last := len(e.children) - 1
		for i := last; i >= 0; i-- {
			prefix := "┣━━━"
			if i == last {
				prefix = "┗━━━"
			}
			stack = append(stack, frame{id: e.children[i], indent: indent, prefix: prefix, last: i == last})
		}
	}
	return nil
}

func (t *HashTree) String() string {
	var buf bytes.Buffer
	_ = t.Fprint(&buf)
	return buf.String()
}
