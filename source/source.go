// Package source turns program source into trees, using tree-sitter grammars.
//
// The resulting trees keep the named syntax nodes of the grammar plus the operator tokens that
// change meaning, and drop punctuation. Leaves carry their source text as value, and every node
// carries the grammar field it fills in its parent as role.
package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/tit-vcs/tit/tree"
)

// Language describes how one grammar is shaped into a tree.
type Language struct {
	Name       string
	Extensions []string
	Grammar    func() *sitter.Language

	// Significant lists the anonymous token kinds kept in the tree. All other anonymous tokens
	// are punctuation and dropped.
	Significant map[string]bool

	// Transparent lists named kinds that are replaced by their children, which inherit the field
	// name the dropped node had.
	Transparent map[string]bool
}

func set(kinds ...string) map[string]bool {
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

var cOperators = []string{
	"*", "/", "+", "-", "%", "&", "|", "<", ">",
	"*=", "/=", "+=", "-=", "%=", "&=", "|=",
	"<<", ">>", ">>=", "<<=", "&&", "||", "!", "~", "^", "^=",
	"==", "!=", "<=", ">=", "++", "--", ".", "->",
}

var (
	C = &Language{
		Name:        "c",
		Extensions:  []string{".c", ".h"},
		Grammar:     c.GetLanguage,
		Significant: set(cOperators...),
		Transparent: set("parenthesized_expression", "compound_statement"),
	}

	Go = &Language{
		Name:        "go",
		Extensions:  []string{".go"},
		Grammar:     golang.GetLanguage,
		Significant: set(append([]string{":=", "=", "<-", "&^", "&^=", "..."}, cOperators...)...),
		Transparent: set("parenthesized_expression", "block"),
	}

	Python = &Language{
		Name:       "python",
		Extensions: []string{".py"},
		Grammar:    python.GetLanguage,
		Significant: set("*", "/", "//", "+", "-", "%", "**", "@", "&", "|", "^", "~", "<<", ">>",
			"<", ">", "<=", ">=", "==", "!=", "+=", "-=", "*=", "/=", "//=", "%=", "**=",
			"and", "or", "not", "in", "is", "."),
		Transparent: set("parenthesized_expression", "block"),
	}

	// Languages is every built in language.
	Languages = []*Language{C, Go, Python}
)

// ForFile picks the language for a file name by its extension.
func ForFile(name string) (*Language, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	for _, l := range Languages {
		for _, e := range l.Extensions {
			if e == ext {
				return l, true
			}
		}
	}
	return nil, false
}

// Parse returns the tree of content.
func Parse(ctx context.Context, lang *Language, content []byte) (*tree.HashTree, error) {
	root, closeTree, err := parse(ctx, lang, content)
	if err != nil {
		return nil, err
	}
	defer closeTree()

	t := tree.New()
	t.SetHashing(false)
	id := t.InsertRoot(tree.NewNode(root.Type()))
	b := builder{t: t, lang: lang, src: content}
	if err = b.walk(root, id, ""); err != nil {
		return nil, err
	}
	t.SetHashing(true)
	return t, nil
}

// ParseInto parses content and appends its tree as a new child of parent in t.
func ParseInto(ctx context.Context, t *tree.HashTree, parent tree.NodeID, lang *Language, content []byte) error {
	root, closeTree, err := parse(ctx, lang, content)
	if err != nil {
		return err
	}
	defer closeTree()

	id, err := t.Insert(parent, tree.NewNode(root.Type()))
	if err != nil {
		return err
	}
	b := builder{t: t, lang: lang, src: content}
	return b.walk(root, id, "")
}

func parse(ctx context.Context, lang *Language, content []byte) (*sitter.Node, func(), error) {
	parser := sitter.NewParser()
	parser.SetLanguage(lang.Grammar())
	st, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		parser.Close()
		return nil, nil, errors.Wrapf(err, "parse %s", lang.Name)
	}
	root := st.RootNode()
	if root == nil {
		st.Close()
		parser.Close()
		return nil, nil, errors.Errorf("parse %s: no syntax tree", lang.Name)
	}
	return root, func() {
		st.Close()
		parser.Close()
	}, nil
}

type builder struct {
	t    *tree.HashTree
	lang *Language
	src  []byte
}

// walk adds the kept children of n below parent. passed is the field name inherited from a
// transparent ancestor; a child's own field name takes precedence over it.
func (b *builder) walk(n *sitter.Node, parent tree.NodeID, passed string) error {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		field := n.FieldNameForChild(i)
		if field == "" {
			field = passed
		}

		kind := child.Type()
		if !child.IsNamed() && !b.lang.Significant[kind] {
			continue
		}
		if child.IsNamed() && b.lang.Transparent[kind] {
			if err := b.walk(child, parent, field); err != nil {
				return err
			}
			continue
		}

		node := tree.NewNode(kind)
		if child.ChildCount() == 0 {
			node = node.WithValue(child.Content(b.src))
		}
		if field != "" {
			node = node.WithRole(field)
		}
		id, err := b.t.Insert(parent, node)
		if err != nil {
			return err
		}
		if err = b.walk(child, id, ""); err != nil {
			return err
		}
	}
	return nil
}
