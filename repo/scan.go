package repo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"github.com/tit-vcs/tit/source"
	"github.com/tit-vcs/tit/tree"
)

const (
	KindDir  = "dir"
	KindFile = "file"
)

// Always ignored, whatever the ignore files say
var builtinIgnores = []string{Dir, ".git"}

// ScanOptions controls how a working directory is turned into a tree.
type ScanOptions struct {
	// ParseSources attaches the syntax tree of recognised source files below their file node.
	ParseSources bool
}

// ScanDir builds the tree of the directory at root. Directories become "dir" nodes named by their
// value, files become "file" nodes whose role holds the SHA3-256 of their content. Entries are
// sorted by name. The root node has no value, so the tree does not depend on where the working
// copy is checked out. Symbolic links and other special files are skipped.
func ScanDir(ctx context.Context, root string, opts ScanOptions) (*tree.HashTree, error) {
	t := tree.New()
	t.SetHashing(false)

	type frame struct {
		path    string
		id      tree.NodeID
		ignores []string
	}
	stack := []frame{{path: root, id: t.InsertRoot(tree.NewNode(KindDir)), ignores: builtinIgnores}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ignores, err := readIgnoreFile(filepath.Join(f.path, IgnoreFile))
		if err != nil {
			return nil, err
		}
		ignores = append(append([]string(nil), f.ignores...), ignores...)

		entries, err := os.ReadDir(f.path)
		if err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		var dirs []frame
		for _, e := range entries {
			if ignored(e.Name(), ignores) {
				continue
			}
			full := filepath.Join(f.path, e.Name())
			switch {
			case e.IsDir():
				id, err := t.Insert(f.id, tree.NewNode(KindDir).WithValue(e.Name()))
				if err != nil {
					return nil, err
				}
				dirs = append(dirs, frame{path: full, id: id, ignores: ignores})

			case e.Type().IsRegular():
				content, err := os.ReadFile(full)
				if err != nil {
					return nil, errors.Wrap(err, "scan")
				}
				id, err := t.Insert(f.id, FileNode(e.Name(), content))
				if err != nil {
					return nil, err
				}
				if !opts.ParseSources {
					continue
				}
				if lang, ok := source.ForFile(e.Name()); ok {
					if err = source.ParseInto(ctx, t, id, lang, content); err != nil {
						return nil, errors.Wrapf(err, "parse %s", full)
					}
				}
			}
		}

		// Reverse, so that directories are walked in name order
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}

	t.SetHashing(true)
	return t, nil
}

// FileNode returns the node a file with the given name and content is represented by.
func FileNode(name string, content []byte) tree.Node {
	sum := sha3.Sum256(content)
	return tree.NewNode(KindFile).WithValue(name).WithRole(hex.EncodeToString(sum[:]))
}

// ContentKey identifies files by content digest, for move and rename detection.
func ContentKey(n tree.Node) (string, bool) {
	if n.Kind != KindFile || n.Role == nil {
		return "", false
	}
	return *n.Role, true
}

// readIgnoreFile returns the patterns of an ignore file, one glob per line. Blank lines and lines
// starting with '#' are skipped. A missing file has no patterns.
func readIgnoreFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read ignore file")
	}
	var patterns []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	return patterns, sc.Err()
}

func ignored(name string, patterns []string) bool {
	for _, p := range patterns {
		if p == name {
			return true
		}
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// DisplayPath renders a tree path as a slash separated list of node values, falling back to the
// node kind for nodes without a value.
func DisplayPath(t tree.Tree, p tree.Path) string {
	id, ok := t.Root()
	if !ok {
		return "?"
	}
	parts := make([]string, 0, len(p))
	for _, i := range p {
		children := t.Children(id)
		if i < 0 || i >= len(children) {
			parts = append(parts, "?")
			break
		}
		id = children[i]
		n, _ := t.Node(id)
		if n.Value != nil && (n.Kind == KindDir || n.Kind == KindFile) {
			parts = append(parts, *n.Value)
		} else {
			parts = append(parts, "<"+n.Kind+">")
		}
	}
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}
