// Package repo stores versioned trees on disk: commits, branch pointers and the snapshot of the
// last committed tree, all below a .tit directory at the root of a working copy.
package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/tit-vcs/tit/tree"
)

const (
	Dir        = ".tit"
	IgnoreFile = ".titignore"

	commitsDir = "commits"
	stateFile  = "state.toml"
	treeFile   = "tree.bin"
)

// Repository is a working copy with its .tit directory.
type Repository struct {
	root    string
	commits *DirStore
}

// Open returns the repository rooted at root without checking that it exists.
func Open(root string) *Repository {
	return &Repository{root: root, commits: NewDirStore(filepath.Join(root, Dir, commitsDir))}
}

// Find returns the repository containing dir, looking at dir and then at each of its parents.
func Find(dir string) (*Repository, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		if fi, err := os.Stat(filepath.Join(dir, Dir)); err == nil && fi.IsDir() {
			return Open(dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotARepository
		}
		dir = parent
	}
}

func (r *Repository) Root() string {
	return r.root
}

func (r *Repository) path(name ...string) string {
	return filepath.Join(append([]string{r.root, Dir}, name...)...)
}

// Initialized reports whether the .tit directory exists.
func (r *Repository) Initialized() bool {
	fi, err := os.Stat(r.path())
	return err == nil && fi.IsDir()
}

// Init creates the repository: an empty commit directory, a state with one branch at NoCommit and
// the given server registered as "default", and an empty tree snapshot.
func (r *Repository) Init(name, server, branch string) error {
	if name == "" || branch == "" {
		return ErrEmptyName
	}
	if r.Initialized() {
		return ErrAlreadyInitialized
	}
	if err := os.MkdirAll(r.path(commitsDir), 0755); err != nil {
		return errors.Wrap(err, "create repository")
	}
	if err := r.SaveState(NewState(name, branch, server)); err != nil {
		return err
	}
	return r.SaveSnapshot(tree.New())
}

// Uninit removes the .tit directory and everything in it.
func (r *Repository) Uninit() error {
	if !r.Initialized() {
		return ErrNotARepository
	}
	return errors.Wrap(os.RemoveAll(r.path()), "remove repository")
}

// Commits returns the commit store.
func (r *Repository) Commits() CommitStore {
	return r.commits
}

func (r *Repository) State() (*State, error) {
	data, err := os.ReadFile(r.path(stateFile))
	if err != nil {
		return nil, errors.Wrap(err, "read state")
	}
	return ParseState(data)
}

func (r *Repository) SaveState(s *State) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return errors.Wrap(writeFileAtomic(r.path(stateFile), data), "write state")
}

// Snapshot returns the tree as of the current branch head.
func (r *Repository) Snapshot() (*tree.HashTree, error) {
	data, err := os.ReadFile(r.path(treeFile))
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	return tree.Decode(data)
}

func (r *Repository) SaveSnapshot(t *tree.HashTree) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return errors.Wrap(writeFileAtomic(r.path(treeFile), data), "write snapshot")
}

// Scan builds the tree of the working copy.
func (r *Repository) Scan(ctx context.Context, opts ScanOptions) (*tree.HashTree, error) {
	return ScanDir(ctx, r.root, opts)
}

// Pending is the difference between the snapshot and the working copy.
type Pending struct {
	Base    *tree.HashTree
	Current *tree.HashTree
	Changes []tree.Change
}

// Moves runs move and rename detection over the pending changes, keyed by file content.
func (p *Pending) Moves() []tree.Move {
	return tree.DetectMoves(p.Base, p.Current, p.Changes, ContentKey)
}

// Changes scans the working copy and diffs it against the snapshot.
func (r *Repository) Changes(ctx context.Context, opts ScanOptions) (*Pending, error) {
	base, err := r.Snapshot()
	if err != nil {
		return nil, err
	}
	current, err := r.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Pending{Base: base, Current: current, Changes: tree.Diff(base, current)}, nil
}

// Commit records the difference between the snapshot and current as a new commit on the current
// branch, then makes current the new snapshot.
func (r *Repository) Commit(message string, current *tree.HashTree, now time.Time) (*Commit, error) {
	state, err := r.State()
	if err != nil {
		return nil, err
	}
	base, err := r.Snapshot()
	if err != nil {
		return nil, err
	}
	changes := tree.Diff(base, current)
	if len(changes) == 0 {
		return nil, ErrNothingToCommit
	}

	var predecessor string
	if head := state.Head(); head != NoCommit {
		predecessor = head
	}
	c := NewCommit(message, changes, EpochMillis(now), predecessor)
	id, err := r.commits.Put(c)
	if err != nil {
		return nil, err
	}
	if err = r.SaveSnapshot(current); err != nil {
		return nil, err
	}
	state.Advance(id)
	if err = r.SaveState(state); err != nil {
		return nil, err
	}
	return c, nil
}

// ResolveCommit expands a unique id prefix into a full commit id.
func (r *Repository) ResolveCommit(prefix string) (string, error) {
	if prefix == "" {
		return "", errors.Wrap(ErrInvalidCommitID, "empty id")
	}
	if ValidID(prefix) {
		return prefix, nil
	}
	ids, err := r.commits.IDs()
	if err != nil {
		return "", err
	}
	return resolvePrefix(ids, prefix)
}

// History returns the chain of commits ending at id, newest first. NoCommit has no history.
func (r *Repository) History(id string) ([]*Commit, error) {
	var chain []*Commit
	seen := make(map[string]bool)
	for id != "" && id != NoCommit {
		if seen[id] {
			return nil, errors.Wrapf(ErrCorruptHistory, "at %s", ShortID(id))
		}
		seen[id] = true
		c, err := r.commits.Get(id)
		if err != nil {
			return nil, err
		}
		chain = append(chain, c)
		id, _ = c.Predecessor()
	}
	return chain, nil
}

// TreeAt rebuilds the tree as of commit id by replaying its history onto an empty tree.
func (r *Repository) TreeAt(id string) (*tree.HashTree, error) {
	chain, err := r.History(id)
	if err != nil {
		return nil, err
	}
	t := tree.New()
	for i := len(chain) - 1; i >= 0; i-- {
		if err = tree.Patch(t, chain[i].Changes); err != nil {
			return nil, errors.Wrapf(err, "replay %s", ShortID(chain[i].ID()))
		}
	}
	return t, nil
}

// CreateBranch starts a branch at the current head and switches to it.
func (r *Repository) CreateBranch(name string) error {
	state, err := r.State()
	if err != nil {
		return err
	}
	if err = state.CreateBranch(name); err != nil {
		return err
	}
	return r.SaveState(state)
}

// SwitchBranch makes name the current branch and rebuilds the snapshot from its head.
func (r *Repository) SwitchBranch(name string) error {
	state, err := r.State()
	if err != nil {
		return err
	}
	if err = state.SwitchBranch(name); err != nil {
		return err
	}
	t, err := r.TreeAt(state.Head())
	if err != nil {
		return err
	}
	if err = r.SaveSnapshot(t); err != nil {
		return err
	}
	return r.SaveState(state)
}

// RemoveBranch deletes a branch pointer. Its commits stay in the store.
func (r *Repository) RemoveBranch(name string) error {
	state, err := r.State()
	if err != nil {
		return err
	}
	if err = state.RemoveBranch(name); err != nil {
		return err
	}
	return r.SaveState(state)
}

// RevertBranch moves branch name, or the current branch when name is empty, back to commit id,
// which must be part of the branch's history.
func (r *Repository) RevertBranch(name, id string) error {
	state, err := r.State()
	if err != nil {
		return err
	}
	if name == "" {
		name = state.Current.Branch
	}
	head, ok := state.Branches[name]
	if !ok {
		return errors.Wrapf(ErrBranchNotFound, "'%s'", name)
	}
	if id, err = r.ResolveCommit(id); err != nil {
		return err
	}
	chain, err := r.History(head)
	if err != nil {
		return err
	}
	found := false
	for _, c := range chain {
		if c.ID() == id {
			found = true
			break
		}
	}
	if !found {
		return errors.Wrapf(ErrNotInHistory, "%s on '%s'", ShortID(id), name)
	}

	state.SetBranch(name, id)
	if name == state.Current.Branch {
		t, err := r.TreeAt(id)
		if err != nil {
			return err
		}
		if err = r.SaveSnapshot(t); err != nil {
			return err
		}
	}
	return r.SaveState(state)
}

// Verify checks every stored commit against its id, that every branch history is complete, and
// that the snapshot is consistent and equal to the tree replayed from the current head.
func (r *Repository) Verify() error {
	ids, err := r.commits.IDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err = r.commits.Get(id); err != nil {
			return err
		}
	}

	state, err := r.State()
	if err != nil {
		return err
	}
	for _, name := range state.BranchNames() {
		if _, err = r.History(state.Branches[name]); err != nil {
			return errors.Wrapf(err, "branch '%s'", name)
		}
	}

	snapshot, err := r.Snapshot()
	if err != nil {
		return err
	}
	if err = snapshot.Verify(); err != nil {
		return errors.Wrap(err, "snapshot")
	}
	replayed, err := r.TreeAt(state.Head())
	if err != nil {
		return err
	}
	if !tree.Equal(snapshot, replayed) {
		return ErrSnapshotMismatch
	}
	return nil
}
