package repo

import "github.com/pkg/errors"

var (
	ErrNotARepository     = errors.New("not a tit repository (or any of the parent directories)")
	ErrAlreadyInitialized = errors.New("repository already initialized")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrBranchNotFound     = errors.New("branch not found")
	ErrBranchExists       = errors.New("branch already exists")
	ErrCurrentBranch      = errors.New("cannot remove the current branch")
	ErrServerNotFound     = errors.New("server not found")
	ErrServerExists       = errors.New("server already exists")
	ErrCurrentServer      = errors.New("cannot remove the current server")
	ErrCommitNotFound     = errors.New("commit not found")
	ErrAmbiguousCommit    = errors.New("commit id prefix is ambiguous")
	ErrInvalidCommitID    = errors.New("invalid commit id")
	ErrCorruptCommit      = errors.New("commit content does not match its id")
	ErrCorruptHistory     = errors.New("commit history contains a cycle")
	ErrNothingToCommit    = errors.New("nothing to commit")
	ErrNotInHistory       = errors.New("commit is not in the branch history")
	ErrSnapshotMismatch   = errors.New("tree snapshot does not match the branch head")
)
