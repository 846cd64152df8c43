package tree

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrSlotEmpty      = errors.New("slot is empty")
	ErrNodeNotFound   = errors.New("node not found")
	ErrParentNotFound = errors.New("parent not found")
	ErrIsRoot         = errors.New("node is the root")
	ErrCycle          = errors.New("new parent is inside the moved subtree")
	ErrEmptyTree      = errors.New("tree is empty")
	ErrHashMismatch   = errors.New("stored hash does not match content")

	ErrPathNotFound       = errors.New("path does not resolve")
	ErrUnexpectedAddition = errors.New("addition targets an existing node")
	ErrAdditionOutOfOrder = errors.New("additions must extend the child list in order")
	ErrConflictingChanges = errors.New("conflicting changes")
	ErrBaseMismatch       = errors.New("base tree hash mismatch")
)

// Error reports a failed structural operation on a HashTree.
type Error struct {
	Op  string
	ID  NodeID
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Op, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, id NodeID, err error) error {
	return &Error{Op: op, ID: id, Err: err}
}

// PatchError reports a change that could not be applied to the tree it was given.
type PatchError struct {
	Path Path
	Err  error
}

func (e *PatchError) Error() string {
	return fmt.Sprintf("patch %v: %v", e.Path, e.Err)
}

func (e *PatchError) Unwrap() error { return e.Err }
