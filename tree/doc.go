// Package tree is the versioned tree engine: an arena backed Merkle tree, a positional diff that
// turns one tree into a list of path addressed changes, and the patch that replays such a list.
//
// None of the types in this package are safe for concurrent use; callers serialise access to a
// tree themselves.
package tree
