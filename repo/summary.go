package repo

import (
	"fmt"

	"github.com/tit-vcs/tit/tree"
)

// Entry is one line of a change summary.
type Entry struct {
	Action string
	Path   string
	To     string
}

func (e Entry) String() string {
	if e.To != "" {
		return fmt.Sprintf("%s %s -> %s", e.Action, e.Path, e.To)
	}
	return fmt.Sprintf("%s %s", e.Action, e.Path)
}

// Summarize describes changes for people. Files that only moved or got renamed are reported once
// as such, keyed by content; everything else is listed per change, with the paths spelled out as
// names.
func Summarize(base, target tree.Tree, changes []tree.Change) []Entry {
	moves := tree.DetectMoves(base, target, changes, ContentKey)

	// Paths a move already accounts for, per side
	from := make(map[string]bool, len(moves))
	to := make(map[string]bool, len(moves))
	entries := make([]Entry, 0, len(changes))
	for _, m := range moves {
		from[m.From.String()] = true
		to[m.To.String()] = true
		entries = append(entries, Entry{
			Action: m.Kind.String(),
			Path:   DisplayPath(base, m.From),
			To:     DisplayPath(target, m.To),
		})
	}

	for _, c := range changes {
		key := c.Path.String()
		switch c.Kind {
		case tree.Addition:
			if !to[key] {
				entries = append(entries, Entry{Action: "added", Path: DisplayPath(target, c.Path)})
			}
		case tree.Deletion:
			if !from[key] {
				entries = append(entries, Entry{Action: "deleted", Path: DisplayPath(base, c.Path)})
			}
		case tree.Update:
			if !from[key] || !to[key] {
				entries = append(entries, Entry{Action: "updated", Path: DisplayPath(target, c.Path)})
			}
		}
	}
	return entries
}
