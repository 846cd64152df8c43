package repo

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	chk "gopkg.in/check.v1"

	"github.com/tit-vcs/tit/tree"
)

type RepoSuite struct {
	dir  string
	repo *Repository
	now  time.Time
}

var _ = chk.Suite(&RepoSuite{})

func (s *RepoSuite) SetUpTest(c *chk.C) {
	s.dir = c.MkDir()
	s.repo = Open(s.dir)
	s.now = time.UnixMilli(1700000000000)
	c.Assert(s.repo.Init("demo", "http://127.0.0.1:6969", "main"), chk.IsNil)
}

func (s *RepoSuite) write(c *chk.C, name, content string) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	c.Assert(os.MkdirAll(filepath.Dir(path), 0755), chk.IsNil)
	c.Assert(os.WriteFile(path, []byte(content), 0644), chk.IsNil)
}

// commit scans the working copy and commits it, one millisecond after the previous commit
func (s *RepoSuite) commit(c *chk.C, msg string) *Commit {
	t, err := s.repo.Scan(context.Background(), ScanOptions{})
	c.Assert(err, chk.IsNil)
	s.now = s.now.Add(time.Millisecond)
	cm, err := s.repo.Commit(msg, t, s.now)
	c.Assert(err, chk.IsNil)
	return cm
}

func (s *RepoSuite) head(c *chk.C) string {
	st, err := s.repo.State()
	c.Assert(err, chk.IsNil)
	return st.Head()
}

func (s *RepoSuite) TestInit(c *chk.C) {
	c.Check(s.repo.Initialized(), chk.Equals, true)
	c.Check(s.repo.Init("demo", "x", "main"), chk.Equals, ErrAlreadyInitialized)
	c.Check(s.head(c), chk.Equals, NoCommit)

	snap, err := s.repo.Snapshot()
	c.Assert(err, chk.IsNil)
	c.Check(snap.Len(), chk.Equals, 0)
	c.Check(s.repo.Verify(), chk.IsNil)

	c.Check(Open(c.MkDir()).Init("", "x", "main"), chk.Equals, ErrEmptyName)
}

func (s *RepoSuite) TestFind(c *chk.C) {
	sub := filepath.Join(s.dir, "a", "b")
	c.Assert(os.MkdirAll(sub, 0755), chk.IsNil)
	r, err := Find(sub)
	c.Assert(err, chk.IsNil)
	want, _ := filepath.Abs(s.dir)
	c.Check(r.Root(), chk.Equals, want)

	_, err = Find(c.MkDir())
	c.Check(err, chk.Equals, ErrNotARepository)
}

func (s *RepoSuite) TestUninit(c *chk.C) {
	c.Assert(s.repo.Uninit(), chk.IsNil)
	c.Check(s.repo.Initialized(), chk.Equals, false)
	c.Check(s.repo.Uninit(), chk.Equals, ErrNotARepository)
}

func (s *RepoSuite) TestScan(c *chk.C) {
	s.write(c, "b.txt", "bee")
	s.write(c, "a/one.txt", "1")
	s.write(c, "a/skip.log", "x")
	s.write(c, "a/.titignore", "# logs\n*.log\n")
	s.write(c, "build/out", "x")
	s.write(c, ".titignore", "build/\n")

	t, err := s.repo.Scan(context.Background(), ScanOptions{})
	c.Assert(err, chk.IsNil)
	c.Assert(t.Verify(), chk.IsNil)

	var names []string
	t.Walk(func(id tree.NodeID, _ int) {
		p, _ := t.PathOf(id)
		names = append(names, DisplayPath(t, p))
	})
	c.Check(names, chk.DeepEquals, []string{".", ".titignore", "a", "a/.titignore", "a/one.txt", "b.txt"})

	id, ok := t.Lookup(tree.Path{2})
	c.Assert(ok, chk.Equals, true)
	n, _ := t.Node(id)
	c.Check(n.Equal(FileNode("b.txt", []byte("bee"))), chk.Equals, true)
	key, ok := ContentKey(n)
	c.Check(ok, chk.Equals, true)
	c.Check(key, chk.HasLen, 64)
}

func (s *RepoSuite) TestScanSources(c *chk.C) {
	s.write(c, "main.go", "package main\n\nfunc main() {}\n")
	t, err := s.repo.Scan(context.Background(), ScanOptions{ParseSources: true})
	c.Assert(err, chk.IsNil)

	id, ok := t.Lookup(tree.Path{0, 0})
	c.Assert(ok, chk.Equals, true)
	n, _ := t.Node(id)
	c.Check(n.Kind, chk.Equals, "source_file")
}

func (s *RepoSuite) TestCommitAndHistory(c *chk.C) {
	s.write(c, "a.txt", "one")
	first := s.commit(c, "first")
	_, hasPred := first.Predecessor()
	c.Check(hasPred, chk.Equals, false)
	c.Check(s.head(c), chk.Equals, first.ID())

	_, err := s.repo.Commit("again", mustScan(c, s.repo), s.now)
	c.Check(err, chk.Equals, ErrNothingToCommit)

	s.write(c, "a.txt", "two")
	s.write(c, "b.txt", "three")
	second := s.commit(c, "second")
	p, _ := second.Predecessor()
	c.Check(p, chk.Equals, first.ID())

	chain, err := s.repo.History(s.head(c))
	c.Assert(err, chk.IsNil)
	c.Assert(chain, chk.HasLen, 2)
	c.Check(chain[0].Message, chk.Equals, "second")
	c.Check(chain[1].Message, chk.Equals, "first")

	// Replaying history gives the committed trees back
	t, err := s.repo.TreeAt(first.ID())
	c.Assert(err, chk.IsNil)
	c.Check(t.Len(), chk.Equals, 2)
	snap, err := s.repo.Snapshot()
	c.Assert(err, chk.IsNil)
	t, err = s.repo.TreeAt(second.ID())
	c.Assert(err, chk.IsNil)
	c.Check(tree.Equal(t, snap), chk.Equals, true)

	id, err := s.repo.ResolveCommit(second.ID()[:10])
	c.Assert(err, chk.IsNil)
	c.Check(id, chk.Equals, second.ID())

	c.Check(s.repo.Verify(), chk.IsNil)
}

func mustScan(c *chk.C, r *Repository) *tree.HashTree {
	t, err := r.Scan(context.Background(), ScanOptions{})
	c.Assert(err, chk.IsNil)
	return t
}

func (s *RepoSuite) TestBranches(c *chk.C) {
	s.write(c, "a.txt", "one")
	first := s.commit(c, "first")

	c.Assert(s.repo.CreateBranch("dev"), chk.IsNil)
	s.write(c, "b.txt", "two")
	second := s.commit(c, "second")

	st, err := s.repo.State()
	c.Assert(err, chk.IsNil)
	c.Check(st.Branches["main"], chk.Equals, first.ID())
	c.Check(st.Branches["dev"], chk.Equals, second.ID())

	// Switching rebuilds the snapshot, so the new file shows up as pending again
	c.Assert(s.repo.SwitchBranch("main"), chk.IsNil)
	pending, err := s.repo.Changes(context.Background(), ScanOptions{})
	c.Assert(err, chk.IsNil)
	c.Assert(pending.Changes, chk.HasLen, 1)
	c.Check(pending.Changes[0].Kind, chk.Equals, tree.Addition)
	c.Check(s.repo.Verify(), chk.IsNil)

	c.Check(errors.Cause(s.repo.SwitchBranch("nope")), chk.Equals, ErrBranchNotFound)
	c.Check(errors.Cause(s.repo.RemoveBranch("main")), chk.Equals, ErrCurrentBranch)
	c.Assert(s.repo.RemoveBranch("dev"), chk.IsNil)

	// The commits of a removed branch stay in the store
	has, err := s.repo.Commits().Has(second.ID())
	c.Assert(err, chk.IsNil)
	c.Check(has, chk.Equals, true)
}

func (s *RepoSuite) TestRevertBranch(c *chk.C) {
	s.write(c, "a.txt", "one")
	first := s.commit(c, "first")
	s.write(c, "a.txt", "two")
	second := s.commit(c, "second")

	c.Assert(s.repo.RevertBranch("", first.ID()[:8]), chk.IsNil)
	c.Check(s.head(c), chk.Equals, first.ID())
	c.Check(s.repo.Verify(), chk.IsNil)

	// The newer commit is no longer part of the branch history
	c.Check(errors.Cause(s.repo.RevertBranch("main", second.ID())), chk.Equals, ErrNotInHistory)
	c.Check(errors.Cause(s.repo.RevertBranch("nope", first.ID())), chk.Equals, ErrBranchNotFound)
}

func (s *RepoSuite) TestRemovedBranchCommits(c *chk.C) {
	s.write(c, "a.txt", "one")
	shared := s.commit(c, "shared")
	c.Assert(s.repo.CreateBranch("topic"), chk.IsNil)
	s.write(c, "a.txt", "topic only")
	own := s.commit(c, "topic work")

	c.Assert(s.repo.SwitchBranch("main"), chk.IsNil)
	c.Assert(s.repo.RemoveBranch("topic"), chk.IsNil)

	// Stored, but out of reach of main
	ok, err := s.repo.Commits().Has(own.ID())
	c.Assert(err, chk.IsNil)
	c.Check(ok, chk.Equals, true)
	c.Check(errors.Cause(s.repo.RevertBranch("main", own.ID())), chk.Equals, ErrNotInHistory)
	c.Check(s.repo.RevertBranch("main", shared.ID()), chk.IsNil)
	c.Check(s.repo.Verify(), chk.IsNil)
}

func (s *RepoSuite) TestPendingMoves(c *chk.C) {
	s.write(c, "a.txt", "same content")
	s.write(c, "z.txt", "other")
	s.commit(c, "first")

	c.Assert(os.Rename(filepath.Join(s.dir, "a.txt"), filepath.Join(s.dir, "b.txt")), chk.IsNil)
	pending, err := s.repo.Changes(context.Background(), ScanOptions{})
	c.Assert(err, chk.IsNil)
	c.Check(pending.Changes, chk.HasLen, 1)

	moves := pending.Moves()
	c.Assert(moves, chk.HasLen, 1)
	c.Check(moves[0].Kind, chk.Equals, tree.Renamed)

	summary := Summarize(pending.Base, pending.Current, pending.Changes)
	c.Assert(summary, chk.HasLen, 1)
	c.Check(summary[0].String(), chk.Equals, "renamed a.txt -> b.txt")
}

func (s *RepoSuite) TestSummarize(c *chk.C) {
	s.write(c, "a.txt", "keep")
	s.write(c, "b.txt", "old")
	s.write(c, "d.txt", "gone")
	s.commit(c, "first")

	s.write(c, "b.txt", "new")
	c.Assert(os.Remove(filepath.Join(s.dir, "d.txt")), chk.IsNil)
	s.write(c, "sub/a.txt", "keep")
	c.Assert(os.Remove(filepath.Join(s.dir, "a.txt")), chk.IsNil)

	// Diff is positional: a.txt's slot now holds b.txt and b.txt's slot holds sub
	pending, err := s.repo.Changes(context.Background(), ScanOptions{})
	c.Assert(err, chk.IsNil)
	var lines []string
	for _, e := range Summarize(pending.Base, pending.Current, pending.Changes) {
		lines = append(lines, e.String())
	}
	c.Check(lines, chk.DeepEquals, []string{
		"moved a.txt -> sub/a.txt",
		"updated b.txt",
		"updated sub",
		"deleted d.txt",
	})
}

func (s *RepoSuite) TestVerifyDetectsSnapshotDrift(c *chk.C) {
	s.write(c, "a.txt", "one")
	s.commit(c, "first")

	s.write(c, "b.txt", "two")
	c.Assert(s.repo.SaveSnapshot(mustScan(c, s.repo)), chk.IsNil)
	c.Check(s.repo.Verify(), chk.Equals, ErrSnapshotMismatch)
}
