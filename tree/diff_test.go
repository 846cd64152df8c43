package tree

import (
	"math/rand"

	"github.com/pkg/errors"
	chk "gopkg.in/check.v1"
)

type DiffSuite struct{}

var _ = chk.Suite(&DiffSuite{})

func applied(c *chk.C, base *HashTree, changes []Change) *HashTree {
	t := base.Clone()
	c.Assert(Patch(t, changes), chk.IsNil)
	c.Assert(t.Verify(), chk.IsNil)
	return t
}

func (s *DiffSuite) TestValueChange(c *chk.C) {
	base := build(n("translation_unit", v("int_literal", "0")))
	target := build(n("translation_unit", v("int_literal", "1")))

	changes := Diff(base, target)
	c.Assert(changes, chk.HasLen, 1)
	c.Check(changes[0].Kind, chk.Equals, Update)
	c.Check(changes[0].Path, chk.DeepEquals, Path{0})
	c.Check(*changes[0].Node.Value, chk.Equals, "1")

	c.Check(Equal(applied(c, base, changes), target), chk.Equals, true)
}

func (s *DiffSuite) TestAppendedChild(c *chk.C) {
	base := build(n("root", n("A"), n("B")))
	target := build(n("root", n("A"), n("B"), n("C")))

	changes := Diff(base, target)
	c.Assert(changes, chk.HasLen, 1)
	c.Check(changes[0].Equal(NewAddition(Path{2}, NewNode("C"))), chk.Equals, true)
	c.Check(Equal(applied(c, base, changes), target), chk.Equals, true)
}

func (s *DiffSuite) TestRemovedChild(c *chk.C) {
	base := build(n("root", n("A"), n("B", n("deep"))))
	target := build(n("root", n("A")))

	changes := Diff(base, target)
	c.Assert(changes, chk.HasLen, 1)
	c.Check(changes[0].Equal(NewDeletion(Path{1})), chk.Equals, true)
	c.Check(Equal(applied(c, base, changes), target), chk.Equals, true)
}

func (s *DiffSuite) TestAddedSubtree(c *chk.C) {
	base := build(n("root", n("A")))
	target := build(n("root", n("A"), n("B", n("x"), n("y", n("z")))))

	want := []Change{
		NewAddition(Path{1}, NewNode("B")),
		NewAddition(Path{1, 0}, NewNode("x")),
		NewAddition(Path{1, 1}, NewNode("y")),
		NewAddition(Path{1, 1, 0}, NewNode("z")),
	}
	changes := Diff(base, target)
	c.Assert(changes, chk.HasLen, len(want))
	for i := range want {
		c.Check(changes[i].Equal(want[i]), chk.Equals, true, chk.Commentf("change %d: %v", i, changes[i]))
	}
	c.Check(Equal(applied(c, base, changes), target), chk.Equals, true)
}

func (s *DiffSuite) TestReorderIsPositional(c *chk.C) {
	base := build(n("root", n("A"), n("B")))
	target := build(n("root", n("B"), n("A")))

	changes := Diff(base, target)
	c.Assert(changes, chk.HasLen, 2)
	c.Check(changes[0].Equal(NewUpdate(Path{0}, NewNode("B"))), chk.Equals, true)
	c.Check(changes[1].Equal(NewUpdate(Path{1}, NewNode("A"))), chk.Equals, true)
	c.Check(Equal(applied(c, base, changes), target), chk.Equals, true)
}

func (s *DiffSuite) TestInteriorValueChange(c *chk.C) {
	base := build(v("dir", "src", v("file", "a.go")))
	target := build(v("dir", "lib", v("file", "a.go")))

	changes := Diff(base, target)
	c.Assert(changes, chk.HasLen, 1)
	c.Check(changes[0].Path, chk.HasLen, 0)
	c.Check(Equal(applied(c, base, changes), target), chk.Equals, true)
}

func (s *DiffSuite) TestEmptyTrees(c *chk.C) {
	empty := New()
	t := build(n("root", n("a", n("b"))))

	c.Check(Diff(empty, New()), chk.HasLen, 0)

	grow := Diff(empty, t)
	c.Assert(grow, chk.HasLen, 3)
	c.Check(grow[0].Equal(NewAddition(Path{}, NewNode("root"))), chk.Equals, true)
	c.Check(Equal(applied(c, empty, grow), t), chk.Equals, true)

	shrink := Diff(t, empty)
	c.Assert(shrink, chk.HasLen, 1)
	c.Check(shrink[0].Equal(NewDeletion(Path{})), chk.Equals, true)
	gone := applied(c, t, shrink)
	_, ok := gone.Root()
	c.Check(ok, chk.Equals, false)
}

func (s *DiffSuite) TestIdentity(c *chk.C) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		t := randomTree(r, 1+r.Intn(60))
		c.Assert(Diff(t, t), chk.HasLen, 0)
		c.Assert(Diff(t, t.Clone()), chk.HasLen, 0)
		c.Check(Equal(applied(c, t, Diff(t, t)), t), chk.Equals, true)
	}
}

func (s *DiffSuite) TestReconstruction(c *chk.C) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 300; i++ {
		a := randomTree(r, 1+r.Intn(50))
		var b *HashTree
		if i%3 == 0 {
			b = randomTree(r, 1+r.Intn(50))
		} else {
			b = mutate(r, a)
		}
		changes := Diff(a, b)
		got := applied(c, a, changes)
		c.Assert(Equal(got, b), chk.Equals, true, chk.Commentf("round %d\nbase:\n%s\ntarget:\n%s\nchanges: %v", i, a, b, changes))
		c.Assert(got.RootHash(), chk.Equals, b.RootHash())
	}
}

func (s *DiffSuite) TestReconstructionWithoutHashes(c *chk.C) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		a := randomTree(r, 1+r.Intn(30))
		b := mutate(r, a)
		a.SetHashing(false)
		b.SetHashing(false)

		changes := Diff(a, b)
		got := a.Clone()
		c.Assert(Patch(got, changes), chk.IsNil)
		c.Assert(Equal(got, b), chk.Equals, true)
		c.Check(got.Hashing(), chk.Equals, false)
	}
}

func (s *DiffSuite) TestPruningMatchesFullWalk(c *chk.C) {
	r := rand.New(rand.NewSource(4))
	for i := 0; i < 100; i++ {
		a := randomTree(r, 1+r.Intn(40))
		b := mutate(r, a)
		pruned := Diff(a, b)

		a.SetHashing(false)
		b.SetHashing(false)
		full := Diff(a, b)
		c.Assert(pruned, chk.HasLen, len(full))
		for j := range full {
			c.Assert(pruned[j].Equal(full[j]), chk.Equals, true)
		}
	}
}

func (s *DiffSuite) TestPatchUnresolvablePath(c *chk.C) {
	t := build(n("root", n("a")))
	h := t.RootHash()

	changes := []Change{
		NewUpdate(Path{0}, NewNode("changed")),
		NewUpdate(Path{5}, NewNode("nowhere")),
	}
	err := Patch(t, changes)
	c.Check(errors.Is(err, ErrPathNotFound), chk.Equals, true)
	var pe *PatchError
	c.Assert(errors.As(err, &pe), chk.Equals, true)
	c.Check(pe.Path, chk.DeepEquals, Path{5})

	// Nothing was applied
	c.Check(t.RootHash(), chk.Equals, h)
	c.Check(Equal(t, build(n("root", n("a")))), chk.Equals, true)

	err = Patch(t, []Change{NewDeletion(Path{0, 3})})
	c.Check(errors.Is(err, ErrPathNotFound), chk.Equals, true)

	err = Patch(New(), []Change{NewUpdate(Path{}, NewNode("x"))})
	c.Check(errors.Is(err, ErrPathNotFound), chk.Equals, true)
}

func (s *DiffSuite) TestPatchAdditionChecks(c *chk.C) {
	t := build(n("root", n("a")))

	err := Patch(t, []Change{NewAddition(Path{0}, NewNode("x"))})
	c.Check(errors.Is(err, ErrUnexpectedAddition), chk.Equals, true)

	err = Patch(t, []Change{NewAddition(Path{3}, NewNode("x"))})
	c.Check(errors.Is(err, ErrAdditionOutOfOrder), chk.Equals, true)

	err = Patch(t, []Change{NewAddition(Path{}, NewNode("second root"))})
	c.Check(errors.Is(err, ErrUnexpectedAddition), chk.Equals, true)

	c.Check(Equal(t, build(n("root", n("a")))), chk.Equals, true)
}

func (s *DiffSuite) TestPatchConflicts(c *chk.C) {
	t := build(n("root", n("a", n("x")), n("b")))

	err := Patch(t, []Change{NewDeletion(Path{0}), NewUpdate(Path{0, 0}, NewNode("y"))})
	c.Check(errors.Is(err, ErrConflictingChanges), chk.Equals, true)

	err = Patch(t, []Change{NewDeletion(Path{1}), NewAddition(Path{2}, NewNode("c"))})
	c.Check(errors.Is(err, ErrConflictingChanges), chk.Equals, true)

	c.Check(t.Len(), chk.Equals, 4)
}

func (s *DiffSuite) TestPatchOneChangePerNode(c *chk.C) {
	want := build(n("root", n("a", n("x")), n("b")))
	pairs := [][]Change{
		{NewDeletion(Path{1}), NewUpdate(Path{1}, NewNode("c"))},
		{NewUpdate(Path{1}, NewNode("c")), NewDeletion(Path{1})},
		{NewUpdate(Path{1}, NewNode("c")), NewUpdate(Path{1}, NewNode("d"))},
		{NewDeletion(Path{0, 0}), NewDeletion(Path{0, 0})},
		{NewUpdate(Path{}, NewNode("top")), NewUpdate(Path{}, NewNode("other"))},
	}
	for i, changes := range pairs {
		t := build(n("root", n("a", n("x")), n("b")))
		err := Patch(t, changes)
		c.Check(errors.Is(err, ErrConflictingChanges), chk.Equals, true, chk.Commentf("pair %d", i))
		var pe *PatchError
		c.Assert(errors.As(err, &pe), chk.Equals, true)
		c.Check(pe.Path, chk.DeepEquals, changes[1].Path)
		c.Check(Equal(t, want), chk.Equals, true, chk.Commentf("pair %d", i))
	}
}

func (s *DiffSuite) TestPatchBaseHash(c *chk.C) {
	base := build(n("root", v("lit", "0")))
	target := build(n("root", v("lit", "1")))
	changes := Diff(base, target)

	other := build(n("root", v("lit", "9")))
	err := Patch(other, changes, WithBaseHash(base.RootHash()))
	c.Check(errors.Is(err, ErrBaseMismatch), chk.Equals, true)
	c.Check(Equal(other, build(n("root", v("lit", "9")))), chk.Equals, true)

	c.Assert(Patch(base, changes, WithBaseHash(base.RootHash())), chk.IsNil)
	c.Check(Equal(base, target), chk.Equals, true)

	// The check also holds for trees built without hashes
	plain := build(n("root", v("lit", "0")))
	want := plain.RootHash()
	plain.SetHashing(false)
	c.Check(Patch(plain, changes, WithBaseHash(want)), chk.IsNil)
}
