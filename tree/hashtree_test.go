package tree

import (
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	chk "gopkg.in/check.v1"
)

type HashTreeSuite struct{}

var _ = chk.Suite(&HashTreeSuite{})

func checkHashes(c *chk.C, t *HashTree) {
	c.Assert(t.Verify(), chk.IsNil)
	for id, want := range freshHashes(t) {
		got, _ := t.Hash(id)
		c.Assert(got, chk.Equals, want, chk.Commentf("node %d", id))
	}
}

func (s *HashTreeSuite) TestInsertPropagates(c *chk.C) {
	t := New()
	root := t.InsertRoot(NewNode("root"))
	before := t.RootHash()

	a, err := t.Insert(root, NewNode("a"))
	c.Assert(err, chk.IsNil)
	c.Check(t.RootHash(), chk.Not(chk.Equals), before)
	afterA := t.RootHash()

	_, err = t.Insert(a, NewNode("b"))
	c.Assert(err, chk.IsNil)
	c.Check(t.RootHash(), chk.Not(chk.Equals), afterA)
	c.Check(t.Children(root), chk.DeepEquals, []NodeID{a})
	p, ok := t.Parent(a)
	c.Check(ok, chk.Equals, true)
	c.Check(p, chk.Equals, root)
	checkHashes(c, t)
}

func (s *HashTreeSuite) TestInsertMissingParent(c *chk.C) {
	t := build(n("root", n("a")))
	h, size := t.RootHash(), t.Len()

	_, err := t.Insert(42, NewNode("x"))
	c.Check(errors.Is(err, ErrParentNotFound), chk.Equals, true)
	var te *Error
	c.Assert(errors.As(err, &te), chk.Equals, true)
	c.Check(te.ID, chk.Equals, NodeID(42))
	c.Check(t.RootHash(), chk.Equals, h)
	c.Check(t.Len(), chk.Equals, size)
}

func (s *HashTreeSuite) TestSetValue(c *chk.C) {
	t := build(n("root", v("lit", "0"), v("lit", "1")))
	original := t.RootHash()
	kid := t.Children(0)[1]

	c.Assert(t.SetValue(kid, NewNode("lit").WithValue("2")), chk.IsNil)
	c.Check(t.RootHash(), chk.Not(chk.Equals), original)
	checkHashes(c, t)

	c.Assert(t.SetValue(kid, NewNode("lit").WithValue("1")), chk.IsNil)
	c.Check(t.RootHash(), chk.Equals, original)

	err := t.SetValue(99, NewNode("x"))
	c.Check(errors.Is(err, ErrNodeNotFound), chk.Equals, true)
}

func (s *HashTreeSuite) TestChildOrderMatters(c *chk.C) {
	ab := build(n("root", n("a"), n("b")))
	ba := build(n("root", n("b"), n("a")))
	c.Check(ab.RootHash(), chk.Not(chk.Equals), ba.RootHash())
}

func (s *HashTreeSuite) TestValueAndRoleDoNotCollide(c *chk.C) {
	x := build(shape{node: NewNode("k").WithValue("ab")})
	y := build(shape{node: NewNode("k").WithRole("ab")})
	z := build(shape{node: NewNode("k").WithValue("a").WithRole("b")})
	c.Check(x.RootHash(), chk.Not(chk.Equals), y.RootHash())
	c.Check(x.RootHash(), chk.Not(chk.Equals), z.RootHash())
	c.Check(y.RootHash(), chk.Not(chk.Equals), z.RootHash())
}

func (s *HashTreeSuite) TestMove(c *chk.C) {
	t := build(n("root", n("a", n("x")), n("b")))
	root, _ := t.Root()
	a, b := t.Children(root)[0], t.Children(root)[1]
	x := t.Children(a)[0]

	c.Assert(t.Move(x, b), chk.IsNil)
	c.Check(t.Children(a), chk.HasLen, 0)
	c.Check(t.Children(b), chk.DeepEquals, []NodeID{x})
	p, _ := t.Parent(x)
	c.Check(p, chk.Equals, b)
	checkHashes(c, t)
	c.Check(Equal(t, build(n("root", n("a"), n("b", n("x"))))), chk.Equals, true)
	c.Check(t.RootHash(), chk.Equals, build(n("root", n("a"), n("b", n("x")))).RootHash())
}

func (s *HashTreeSuite) TestMoveFailures(c *chk.C) {
	t := build(n("root", n("a", n("x")), n("b")))
	root, _ := t.Root()
	a := t.Children(root)[0]
	x := t.Children(a)[0]
	h := t.RootHash()

	c.Check(errors.Is(t.Move(root, a), ErrIsRoot), chk.Equals, true)
	c.Check(errors.Is(t.Move(77, a), ErrNodeNotFound), chk.Equals, true)
	c.Check(errors.Is(t.Move(a, 77), ErrParentNotFound), chk.Equals, true)
	c.Check(errors.Is(t.Move(a, x), ErrCycle), chk.Equals, true)
	c.Check(errors.Is(t.Move(a, a), ErrCycle), chk.Equals, true)

	c.Check(t.RootHash(), chk.Equals, h)
	c.Check(Equal(t, build(n("root", n("a", n("x")), n("b")))), chk.Equals, true)
}

func (s *HashTreeSuite) TestRemoveSubtree(c *chk.C) {
	t := build(n("root", n("a", n("x"), n("y", n("z"))), n("b")))
	root, _ := t.Root()
	a := t.Children(root)[0]

	removed, err := t.Remove(a)
	c.Assert(err, chk.IsNil)
	c.Check(removed.Kind, chk.Equals, "a")
	c.Check(t.Len(), chk.Equals, 2)
	c.Check(t.Contains(a), chk.Equals, false)
	checkHashes(c, t)
	c.Check(t.RootHash(), chk.Equals, build(n("root", n("b"))).RootHash())

	// Freed slots are reused lowest first
	id, err := t.Insert(root, NewNode("c"))
	c.Assert(err, chk.IsNil)
	c.Check(id, chk.Equals, a)

	_, err = t.Remove(a + 100)
	c.Check(errors.Is(err, ErrNodeNotFound), chk.Equals, true)
}

func (s *HashTreeSuite) TestRemoveRoot(c *chk.C) {
	t := build(n("root", n("a"), n("b")))
	root, _ := t.Root()
	_, err := t.Remove(root)
	c.Assert(err, chk.IsNil)
	_, ok := t.Root()
	c.Check(ok, chk.Equals, false)
	c.Check(t.Len(), chk.Equals, 0)
	c.Check(t.RootHash(), chk.Equals, uint64(0))
	c.Check(t.Verify(), chk.IsNil)
}

func (s *HashTreeSuite) TestDeepRemove(c *chk.C) {
	// A chain deep enough to hurt a recursive walk
	t := New()
	id := t.InsertRoot(NewNode("root"))
	t.SetHashing(false)
	for i := 0; i < 100000; i++ {
		id, _ = t.Insert(id, NewNode("link"))
	}
	t.SetHashing(true)
	c.Assert(t.Verify(), chk.IsNil)

	root, _ := t.Root()
	_, err := t.Remove(t.Children(root)[0])
	c.Assert(err, chk.IsNil)
	c.Check(t.Len(), chk.Equals, 1)
}

func (s *HashTreeSuite) TestHashingToggle(c *chk.C) {
	t := New()
	t.SetHashing(false)
	root := t.InsertRoot(NewNode("root"))
	for _, k := range []string{"a", "b", "c"} {
		_, err := t.Insert(root, NewNode(k))
		c.Assert(err, chk.IsNil)
	}
	c.Check(t.RootHash(), chk.Equals, uint64(0))

	t.SetHashing(true)
	c.Check(t.Hashing(), chk.Equals, true)
	checkHashes(c, t)
	c.Check(t.RootHash(), chk.Equals, build(n("root", n("a"), n("b"), n("c"))).RootHash())
}

func (s *HashTreeSuite) TestRandomMutationsKeepHashes(c *chk.C) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		t := randomTree(r, 1+r.Intn(40))
		for step := 0; step < 30; step++ {
			t = mutate(r, t)
			checkHashes(c, t)
		}
	}
}

func (s *HashTreeSuite) TestPaths(c *chk.C) {
	t := build(n("root", n("a", n("x"), n("y")), n("b")))
	y, ok := t.Lookup(Path{0, 1})
	c.Assert(ok, chk.Equals, true)
	nd, _ := t.Node(y)
	c.Check(nd.Kind, chk.Equals, "y")

	p, ok := t.PathOf(y)
	c.Assert(ok, chk.Equals, true)
	c.Check(p, chk.DeepEquals, Path{0, 1})

	root, _ := t.Root()
	p, ok = t.PathOf(root)
	c.Check(ok, chk.Equals, true)
	c.Check(p, chk.HasLen, 0)

	_, ok = t.Lookup(Path{2})
	c.Check(ok, chk.Equals, false)
	_, ok = t.Lookup(Path{0, -1})
	c.Check(ok, chk.Equals, false)
}

func (s *HashTreeSuite) TestInsertRootOrphans(c *chk.C) {
	t := build(n("old", n("a")))
	t.InsertRoot(NewNode("new"))
	c.Check(t.Len(), chk.Equals, 3)
	c.Check(Equal(t, build(n("new"))), chk.Equals, true)
	_, ok := t.PathOf(0)
	c.Check(ok, chk.Equals, false)
}

func (s *HashTreeSuite) TestFprint(c *chk.C) {
	t := build(n("root", n("a", n("x")), n("b", v("lit", "7"))))
	t.SetHashing(false)
	want := strings.Join([]string{
		"root",
		"┣━━━a",
		"┃   ┗━━━x",
		"┗━━━b",
		"    ┗━━━lit \"7\"",
		"",
	}, "\n")
	c.Check(t.String(), chk.Equals, want)
	c.Check(New().String(), chk.Equals, "(empty)\n")
}
