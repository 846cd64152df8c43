package tree

import (
	"math/rand"

	"github.com/pkg/errors"
	chk "gopkg.in/check.v1"
)

type ArenaSuite struct{}

var _ = chk.Suite(&ArenaSuite{})

func (s *ArenaSuite) TestInsertAppends(c *chk.C) {
	a := NewArena[string]()
	for i, w := range []string{"a", "b", "c"} {
		c.Check(a.Insert(w), chk.Equals, i)
	}
	c.Check(a.Len(), chk.Equals, 3)
	c.Check(a.Cap(), chk.Equals, 3)
	_, ok := a.FreeHead()
	c.Check(ok, chk.Equals, false)

	got, ok := a.Get(1)
	c.Assert(ok, chk.Equals, true)
	c.Check(*got, chk.Equals, "b")
}

func (s *ArenaSuite) TestFreeListIsOrdered(c *chk.C) {
	a := NewArena[int]()
	for i := 0; i < 10; i++ {
		a.Insert(i * 10)
	}
	for _, i := range []int{5, 2, 7, 0} {
		v, err := a.Free(i)
		c.Assert(err, chk.IsNil)
		c.Check(v, chk.Equals, i*10)
	}
	c.Check(a.FreeList(), chk.DeepEquals, []int{0, 2, 5, 7})
	c.Check(a.Len(), chk.Equals, 6)

	// Lowest free slot first, then append once the list is used up
	for _, want := range []int{0, 2, 5, 7, 10} {
		c.Check(a.Insert(-1), chk.Equals, want)
	}
	c.Check(a.FreeList(), chk.HasLen, 0)
}

func (s *ArenaSuite) TestFreeEmptySlot(c *chk.C) {
	a := NewArena[int]()
	a.Insert(1)
	_, err := a.Free(0)
	c.Assert(err, chk.IsNil)

	_, err = a.Free(0)
	c.Check(errors.Is(err, ErrSlotEmpty), chk.Equals, true)
	_, err = a.Free(12)
	c.Check(errors.Is(err, ErrSlotEmpty), chk.Equals, true)
	_, err = a.Free(-1)
	c.Check(errors.Is(err, ErrSlotEmpty), chk.Equals, true)

	_, ok := a.Get(0)
	c.Check(ok, chk.Equals, false)
	c.Check(a.FreeList(), chk.DeepEquals, []int{0})
}

func (s *ArenaSuite) TestNoSharedIdentities(c *chk.C) {
	r := rand.New(rand.NewSource(7))
	a := NewArena[int]()
	live := make(map[int]int)
	for step := 0; step < 5000; step++ {
		if len(live) > 0 && r.Intn(3) == 0 {
			// Free a random live slot
			var victim int
			k := r.Intn(len(live))
			for i := range live {
				if k == 0 {
					victim = i
					break
				}
				k--
			}
			v, err := a.Free(victim)
			c.Assert(err, chk.IsNil)
			c.Assert(v, chk.Equals, live[victim])
			delete(live, victim)
			continue
		}

		lowest, reuse := a.FreeHead()
		i := a.Insert(step)
		_, taken := live[i]
		c.Assert(taken, chk.Equals, false)
		if reuse {
			c.Assert(i, chk.Equals, lowest)
		}
		live[i] = step
	}

	c.Check(a.Len(), chk.Equals, len(live))
	for i, want := range live {
		got, ok := a.Get(i)
		c.Assert(ok, chk.Equals, true)
		c.Check(*got, chk.Equals, want)
	}
	free := a.FreeList()
	for j := 1; j < len(free); j++ {
		c.Check(free[j-1] < free[j], chk.Equals, true)
	}
}
