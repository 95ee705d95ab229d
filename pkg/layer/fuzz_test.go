package layer

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

type fuzzer struct {
	t        *testing.T
	tr       *Tree
	rng      *rand.Rand
	attached []ID
	detached []ID
	next     int

	// noTraversals restricts steps to mutations and dirty marks so pending
	// work piles up between checks.
	noTraversals bool
}

func newFuzzer(t *testing.T, seed uint64) *fuzzer {
	f := &fuzzer{
		t:   t,
		tr:  NewTree("root", WithAssertions(true)),
		rng: rand.New(rand.NewPCG(seed, 1414)),
	}
	f.tr.SetGeometry(f.tr.Root(), box(0, 0, 800, 600))
	f.refresh()
	return f
}

func (f *fuzzer) style() Style {
	r := f.rng
	s := NewStyle()
	switch r.IntN(5) {
	case 1:
		s.Position = PositionRelative
	case 2:
		s.Position = PositionAbsolute
	case 3:
		s.Position = PositionFixed
	}
	if r.IntN(2) == 0 {
		s.ZIndexAuto = false
		s.ZIndex = r.IntN(7) - 3
	}
	if r.IntN(6) == 0 {
		s.Opacity = 0.5
	}
	if r.IntN(8) == 0 {
		s.Overflow = Overflow(1 + r.IntN(4))
	}
	s.Composited = r.IntN(8) == 0
	s.Preserve3D = r.IntN(8) == 0
	s.Transform3D = r.IntN(8) == 0
	s.Isolation = r.IntN(10) == 0
	if r.IntN(8) == 0 {
		s.Blend = BlendScreen
	}
	if r.IntN(4) == 0 {
		s.Visibility = VisibilityHidden
	}
	return s
}

func (f *fuzzer) geometry() Geometry {
	r := f.rng
	return box(float64(r.IntN(400)), float64(r.IntN(400)), float64(1+r.IntN(200)), float64(1+r.IntN(200)))
}

func (f *fuzzer) pick(ids []ID) ID {
	return ids[f.rng.IntN(len(ids))]
}

func (f *fuzzer) refresh() {
	f.attached = f.attached[:0]
	var walk func(ID)
	walk = func(id ID) {
		f.attached = append(f.attached, id)
		for _, c := range f.tr.Children(id) {
			walk(c)
		}
	}
	walk(f.tr.Root())

	live := f.detached[:0]
	for _, id := range f.detached {
		if f.tr.Valid(id) && f.tr.Parent(id).IsNone() {
			live = append(live, id)
		}
	}
	f.detached = live
}

func (f *fuzzer) step() string {
	tr, r := f.tr, f.rng
	op := r.IntN(10)
	if f.noTraversals {
		op = r.IntN(8)
	}
	switch {
	case op < 3 || len(f.attached) < 4:
		parent := f.pick(f.attached)
		var child ID
		if len(f.detached) > 0 && r.IntN(3) == 0 {
			child = f.detached[len(f.detached)-1]
			f.detached = f.detached[:len(f.detached)-1]
		} else {
			f.next++
			child = tr.Create(fmt.Sprintf("l%d", f.next), f.style())
			tr.SetGeometry(child, f.geometry())
		}
		before := None
		if kids := tr.Children(parent); len(kids) > 0 && r.IntN(2) == 0 {
			before = f.pick(kids)
		}
		tr.AddChild(parent, child, before)
		return "add " + tr.Name(child)
	case op == 3:
		id := f.pick(f.attached[1:])
		if r.IntN(2) == 0 {
			tr.RemoveChild(tr.Parent(id), id)
			f.detached = append(f.detached, id)
			return "remove " + tr.Name(id)
		}
		name := tr.Name(id)
		if r.IntN(2) == 0 {
			tr.RemoveOnlyThisLayer(id)
			return "remove only " + name
		}
		tr.Destroy(id)
		return "destroy " + name
	case op == 4:
		id := f.pick(f.attached[1:])
		tr.SetStyle(id, f.style())
		return "style " + tr.Name(id)
	case op == 5:
		id := f.pick(f.attached)
		tr.SetGeometry(id, f.geometry())
		return "geometry " + tr.Name(id)
	case op == 6:
		id := f.pick(f.attached)
		tr.SetIsOpportunisticStackingContext(id, r.IntN(2) == 0)
		return "opportunistic " + tr.Name(id)
	case op == 7:
		id := f.pick(f.attached)
		bit := CompositingDirty(1) << (2 + r.IntN(10))
		tr.SetCompositingDirty(id, bit)
		return fmt.Sprintf("mark %s %v", tr.Name(id), bit)
	case op == 8:
		id := f.pick(f.attached)
		if r.IntN(2) == 0 {
			tr.UpdateCompositingRequirements(id)
			return "requirements from " + tr.Name(id)
		}
		tr.UpdateBackingAndHierarchy(id)
		return "backing from " + tr.Name(id)
	default:
		tr.UpdatePass()
		f.checkTraversalComplete()
		return "pass"
	}
}

func (f *fuzzer) checkCoarseBits(what string) {
	f.t.Helper()
	v := &verifier{t: f.tr}
	for _, id := range f.attached {
		v.checkCoarseBits(id)
	}
	if v.err != nil {
		f.t.Fatalf("after %s: %v", what, v.err)
	}
}

func (f *fuzzer) checkTraversalComplete() {
	f.t.Helper()
	for _, id := range f.attached {
		if bits := f.tr.CompositingDirtyBits(id); bits != 0 {
			f.t.Fatalf("%s kept %v after a full pass", f.tr.Name(id), bits)
		}
	}
}

// run applies steps random steps, checking coarse bits after each one and
// the full invariant set every verifyEvery steps.
func (f *fuzzer) run(steps, verifyEvery int) {
	f.t.Helper()
	for i := 1; i <= steps; i++ {
		what := f.step()
		f.refresh()
		f.checkCoarseBits(what)
		if i%verifyEvery != 0 {
			continue
		}
		if err := f.tr.Verify(); err != nil {
			f.t.Fatalf("step %d, after %s: %v", i, what, err)
		}
	}
}

// settle runs two passes and checks that the second one finds nothing to do.
func (f *fuzzer) settle() {
	f.t.Helper()
	f.tr.UpdatePass()
	f.refresh()
	f.checkTraversalComplete()
	order := f.tr.PaintOrder(f.tr.Root())
	second := f.tr.UpdatePass()
	if n := len(second.Requirements.Visited) + len(second.Backing.Visited); n != 0 {
		f.t.Errorf("second pass visited %d layers", n)
	}
	if got := f.tr.PaintOrder(f.tr.Root()); len(got) != len(order) {
		f.t.Errorf("paint order length changed: %d -> %d", len(order), len(got))
	}
	if err := f.tr.Verify(); err != nil {
		f.t.Errorf("after settling: %v", err)
	}
}

func TestFuzz_RandomMutations(t *testing.T) {
	for seed := uint64(1); seed <= 8; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			f := newFuzzer(t, seed)
			f.run(300, 1)
			f.settle()
		})
	}
}

// Verify brings descendant status up to date, so checking it after every
// step never lets dirty ancestors and fresh marks interleave.
func TestFuzz_PendingWorkAccumulates(t *testing.T) {
	for seed := uint64(21); seed <= 28; seed++ {
		t.Run(fmt.Sprint(seed), func(t *testing.T) {
			f := newFuzzer(t, seed)
			f.noTraversals = true
			f.run(200, 25)
			f.noTraversals = false
			f.run(100, 25)
			f.settle()
		})
	}
}
