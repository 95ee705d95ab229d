package layer

import (
	"fmt"

	"go.uber.org/multierr"
)

// InvariantError describes one broken tree invariant.
type InvariantError struct {
	Invariant string
	Layer     ID
	Name      string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: layer %q (%v): %s", e.Invariant, e.Name, e.Layer, e.Detail)
}

const (
	InvariantLinks         = "links"
	InvariantListPartition = "list-partition"
	InvariantSortOrder     = "sort-order"
	InvariantNilLists      = "nil-lists"
	InvariantDescendants   = "descendant-status"
	InvariantCoarseBits    = "coarse-bits"
)

type verifier struct {
	t     *Tree
	err   error
	order map[ID]int
}

func (v *verifier) fail(invariant string, id ID, format string, args ...any) {
	v.err = multierr.Append(v.err, &InvariantError{
		Invariant: invariant,
		Layer:     id,
		Name:      v.t.get(id).name,
		Detail:    fmt.Sprintf(format, args...),
	})
}

// Verify checks every invariant of the attached tree and returns all
// violations combined with multierr. It brings lists and descendant status
// up to date first, so it reports what a consumer would observe.
func (t *Tree) Verify() error {
	v := &verifier{t: t, order: make(map[ID]int)}

	var all []ID
	var walk func(ID)
	walk = func(id ID) {
		v.order[id] = len(all)
		all = append(all, id)
		for c := t.get(id).first; !c.IsNone(); c = t.get(c).next {
			walk(c)
		}
	}
	walk(t.root)

	for _, id := range all {
		t.updateLayerListsIfNeeded(id)
	}
	t.updateDescendantDependentFlags(t.root)
	for _, id := range all {
		v.checkLinks(id)
		v.checkNilLists(id)
		v.checkSortOrder(id)
		v.checkCoarseBits(id)
	}
	v.checkPartition(all)
	v.checkDescendantStatus(t.root)
	return v.err
}

func (v *verifier) checkLinks(id ID) {
	t := v.t
	n := t.get(id)
	prev := None
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		cn := t.get(c)
		if !cn.live {
			v.fail(InvariantLinks, id, "child %v is not live", c)
			return
		}
		if cn.parent != id {
			v.fail(InvariantLinks, c, "parent is %v, want %v", cn.parent, id)
		}
		if cn.prev != prev {
			v.fail(InvariantLinks, c, "previous sibling is %v, want %v", cn.prev, prev)
		}
		prev = c
	}
	if n.last != prev {
		v.fail(InvariantLinks, id, "last child is %v, want %v", n.last, prev)
	}
}

func (v *verifier) checkNilLists(id ID) {
	n := v.t.get(id)
	if v.t.isStackingContext(n) {
		return
	}
	if n.posZ != nil || n.negZ != nil {
		v.fail(InvariantNilLists, id, "not a stacking context but has z-order lists")
	}
}

func (v *verifier) checkSortOrder(id ID) {
	t := v.t
	n := t.get(id)
	check := func(list []ID, negative bool) {
		for i, c := range list {
			z := t.get(c).class.EffectiveZIndex
			if negative != (z < 0) {
				v.fail(InvariantSortOrder, id, "%s with z-index %d is in the wrong bucket", t.get(c).name, z)
			}
			if i == 0 {
				continue
			}
			p := list[i-1]
			pz := t.get(p).class.EffectiveZIndex
			if pz > z || (pz == z && v.order[p] > v.order[c]) {
				v.fail(InvariantSortOrder, id, "%s (z=%d) is listed after %s (z=%d)",
					t.get(c).name, z, t.get(p).name, pz)
			}
		}
	}
	check(n.posZ, false)
	check(n.negZ, true)
}

func (v *verifier) checkPartition(all []ID) {
	t := v.t
	owner := make(map[ID]ID, len(all))
	count := make(map[ID]int, len(all))
	for _, id := range all {
		n := t.get(id)
		for _, list := range [][]ID{n.negZ, n.normalFlowList, n.posZ} {
			for _, c := range list {
				count[c]++
				owner[c] = id
			}
		}
	}
	for _, id := range all {
		if id == t.root {
			if count[id] != 0 {
				v.fail(InvariantListPartition, id, "root is listed %d times", count[id])
			}
			continue
		}
		if count[id] != 1 {
			v.fail(InvariantListPartition, id, "listed %d times, want 1", count[id])
			continue
		}
		if want := t.PaintOrderParent(id); owner[id] != want {
			v.fail(InvariantListPartition, id, "listed by %v, paint-order parent is %v", owner[id], want)
		}
	}
}

// checkDescendantStatus recomputes every descendant flag from scratch and
// compares it with the cached value. It returns what id contributes upward.
func (v *verifier) checkDescendantStatus(id ID) DescendantFlags {
	t := v.t
	var fresh DescendantFlags
	for c := t.get(id).first; !c.IsNone(); c = t.get(c).next {
		fresh |= v.checkDescendantStatus(c)
	}
	n := t.get(id)
	if n.statusDirty&structuralDescendantFlags == 0 {
		if got := n.status & structuralDescendantFlags; got != fresh {
			v.fail(InvariantDescendants, id, "status %v, recomputed %v", got, fresh)
		}
	}
	if fresh3D := v.fresh3D(id); t.Has3DTransformedDescendant(id) != fresh3D {
		v.fail(InvariantDescendants, id, "3D-transformed descendant is %v, recomputed %v", !fresh3D, fresh3D)
	}

	var up DescendantFlags
	c := n.class
	if c.VisibleContent || fresh.Has(VisibleDescendant) {
		up |= VisibleDescendant
	}
	if c.SelfPainting || fresh.Has(SelfPaintingDescendant) {
		up |= SelfPaintingDescendant
	}
	if c.ViewportConstrained || fresh.Has(ViewportConstrainedDescendant) {
		up |= ViewportConstrainedDescendant
	}
	if c.Blending || (fresh.Has(NotIsolatedBlendingDescendant) && !n.cssSC) {
		up |= NotIsolatedBlendingDescendant
	}
	if c.AlwaysIncluded || fresh.Has(AlwaysIncludedDescendant) {
		up |= AlwaysIncludedDescendant
	}
	return up
}

func (v *verifier) fresh3D(id ID) bool {
	t := v.t
	n := t.get(id)
	for _, list := range [][]ID{n.negZ, n.normalFlowList, n.posZ} {
		for _, c := range list {
			cn := t.get(c)
			if cn.class.Transformed3D || (cn.class.Preserves3D && v.fresh3D(c)) {
				return true
			}
		}
	}
	return false
}

func (v *verifier) checkCoarseBits(id ID) {
	t := v.t
	bits := t.get(id).compositing
	groups := []struct {
		fine, coarse CompositingDirty
	}{
		{RequirementsTraversalFlags | HasDescendantNeedingRequirementsTraversal, HasDescendantNeedingRequirementsTraversal},
		{BackingOrHierarchyTraversalFlags | HasDescendantNeedingBackingOrHierarchyTraversal, HasDescendantNeedingBackingOrHierarchyTraversal},
	}
	for _, g := range groups {
		if !bits.HasAny(g.fine) {
			continue
		}
		for p := t.get(id).parent; !p.IsNone(); p = t.get(p).parent {
			if !t.get(p).compositing.Has(g.coarse) {
				v.fail(InvariantCoarseBits, p, "missing %v while descendant %s has %v",
					g.coarse, t.get(id).name, bits&g.fine)
				break
			}
		}
	}
}
