package layer

// Chain selects which parent link an ancestor walk follows.
type Chain uint8

const (
	// StructuralChain follows structural parents. Containment properties
	// such as clipping and scrolling use it.
	StructuralChain Chain = iota
	// PaintOrderChain follows paint-order parents. Properties that layer
	// painted output, such as compositing and filters, use it.
	PaintOrderChain
)

func (c Chain) String() string {
	if c == PaintOrderChain {
		return "paint-order"
	}
	return "structural"
}

func (t *Tree) step(id ID, chain Chain) ID {
	if chain == PaintOrderChain {
		return t.PaintOrderParent(id)
	}
	return t.get(id).parent
}

// EnclosingLayer returns the nearest layer on the chosen chain above id
// (or id itself when includeSelf is set) for which pred holds, or None.
func (t *Tree) EnclosingLayer(id ID, chain Chain, includeSelf bool, pred func(ID) bool) ID {
	t.at(id)
	cur := id
	if !includeSelf {
		cur = t.step(cur, chain)
	}
	for ; !cur.IsNone(); cur = t.step(cur, chain) {
		if pred(cur) {
			return cur
		}
	}
	return None
}

// EnclosingCompositingLayer follows the paint-order chain.
func (t *Tree) EnclosingCompositingLayer(id ID, includeSelf bool) ID {
	return t.EnclosingLayer(id, PaintOrderChain, includeSelf, func(l ID) bool {
		return t.get(l).composited
	})
}

// EnclosingFilterLayer follows the paint-order chain.
func (t *Tree) EnclosingFilterLayer(id ID, includeSelf bool) ID {
	return t.EnclosingLayer(id, PaintOrderChain, includeSelf, func(l ID) bool {
		s := t.get(l).style
		return s.Filter || s.BackdropFilter
	})
}

// EnclosingClippingLayer follows the structural chain.
func (t *Tree) EnclosingClippingLayer(id ID, includeSelf bool) ID {
	return t.EnclosingLayer(id, StructuralChain, includeSelf, func(l ID) bool {
		return t.get(l).class.ClipsOverflow
	})
}

// EnclosingScrollableLayer follows the structural chain.
func (t *Tree) EnclosingScrollableLayer(id ID, includeSelf bool) ID {
	return t.EnclosingLayer(id, StructuralChain, includeSelf, func(l ID) bool {
		return t.get(l).class.Scrollable
	})
}

// EnclosingTransformedAncestor returns the nearest strict structural
// ancestor with a transform.
func (t *Tree) EnclosingTransformedAncestor(id ID) ID {
	return t.EnclosingLayer(id, StructuralChain, false, func(l ID) bool {
		return t.get(l).class.Transformed
	})
}

// Depth returns the number of structural ancestors of id.
func (t *Tree) Depth(id ID) int {
	d := 0
	for p := t.at(id).parent; !p.IsNone(); p = t.get(p).parent {
		d++
	}
	return d
}

// IsDescendantOf reports whether id is a strict structural descendant of
// ancestor.
func (t *Tree) IsDescendantOf(id, ancestor ID) bool {
	t.at(ancestor)
	for p := t.at(id).parent; !p.IsNone(); p = t.get(p).parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// CommonAncestor returns the deepest layer that is an ancestor of, or equal
// to, both a and b. It is None when they are in different detached
// subtrees.
func (t *Tree) CommonAncestor(a, b ID) ID {
	da, db := t.Depth(a), t.Depth(b)
	for ; da > db; da-- {
		a = t.get(a).parent
	}
	for ; db > da; db-- {
		b = t.get(b).parent
	}
	for a != b {
		a, b = t.get(a).parent, t.get(b).parent
	}
	return a
}
