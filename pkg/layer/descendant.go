package layer

// eachFlag splits a set into its single-bit members, lowest first.
func eachFlag(set DescendantFlags) []DescendantFlags {
	var out []DescendantFlags
	for bit := DescendantFlags(1); bit != 0 && bit <= set; bit <<= 1 {
		if set&bit != 0 {
			out = append(out, bit)
		}
	}
	return out
}

// contributes reports whether n makes its structural parent's flag f true.
// n's own status for f must be clean.
func (t *Tree) contributes(n *node, f DescendantFlags) bool {
	switch f {
	case VisibleDescendant:
		return n.class.VisibleContent || n.status.Has(f)
	case SelfPaintingDescendant:
		return n.class.SelfPainting || n.status.Has(f)
	case ViewportConstrainedDescendant:
		return n.class.ViewportConstrained || n.status.Has(f)
	case NotIsolatedBlendingDescendant:
		// A CSS stacking context isolates the blending below it.
		return n.class.Blending || (n.status.Has(f) && !n.cssSC)
	case AlwaysIncludedDescendant:
		return n.class.AlwaysIncluded || n.status.Has(f)
	}
	return false
}

// setAncestorChainHasDescendant is the mark phase: the base condition of id
// may have become true. Ancestors are set eagerly until one already has the
// bit or is dirty; a dirty ancestor re-derives from its children anyway.
func (t *Tree) setAncestorChainHasDescendant(id ID, f DescendantFlags) {
	if !t.contributes(t.get(id), f) {
		return
	}
	for p := t.get(id).parent; !p.IsNone(); {
		pn := t.get(p)
		if pn.statusDirty.Has(f) || pn.status.Has(f) {
			return
		}
		pn.status |= f
		if !t.contributes(pn, f) {
			return
		}
		p = pn.parent
	}
}

// dirtyAncestorChainDescendantStatus is the clear phase: the base condition
// of id may have become false, so every ancestor has to re-derive. The walk
// stops at the first dirty ancestor since its ancestors are dirty too.
func (t *Tree) dirtyAncestorChainDescendantStatus(id ID, f DescendantFlags) {
	for p := t.get(id).parent; !p.IsNone(); {
		pn := t.get(p)
		if pn.statusDirty.Has(f) {
			return
		}
		pn.statusDirty |= f
		p = pn.parent
	}
}

// UpdateDescendantDependentFlags re-derives every dirty descendant-status bit
// of id from its children, bottom-up.
func (t *Tree) UpdateDescendantDependentFlags(id ID) {
	t.at(id)
	t.updateDescendantDependentFlags(id)
	t.update3DTransformedDescendantStatus(id)
}

func (t *Tree) updateDescendantDependentFlags(id ID) {
	n := t.get(id)
	dirty := n.statusDirty & structuralDescendantFlags
	if dirty == 0 {
		return
	}
	flags := eachFlag(dirty)
	var derived DescendantFlags
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		cn := t.get(c)
		if cn.statusDirty&structuralDescendantFlags != 0 {
			t.updateDescendantDependentFlags(c)
		}
		for _, f := range flags {
			if t.contributes(cn, f) {
				derived |= f
			}
		}
	}
	n.status = n.status&^dirty | derived
	n.statusDirty &^= dirty
}

func (t *Tree) descendantFlag(id ID, f DescendantFlags) bool {
	n := t.at(id)
	if n.statusDirty.Has(f) {
		t.updateDescendantDependentFlags(id)
	}
	return n.status.Has(f)
}

// mayContribute3D is a cheap over-approximation of whether the layer feeds
// its paint-order parent's Transformed3DDescendant bit.
func (t *Tree) mayContribute3D(id ID) bool {
	c := t.get(id).class
	return c.Transformed3D || c.Preserves3D
}

// dirty3DTransformedDescendantStatus invalidates the 3D bit of the layers
// whose lists contain id.
func (t *Tree) dirty3DTransformedDescendantStatus(id ID) {
	if p := t.PaintOrderParent(id); !p.IsNone() {
		t.mark3DTransformedDescendantDirty(p)
	}
}

// mark3DTransformedDescendantDirty dirties id and continues up the
// paint-order chain while layers preserve 3D. A flattening layer hides its
// descendants' 3D transforms from everything above it.
func (t *Tree) mark3DTransformedDescendantDirty(id ID) {
	for cur := id; !cur.IsNone(); {
		n := t.get(cur)
		n.statusDirty |= Transformed3DDescendant
		if !n.class.Preserves3D {
			return
		}
		cur = t.PaintOrderParent(cur)
	}
}

// update3DTransformedDescendantStatus re-derives the 3D bit from the
// paint-order lists and returns whether id makes its paint-order parent
// 3D-transformed-descendant.
func (t *Tree) update3DTransformedDescendantStatus(id ID) bool {
	n := t.get(id)
	if n.statusDirty.Has(Transformed3DDescendant) {
		t.updateLayerListsIfNeeded(id)
		n = t.get(id)
		has := false
		for _, list := range [][]ID{n.negZ, n.normalFlowList, n.posZ} {
			for _, c := range list {
				if t.update3DTransformedDescendantStatus(c) {
					has = true
				}
			}
		}
		if has {
			n.status |= Transformed3DDescendant
		} else {
			n.status &^= Transformed3DDescendant
		}
		n.statusDirty &^= Transformed3DDescendant
	}
	if n.class.Preserves3D {
		return n.class.Transformed3D || n.status.Has(Transformed3DDescendant)
	}
	return n.class.Transformed3D
}

// HasVisibleContent reports whether the layer paints visible content itself.
func (t *Tree) HasVisibleContent(id ID) bool { return t.at(id).class.VisibleContent }

// HasVisibleDescendant reports whether some strict descendant has visible
// content.
func (t *Tree) HasVisibleDescendant(id ID) bool {
	return t.descendantFlag(id, VisibleDescendant)
}

// HasSelfPaintingLayerDescendant reports whether some strict descendant is
// self-painting.
func (t *Tree) HasSelfPaintingLayerDescendant(id ID) bool {
	return t.descendantFlag(id, SelfPaintingDescendant)
}

func (t *Tree) HasViewportConstrainedDescendant(id ID) bool {
	return t.descendantFlag(id, ViewportConstrainedDescendant)
}

func (t *Tree) HasAlwaysIncludedDescendant(id ID) bool {
	return t.descendantFlag(id, AlwaysIncludedDescendant)
}

// HasNotIsolatedBlendingDescendants reports whether some descendant blends
// with no CSS stacking context between it and id.
func (t *Tree) HasNotIsolatedBlendingDescendants(id ID) bool {
	return t.descendantFlag(id, NotIsolatedBlendingDescendant)
}

// IsolatesBlending reports whether the layer is the group that blending
// descendants composite into.
func (t *Tree) IsolatesBlending(id ID) bool {
	return t.HasNotIsolatedBlendingDescendants(id) && t.get(id).cssSC
}

// Has3DTransformedDescendant reports whether a layer painted by id, through
// any chain of preserve-3d layers, has a 3D transform.
func (t *Tree) Has3DTransformedDescendant(id ID) bool {
	t.at(id)
	t.update3DTransformedDescendantStatus(id)
	return t.get(id).status.Has(Transformed3DDescendant)
}

// DescendantStatus returns the descendant flags of the layer, re-deriving
// any that are dirty.
func (t *Tree) DescendantStatus(id ID) DescendantFlags {
	t.UpdateDescendantDependentFlags(id)
	return t.get(id).status
}
