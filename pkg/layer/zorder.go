package layer

import (
	"cmp"
	"slices"
)

func (t *Tree) dirtyZOrderLists(id ID) {
	n := t.get(id)
	t.assert(t.isStackingContext(n), "dirtying z-order lists of non-stacking context %s", n.name)
	n.zOrderListsDirty = true
	t.mark3DTransformedDescendantDirty(id)
	t.SetCompositingDirty(id, NeedsPaintOrderChildrenUpdate)
}

func (t *Tree) dirtyNormalFlowList(id ID) {
	n := t.get(id)
	n.normalFlowListDirty = true
	t.mark3DTransformedDescendantDirty(id)
	t.SetCompositingDirty(id, NeedsPaintOrderChildrenUpdate)
}

// clearZOrderLists drops the lists of a layer that stopped being a stacking
// context. Its former members are re-filed by its stacking context.
func (t *Tree) clearZOrderLists(id ID) {
	n := t.get(id)
	n.posZ, n.negZ = nil, nil
	n.zOrderListsDirty = false
	t.mark3DTransformedDescendantDirty(id)
}

func (t *Tree) dirtyPaintOrderListsOnChildChange(child ID) {
	c := t.get(child)
	if c.normalFlowOnly && !c.parent.IsNone() {
		t.dirtyNormalFlowList(c.parent)
	}
	if !c.normalFlowOnly || !c.first.IsNone() {
		if sc := t.StackingContext(child); !sc.IsNone() {
			t.dirtyZOrderLists(sc)
		}
	}
}

func (t *Tree) updateLayerListsIfNeeded(id ID) {
	t.updateZOrderLists(id)
	t.updateNormalFlowList(id)
}

func (t *Tree) updateZOrderLists(id ID) {
	n := t.get(id)
	if !n.zOrderListsDirty {
		return
	}
	if !t.isStackingContext(n) {
		t.clearZOrderLists(id)
		return
	}

	t.listRebuilds++
	var pos, neg []ID
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		t.collectLayers(c, &pos, &neg)
	}
	byZ := func(a, b ID) int {
		return cmp.Compare(t.get(a).class.EffectiveZIndex, t.get(b).class.EffectiveZIndex)
	}
	slices.SortStableFunc(pos, byZ)
	slices.SortStableFunc(neg, byZ)

	hadNeg := len(n.negZ) > 0
	n.posZ, n.negZ = pos, neg
	n.zOrderListsDirty = false
	if hadNeg != (len(neg) > 0) {
		t.SetCompositingDirty(id, NeedsConfigurationUpdate)
	}
}

// collectLayers files id and, unless id is itself a stacking context, its
// z-ordered descendants into the buckets of the stacking context being
// rebuilt.
func (t *Tree) collectLayers(id ID, pos, neg *[]ID) {
	n := t.get(id)
	if !n.normalFlowOnly {
		if n.class.EffectiveZIndex < 0 {
			*neg = append(*neg, id)
		} else {
			*pos = append(*pos, id)
		}
	}
	if t.isStackingContext(n) {
		return
	}
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		t.collectLayers(c, pos, neg)
	}
}

func (t *Tree) updateNormalFlowList(id ID) {
	n := t.get(id)
	if !n.normalFlowListDirty {
		return
	}
	var list []ID
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		if t.get(c).normalFlowOnly {
			list = append(list, c)
		}
	}
	n.normalFlowList = list
	n.normalFlowListDirty = false
}

// PositiveZOrderList returns the z-ordered layers with z-index >= 0 painted
// by this stacking context, in paint order. It is nil for layers that are
// not stacking contexts and for stacking contexts with no such layers.
func (t *Tree) PositiveZOrderList(id ID) []ID {
	t.at(id)
	t.updateZOrderLists(id)
	return slices.Clone(t.get(id).posZ)
}

// NegativeZOrderList is PositiveZOrderList for negative z-indices.
func (t *Tree) NegativeZOrderList(id ID) []ID {
	t.at(id)
	t.updateZOrderLists(id)
	return slices.Clone(t.get(id).negZ)
}

// NormalFlowList returns the normal-flow-only children of the layer in
// sibling order.
func (t *Tree) NormalFlowList(id ID) []ID {
	t.at(id)
	t.updateNormalFlowList(id)
	return slices.Clone(t.get(id).normalFlowList)
}

// HasNegativeZOrderList reports whether the stacking context paints any
// layer below its own background.
func (t *Tree) HasNegativeZOrderList(id ID) bool {
	t.at(id)
	t.updateZOrderLists(id)
	return len(t.get(id).negZ) > 0
}

func (t *Tree) ZOrderListsDirty(id ID) bool { return t.at(id).zOrderListsDirty }

func (t *Tree) NormalFlowListDirty(id ID) bool { return t.at(id).normalFlowListDirty }

// UpdateLayerLists brings every list in the subtree up to date.
func (t *Tree) UpdateLayerLists(root ID) {
	t.at(root)
	t.updateLayerLists(root)
}

func (t *Tree) updateLayerLists(id ID) {
	t.updateLayerListsIfNeeded(id)
	for c := t.get(id).first; !c.IsNone(); c = t.get(c).next {
		t.updateLayerLists(c)
	}
}

// ForEachPaintOrderChild calls fn for each layer in the negative z-order,
// normal-flow and positive z-order lists of id, back to front. The tree must
// not be mutated from fn.
func (t *Tree) ForEachPaintOrderChild(id ID, fn func(child ID)) {
	t.at(id)
	t.updateLayerListsIfNeeded(id)
	n := t.get(id)

	t.listIterations++
	defer func() { t.listIterations-- }()

	for _, c := range n.negZ {
		fn(c)
	}
	for _, c := range n.normalFlowList {
		fn(c)
	}
	for _, c := range n.posZ {
		fn(c)
	}
}

// PaintOrder returns the subtree rooted at root back to front: for each
// layer its negative z-order list, then itself, then its normal-flow list,
// then its positive z-order list, recursively.
func (t *Tree) PaintOrder(root ID) []ID {
	t.at(root)
	var out []ID
	t.paintOrder(root, &out)
	return out
}

func (t *Tree) paintOrder(id ID, out *[]ID) {
	t.updateLayerListsIfNeeded(id)
	n := t.get(id)
	for _, c := range n.negZ {
		t.paintOrder(c, out)
	}
	*out = append(*out, id)
	for _, c := range n.normalFlowList {
		t.paintOrder(c, out)
	}
	for _, c := range n.posZ {
		t.paintOrder(c, out)
	}
}

// HitTestOrder is PaintOrder reversed: the topmost layer comes first.
func (t *Tree) HitTestOrder(root ID) []ID {
	out := t.PaintOrder(root)
	slices.Reverse(out)
	return out
}
