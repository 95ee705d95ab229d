package layer

// IsStackingContext reports whether the layer establishes its own paint-order
// scope, either because its style demands it or because compositing forced
// it to.
func (t *Tree) IsStackingContext(id ID) bool {
	return t.isStackingContext(t.at(id))
}

func (t *Tree) isStackingContext(n *node) bool {
	return n.cssSC || n.opportunistic
}

// IsCSSStackingContext reports whether style alone makes the layer a
// stacking context. The root always is one.
func (t *Tree) IsCSSStackingContext(id ID) bool { return t.at(id).cssSC }

// IsOpportunisticStackingContext reports whether compositing forced the
// layer to be a stacking context.
func (t *Tree) IsOpportunisticStackingContext(id ID) bool { return t.at(id).opportunistic }

// IsNormalFlowOnly reports whether the layer is painted in its parent's
// normal-flow list instead of taking part in z-ordering.
func (t *Tree) IsNormalFlowOnly(id ID) bool { return t.at(id).normalFlowOnly }

// StackingContext returns the nearest strict ancestor that is a stacking
// context, or None for the root and for detached subtrees with no such
// ancestor.
func (t *Tree) StackingContext(id ID) ID {
	for p := t.at(id).parent; !p.IsNone(); {
		pn := t.get(p)
		if t.isStackingContext(pn) {
			return p
		}
		p = pn.parent
	}
	return None
}

// EnclosingStackingContext is StackingContext including the layer itself.
func (t *Tree) EnclosingStackingContext(id ID) ID {
	if t.isStackingContext(t.at(id)) {
		return id
	}
	return t.StackingContext(id)
}

// PaintOrderParent returns the layer whose lists contain id: the structural
// parent for normal-flow-only layers, otherwise the nearest stacking context
// ancestor.
func (t *Tree) PaintOrderParent(id ID) ID {
	n := t.at(id)
	if n.normalFlowOnly {
		return n.parent
	}
	return t.StackingContext(id)
}

// SetIsOpportunisticStackingContext forces or releases stacking-context
// status for compositing reasons and reports whether the flag changed.
func (t *Tree) SetIsOpportunisticStackingContext(id ID, v bool) bool {
	t.checkMutationAllowed()
	n := t.at(id)
	if n.opportunistic == v {
		return false
	}
	was := t.isStackingContext(n)
	n.opportunistic = v
	if was != t.isStackingContext(n) {
		t.isStackingContextChanged(id)
	}
	return true
}

// SetStyle delivers new style facts for the layer. The style is
// re-classified and every derived structure that depends on a changed fact
// is dirtied.
func (t *Tree) SetStyle(id ID, s Style) {
	t.checkMutationAllowed()
	n := t.at(id)
	if n.style == s {
		return
	}

	t.updateDescendantDependentFlags(id)
	var contributed DescendantFlags
	for _, f := range eachFlag(structuralDescendantFlags) {
		if t.contributes(n, f) {
			contributed |= f
		}
	}

	old := n.class
	oldStyle := n.style
	n.style = s
	n.class = t.classify(s)
	c := n.class

	t.setIsNormalFlowOnly(id, c.NormalFlowOnly && !n.forced)
	t.setIsCSSStackingContext(id, c.CSSStackingContext || n.forced)

	if c.EffectiveZIndex != old.EffectiveZIndex && !n.normalFlowOnly {
		if sc := t.StackingContext(id); !sc.IsNone() {
			t.dirtyZOrderLists(sc)
		}
	}

	for _, f := range eachFlag(structuralDescendantFlags) {
		was, now := contributed.Has(f), t.contributes(n, f)
		switch {
		case now && !was:
			t.setAncestorChainHasDescendant(id, f)
		case was && !now:
			t.dirtyAncestorChainDescendantStatus(id, f)
		}
	}
	if c.Transformed3D != old.Transformed3D || c.Preserves3D != old.Preserves3D {
		n.statusDirty |= Transformed3DDescendant
		t.dirty3DTransformedDescendantStatus(id)
	}

	if c.Transformed != old.Transformed || c.Transformed3D != old.Transformed3D ||
		(oldStyle.Position == PositionFixed) != (s.Position == PositionFixed) {
		t.SetSelfAndDescendantsNeedPositionUpdate(id)
	}

	bits := NeedsPostLayoutUpdate | NeedsConfigurationUpdate
	if c.Scrollable != old.Scrollable || c.ViewportConstrained != old.ViewportConstrained {
		bits |= NeedsScrollingTreeUpdate
	}
	if c.DirectlyComposited != old.DirectlyComposited {
		bits |= NeedsLayerConnection
	}
	t.SetCompositingDirty(id, bits)

	t.log.Debug("style changed", layerField(t, id))
}

func (t *Tree) setIsNormalFlowOnly(id ID, v bool) {
	n := t.get(id)
	if n.normalFlowOnly == v {
		return
	}
	n.normalFlowOnly = v
	if !n.parent.IsNone() {
		t.dirtyNormalFlowList(n.parent)
	}
	if sc := t.StackingContext(id); !sc.IsNone() {
		t.dirtyZOrderLists(sc)
	}
}

func (t *Tree) setIsCSSStackingContext(id ID, v bool) {
	n := t.get(id)
	if n.cssSC == v {
		return
	}
	was := t.isStackingContext(n)
	n.cssSC = v
	if was != t.isStackingContext(n) {
		t.isStackingContextChanged(id)
	}
}

// isStackingContextChanged re-files the layer's z-ordered descendants. They
// move between the layer's own lists and its stacking context's lists.
func (t *Tree) isStackingContextChanged(id ID) {
	if sc := t.StackingContext(id); !sc.IsNone() {
		t.dirtyZOrderLists(sc)
	}
	n := t.get(id)
	if t.isStackingContext(n) {
		t.dirtyZOrderLists(id)
	} else {
		t.clearZOrderLists(id)
	}
	t.SetCompositingDirty(id, NeedsPaintOrderChildrenUpdate|DescendantsNeedRequirementsTraversal|
		DescendantsNeedBackingAndHierarchyTraversal)
}
