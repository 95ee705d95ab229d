package layer

const coarseCompositingFlags = HasDescendantNeedingRequirementsTraversal |
	HasDescendantNeedingBackingOrHierarchyTraversal

// SetCompositingDirty adds fine-grained traversal bits to the layer and
// records on its structural ancestors that a descendant needs the matching
// traversal. Coarse bits passed in are ignored.
func (t *Tree) SetCompositingDirty(id ID, bits CompositingDirty) {
	n := t.at(id)
	bits &^= coarseCompositingFlags
	n.compositing |= bits
	if bits.HasAny(RequirementsTraversalFlags) {
		t.setAncestorsHaveCompositingDirtyFlag(id, HasDescendantNeedingRequirementsTraversal)
	}
	if bits.HasAny(BackingOrHierarchyTraversalFlags) {
		t.setAncestorsHaveCompositingDirtyFlag(id, HasDescendantNeedingBackingOrHierarchyTraversal)
	}
}

func (t *Tree) setAncestorsHaveCompositingDirtyFlag(id ID, flag CompositingDirty) {
	for p := t.get(id).parent; !p.IsNone(); {
		pn := t.get(p)
		if pn.compositing.Has(flag) {
			return
		}
		pn.compositing |= flag
		p = pn.parent
	}
}

// CompositingDirtyBits returns the layer's traversal bits, fine and coarse.
func (t *Tree) CompositingDirtyBits(id ID) CompositingDirty { return t.at(id).compositing }

func (t *Tree) SetNeedsCompositingPaintOrderChildrenUpdate(id ID) {
	t.SetCompositingDirty(id, NeedsPaintOrderChildrenUpdate)
}

func (t *Tree) SetNeedsPostLayoutCompositingUpdate(id ID) {
	t.SetCompositingDirty(id, NeedsPostLayoutUpdate)
}

// SetDescendantsNeedCompositingRequirementsTraversal forces the next
// requirements walk through the layer's whole subtree.
func (t *Tree) SetDescendantsNeedCompositingRequirementsTraversal(id ID) {
	t.SetCompositingDirty(id, DescendantsNeedRequirementsTraversal)
}

// SetSubsequentLayersNeedCompositingRequirementsTraversal forces the next
// requirements walk through every layer it reaches after this one, since
// they may now overlap differently.
func (t *Tree) SetSubsequentLayersNeedCompositingRequirementsTraversal(id ID) {
	t.SetCompositingDirty(id, SubsequentLayersNeedRequirementsTraversal)
}

func (t *Tree) SetNeedsCompositingGeometryUpdate(id ID) {
	t.SetCompositingDirty(id, NeedsGeometryUpdate)
}

func (t *Tree) SetNeedsCompositingConfigurationUpdate(id ID) {
	t.SetCompositingDirty(id, NeedsConfigurationUpdate)
}

func (t *Tree) SetNeedsScrollingTreeUpdate(id ID) {
	t.SetCompositingDirty(id, NeedsScrollingTreeUpdate)
}

func (t *Tree) SetNeedsCompositingLayerConnection(id ID) {
	t.SetCompositingDirty(id, NeedsLayerConnection)
}

func (t *Tree) SetChildrenNeedCompositingGeometryUpdate(id ID) {
	t.SetCompositingDirty(id, ChildrenNeedGeometryUpdate)
}

func (t *Tree) SetDescendantsNeedUpdateBackingAndHierarchyTraversal(id ID) {
	t.SetCompositingDirty(id, DescendantsNeedBackingAndHierarchyTraversal)
}

// NeedsCompositingRequirementsTraversal reports whether the layer itself,
// not only a descendant, has requirements work pending.
func (t *Tree) NeedsCompositingRequirementsTraversal(id ID) bool {
	return t.at(id).compositing.HasAny(RequirementsTraversalFlags)
}

func (t *Tree) HasDescendantNeedingCompositingRequirementsTraversal(id ID) bool {
	return t.at(id).compositing.Has(HasDescendantNeedingRequirementsTraversal)
}

func (t *Tree) NeedsUpdateBackingOrHierarchyTraversal(id ID) bool {
	return t.at(id).compositing.HasAny(BackingOrHierarchyTraversalFlags)
}

func (t *Tree) HasDescendantNeedingUpdateBackingOrHierarchyTraversal(id ID) bool {
	return t.at(id).compositing.Has(HasDescendantNeedingBackingOrHierarchyTraversal)
}
