package layer

import (
	"go.uber.org/zap"
	"seehuhn.de/go/geom/rect"
)

// overlapMap holds the absolute bounds of the composited layers painted so
// far. A layer painted later that intersects any of them must get its own
// backing to keep paint order correct.
type overlapMap struct {
	rects []rect.Rect
}

// add records r and reports whether it covers any area.
func (m *overlapMap) add(r rect.Rect) bool {
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return false
	}
	m.rects = append(m.rects, r)
	return true
}

func (m *overlapMap) overlaps(r rect.Rect) bool {
	for _, o := range m.rects {
		if rectsIntersect(o, r) {
			return true
		}
	}
	return false
}

// RequirementsResult lists what a requirements walk did. Changed holds the
// layers whose composited state or indirect reason changed.
type RequirementsResult struct {
	Visited []ID
	Changed []ID
}

type requirementsWalk struct {
	t               *Tree
	overlap         overlapMap
	forceSubsequent bool
	res             RequirementsResult
}

// UpdateCompositingRequirements decides which layers below root need a
// backing. Layers are walked in paint order, so each one is tested for
// overlap against the composited layers painted beneath it. root should be a
// stacking context; z-ordered descendants filed with an outer stacking
// context are not reached. Subtrees with no requirements bits are skipped;
// their cached composited bounds are replayed into the overlap map instead.
func (t *Tree) UpdateCompositingRequirements(root ID) RequirementsResult {
	t.at(root)
	w := &requirementsWalk{t: t}
	w.visit(root, false)
	t.settleRequirementsCoarseBits(root)
	t.log.Debug("compositing requirements updated",
		layerField(t, root),
		zap.Int("visited", len(w.res.Visited)),
		zap.Int("changed", len(w.res.Changed)))
	return w.res
}

// visit returns whether id or anything below it is composited.
func (w *requirementsWalk) visit(id ID, forced bool) bool {
	t := w.t
	n := t.get(id)
	force := forced || w.forceSubsequent
	if !force && !n.compositing.HasAny(RequirementsTraversalFlags|HasDescendantNeedingRequirementsTraversal) {
		w.overlap.add(n.subtreeCompositedBounds)
		return n.composited || n.hasCompositingDescendant
	}
	w.res.Visited = append(w.res.Visited, id)

	bits := n.compositing
	forceChildren := force || bits.Has(DescendantsNeedRequirementsTraversal)
	wasComposited, wasReason := n.composited, n.indirect

	reason := ReasonNone
	switch {
	case n.forced || n.class.DirectlyComposited:
	case w.overlap.overlaps(n.absBounds):
		reason = ReasonOverlap
	case t.escapesScroller(id):
		reason = ReasonOverflowScrollPositioning
	}

	var sub rect.Rect
	childComposited := false
	t.ForEachPaintOrderChild(id, func(c ID) {
		if w.visit(c, forceChildren) {
			childComposited = true
		}
		sub.Extend(t.get(c).subtreeCompositedBounds)
	})

	n = t.get(id)
	if reason == ReasonNone && childComposited && !n.class.DirectlyComposited {
		if n.forced {
			if t.hasCompositedNegativeZOrderLayer(id) {
				reason = ReasonBackgroundLayer
			}
		} else {
			reason = t.indirectReasonForDescendants(id)
		}
	}
	composited := n.forced || n.class.DirectlyComposited || reason != ReasonNone
	n.composited = composited
	n.indirect = reason
	n.hasCompositingDescendant = childComposited
	if composited {
		if w.overlap.add(n.absBounds) {
			sub.Extend(n.absBounds)
		}
	}
	n.subtreeCompositedBounds = sub

	if composited != wasComposited || reason != wasReason {
		w.res.Changed = append(w.res.Changed, id)
		t.SetCompositingDirty(id, NeedsLayerConnection|NeedsConfigurationUpdate)
	}
	// Layers painted after this one were tested against the old overlap map.
	if composited != wasComposited || (composited && bits.Has(NeedsPostLayoutUpdate)) {
		bits |= SubsequentLayersNeedRequirementsTraversal
	}

	n.compositing &^= RequirementsTraversalFlags
	if bits.Has(SubsequentLayersNeedRequirementsTraversal) {
		w.forceSubsequent = true
	}
	return composited || childComposited
}

// settleRequirementsCoarseBits clears the requirements coarse bit wherever
// no structural descendant still has requirements bits. It runs after the
// walk because a layer's structural children may be painted, and visited,
// after the layer itself. It reports whether id keeps any requirements bit.
func (t *Tree) settleRequirementsCoarseBits(id ID) bool {
	n := t.get(id)
	if !n.compositing.Has(HasDescendantNeedingRequirementsTraversal) {
		return n.compositing.HasAny(RequirementsTraversalFlags)
	}
	pending := false
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		if t.settleRequirementsCoarseBits(c) {
			pending = true
		}
	}
	n = t.get(id)
	if !pending {
		n.compositing &^= HasDescendantNeedingRequirementsTraversal
	}
	return n.compositing.HasAny(RequirementsTraversalFlags | HasDescendantNeedingRequirementsTraversal)
}

// indirectReasonForDescendants picks why a layer with composited
// descendants needs a backing of its own, or ReasonNone if it can paint
// into an ancestor's.
func (t *Tree) indirectReasonForDescendants(id ID) IndirectCompositingReason {
	n := t.get(id)
	switch {
	case n.class.Preserves3D:
		return ReasonPreserve3D
	case n.style.Perspective:
		return ReasonPerspective
	case n.class.ClipsOverflow:
		return ReasonClipping
	case n.class.HasEffects || n.class.Transformed:
		return ReasonGraphicalEffect
	}
	if t.hasCompositedNegativeZOrderLayer(id) {
		return ReasonStacking
	}
	return ReasonNone
}

// hasCompositedNegativeZOrderLayer reports whether something painted below
// the layer's own content has a backing, which forces the layer's content
// into a backing above it.
func (t *Tree) hasCompositedNegativeZOrderLayer(id ID) bool {
	if !t.isStackingContext(t.get(id)) {
		return false
	}
	t.updateZOrderLists(id)
	for _, c := range t.get(id).negZ {
		if cn := t.get(c); cn.composited || cn.hasCompositingDescendant {
			return true
		}
	}
	return false
}

// escapesScroller reports whether the layer sits inside a scroller
// structurally but is painted outside it, so it has to be moved with the
// scroller's scroll position separately.
func (t *Tree) escapesScroller(id ID) bool {
	n := t.get(id)
	if n.normalFlowOnly {
		return false
	}
	scroller := t.EnclosingScrollableLayer(id, false)
	if scroller.IsNone() {
		return false
	}
	for p := t.PaintOrderParent(id); !p.IsNone(); p = t.PaintOrderParent(p) {
		if p == scroller {
			return false
		}
	}
	return true
}

func (t *Tree) anyChildHas(id ID, bits CompositingDirty) bool {
	for c := t.get(id).first; !c.IsNone(); c = t.get(c).next {
		if t.get(c).compositing.HasAny(bits) {
			return true
		}
	}
	return false
}

// IsComposited reports whether the last requirements walk gave the layer a
// backing.
func (t *Tree) IsComposited(id ID) bool { return t.at(id).composited }

// IndirectCompositingReason returns why the layer was composited when style
// alone did not ask for it.
func (t *Tree) IndirectCompositingReason(id ID) IndirectCompositingReason { return t.at(id).indirect }

// HasCompositingDescendant reports whether a layer painted by this one, as
// reached through its paint-order lists, was composited by the last walk.
func (t *Tree) HasCompositingDescendant(id ID) bool { return t.at(id).hasCompositingDescendant }
