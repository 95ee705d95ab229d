package layer

import (
	"go.uber.org/zap"
	"seehuhn.de/go/geom/rect"
)

// Backing is the record handed to the compositor for a composited layer.
type Backing struct {
	Bounds        rect.Rect // absolute
	Clip          rect.Rect // absolute; meaningful when ClipsChildren is set
	ClipsChildren bool
	Opacity       float64
	Blend         BlendMode
	Reason        IndirectCompositingReason
	Parent        ID // enclosing compositing layer in paint order
	ScrollingNode bool
}

// BackingUpdateKind says what changed on a backing.
type BackingUpdateKind uint8

const (
	BackingCreated BackingUpdateKind = iota
	BackingDestroyed
	BackingGeometryUpdated
	BackingConfigurationUpdated
	BackingConnected
	BackingScrollingTreeUpdated
)

func (k BackingUpdateKind) String() string {
	switch k {
	case BackingCreated:
		return "created"
	case BackingDestroyed:
		return "destroyed"
	case BackingGeometryUpdated:
		return "geometry"
	case BackingConfigurationUpdated:
		return "configuration"
	case BackingConnected:
		return "connected"
	case BackingScrollingTreeUpdated:
		return "scrolling-tree"
	default:
		return "unknown"
	}
}

type BackingUpdate struct {
	Layer ID
	Kind  BackingUpdateKind
}

// BackingResult lists what a backing walk did, in walk order.
type BackingResult struct {
	Visited []ID
	Updates []BackingUpdate
}

type backingWalk struct {
	t   *Tree
	res BackingResult
}

// UpdateBackingAndHierarchy applies the last requirements decisions below
// root: backings are created and destroyed, and geometry, configuration,
// parent links and scrolling-tree membership are refreshed where the
// backing bits ask for it.
func (t *Tree) UpdateBackingAndHierarchy(root ID) BackingResult {
	t.at(root)
	w := &backingWalk{t: t}
	w.visit(root, false, false)
	t.log.Debug("backing and hierarchy updated",
		layerField(t, root),
		zap.Int("visited", len(w.res.Visited)),
		zap.Int("updates", len(w.res.Updates)))
	return w.res
}

func (w *backingWalk) record(id ID, kind BackingUpdateKind) {
	w.res.Updates = append(w.res.Updates, BackingUpdate{Layer: id, Kind: kind})
}

func (w *backingWalk) visit(id ID, forced, geometryFromParent bool) {
	t := w.t
	n := t.get(id)
	if !forced && !geometryFromParent &&
		!n.compositing.HasAny(BackingOrHierarchyTraversalFlags|HasDescendantNeedingBackingOrHierarchyTraversal) {
		return
	}
	w.res.Visited = append(w.res.Visited, id)

	bits := n.compositing
	forceChildren := forced || bits.Has(DescendantsNeedBackingAndHierarchyTraversal)

	switch {
	case n.composited && n.backing == nil:
		n.backing = &Backing{}
		w.record(id, BackingCreated)
		bits |= NeedsGeometryUpdate | NeedsConfigurationUpdate | NeedsLayerConnection | NeedsScrollingTreeUpdate
		forceChildren = true
	case !n.composited && n.backing != nil:
		n.backing = nil
		w.record(id, BackingDestroyed)
		forceChildren = true
	}

	if b := n.backing; b != nil {
		if bits.Has(NeedsGeometryUpdate) || geometryFromParent {
			b.Bounds = n.absBounds
			b.Clip = n.absBounds
			w.record(id, BackingGeometryUpdated)
		}
		if bits.Has(NeedsConfigurationUpdate) {
			b.ClipsChildren = n.class.ClipsOverflow
			b.Opacity = n.style.Opacity
			b.Blend = n.style.Blend
			b.Reason = n.indirect
			w.record(id, BackingConfigurationUpdated)
		}
		if bits.Has(NeedsLayerConnection) {
			b.Parent = t.EnclosingCompositingLayer(id, false)
			w.record(id, BackingConnected)
		}
		if bits.Has(NeedsScrollingTreeUpdate) {
			b.ScrollingNode = n.class.Scrollable || n.class.ViewportConstrained
			w.record(id, BackingScrollingTreeUpdated)
		}
		n.backingProvider = None
	} else {
		n.backingProvider = t.EnclosingCompositingLayer(id, false)
	}

	childGeometry := bits.Has(ChildrenNeedGeometryUpdate)
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		w.visit(c, forceChildren, childGeometry)
	}

	n = t.get(id)
	n.compositing &^= BackingOrHierarchyTraversalFlags
	if !t.anyChildHas(id, BackingOrHierarchyTraversalFlags|HasDescendantNeedingBackingOrHierarchyTraversal) {
		n.compositing &^= HasDescendantNeedingBackingOrHierarchyTraversal
	}
}

// BackingOf returns a copy of the layer's backing and whether it has one.
func (t *Tree) BackingOf(id ID) (Backing, bool) {
	n := t.at(id)
	if n.backing == nil {
		return Backing{}, false
	}
	return *n.backing, true
}

// BackingProvider returns the composited layer a non-composited layer last
// painted into. The ID may be stale; check it with Valid.
func (t *Tree) BackingProvider(id ID) ID { return t.at(id).backingProvider }
