package layer

import "strings"

// DescendantFlags is a set of descendant-summary bits. A bit set on a layer
// means at least one strict descendant satisfies the bit's base condition.
type DescendantFlags uint8

const (
	// VisibleDescendant: some descendant has visible content.
	VisibleDescendant DescendantFlags = 1 << iota
	// SelfPaintingDescendant: some descendant is a self-painting layer.
	SelfPaintingDescendant
	// ViewportConstrainedDescendant: some descendant is fixed or sticky.
	ViewportConstrainedDescendant
	// Transformed3DDescendant: some paint-order descendant inside the
	// enclosing preserve-3d scope has a 3D transform.
	Transformed3DDescendant
	// NotIsolatedBlendingDescendant: some descendant blends and no layer
	// in between isolates it.
	NotIsolatedBlendingDescendant
	// AlwaysIncludedDescendant: some descendant is always included in
	// z-order lists.
	AlwaysIncludedDescendant
)

// structuralDescendantFlags propagate along the structural parent chain.
// Transformed3DDescendant is paint-order scoped and handled separately.
const structuralDescendantFlags = VisibleDescendant | SelfPaintingDescendant |
	ViewportConstrainedDescendant | NotIsolatedBlendingDescendant | AlwaysIncludedDescendant

var descendantFlagNames = []string{
	"visible-descendant",
	"self-painting-descendant",
	"viewport-constrained-descendant",
	"3d-transformed-descendant",
	"not-isolated-blending-descendant",
	"always-included-descendant",
}

// Has reports whether all bits of o are set in f.
func (f DescendantFlags) Has(o DescendantFlags) bool { return f&o == o }

func (f DescendantFlags) String() string { return formatFlags(uint64(f), descendantFlagNames) }

// CompositingDirty is the set of traversal-needed bits driving the
// compositing requirements and backing/hierarchy walks.
type CompositingDirty uint16

const (
	// HasDescendantNeedingRequirementsTraversal is the coarse summary bit
	// for the requirements group.
	HasDescendantNeedingRequirementsTraversal CompositingDirty = 1 << iota
	// HasDescendantNeedingBackingOrHierarchyTraversal is the coarse summary
	// bit for the backing group.
	HasDescendantNeedingBackingOrHierarchyTraversal

	// NeedsPaintOrderChildrenUpdate: paint-order children changed (gained or
	// lost a child, order change).
	NeedsPaintOrderChildrenUpdate
	// NeedsPostLayoutUpdate: compositing depends on geometry that changed.
	NeedsPostLayoutUpdate
	// DescendantsNeedRequirementsTraversal forces the walk through every
	// descendant of the layer.
	DescendantsNeedRequirementsTraversal
	// SubsequentLayersNeedRequirementsTraversal forces the walk through
	// every layer visited after this one.
	SubsequentLayersNeedRequirementsTraversal

	// NeedsGeometryUpdate: the backing needs new bounds.
	NeedsGeometryUpdate
	// NeedsConfigurationUpdate: the backing's internal configuration
	// (clipping, opacity, scrolling) changed.
	NeedsConfigurationUpdate
	// NeedsScrollingTreeUpdate: the scrolling-tree node must be refreshed.
	NeedsScrollingTreeUpdate
	// NeedsLayerConnection: the backing must be hooked up to its parent.
	NeedsLayerConnection
	// ChildrenNeedGeometryUpdate: direct children need geometry updates.
	ChildrenNeedGeometryUpdate
	// DescendantsNeedBackingAndHierarchyTraversal forces the backing walk
	// through every descendant.
	DescendantsNeedBackingAndHierarchyTraversal
)

// RequirementsTraversalFlags are the fine-grained bits of the requirements group.
const RequirementsTraversalFlags = NeedsPaintOrderChildrenUpdate | NeedsPostLayoutUpdate |
	DescendantsNeedRequirementsTraversal | SubsequentLayersNeedRequirementsTraversal

// BackingOrHierarchyTraversalFlags are the fine-grained bits of the backing group.
const BackingOrHierarchyTraversalFlags = NeedsGeometryUpdate | NeedsConfigurationUpdate |
	NeedsScrollingTreeUpdate | NeedsLayerConnection | ChildrenNeedGeometryUpdate |
	DescendantsNeedBackingAndHierarchyTraversal

var compositingDirtyNames = []string{
	"has-descendant-needing-requirements-traversal",
	"has-descendant-needing-backing-or-hierarchy-traversal",
	"needs-paint-order-children-update",
	"needs-post-layout-update",
	"descendants-need-requirements-traversal",
	"subsequent-layers-need-requirements-traversal",
	"needs-geometry-update",
	"needs-configuration-update",
	"needs-scrolling-tree-update",
	"needs-layer-connection",
	"children-need-geometry-update",
	"descendants-need-backing-and-hierarchy-traversal",
}

// Has reports whether all bits of o are set in f.
func (f CompositingDirty) Has(o CompositingDirty) bool { return f&o == o }

// HasAny reports whether any bit of o is set in f.
func (f CompositingDirty) HasAny(o CompositingDirty) bool { return f&o != 0 }

func (f CompositingDirty) String() string { return formatFlags(uint64(f), compositingDirtyNames) }

// ParseCompositingDirty maps a flag name as printed by String back to its bit.
func ParseCompositingDirty(name string) (CompositingDirty, bool) {
	for i, n := range compositingDirtyNames {
		if n == name {
			return CompositingDirty(1) << i, true
		}
	}
	return 0, false
}

// PositionDirty is the set of layer-position bits driving UpdateLayerPositions.
type PositionDirty uint8

const (
	NeedsPositionUpdate PositionDirty = 1 << iota
	DescendantNeedsPositionUpdate
	AllChildrenNeedPositionUpdate
	AllDescendantsNeedPositionUpdate
)

var positionDirtyNames = []string{
	"needs-position-update",
	"descendant-needs-position-update",
	"all-children-need-position-update",
	"all-descendants-need-position-update",
}

// Has reports whether all bits of o are set in f.
func (f PositionDirty) Has(o PositionDirty) bool { return f&o == o }

func (f PositionDirty) String() string { return formatFlags(uint64(f), positionDirtyNames) }

// IndirectCompositingReason records why a layer that does not need
// compositing on its own ended up composited.
type IndirectCompositingReason uint8

const (
	ReasonNone IndirectCompositingReason = iota
	ReasonClipping
	ReasonStacking
	ReasonOverflowScrollPositioning
	ReasonOverlap
	ReasonBackgroundLayer
	ReasonGraphicalEffect // opacity, mask, filter, transform etc.
	ReasonPerspective
	ReasonPreserve3D
)

func (r IndirectCompositingReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonClipping:
		return "clipping"
	case ReasonStacking:
		return "stacking"
	case ReasonOverflowScrollPositioning:
		return "overflow-scroll-positioning"
	case ReasonOverlap:
		return "overlap"
	case ReasonBackgroundLayer:
		return "background-layer"
	case ReasonGraphicalEffect:
		return "graphical-effect"
	case ReasonPerspective:
		return "perspective"
	case ReasonPreserve3D:
		return "preserve-3d"
	default:
		return "unknown"
	}
}

func formatFlags(bits uint64, names []string) string {
	if bits == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	for i, name := range names {
		if bits&(1<<i) == 0 {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		sb.WriteString(name)
		first = false
	}
	sb.WriteByte('}')
	return sb.String()
}
