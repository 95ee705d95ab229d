package layer

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// Geometry is the box a layer occupies, supplied by layout. Bounds are in
// the parent layer's coordinate space. Transform is applied in the layer's
// own space before it is offset into the parent; the zero matrix means no
// transform.
type Geometry struct {
	Bounds    rect.Rect
	Transform matrix.Matrix
}

func (g Geometry) localTransform() matrix.Matrix {
	if g.Transform.IsZero() {
		return matrix.Identity
	}
	return g.Transform
}

// SetGeometry delivers new layout results for the layer.
func (t *Tree) SetGeometry(id ID, g Geometry) {
	t.checkMutationAllowed()
	n := t.at(id)
	if n.geometry == g {
		return
	}
	n.geometry = g
	t.SetSelfAndDescendantsNeedPositionUpdate(id)
}

func (t *Tree) Geometry(id ID) Geometry { return t.at(id).geometry }

// AbsoluteBounds returns the layer's bounding box in root coordinates as of
// the last position walk.
func (t *Tree) AbsoluteBounds(id ID) rect.Rect { return t.at(id).absBounds }

// AbsoluteTransform maps layer-local coordinates to root coordinates as of
// the last position walk.
func (t *Tree) AbsoluteTransform(id ID) matrix.Matrix { return t.at(id).absolute }

func (t *Tree) HasTransformedAncestor(id ID) bool { return t.at(id).hasTransformedAncestor }

func (t *Tree) Has3DTransformedAncestor(id ID) bool { return t.at(id).has3DTransformedAncestor }

func (t *Tree) HasFixedAncestor(id ID) bool { return t.at(id).hasFixedAncestor }

// PositionDirtyBits returns the layer's pending position work.
func (t *Tree) PositionDirtyBits(id ID) PositionDirty { return t.at(id).position }

func (t *Tree) SetNeedsPositionUpdate(id ID) {
	t.setPositionDirty(id, NeedsPositionUpdate)
}

func (t *Tree) SetSelfAndChildrenNeedPositionUpdate(id ID) {
	t.setPositionDirty(id, NeedsPositionUpdate|AllChildrenNeedPositionUpdate)
}

func (t *Tree) SetSelfAndDescendantsNeedPositionUpdate(id ID) {
	t.setPositionDirty(id, NeedsPositionUpdate|AllDescendantsNeedPositionUpdate)
}

func (t *Tree) setPositionDirty(id ID, bits PositionDirty) {
	t.at(id).position |= bits
	for p := t.get(id).parent; !p.IsNone(); {
		pn := t.get(p)
		if pn.position.Has(DescendantNeedsPositionUpdate) {
			return
		}
		pn.position |= DescendantNeedsPositionUpdate
		p = pn.parent
	}
}

// PositionResult lists what a position walk did.
type PositionResult struct {
	Updated       []ID
	BoundsChanged []ID
}

type ancestorState struct {
	transformed   bool
	transformed3D bool
	fixed         bool
}

// UpdateLayerPositions recomputes absolute transforms, bounds and
// ancestor-dependent state below root wherever position bits are set.
// Layers whose absolute bounds moved get NeedsGeometryUpdate and
// NeedsPostLayoutUpdate.
func (t *Tree) UpdateLayerPositions(root ID) PositionResult {
	n := t.at(root)
	var res PositionResult
	parentAbs := matrix.Identity
	var anc ancestorState
	for p := n.parent; !p.IsNone(); p = t.get(p).parent {
		pn := t.get(p)
		if p == n.parent {
			parentAbs = pn.absolute
		}
		anc.transformed = anc.transformed || pn.class.Transformed
		anc.transformed3D = anc.transformed3D || pn.class.Transformed3D
		anc.fixed = anc.fixed || pn.style.Position == PositionFixed
	}
	t.updateLayerPositions(root, parentAbs, anc, false, false, &res)
	return res
}

func (t *Tree) updateLayerPositions(id ID, parentAbs matrix.Matrix, anc ancestorState, forceSelf, forceSubtree bool, res *PositionResult) {
	n := t.get(id)
	bits := n.position
	if !forceSelf && bits == 0 {
		return
	}
	n.position = 0

	if forceSelf || bits.Has(NeedsPositionUpdate) {
		res.Updated = append(res.Updated, id)
		b := n.geometry.Bounds
		abs := n.geometry.localTransform().Mul(matrix.Translate(b.LLx, b.LLy)).Mul(parentAbs)
		n.absolute = abs
		n.hasTransformedAncestor = anc.transformed
		n.has3DTransformedAncestor = anc.transformed3D
		n.hasFixedAncestor = anc.fixed

		bounds := transformRect(abs, b.URx-b.LLx, b.URy-b.LLy)
		if bounds != n.absBounds {
			n.absBounds = bounds
			res.BoundsChanged = append(res.BoundsChanged, id)
			t.SetCompositingDirty(id, NeedsGeometryUpdate|NeedsPostLayoutUpdate)
		}
	}

	forceDescendants := forceSubtree || bits.Has(AllDescendantsNeedPositionUpdate)
	forceChildren := forceDescendants || bits.Has(AllChildrenNeedPositionUpdate)
	if !forceChildren && !bits.Has(DescendantNeedsPositionUpdate) {
		return
	}
	childAnc := ancestorState{
		transformed:   anc.transformed || n.class.Transformed,
		transformed3D: anc.transformed3D || n.class.Transformed3D,
		fixed:         anc.fixed || n.style.Position == PositionFixed,
	}
	abs := n.absolute
	for c := n.first; !c.IsNone(); c = t.get(c).next {
		t.updateLayerPositions(c, abs, childAnc, forceChildren, forceDescendants, res)
	}
}

// transformRect maps the local box (0,0)-(w,h) through m and returns the
// bounding box of the result.
func transformRect(m matrix.Matrix, w, h float64) rect.Rect {
	x, y := m.Apply(0, 0)
	r := rect.Rect{LLx: x, LLy: y, URx: x, URy: y}
	for _, p := range [3][2]float64{{w, 0}, {0, h}, {w, h}} {
		r.Add(m.Apply(p[0], p[1]))
	}
	return r
}

func rectsIntersect(a, b rect.Rect) bool {
	if a.Dx() <= 0 || a.Dy() <= 0 || b.Dx() <= 0 || b.Dy() <= 0 {
		return false
	}
	return a.LLx < b.URx && b.LLx < a.URx && a.LLy < b.URy && b.LLy < a.URy
}
