package layer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

func TestPosition_AbsoluteBounds(t *testing.T) {
	tr := NewTree("root")
	root := tr.Root()
	a := tr.Create("a", NewStyle())
	b := tr.Create("b", NewStyle())
	tr.AddChild(root, a, None)
	tr.AddChild(a, b, None)
	tr.SetGeometry(a, box(10, 20, 100, 50))
	tr.SetGeometry(b, box(5, 5, 10, 10))

	tr.UpdateLayerPositions(root)

	if diff := cmp.Diff(rect.Rect{LLx: 10, LLy: 20, URx: 110, URy: 70}, tr.AbsoluteBounds(a)); diff != "" {
		t.Errorf("a bounds (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(rect.Rect{LLx: 15, LLy: 25, URx: 25, URy: 35}, tr.AbsoluteBounds(b)); diff != "" {
		t.Errorf("b bounds (-want +got):\n%s", diff)
	}
}

func TestPosition_TransformScalesDescendants(t *testing.T) {
	tr := NewTree("root")
	root := tr.Root()
	s := NewStyle()
	s.Transform = true
	a := tr.Create("a", s)
	b := tr.Create("b", NewStyle())
	tr.AddChild(root, a, None)
	tr.AddChild(a, b, None)

	g := box(10, 20, 100, 50)
	g.Transform = matrix.Matrix{2, 0, 0, 2, 0, 0}
	tr.SetGeometry(a, g)
	tr.SetGeometry(b, box(5, 5, 10, 10))
	tr.UpdateLayerPositions(root)

	if diff := cmp.Diff(rect.Rect{LLx: 10, LLy: 20, URx: 210, URy: 120}, tr.AbsoluteBounds(a)); diff != "" {
		t.Errorf("a bounds (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(rect.Rect{LLx: 20, LLy: 30, URx: 40, URy: 50}, tr.AbsoluteBounds(b)); diff != "" {
		t.Errorf("b bounds (-want +got):\n%s", diff)
	}
	if !tr.HasTransformedAncestor(b) || tr.HasTransformedAncestor(a) {
		t.Error("only b has a transformed ancestor")
	}
	if tr.EnclosingTransformedAncestor(b) != a {
		t.Errorf("EnclosingTransformedAncestor(b) = %v", tr.EnclosingTransformedAncestor(b))
	}
}

func TestPosition_RotatedBoundingBox(t *testing.T) {
	tr := NewTree("root")
	s := NewStyle()
	s.Transform = true
	a := tr.Create("a", s)
	tr.AddChild(tr.Root(), a, None)

	// A quarter turn maps (x, y) to (-y, x) before the offset is applied.
	g := box(100, 100, 40, 20)
	g.Transform = matrix.Matrix{0, 1, -1, 0, 0, 0}
	tr.SetGeometry(a, g)
	tr.UpdateLayerPositions(tr.Root())

	if diff := cmp.Diff(rect.Rect{LLx: 80, LLy: 100, URx: 100, URy: 140}, tr.AbsoluteBounds(a)); diff != "" {
		t.Errorf("bounds (-want +got):\n%s", diff)
	}
}

func TestPosition_OnlyDirtyLayersUpdated(t *testing.T) {
	tr := NewTree("root")
	root := tr.Root()
	a := tr.Create("a", NewStyle())
	b := tr.Create("b", NewStyle())
	c := tr.Create("c", NewStyle())
	tr.AddChild(root, a, None)
	tr.AddChild(a, b, None)
	tr.AddChild(b, c, None)
	tr.UpdateLayerPositions(root)

	tr.SetGeometry(b, box(1, 1, 5, 5))
	if !tr.PositionDirtyBits(a).Has(DescendantNeedsPositionUpdate) {
		t.Error("a should know a descendant moved")
	}
	res := tr.UpdateLayerPositions(root)
	if diff := cmp.Diff([]string{"b", "c"}, layerNames(tr, res.Updated)); diff != "" {
		t.Errorf("updated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "c"}, layerNames(tr, res.BoundsChanged)); diff != "" {
		t.Errorf("bounds changed (-want +got):\n%s", diff)
	}
	if !tr.CompositingDirtyBits(b).Has(NeedsGeometryUpdate | NeedsPostLayoutUpdate) {
		t.Errorf("b bits = %v", tr.CompositingDirtyBits(b))
	}

	tr.SetSelfAndChildrenNeedPositionUpdate(a)
	res = tr.UpdateLayerPositions(root)
	if diff := cmp.Diff([]string{"a", "b"}, layerNames(tr, res.Updated)); diff != "" {
		t.Errorf("children-only update (-want +got):\n%s", diff)
	}
	if len(res.BoundsChanged) != 0 {
		t.Errorf("nothing moved, got %v", layerNames(tr, res.BoundsChanged))
	}
}

func TestPosition_FixedAncestor(t *testing.T) {
	tr := NewTree("root")
	root := tr.Root()
	s := NewStyle()
	s.Position = PositionFixed
	f := tr.Create("f", s)
	in := tr.Create("in", NewStyle())
	tr.AddChild(root, f, None)
	tr.AddChild(f, in, None)
	tr.UpdateLayerPositions(root)

	if !tr.HasFixedAncestor(in) || tr.HasFixedAncestor(f) {
		t.Error("only in has a fixed ancestor")
	}
	tr.SetStyle(f, NewStyle())
	tr.UpdateLayerPositions(root)
	if tr.HasFixedAncestor(in) {
		t.Error("f is no longer fixed")
	}
}
