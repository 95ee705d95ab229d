package layer

import (
	"testing"

	"seehuhn.de/go/geom/rect"
)

func positioned(z int) Style {
	s := NewStyle()
	s.Position = PositionRelative
	s.ZIndex = z
	s.ZIndexAuto = false
	return s
}

func hidden() Style {
	s := NewStyle()
	s.Visibility = VisibilityHidden
	return s
}

func box(x, y, w, h float64) Geometry {
	return Geometry{Bounds: rect.Rect{LLx: x, LLy: y, URx: x + w, URy: y + h}}
}

func layerNames(tr *Tree, ids []ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = tr.Name(id)
	}
	return out
}

func mustVerify(t *testing.T, tr *Tree) {
	t.Helper()
	if err := tr.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

// scenario builds A -> B(normal flow) -> C(z:2) with D(z:-1) under A.
func scenario(t *testing.T) (tr *Tree, a, b, c, d ID) {
	t.Helper()
	tr = NewTree("A", WithAssertions(true))
	a = tr.Root()
	b = tr.Create("B", NewStyle())
	c = tr.Create("C", positioned(2))
	d = tr.Create("D", positioned(-1))
	tr.AddChild(a, b, None)
	tr.AddChild(b, c, None)
	tr.AddChild(a, d, None)
	return tr, a, b, c, d
}

func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s: expected panic", name)
		}
	}()
	fn()
}
