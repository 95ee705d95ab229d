package render

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"seehuhn.de/go/geom/rect"

	"layertree/pkg/layer"
)

func solid(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name      string
		a, b      color.RGBA
		opts      CompareOptions
		wantMatch bool
		wantDiff  int
	}{
		{"identical", color.RGBA{255, 0, 0, 255}, color.RGBA{255, 0, 0, 255}, CompareOptions{}, true, 0},
		{"different", color.RGBA{255, 0, 0, 255}, color.RGBA{0, 0, 255, 255}, CompareOptions{}, false, 100},
		{"within tolerance", color.RGBA{100, 100, 100, 255}, color.RGBA{102, 102, 102, 255}, CompareOptions{Tolerance: 2}, true, 0},
		{"beyond tolerance", color.RGBA{100, 100, 100, 255}, color.RGBA{105, 100, 100, 255}, CompareOptions{Tolerance: 2}, false, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compare(solid(tt.a), solid(tt.b), tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if res.Match != tt.wantMatch || res.DifferentPixels != tt.wantDiff {
				t.Errorf("Compare = match %v, %d different; want %v, %d", res.Match, res.DifferentPixels, tt.wantMatch, tt.wantDiff)
			}
		})
	}
}

func TestCompare_Diff(t *testing.T) {
	a := solid(color.RGBA{255, 255, 255, 255})
	b := solid(color.RGBA{255, 255, 255, 255})
	b.Set(3, 4, color.RGBA{0, 0, 0, 255})

	res, err := Compare(a, b, CompareOptions{WithDiff: true, MaxDifferentPercent: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Match {
		t.Error("1% different pixels should exceed 0.5%")
	}
	if got := res.Diff.RGBAAt(3, 4); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("diff pixel = %v, want red", got)
	}
	if got := res.Diff.RGBAAt(0, 0); got.R != got.G || got.G != got.B {
		t.Errorf("unchanged pixel should be grey, got %v", got)
	}
}

func TestCompare_SizeMismatch(t *testing.T) {
	if _, err := Compare(image.NewRGBA(image.Rect(0, 0, 2, 2)), image.NewRGBA(image.Rect(0, 0, 3, 2)), CompareOptions{}); err == nil {
		t.Error("expected error for different sizes")
	}
}

func TestLoadPNG(t *testing.T) {
	tr, _ := buildTree(t)
	r := NewRenderer(100, 100)
	r.Render(tr)
	path := filepath.Join(t.TempDir(), "ref.png")
	if err := r.SavePNG(path); err != nil {
		t.Fatal(err)
	}
	ref, err := LoadPNG(path)
	if err != nil {
		t.Fatal(err)
	}
	res, err := Compare(r.Image(), ref, CompareOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Match {
		t.Errorf("round-tripped picture differs in %d pixels", res.DifferentPixels)
	}
}

// An incrementally updated tree must draw exactly like one built in its
// final shape.
func TestRender_IncrementalMatchesFresh(t *testing.T) {
	box := func(x0, y0, x1, y1 float64) layer.Geometry {
		return layer.Geometry{Bounds: rect.Rect{LLx: x0, LLy: y0, URx: x1, URy: y1}}
	}
	z := func(v int) layer.Style {
		s := layer.NewStyle()
		s.Position = layer.PositionRelative
		s.ZIndex, s.ZIndexAuto = v, false
		return s
	}

	// Incremental: start with a above b, then swap and move.
	inc := layer.NewTree("root", layer.WithAssertions(true))
	inc.SetGeometry(inc.Root(), box(0, 0, 60, 60))
	a := inc.Create("a", z(2))
	b := inc.Create("b", z(1))
	inc.AddChild(inc.Root(), a, layer.None)
	inc.AddChild(inc.Root(), b, layer.None)
	inc.SetGeometry(a, box(5, 5, 35, 35))
	inc.SetGeometry(b, box(20, 20, 50, 50))
	inc.UpdatePass()
	inc.SetStyle(a, z(0))
	inc.SetGeometry(b, box(15, 15, 45, 45))
	inc.UpdatePass()

	fresh := layer.NewTree("root", layer.WithAssertions(true))
	fresh.SetGeometry(fresh.Root(), box(0, 0, 60, 60))
	fa := fresh.Create("a", z(0))
	fb := fresh.Create("b", z(1))
	fresh.AddChild(fresh.Root(), fa, layer.None)
	fresh.AddChild(fresh.Root(), fb, layer.None)
	fresh.SetGeometry(fa, box(5, 5, 35, 35))
	fresh.SetGeometry(fb, box(15, 15, 45, 45))
	fresh.UpdatePass()

	r1, r2 := NewRenderer(60, 60), NewRenderer(60, 60)
	r1.Render(inc)
	r2.Render(fresh)
	res, err := Compare(r1.Image(), r2.Image(), CompareOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Match {
		t.Errorf("incremental and fresh pictures differ in %d pixels", res.DifferentPixels)
	}
}
