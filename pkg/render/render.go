// Package render rasterises the paint order of a layer tree for debugging.
//
// Every layer is drawn as its absolute bounding box, back to front. Fill
// colour tells the layer kind apart; composited layers get a thick outline.
package render

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"layertree/pkg/layer"
)

var (
	colorBackground    = color.RGBA{255, 255, 255, 255}
	colorNormalFlow    = color.RGBA{200, 200, 200, 255}
	colorStacking      = color.RGBA{90, 140, 230, 255}
	colorOpportunistic = color.RGBA{150, 110, 220, 255}
	colorPositioned    = color.RGBA{110, 190, 120, 255}
	colorComposited    = color.RGBA{240, 140, 40, 255}
	colorOutline       = color.RGBA{60, 60, 60, 255}
	colorLabel         = color.RGBA{0, 0, 0, 255}
	colorScrollbar     = color.RGBA{170, 170, 170, 255}
)

// fillAlpha keeps lower layers visible through upper ones.
const fillAlpha = 0.55

type Renderer struct {
	context *gg.Context
	// Labels toggles layer names.
	Labels bool
}

func NewRenderer(width, height int) *Renderer {
	return &Renderer{context: gg.NewContext(width, height), Labels: true}
}

// Render paints tree in paint order. It reads absolute bounds, so the
// tree should have been brought up to date with UpdatePass.
func (r *Renderer) Render(tree *layer.Tree) {
	r.setColor(colorBackground, 1)
	r.context.Clear()

	for _, id := range tree.PaintOrder(tree.Root()) {
		r.drawLayer(tree, id)
	}
}

func (r *Renderer) drawLayer(tree *layer.Tree, id layer.ID) {
	b := tree.AbsoluteBounds(id)
	w, h := b.URx-b.LLx, b.URy-b.LLy
	if w <= 0 || h <= 0 {
		return
	}
	style := tree.Style(id)

	// Layers without visible content get an outline only.
	if tree.HasVisibleContent(id) {
		r.setColor(fillColor(tree, id), fillAlpha*style.Opacity)
		r.context.DrawRectangle(b.LLx, b.LLy, w, h)
		r.context.Fill()
	}

	if tree.Classification(id).Scrollable {
		r.drawScrollbarIndicators(b.LLx, b.LLy, w, h)
	}

	r.context.Push()
	r.setColor(colorOutline, 1)
	if tree.IsComposited(id) {
		r.setColor(colorComposited, 1)
		r.context.SetLineWidth(3)
	} else {
		r.context.SetLineWidth(1)
	}
	if !tree.HasVisibleContent(id) {
		r.context.SetDash(4, 3)
	}
	r.context.DrawRectangle(b.LLx+0.5, b.LLy+0.5, w-1, h-1)
	r.context.Stroke()
	r.context.Pop()

	if r.Labels {
		r.setColor(colorLabel, 1)
		r.context.DrawStringAnchored(tree.Name(id), b.LLx+4, b.LLy+4, 0, 1)
	}
}

func fillColor(tree *layer.Tree, id layer.ID) color.RGBA {
	switch {
	case tree.IsComposited(id):
		return colorComposited
	case tree.IsOpportunisticStackingContext(id) && !tree.IsCSSStackingContext(id):
		return colorOpportunistic
	case tree.IsStackingContext(id):
		return colorStacking
	case tree.IsNormalFlowOnly(id):
		return colorNormalFlow
	default:
		return colorPositioned
	}
}

func (r *Renderer) setColor(c color.RGBA, alpha float64) {
	r.context.SetRGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, alpha)
}

// drawScrollbarIndicators draws scrollbars along the right and bottom edges.
func (r *Renderer) drawScrollbarIndicators(x, y, width, height float64) {
	scrollbarWidth := min(8.0, width/4, height/4)

	r.setColor(colorScrollbar, 1)
	r.context.DrawRectangle(x+width-scrollbarWidth, y, scrollbarWidth, height)
	r.context.Fill()
	r.context.DrawRectangle(x, y+height-scrollbarWidth, width-scrollbarWidth, scrollbarWidth)
	r.context.Fill()
}

// Image returns the rendered picture.
func (r *Renderer) Image() image.Image {
	return r.context.Image()
}

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}
