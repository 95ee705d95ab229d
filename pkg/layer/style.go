package layer

// Position is the CSS positioning scheme of the box owning a layer.
type Position uint8

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

var positionNames = []string{"static", "relative", "absolute", "fixed", "sticky"}

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return "unknown"
}

// ParsePosition maps a CSS keyword to a Position.
func ParsePosition(s string) (Position, bool) {
	for i, n := range positionNames {
		if n == s {
			return Position(i), true
		}
	}
	return PositionStatic, false
}

// Overflow is the CSS overflow value of the box owning a layer.
type Overflow uint8

const (
	OverflowVisible Overflow = iota
	OverflowHidden
	OverflowClip
	OverflowScroll
	OverflowAuto
)

var overflowNames = []string{"visible", "hidden", "clip", "scroll", "auto"}

func (o Overflow) String() string {
	if int(o) < len(overflowNames) {
		return overflowNames[o]
	}
	return "unknown"
}

// ParseOverflow maps a CSS keyword to an Overflow.
func ParseOverflow(s string) (Overflow, bool) {
	for i, n := range overflowNames {
		if n == s {
			return Overflow(i), true
		}
	}
	return OverflowVisible, false
}

// Visibility is the CSS visibility of the box owning a layer.
type Visibility uint8

const (
	VisibilityVisible Visibility = iota
	VisibilityHidden
)

func (v Visibility) String() string {
	if v == VisibilityHidden {
		return "hidden"
	}
	return "visible"
}

// ParseVisibility maps a CSS keyword to a Visibility.
func ParseVisibility(s string) (Visibility, bool) {
	switch s {
	case "visible":
		return VisibilityVisible, true
	case "hidden", "collapse":
		return VisibilityHidden, true
	}
	return VisibilityVisible, false
}

// BlendMode is the CSS mix-blend-mode.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendOverlay
	BlendDarken
	BlendLighten
	BlendDifference
	BlendExclusion
)

var blendNames = []string{"normal", "multiply", "screen", "overlay", "darken", "lighten", "difference", "exclusion"}

func (b BlendMode) String() string {
	if int(b) < len(blendNames) {
		return blendNames[b]
	}
	return "unknown"
}

// ParseBlendMode maps a CSS keyword to a BlendMode.
func ParseBlendMode(s string) (BlendMode, bool) {
	for i, n := range blendNames {
		if n == s {
			return BlendMode(i), true
		}
	}
	return BlendNormal, false
}

// Style holds the style facts the layer tree consumes. They are produced by
// style resolution and delivered through Tree.SetStyle; the tree never
// re-validates them.
type Style struct {
	Position   Position
	ZIndex     int
	ZIndexAuto bool
	// Opacity in [0, 1]. NewStyle sets it to 1.
	Opacity float64

	Transform      bool
	Transform3D    bool
	Preserve3D     bool
	Perspective    bool
	Filter         bool
	BackdropFilter bool
	Mask           bool
	Isolation      bool
	Blend          BlendMode
	Overflow       Overflow
	Visibility     Visibility

	// Composited is a direct compositing reason supplied by the embedder
	// (video, canvas, will-change and the like).
	Composited bool
	// AlwaysIncluded keeps the layer in z-order bookkeeping even when it
	// paints nothing.
	AlwaysIncluded bool
}

// NewStyle returns the initial style: static, z-index auto, fully opaque,
// visible.
func NewStyle() Style {
	return Style{ZIndexAuto: true, Opacity: 1}
}

// Positioned reports whether the box is out of the static positioning scheme.
func (s Style) Positioned() bool {
	return s.Position != PositionStatic
}

// Classification is the per-layer variant computed from Style once per style
// change and cached on the layer.
type Classification struct {
	CSSStackingContext  bool
	NormalFlowOnly      bool
	SelfPainting        bool
	ViewportConstrained bool
	Transformed         bool
	Transformed3D       bool
	Preserves3D         bool
	Blending            bool
	ClipsOverflow       bool
	Scrollable          bool
	DirectlyComposited  bool
	AlwaysIncluded      bool
	VisibleContent      bool
	HasEffects          bool // opacity, filter, mask or blending
	EffectiveZIndex     int
}

// Classifier turns style facts into a Classification. The rules that decide
// stacking contexts and normal-flow-only layers belong to the style system;
// a Tree uses DefaultClassifier unless another one is supplied.
type Classifier func(Style) Classification

// DefaultClassifier applies the CSS rules for stacking contexts and
// normal-flow-only layers.
func DefaultClassifier(s Style) Classification {
	var c Classification

	c.Transformed = s.Transform || s.Transform3D
	c.Transformed3D = s.Transform3D
	c.Preserves3D = s.Preserve3D
	c.Blending = s.Blend != BlendNormal
	c.ClipsOverflow = s.Overflow != OverflowVisible
	c.Scrollable = s.Overflow == OverflowScroll || s.Overflow == OverflowAuto
	c.ViewportConstrained = s.Position == PositionFixed || s.Position == PositionSticky
	c.HasEffects = s.Opacity < 1 || s.Filter || s.BackdropFilter || s.Mask || c.Blending

	switch {
	case s.Positioned() && !s.ZIndexAuto:
		c.CSSStackingContext = true
	case c.ViewportConstrained:
		c.CSSStackingContext = true
	case c.HasEffects || c.Transformed || s.Preserve3D || s.Perspective || s.Isolation:
		c.CSSStackingContext = true
	}

	// Unpositioned layers that do not start a stacking context (overflow
	// clipping layers and the like) are painted in tree order.
	c.NormalFlowOnly = !s.Positioned() && !c.CSSStackingContext

	c.SelfPainting = !c.NormalFlowOnly || c.Scrollable || s.Mask || s.Filter
	// Scrollers use composited scrolling.
	c.DirectlyComposited = s.Composited || s.Transform3D || s.BackdropFilter || c.Scrollable
	c.AlwaysIncluded = s.AlwaysIncluded
	c.VisibleContent = s.Visibility == VisibilityVisible

	if !s.ZIndexAuto && (s.Positioned() || c.CSSStackingContext) {
		c.EffectiveZIndex = s.ZIndex
	}
	return c
}
