package layer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func composited() Style {
	s := NewStyle()
	s.Composited = true
	return s
}

func TestRequirements_Overlap(t *testing.T) {
	tr := NewTree("root", WithAssertions(true))
	root := tr.Root()
	tr.SetGeometry(root, box(0, 0, 800, 600))

	video := tr.Create("video", composited())
	over := tr.Create("over", NewStyle())
	apart := tr.Create("apart", NewStyle())
	for _, l := range []struct {
		id ID
		g  Geometry
	}{
		{video, box(0, 0, 100, 100)},
		{over, box(50, 50, 100, 100)},
		{apart, box(300, 300, 10, 10)},
	} {
		tr.SetGeometry(l.id, l.g)
		tr.AddChild(root, l.id, None)
	}

	res := tr.UpdatePass()

	if !tr.IsComposited(video) || tr.IndirectCompositingReason(video) != ReasonNone {
		t.Errorf("video: composited=%v reason=%v", tr.IsComposited(video), tr.IndirectCompositingReason(video))
	}
	if !tr.IsComposited(over) || tr.IndirectCompositingReason(over) != ReasonOverlap {
		t.Errorf("over: composited=%v reason=%v", tr.IsComposited(over), tr.IndirectCompositingReason(over))
	}
	if tr.IsComposited(apart) {
		t.Error("apart does not overlap anything composited")
	}
	if diff := cmp.Diff([]ID{video, over, root}, res.Requirements.Changed); diff != "" {
		t.Errorf("changed (-want +got):\n%s", diff)
	}

	// Dropping the video's backing removes the reason for over's.
	tr.SetStyle(video, NewStyle())
	tr.UpdatePass()
	if tr.IsComposited(video) || tr.IsComposited(over) {
		t.Errorf("video=%v over=%v, want both uncomposited", tr.IsComposited(video), tr.IsComposited(over))
	}
	if _, ok := tr.BackingOf(over); ok {
		t.Error("over kept its backing")
	}
}

func TestRequirements_OverlapFollowsPaintOrder(t *testing.T) {
	tr := NewTree("root", WithAssertions(true))
	root := tr.Root()
	tr.SetGeometry(root, box(0, 0, 400, 400))

	// top comes first in the tree but paints above the video.
	top := tr.Create("top", positioned(5))
	videoStyle := positioned(0)
	videoStyle.Composited = true
	video := tr.Create("video", videoStyle)
	under := tr.Create("under", positioned(-1))
	holder := tr.Create("holder", NewStyle())
	escapee := tr.Create("escapee", positioned(3))
	for _, l := range []struct {
		id, parent ID
		g          Geometry
	}{
		{top, root, box(10, 10, 100, 100)},
		{video, root, box(10, 10, 100, 100)},
		{under, root, box(10, 10, 100, 100)},
		{holder, root, box(200, 200, 100, 100)},
		{escapee, holder, box(0, 0, 20, 20)},
	} {
		tr.SetGeometry(l.id, l.g)
		tr.AddChild(l.parent, l.id, None)
	}

	tr.UpdatePass()
	if diff := cmp.Diff([]string{"under", "root", "holder", "video", "escapee", "top"},
		layerNames(tr, tr.PaintOrder(root))); diff != "" {
		t.Fatalf("paint order (-want +got):\n%s", diff)
	}
	if !tr.IsComposited(top) || tr.IndirectCompositingReason(top) != ReasonOverlap {
		t.Errorf("top: composited=%v reason=%v, want overlap",
			tr.IsComposited(top), tr.IndirectCompositingReason(top))
	}
	if tr.IsComposited(under) {
		t.Errorf("under paints below the video, reason=%v", tr.IndirectCompositingReason(under))
	}
	if got := tr.IndirectCompositingReason(root); got != ReasonNone {
		t.Errorf("root reason = %v, want none", got)
	}

	// Moving the escapee dirties a layer painted after its structural parent.
	tr.SetGeometry(escapee, box(5, 5, 20, 20))
	res := tr.UpdatePass()
	if len(res.Requirements.Visited) == 0 {
		t.Fatal("the moved escapee should be visited")
	}
	if tr.HasDescendantNeedingCompositingRequirementsTraversal(holder) {
		t.Error("holder kept its requirements coarse bit")
	}
	if again := tr.UpdatePass(); len(again.Requirements.Visited) != 0 {
		t.Errorf("second pass visited %v", layerNames(tr, again.Requirements.Visited))
	}

	// Sending top below the video drops its backing; raising it again
	// restores it against the video's replayed bounds.
	tr.SetStyle(top, positioned(-2))
	res = tr.UpdatePass()
	if tr.IsComposited(top) {
		t.Error("top paints below the video now")
	}
	if diff := cmp.Diff([]ID{top}, res.Requirements.Changed); diff != "" {
		t.Errorf("changed (-want +got):\n%s", diff)
	}

	tr.SetStyle(top, positioned(5))
	tr.UpdatePass()
	if !tr.IsComposited(top) || tr.IndirectCompositingReason(top) != ReasonOverlap {
		t.Errorf("top after raise: composited=%v reason=%v",
			tr.IsComposited(top), tr.IndirectCompositingReason(top))
	}
	mustVerify(t, tr)
}

func TestRequirements_IndirectReasons(t *testing.T) {
	tr := NewTree("root", WithAssertions(true))
	root := tr.Root()

	clipStyle := NewStyle()
	clipStyle.Overflow = OverflowHidden
	clip := tr.Create("clip", clipStyle)
	inClip := tr.Create("inClip", composited())
	tr.AddChild(root, clip, None)
	tr.AddChild(clip, inClip, None)

	sc := tr.Create("sc", positioned(0))
	negStyle := positioned(-1)
	negStyle.Composited = true
	neg := tr.Create("neg", negStyle)
	tr.AddChild(root, sc, None)
	tr.AddChild(sc, neg, None)

	p3d := NewStyle()
	p3d.Preserve3D = true
	keep := tr.Create("keep", p3d)
	tr.AddChild(root, keep, None)
	tr.AddChild(keep, tr.Create("leaf", composited()), None)

	rootNeg := tr.Create("rootNeg", negStyle)
	tr.AddChild(root, rootNeg, None)

	tr.UpdatePass()

	for _, c := range []struct {
		id   ID
		want IndirectCompositingReason
	}{
		{clip, ReasonClipping},
		{sc, ReasonStacking},
		{keep, ReasonPreserve3D},
		{root, ReasonBackgroundLayer},
	} {
		if !tr.IsComposited(c.id) || tr.IndirectCompositingReason(c.id) != c.want {
			t.Errorf("%s: composited=%v reason=%v, want %v", tr.Name(c.id),
				tr.IsComposited(c.id), tr.IndirectCompositingReason(c.id), c.want)
		}
	}
}

func TestRequirements_ScrollerEscape(t *testing.T) {
	tr := NewTree("root", WithAssertions(true))
	root := tr.Root()

	scroll := NewStyle()
	scroll.Overflow = OverflowAuto
	scroller := tr.Create("scroller", scroll)
	abs := NewStyle()
	abs.Position = PositionAbsolute
	escapee := tr.Create("escapee", abs)
	inner := tr.Create("inner", NewStyle())
	tr.AddChild(root, scroller, None)
	tr.AddChild(scroller, escapee, None)
	tr.AddChild(scroller, inner, None)

	tr.UpdatePass()

	if !tr.IsComposited(scroller) {
		t.Error("scrollers use composited scrolling")
	}
	if got := tr.IndirectCompositingReason(escapee); got != ReasonOverflowScrollPositioning {
		t.Errorf("escapee reason = %v", got)
	}
	if tr.IsComposited(inner) {
		t.Error("inner paints into the scroller")
	}
	if got := tr.BackingProvider(inner); got != scroller {
		t.Errorf("inner backing provider = %v, want scroller", got)
	}
	b, ok := tr.BackingOf(scroller)
	if !ok || !b.ScrollingNode {
		t.Errorf("scroller backing = %+v, %v", b, ok)
	}
}

func TestBacking_ParentsFollowPaintOrder(t *testing.T) {
	tr := NewTree("root", WithAssertions(true))
	root := tr.Root()

	clipStyle := NewStyle()
	clipStyle.Overflow = OverflowHidden
	clip := tr.Create("clip", clipStyle)
	child := tr.Create("child", composited())
	plain := tr.Create("plain", NewStyle())
	tr.AddChild(root, clip, None)
	tr.AddChild(clip, child, None)
	tr.AddChild(root, plain, None)

	res := tr.UpdatePass()

	rb, ok := tr.BackingOf(root)
	if !ok || rb.Parent != None {
		t.Errorf("root backing = %+v, %v", rb, ok)
	}
	cb, _ := tr.BackingOf(clip)
	if cb.Parent != root || !cb.ClipsChildren {
		t.Errorf("clip backing = %+v", cb)
	}
	chb, _ := tr.BackingOf(child)
	if chb.Parent != clip {
		t.Errorf("child backing parent = %v, want clip", chb.Parent)
	}
	if tr.BackingProvider(plain) != root {
		t.Errorf("plain provider = %v", tr.BackingProvider(plain))
	}

	var created []string
	for _, u := range res.Backing.Updates {
		if u.Kind == BackingCreated {
			created = append(created, tr.Name(u.Layer))
		}
	}
	if diff := cmp.Diff([]string{"root", "clip", "child"}, created); diff != "" {
		t.Errorf("created (-want +got):\n%s", diff)
	}
}
