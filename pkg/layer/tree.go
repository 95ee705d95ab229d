package layer

import (
	"fmt"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// node is one arena slot. Structural links are owned by the tree; everything
// after the links is cached derived state.
type node struct {
	gen  uint32
	live bool

	name string

	parent ID
	prev   ID
	next   ID
	first  ID
	last   ID

	style Style
	class Classification

	forced         bool // root layer: always a CSS stacking context
	normalFlowOnly bool
	cssSC          bool
	opportunistic  bool

	zOrderListsDirty    bool
	normalFlowListDirty bool
	posZ                []ID
	negZ                []ID
	normalFlowList      []ID

	status      DescendantFlags
	statusDirty DescendantFlags

	hasTransformedAncestor   bool
	has3DTransformedAncestor bool
	hasFixedAncestor         bool

	compositing CompositingDirty
	position    PositionDirty

	geometry  Geometry
	absolute  matrix.Matrix
	absBounds rect.Rect

	composited               bool
	indirect                 IndirectCompositingReason
	hasCompositingDescendant bool
	subtreeCompositedBounds  rect.Rect
	backing                  *Backing
	backingProvider          ID
}

// Tree is a layer tree. It is not safe for concurrent use: all mutation,
// propagation and update passes run on the goroutine that owns the tree.
type Tree struct {
	nodes []node
	free  []uint32
	root  ID

	classify   Classifier
	log        *zap.Logger
	assertions bool

	// listIterations counts active ForEachPaintOrderChild calls; mutating the
	// tree while it is non-zero invalidates the lists being walked.
	listIterations int

	// listRebuilds counts z-order list rebuilds for pass logging.
	listRebuilds int
}

// Option configures a Tree.
type Option func(*Tree)

// WithClassifier replaces DefaultClassifier.
func WithClassifier(c Classifier) Option {
	return func(t *Tree) {
		if c != nil {
			t.classify = c
		}
	}
}

// WithLogger sets the logger used by update passes. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(t *Tree) {
		if l != nil {
			t.log = l
		}
	}
}

// WithAssertions enables fail-fast checks. Mutating the tree during list
// iteration panics, and so does an update pass that leaves an invariant
// broken.
func WithAssertions(on bool) Option {
	return func(t *Tree) {
		t.assertions = on
	}
}

// NewTree creates a tree with a single root layer. The root is always a
// stacking context so enclosing-stacking-context walks terminate.
func NewTree(rootName string, opts ...Option) *Tree {
	t := &Tree{
		nodes:    make([]node, 1, 64),
		classify: DefaultClassifier,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = t.newLayer(rootName, NewStyle(), true)
	return t
}

// Root returns the root layer.
func (t *Tree) Root() ID { return t.root }

// Len returns the number of live layers, attached or not.
func (t *Tree) Len() int { return len(t.nodes) - 1 - len(t.free) }

// Create makes a new detached layer.
func (t *Tree) Create(name string, style Style) ID {
	t.checkMutationAllowed()
	return t.newLayer(name, style, false)
}

func (t *Tree) newLayer(name string, style Style, forced bool) ID {
	id := t.alloc()
	n := t.get(id)
	n.name = name
	n.style = style
	n.class = t.classify(style)
	n.forced = forced
	n.normalFlowOnly = n.class.NormalFlowOnly && !forced
	n.cssSC = n.class.CSSStackingContext || forced
	n.zOrderListsDirty = n.cssSC
	n.normalFlowListDirty = true
	n.absolute = matrix.Identity
	n.position = NeedsPositionUpdate
	n.compositing = NeedsLayerConnection | NeedsPaintOrderChildrenUpdate
	return id
}

// Name returns the debug name given at creation.
func (t *Tree) Name(id ID) string { return t.at(id).name }

// Parent returns the structural parent, or None for the root and detached
// subtree roots.
func (t *Tree) Parent(id ID) ID { return t.at(id).parent }

// FirstChild returns the first structural child.
func (t *Tree) FirstChild(id ID) ID { return t.at(id).first }

// LastChild returns the last structural child.
func (t *Tree) LastChild(id ID) ID { return t.at(id).last }

// NextSibling returns the following sibling.
func (t *Tree) NextSibling(id ID) ID { return t.at(id).next }

// PreviousSibling returns the preceding sibling.
func (t *Tree) PreviousSibling(id ID) ID { return t.at(id).prev }

// Children returns the structural children in sibling order.
func (t *Tree) Children(id ID) []ID {
	var out []ID
	for c := t.at(id).first; !c.IsNone(); c = t.get(c).next {
		out = append(out, c)
	}
	return out
}

// Style returns the style facts last delivered for the layer.
func (t *Tree) Style(id ID) Style { return t.at(id).style }

// Classification returns the cached classification of the layer's style.
func (t *Tree) Classification(id ID) Classification { return t.at(id).class }

// Attached reports whether the layer is connected to the root.
func (t *Tree) Attached(id ID) bool {
	for cur := id; !cur.IsNone(); cur = t.get(cur).parent {
		if cur == t.root {
			return true
		}
	}
	return false
}

// AddChild inserts child under parent before the sibling before, or appends
// it when before is None. child must be detached.
func (t *Tree) AddChild(parent, child, before ID) {
	t.checkMutationAllowed()
	p := t.at(parent)
	c := t.at(child)
	switch {
	case child == t.root:
		panic("layer: the root layer cannot be re-parented")
	case !c.parent.IsNone():
		panic(fmt.Sprintf("layer: %s already has a parent", c.name))
	case parent == child || t.IsDescendantOf(parent, child):
		panic(fmt.Sprintf("layer: adding %s under %s would create a cycle", c.name, p.name))
	}

	if before.IsNone() {
		c.prev = p.last
		if !p.last.IsNone() {
			t.get(p.last).next = child
		} else {
			p.first = child
		}
		p.last = child
	} else {
		b := t.at(before)
		if b.parent != parent {
			panic(fmt.Sprintf("layer: %s is not a child of %s", b.name, p.name))
		}
		c.prev = b.prev
		c.next = before
		if !b.prev.IsNone() {
			t.get(b.prev).next = child
		} else {
			p.first = child
		}
		b.prev = child
	}
	c.parent = parent

	t.childAdded(child)
}

func (t *Tree) childAdded(child ID) {
	c := t.get(child)
	parent := c.parent

	t.dirtyPaintOrderListsOnChildChange(child)

	t.updateDescendantDependentFlags(child)
	for _, f := range eachFlag(structuralDescendantFlags) {
		t.setAncestorChainHasDescendant(child, f)
	}
	if t.mayContribute3D(child) {
		t.dirty3DTransformedDescendantStatus(child)
	}

	t.SetSelfAndDescendantsNeedPositionUpdate(child)

	t.SetCompositingDirty(parent, NeedsPaintOrderChildrenUpdate)
	t.SetCompositingDirty(child, NeedsLayerConnection|DescendantsNeedRequirementsTraversal|
		DescendantsNeedBackingAndHierarchyTraversal)
}

// RemoveChild detaches child, and its subtree, from parent. The detached
// layers stay alive and can be added elsewhere.
func (t *Tree) RemoveChild(parent, child ID) {
	t.checkMutationAllowed()
	p := t.at(parent)
	c := t.at(child)
	if c.parent != parent {
		panic(fmt.Sprintf("layer: %s is not a child of %s", c.name, p.name))
	}

	t.childWillBeRemoved(child)

	if !c.prev.IsNone() {
		t.get(c.prev).next = c.next
	} else {
		p.first = c.next
	}
	if !c.next.IsNone() {
		t.get(c.next).prev = c.prev
	} else {
		p.last = c.prev
	}
	c.parent, c.prev, c.next = None, None, None

	t.SetCompositingDirty(child, NeedsLayerConnection)
}

func (t *Tree) childWillBeRemoved(child ID) {
	c := t.get(child)
	parent := c.parent

	t.dirtyPaintOrderListsOnChildChange(child)

	t.updateDescendantDependentFlags(child)
	for _, f := range eachFlag(structuralDescendantFlags) {
		if t.contributes(c, f) {
			t.dirtyAncestorChainDescendantStatus(child, f)
		}
	}
	if t.mayContribute3D(child) {
		t.dirty3DTransformedDescendantStatus(child)
	}

	t.SetCompositingDirty(parent, NeedsPaintOrderChildrenUpdate|SubsequentLayersNeedRequirementsTraversal)
	if enc := t.EnclosingCompositingLayer(parent, true); !enc.IsNone() {
		t.SetCompositingDirty(enc, NeedsConfigurationUpdate)
	}
}

// Destroy frees the layer and its whole subtree, detaching it first if
// needed. IDs of the freed layers become stale.
func (t *Tree) Destroy(id ID) {
	t.checkMutationAllowed()
	n := t.at(id)
	if id == t.root {
		panic("layer: the root layer cannot be destroyed")
	}
	if !n.parent.IsNone() {
		t.RemoveChild(n.parent, id)
	}
	t.releaseSubtree(id)
}

func (t *Tree) releaseSubtree(id ID) {
	for c := t.get(id).first; !c.IsNone(); {
		next := t.get(c).next
		t.releaseSubtree(c)
		c = next
	}
	t.release(id)
}

// RemoveOnlyThisLayer removes a layer whose paint surface is no longer
// needed while keeping its children: they move to the layer's parent, at
// the layer's position, in order. The layer itself is freed. The root and
// detached layers have no parent to take the children and panic.
func (t *Tree) RemoveOnlyThisLayer(id ID) {
	t.checkMutationAllowed()
	n := t.at(id)
	if id == t.root {
		panic("layer: the root layer cannot be removed")
	}
	parent := n.parent
	if parent.IsNone() {
		panic(fmt.Sprintf("layer: %s is not attached", n.name))
	}
	nextSib := n.next
	for c := n.first; !c.IsNone(); {
		next := t.get(c).next
		t.RemoveChild(id, c)
		t.AddChild(parent, c, nextSib)
		c = next
	}
	t.RemoveChild(parent, id)
	t.release(id)
}

// InsertOnlyThisLayer inserts layer under parent before the sibling before
// (or last) and moves the listed existing children of parent under it, in
// the order given. It is the inverse of RemoveOnlyThisLayer.
func (t *Tree) InsertOnlyThisLayer(layer, parent, before ID, adopt ...ID) {
	t.checkMutationAllowed()
	for _, a := range adopt {
		if t.at(a).parent != parent {
			panic(fmt.Sprintf("layer: %s is not a child of %s", t.get(a).name, t.at(parent).name))
		}
		if a == before {
			panic("layer: cannot insert before a layer that is being adopted")
		}
	}
	t.AddChild(parent, layer, before)
	for _, a := range adopt {
		t.RemoveChild(parent, a)
		t.AddChild(layer, a, None)
	}
}

func (t *Tree) checkMutationAllowed() {
	if t.assertions && t.listIterations > 0 {
		panic("layer: tree mutated while iterating paint-order lists")
	}
}

func (t *Tree) assert(cond bool, format string, args ...any) {
	if t.assertions && !cond {
		panic(fmt.Sprintf("layer: "+format, args...))
	}
}
