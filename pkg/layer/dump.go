package layer

import (
	"fmt"
	"io"
	"strings"
)

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, format, args...)
}

// DumpLayerTree writes the structural tree below root, one layer per line,
// with each layer's classification and pending dirty state.
func (t *Tree) DumpLayerTree(w io.Writer, root ID) error {
	t.at(root)
	d := &dumper{w: w}
	t.dumpLayer(d, root, 0)
	return d.err
}

func (t *Tree) dumpLayer(d *dumper, id ID, depth int) {
	d.printf("%s%s\n", strings.Repeat("  ", depth), t.describe(id))
	for c := t.get(id).first; !c.IsNone(); c = t.get(c).next {
		t.dumpLayer(d, c, depth+1)
	}
}

// DumpPaintOrderTree writes the paint-order tree below root. Each child line
// is tagged "-" for the negative z-order list, "N" for the normal-flow list
// and "+" for the positive z-order list, in paint order.
func (t *Tree) DumpPaintOrderTree(w io.Writer, root ID) error {
	t.at(root)
	d := &dumper{w: w}
	t.dumpPaintOrder(d, root, 0, ' ')
	return d.err
}

func (t *Tree) dumpPaintOrder(d *dumper, id ID, depth int, tag byte) {
	d.printf("%s%c %s\n", strings.Repeat("  ", depth), tag, t.describe(id))
	t.updateLayerListsIfNeeded(id)
	n := t.get(id)
	for _, c := range n.negZ {
		t.dumpPaintOrder(d, c, depth+1, '-')
	}
	for _, c := range n.normalFlowList {
		t.dumpPaintOrder(d, c, depth+1, 'N')
	}
	for _, c := range n.posZ {
		t.dumpPaintOrder(d, c, depth+1, '+')
	}
}

func (t *Tree) describe(id ID) string {
	n := t.get(id)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %v", n.name, id)
	switch {
	case n.cssSC:
		sb.WriteString(" stacking")
	case n.opportunistic:
		sb.WriteString(" stacking(opportunistic)")
	}
	if n.normalFlowOnly {
		sb.WriteString(" normal-flow")
	} else {
		fmt.Fprintf(&sb, " z=%d", n.class.EffectiveZIndex)
	}
	if n.composited {
		sb.WriteString(" composited")
		if n.indirect != ReasonNone {
			fmt.Fprintf(&sb, "(%v)", n.indirect)
		}
	}
	if b := n.absBounds; b.Dx() > 0 && b.Dy() > 0 {
		fmt.Fprintf(&sb, " bounds=[%g %g %g %g]", b.LLx, b.LLy, b.URx, b.URy)
	}
	if s := n.status; s != 0 {
		fmt.Fprintf(&sb, " descendants=%v", s)
	}
	if c := n.compositing; c != 0 {
		fmt.Fprintf(&sb, " compositing=%v", c)
	}
	if p := n.position; p != 0 {
		fmt.Fprintf(&sb, " position=%v", p)
	}
	return sb.String()
}
