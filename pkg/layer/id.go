package layer

import "fmt"

// ID addresses a layer stored in a Tree. IDs are plain values: copying one
// does not keep the layer alive, and an ID held after its layer was
// destroyed is stale. Tree.Valid reports whether an ID still refers to a
// live layer.
type ID struct {
	slot uint32
	gen  uint32
}

// None is the zero ID. It never refers to a layer.
var None ID

// IsNone reports whether id is the zero ID.
func (id ID) IsNone() bool {
	return id.slot == 0
}

// Equal reports whether both IDs name the same layer incarnation.
func (id ID) Equal(o ID) bool {
	return id == o
}

func (id ID) String() string {
	if id.IsNone() {
		return "none"
	}
	return fmt.Sprintf("#%d.%d", id.slot, id.gen)
}

// alloc returns a fresh slot. Slot 0 is reserved for None.
func (t *Tree) alloc() ID {
	if n := len(t.free); n > 0 {
		slot := t.free[n-1]
		t.free = t.free[:n-1]
		nd := &t.nodes[slot]
		nd.live = true
		return ID{slot: slot, gen: nd.gen}
	}
	t.nodes = append(t.nodes, node{gen: 1, live: true})
	return ID{slot: uint32(len(t.nodes) - 1), gen: 1}
}

// release frees the slot and bumps its generation so outstanding IDs go stale.
func (t *Tree) release(id ID) {
	nd := &t.nodes[id.slot]
	gen := nd.gen + 1
	if gen == 0 {
		gen = 1
	}
	*nd = node{gen: gen}
	t.free = append(t.free, id.slot)
}

// Valid reports whether id refers to a live layer of this tree.
func (t *Tree) Valid(id ID) bool {
	if id.slot == 0 || int(id.slot) >= len(t.nodes) {
		return false
	}
	nd := &t.nodes[id.slot]
	return nd.live && nd.gen == id.gen
}

// at returns the node for id and panics on a stale or foreign ID. Handing a
// dead ID to a mutation or query is a programming error.
func (t *Tree) at(id ID) *node {
	if !t.Valid(id) {
		panic(fmt.Sprintf("layer: invalid layer id %v", id))
	}
	return &t.nodes[id.slot]
}

// get is the unchecked variant used on links the tree maintains itself.
func (t *Tree) get(id ID) *node {
	if id.slot == 0 {
		return nil
	}
	return &t.nodes[id.slot]
}
