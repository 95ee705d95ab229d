// Package layer maintains a tree of paintable layers: the paint order of
// every stacking context, a set of descendant-status bits and the dirty
// bits that drive incremental compositing updates.
//
// A Tree owns its layers in an arena and hands out ID values. Mutations
// (AddChild, RemoveChild, SetStyle, SetGeometry and friends) only mark
// state dirty; derived state is rebuilt lazily by the accessors or in bulk
// by UpdatePass. Three walks read the dirty bits:
//
//   - UpdateLayerPositions recomputes absolute geometry.
//   - UpdateCompositingRequirements decides which layers need a backing.
//   - UpdateBackingAndHierarchy applies those decisions.
//
// Each walk skips subtrees whose summary bit is clear, so an update costs
// time proportional to what changed.
//
// A Tree is not safe for concurrent use.
package layer
