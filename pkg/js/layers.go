package js

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"seehuhn.de/go/geom/rect"

	"layertree/pkg/layer"
	"layertree/pkg/scene"
)

// registerLayers sets up the global `layers` object.
func (e *Engine) registerLayers() {
	vm := e.vm
	obj := vm.NewObject()

	obj.Set("root", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(e.tree.Name(e.tree.Root()))
	})
	obj.Set("create", e.createFn)
	obj.Set("append", e.appendFn)
	obj.Set("remove", func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, "remove")
		parent := e.tree.Parent(id)
		if parent.IsNone() {
			panic(vm.NewTypeError("Failed to execute 'remove': %s is not attached", e.tree.Name(id)))
		}
		e.guard("remove", func() { e.tree.RemoveChild(parent, id) })
		return goja.Undefined()
	})
	obj.Set("destroy", func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, "destroy")
		e.guard("destroy", func() { e.tree.Destroy(id) })
		e.forgetStale()
		return goja.Undefined()
	})
	obj.Set("removeOnly", func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, "removeOnly")
		e.guard("removeOnly", func() { e.tree.RemoveOnlyThisLayer(id) })
		e.forgetStale()
		return goja.Undefined()
	})
	obj.Set("insertOnly", e.insertOnlyFn)
	obj.Set("setStyle", func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, "setStyle")
		style := e.style(call.Argument(1), "setStyle")
		e.guard("setStyle", func() { e.tree.SetStyle(id, style) })
		return goja.Undefined()
	})
	obj.Set("setGeometry", e.setGeometryFn)
	obj.Set("setOpportunistic", func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, "setOpportunistic")
		var changed bool
		e.guard("setOpportunistic", func() {
			changed = e.tree.SetIsOpportunisticStackingContext(id, call.Argument(1).ToBoolean())
		})
		return vm.ToValue(changed)
	})
	obj.Set("markDirty", func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, "markDirty")
		name := call.Argument(1).String()
		bit, ok := layer.ParseCompositingDirty(name)
		if !ok {
			panic(vm.NewTypeError("Failed to execute 'markDirty': unknown flag %q", name))
		}
		e.guard("markDirty", func() { e.tree.SetCompositingDirty(id, bit) })
		return goja.Undefined()
	})
	obj.Set("update", e.updateFn)

	obj.Set("positive", e.listFn("positive", e.tree.PositiveZOrderList))
	obj.Set("negative", e.listFn("negative", e.tree.NegativeZOrderList))
	obj.Set("normalFlow", e.listFn("normalFlow", e.tree.NormalFlowList))
	obj.Set("children", e.listFn("children", e.tree.Children))
	obj.Set("paintOrder", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(e.namesOf(e.tree.PaintOrder(e.tree.Root())))
	})
	obj.Set("hitTestOrder", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(e.namesOf(e.tree.HitTestOrder(e.tree.Root())))
	})
	obj.Set("parent", func(call goja.FunctionCall) goja.Value {
		return e.nameValue(e.tree.Parent(e.lookup(call, 0, "parent")))
	})
	obj.Set("stackingContext", func(call goja.FunctionCall) goja.Value {
		return e.nameValue(e.tree.StackingContext(e.lookup(call, 0, "stackingContext")))
	})
	obj.Set("paintOrderParent", func(call goja.FunctionCall) goja.Value {
		return e.nameValue(e.tree.PaintOrderParent(e.lookup(call, 0, "paintOrderParent")))
	})

	obj.Set("isStackingContext", e.predicateFn("isStackingContext", e.tree.IsStackingContext))
	obj.Set("isNormalFlowOnly", e.predicateFn("isNormalFlowOnly", e.tree.IsNormalFlowOnly))
	obj.Set("hasVisibleDescendant", e.predicateFn("hasVisibleDescendant", e.tree.HasVisibleDescendant))
	obj.Set("hasSelfPaintingDescendant", e.predicateFn("hasSelfPaintingDescendant", e.tree.HasSelfPaintingLayerDescendant))
	obj.Set("has3DTransformedDescendant", e.predicateFn("has3DTransformedDescendant", e.tree.Has3DTransformedDescendant))
	obj.Set("composited", e.predicateFn("composited", e.tree.IsComposited))
	obj.Set("reason", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(e.tree.IndirectCompositingReason(e.lookup(call, 0, "reason")).String())
	})
	obj.Set("dirtyBits", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(e.tree.CompositingDirtyBits(e.lookup(call, 0, "dirtyBits")).String())
	})

	obj.Set("verify", func(goja.FunctionCall) goja.Value {
		if err := e.tree.Verify(); err != nil {
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})
	obj.Set("dump", func(call goja.FunctionCall) goja.Value {
		var sb strings.Builder
		dump := e.tree.DumpLayerTree
		if call.Argument(0).String() == "paint" {
			dump = e.tree.DumpPaintOrderTree
		}
		if err := dump(&sb, e.tree.Root()); err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(sb.String())
	})

	vm.Set("layers", obj)
}

// lookup resolves the name passed as argument i, throwing a TypeError for
// missing arguments and unknown or stale layers.
func (e *Engine) lookup(call goja.FunctionCall, i int, fn string) layer.ID {
	if len(call.Arguments) <= i {
		panic(e.vm.NewTypeError("Failed to execute '%s': %d argument(s) required", fn, i+1))
	}
	name := call.Arguments[i].String()
	id, ok := e.names[name]
	if !ok || !e.tree.Valid(id) {
		panic(e.vm.NewTypeError("Failed to execute '%s': no layer named %q", fn, name))
	}
	return id
}

// guard turns tree panics (cycles, foreign children, mutation during
// iteration) into script exceptions.
func (e *Engine) guard(fn string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			panic(e.vm.NewGoError(fmt.Errorf("%s: %v", fn, r)))
		}
	}()
	f()
}

func (e *Engine) forgetStale() {
	for name, id := range e.names {
		if !e.tree.Valid(id) {
			delete(e.names, name)
		}
	}
}

func (e *Engine) style(v goja.Value, fn string) layer.Style {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return layer.NewStyle()
	}
	m, ok := v.Export().(map[string]any)
	if !ok {
		panic(e.vm.NewTypeError("Failed to execute '%s': style must be an object", fn))
	}
	style, err := scene.StyleFromMap(m)
	if err != nil {
		panic(e.vm.NewTypeError("Failed to execute '%s': %v", fn, err))
	}
	return style
}

func (e *Engine) createFn(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) == 0 {
		panic(e.vm.NewTypeError("Failed to execute 'create': 1 argument required"))
	}
	name := call.Arguments[0].String()
	if id, ok := e.names[name]; ok && e.tree.Valid(id) {
		panic(e.vm.NewTypeError("Failed to execute 'create': layer %q already exists", name))
	}
	style := e.style(call.Argument(1), "create")
	e.guard("create", func() { e.names[name] = e.tree.Create(name, style) })
	return e.vm.ToValue(name)
}

// appendFn implements layers.append(parent, child[, before]). A child that
// is already attached is moved.
func (e *Engine) appendFn(call goja.FunctionCall) goja.Value {
	parent := e.lookup(call, 0, "append")
	child := e.lookup(call, 1, "append")
	before := layer.None
	if v := call.Argument(2); !goja.IsUndefined(v) && !goja.IsNull(v) {
		before = e.lookup(call, 2, "append")
	}
	e.guard("append", func() {
		if p := e.tree.Parent(child); !p.IsNone() {
			e.tree.RemoveChild(p, child)
		}
		e.tree.AddChild(parent, child, before)
	})
	return goja.Undefined()
}

// insertOnlyFn implements layers.insertOnly(layer, parent, before, [adopt]).
func (e *Engine) insertOnlyFn(call goja.FunctionCall) goja.Value {
	id := e.lookup(call, 0, "insertOnly")
	parent := e.lookup(call, 1, "insertOnly")
	before := layer.None
	if v := call.Argument(2); !goja.IsUndefined(v) && !goja.IsNull(v) {
		before = e.lookup(call, 2, "insertOnly")
	}
	var adopt []layer.ID
	if v := call.Argument(3); !goja.IsUndefined(v) && !goja.IsNull(v) {
		var names []string
		if err := e.vm.ExportTo(v, &names); err != nil {
			panic(e.vm.NewTypeError("Failed to execute 'insertOnly': %v", err))
		}
		for _, n := range names {
			a, ok := e.names[n]
			if !ok || !e.tree.Valid(a) {
				panic(e.vm.NewTypeError("Failed to execute 'insertOnly': no layer named %q", n))
			}
			adopt = append(adopt, a)
		}
	}
	e.guard("insertOnly", func() { e.tree.InsertOnlyThisLayer(id, parent, before, adopt...) })
	return goja.Undefined()
}

func (e *Engine) setGeometryFn(call goja.FunctionCall) goja.Value {
	id := e.lookup(call, 0, "setGeometry")
	var b []float64
	if err := e.vm.ExportTo(call.Argument(1), &b); err != nil || len(b) != 4 {
		panic(e.vm.NewTypeError("Failed to execute 'setGeometry': bounds must be [x0, y0, x1, y1]"))
	}
	g := e.tree.Geometry(id)
	g.Bounds = rect.Rect{LLx: b[0], LLy: b[1], URx: b[2], URy: b[3]}
	e.guard("setGeometry", func() { e.tree.SetGeometry(id, g) })
	return goja.Undefined()
}

// updateFn runs an update pass and reports what it did.
func (e *Engine) updateFn(goja.FunctionCall) goja.Value {
	var res layer.PassResult
	e.guard("update", func() { res = e.tree.UpdatePass() })
	var backing []string
	for _, u := range res.Backing.Updates {
		backing = append(backing, e.tree.Name(u.Layer)+":"+u.Kind.String())
	}
	return e.vm.ToValue(map[string]any{
		"positioned":          e.namesOf(res.Positions.Updated),
		"requirementsVisited": e.namesOf(res.Requirements.Visited),
		"compositingChanged":  e.namesOf(res.Requirements.Changed),
		"backing":             backing,
	})
}

func (e *Engine) listFn(fn string, list func(layer.ID) []layer.ID) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		id := e.lookup(call, 0, fn)
		return e.vm.ToValue(e.namesOf(list(id)))
	}
}

func (e *Engine) predicateFn(fn string, pred func(layer.ID) bool) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(pred(e.lookup(call, 0, fn)))
	}
}

func (e *Engine) namesOf(ids []layer.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = e.tree.Name(id)
	}
	return out
}

func (e *Engine) nameValue(id layer.ID) goja.Value {
	if id.IsNone() {
		return goja.Null()
	}
	return e.vm.ToValue(e.tree.Name(id))
}
