// Package js scripts layer-tree mutations with JavaScript.
//
// Scripts see a global `layers` object that addresses layers by name and a
// `console` routed to the engine's logger.
package js

import (
	"fmt"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"layertree/pkg/layer"
)

// Engine executes scripts against a layer tree.
type Engine struct {
	vm    *goja.Runtime
	tree  *layer.Tree
	names map[string]layer.ID
	log   *zap.Logger
}

// New creates an engine with a fresh goja runtime bound to tree. names maps
// layer names to IDs and is updated as scripts create and destroy layers;
// nil starts an index holding just the root. A nil log discards console
// output.
func New(tree *layer.Tree, names map[string]layer.ID, log *zap.Logger) *Engine {
	if names == nil {
		names = map[string]layer.ID{tree.Name(tree.Root()): tree.Root()}
	}
	if log == nil {
		log = zap.NewNop()
	}
	vm := goja.New()
	e := &Engine{vm: vm, tree: tree, names: names, log: log}

	c := &consoleAPI{log: log.Named("console")}
	c.register(vm)
	e.registerLayers()

	return e
}

// Names returns the current name index.
func (e *Engine) Names() map[string]layer.ID { return e.names }

// Run executes src. Exceptions thrown by the script, including failed
// tree operations, are returned as errors.
func (e *Engine) Run(src string) error {
	if _, err := e.vm.RunString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}
