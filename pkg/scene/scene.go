// Package scene reads YAML descriptions of layer trees.
//
// A scene names every layer, gives it style facts as a property map and
// an optional box and transform:
//
//	viewport: {width: 400, height: 300}
//	root:
//	  name: root
//	  bounds: [0, 0, 400, 300]
//	  children:
//	    - name: card
//	      style: {position: relative, zIndex: 1, opacity: 0.5}
//	      bounds: [20, 20, 200, 120]
package scene

import (
	"bytes"
	"fmt"
	"os"

	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"layertree/pkg/layer"
)

type Viewport struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type Layer struct {
	Name          string         `yaml:"name"`
	Style         map[string]any `yaml:"style,omitempty"`
	Bounds        []float64      `yaml:"bounds,omitempty"`
	Transform     []float64      `yaml:"transform,omitempty"`
	Opportunistic bool           `yaml:"opportunistic,omitempty"`
	Children      []Layer        `yaml:"children,omitempty"`
}

type Scene struct {
	Viewport Viewport `yaml:"viewport"`
	Root     Layer    `yaml:"root"`
}

// Built is a scene turned into a live tree.
type Built struct {
	Tree  *layer.Tree
	Names map[string]layer.ID
}

// Parse decodes a scene. Unknown keys are rejected.
func Parse(data []byte) (*Scene, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Scene
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode scene: %w", err)
	}
	if s.Root.Name == "" {
		return nil, fmt.Errorf("scene has no root layer")
	}
	return &s, nil
}

// Load reads and decodes a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

type builder struct {
	tree  *layer.Tree
	names map[string]layer.ID
	errs  error
}

func (b *builder) fail(name string, err error) {
	b.errs = multierr.Append(b.errs, fmt.Errorf("layer %q: %w", name, err))
}

// Build creates the tree described by the scene. Every problem found is
// reported; the tree is only returned when there were none.
func (s *Scene) Build(opts ...layer.Option) (*Built, error) {
	b := &builder{
		tree:  layer.NewTree(s.Root.Name, opts...),
		names: make(map[string]layer.ID),
	}
	root := b.tree.Root()
	b.names[s.Root.Name] = root
	b.configure(root, &s.Root)
	b.children(root, s.Root.Children)
	if b.errs != nil {
		return nil, b.errs
	}
	return &Built{Tree: b.tree, Names: b.names}, nil
}

func (b *builder) children(parent layer.ID, children []Layer) {
	for i := range children {
		l := &children[i]
		if l.Name == "" {
			b.fail(b.tree.Name(parent), fmt.Errorf("child %d has no name", i))
			continue
		}
		if _, dup := b.names[l.Name]; dup {
			b.fail(l.Name, fmt.Errorf("duplicate name"))
			continue
		}
		id := b.tree.Create(l.Name, layer.NewStyle())
		b.names[l.Name] = id
		b.tree.AddChild(parent, id, layer.None)
		b.configure(id, l)
		b.children(id, l.Children)
	}
}

func (b *builder) configure(id layer.ID, l *Layer) {
	if len(l.Style) > 0 {
		style, err := StyleFromMap(l.Style)
		if err != nil {
			b.fail(l.Name, err)
		} else {
			b.tree.SetStyle(id, style)
		}
	}
	g, err := l.geometry()
	if err != nil {
		b.fail(l.Name, err)
	} else {
		b.tree.SetGeometry(id, g)
	}
	if l.Opportunistic {
		b.tree.SetIsOpportunisticStackingContext(id, true)
	}
}

func (l *Layer) geometry() (layer.Geometry, error) {
	var g layer.Geometry
	switch len(l.Bounds) {
	case 0:
	case 4:
		g.Bounds = rect.Rect{LLx: l.Bounds[0], LLy: l.Bounds[1], URx: l.Bounds[2], URy: l.Bounds[3]}
		if g.Bounds.URx < g.Bounds.LLx || g.Bounds.URy < g.Bounds.LLy {
			return g, fmt.Errorf("bounds %v are inverted", l.Bounds)
		}
	default:
		return g, fmt.Errorf("bounds need 4 numbers, got %d", len(l.Bounds))
	}
	switch len(l.Transform) {
	case 0:
	case 6:
		g.Transform = matrix.Matrix(l.Transform)
	default:
		return g, fmt.Errorf("transform needs 6 numbers, got %d", len(l.Transform))
	}
	return g, nil
}
