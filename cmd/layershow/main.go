// Command layershow displays a layer-tree scene: the rendered paint order
// next to the structural and paint-order dumps.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"layertree/pkg/config"
	"layertree/pkg/layer"
	"layertree/pkg/render"
	"layertree/pkg/scene"
)

type viewer struct {
	tree   *layer.Tree
	width  int
	height int
	log    *zap.Logger

	image  *canvas.Image
	layers *widget.Label
	paint  *widget.Label
	status *widget.Label
}

// refresh runs an update pass and redraws every panel.
func (v *viewer) refresh() {
	res := v.tree.UpdatePass()

	r := render.NewRenderer(v.width, v.height)
	r.Render(v.tree)
	v.image.Image = r.Image()
	v.image.Refresh()

	var sb strings.Builder
	if err := v.tree.DumpLayerTree(&sb, v.tree.Root()); err != nil {
		v.log.Error("Unable to dump layer tree", zap.Error(err))
	}
	v.layers.SetText(sb.String())
	sb.Reset()
	if err := v.tree.DumpPaintOrderTree(&sb, v.tree.Root()); err != nil {
		v.log.Error("Unable to dump paint order", zap.Error(err))
	}
	v.paint.SetText(sb.String())

	status := fmt.Sprintf("%d layers, %d repositioned, %d compositing changes",
		v.tree.Len(), len(res.Positions.Updated), len(res.Requirements.Changed))
	if err := v.tree.Verify(); err != nil {
		status += " | " + err.Error()
	}
	v.status.SetText(status)
}

func run() error {
	configFile := flag.String("config", "", "load configuration from `FILE` (YAML)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: layershow [flags] SCENE\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfiguration(*configFile)
	if err != nil {
		return fmt.Errorf("unable to prepare configuration: %w", err)
	}
	log, err := cfg.Logging.Prepare("layershow")
	if err != nil {
		return fmt.Errorf("unable to prepare logs: %w", err)
	}
	defer func() { _ = log.Sync() }()

	s, err := scene.Load(flag.Arg(0))
	if err != nil {
		return err
	}
	b, err := s.Build(layer.WithLogger(log.Named("layer")), layer.WithAssertions(cfg.Tree.Assertions))
	if err != nil {
		return fmt.Errorf("unable to build scene: %w", err)
	}

	v := &viewer{
		tree:   b.Tree,
		width:  cfg.Viewport.Width,
		height: cfg.Viewport.Height,
		log:    log,
		layers: widget.NewLabel(""),
		paint:  widget.NewLabel(""),
		status: widget.NewLabel(""),
	}
	if s.Viewport.Width > 0 && s.Viewport.Height > 0 {
		v.width, v.height = s.Viewport.Width, s.Viewport.Height
	}
	v.layers.TextStyle = fyne.TextStyle{Monospace: true}
	v.paint.TextStyle = fyne.TextStyle{Monospace: true}
	v.image = canvas.NewImageFromImage(nil)
	v.image.FillMode = canvas.ImageFillOriginal

	a := app.New()
	w := a.NewWindow("layershow - " + flag.Arg(0))
	w.Resize(fyne.NewSize(float32(v.width)+480, float32(v.height)+80))

	// "Full recomposite" forces the whole requirements walk so its result
	// can be compared with the incremental one.
	rerun := widget.NewButton("Update pass", v.refresh)
	full := widget.NewButton("Full recomposite", func() {
		v.tree.SetDescendantsNeedCompositingRequirementsTraversal(v.tree.Root())
		v.refresh()
	})

	dumps := container.NewAppTabs(
		container.NewTabItem("Layers", container.NewScroll(v.layers)),
		container.NewTabItem("Paint order", container.NewScroll(v.paint)),
	)
	split := container.NewHSplit(container.NewScroll(v.image), dumps)
	split.Offset = 0.6
	top := container.NewHBox(rerun, full)
	w.SetContent(container.NewBorder(top, v.status, nil, nil, split))

	v.refresh()
	log.Debug("Viewer started", zap.String("scene", flag.Arg(0)), zap.Int("layers", b.Tree.Len()))
	w.ShowAndRun()
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		os.Exit(1)
	}
}
