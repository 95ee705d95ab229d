package main

import (
	"context"
	"fmt"
	"io"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"layertree/pkg/config"
	"layertree/pkg/js"
	"layertree/pkg/layer"
	"layertree/pkg/render"
	"layertree/pkg/scene"
)

// loadScene reads and builds the scene named by the first argument.
func loadScene(env *localEnv, path string, assertions bool) (*scene.Scene, *scene.Built, error) {
	if len(path) == 0 {
		return nil, nil, fmt.Errorf("no scene specified")
	}
	s, err := scene.Load(path)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.Build(layer.WithLogger(env.Log.Named("layer")), layer.WithAssertions(assertions))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to build scene '%s': %w", path, err)
	}
	env.Log.Debug("Scene loaded", zap.String("file", path), zap.Int("layers", b.Tree.Len()))
	return s, b, nil
}

func tooManyArgs(env *localEnv, cmd *cli.Command, want int) {
	if cmd.Args().Len() > want {
		env.Log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", cmd.Args().Slice()[want:]))
	}
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	tooManyArgs(env, cmd, 1)

	_, b, err := loadScene(env, cmd.Args().Get(0), env.Cfg.Tree.Assertions)
	if err != nil {
		return err
	}
	b.Tree.UpdatePass()

	dump := b.Tree.DumpLayerTree
	if cmd.Bool("paint-order") {
		dump = b.Tree.DumpPaintOrderTree
	}
	if err := dump(cmd.Root().Writer, b.Tree.Root()); err != nil {
		return fmt.Errorf("unable to write dump: %w", err)
	}
	return nil
}

func runVerify(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	tooManyArgs(env, cmd, 1)

	// Violations are collected and reported here rather than panicking
	// inside the pass.
	_, b, err := loadScene(env, cmd.Args().Get(0), false)
	if err != nil {
		return err
	}
	b.Tree.UpdatePass()

	err = b.Tree.Verify()
	for _, e := range multierr.Errors(err) {
		env.Log.Warn("Invariant violated", zap.Error(e))
	}
	if err != nil {
		return fmt.Errorf("%d invariant violation(s)", len(multierr.Errors(err)))
	}
	fmt.Fprintf(cmd.Root().Writer, "%d layers, all invariants hold\n", b.Tree.Len())
	return nil
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	tooManyArgs(env, cmd, 2)

	out := cmd.Args().Get(1)
	if len(out) == 0 {
		return fmt.Errorf("no output file specified")
	}
	s, b, err := loadScene(env, cmd.Args().Get(0), env.Cfg.Tree.Assertions)
	if err != nil {
		return err
	}
	b.Tree.UpdatePass()

	width, height := viewport(env.Cfg, s)
	r := render.NewRenderer(width, height)
	r.Labels = !cmd.Bool("no-labels")
	r.Render(b.Tree)
	if err := r.SavePNG(out); err != nil {
		return fmt.Errorf("unable to save '%s': %w", out, err)
	}
	env.Log.Info("Rendered paint order", zap.String("file", out), zap.Int("width", width), zap.Int("height", height))

	ref := cmd.String("compare")
	if len(ref) == 0 {
		return nil
	}
	expected, err := render.LoadPNG(ref)
	if err != nil {
		return fmt.Errorf("unable to load reference '%s': %w", ref, err)
	}
	res, err := render.Compare(r.Image(), expected, render.CompareOptions{Tolerance: int(cmd.Int("tolerance"))})
	if err != nil {
		return err
	}
	if !res.Match {
		return fmt.Errorf("picture differs from '%s' in %d of %d pixels (max channel difference %d)",
			ref, res.DifferentPixels, res.TotalPixels, res.MaxDifference)
	}
	env.Log.Info("Picture matches reference", zap.String("reference", ref))
	return nil
}

// viewport prefers the size recorded in the scene over the configured one.
func viewport(cfg *config.Config, s *scene.Scene) (int, int) {
	w, h := cfg.Viewport.Width, cfg.Viewport.Height
	if s != nil && s.Viewport.Width > 0 && s.Viewport.Height > 0 {
		w, h = s.Viewport.Width, s.Viewport.Height
	}
	return w, h
}

func runScript(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	tooManyArgs(env, cmd, 1)

	path := cmd.Args().Get(0)
	if len(path) == 0 {
		return fmt.Errorf("no script specified")
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read script: %w", err)
	}

	var (
		tree  *layer.Tree
		names map[string]layer.ID
	)
	if sceneFile := cmd.String("scene"); len(sceneFile) > 0 {
		_, b, err := loadScene(env, sceneFile, env.Cfg.Tree.Assertions)
		if err != nil {
			return err
		}
		tree, names = b.Tree, b.Names
	} else {
		tree = layer.NewTree("root", layer.WithLogger(env.Log.Named("layer")), layer.WithAssertions(env.Cfg.Tree.Assertions))
	}

	engine := js.New(tree, names, env.Log.Named("script"))
	if err := engine.Run(string(src)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	env.Log.Debug("Script finished", zap.String("file", path), zap.Int("layers", tree.Len()))
	return nil
}

func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	tooManyArgs(env, cmd, 1)

	fname := cmd.Args().Get(0)

	var (
		data  []byte
		state string
		out   io.Writer = cmd.Root().Writer
	)
	if len(fname) > 0 {
		f, ferr := os.Create(fname)
		if ferr != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, ferr)
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		out = f
	}

	if cmd.Bool("default") {
		state = "default"
		data, err = config.Prepare()
	} else {
		state = "actual"
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get configuration: %w", err)
	}

	if len(fname) == 0 {
		fname = "STDOUT"
	}
	env.Log.Debug("Outputing configuration", zap.String("state", state), zap.String("file", fname))

	if _, err = out.Write(data); err != nil {
		return fmt.Errorf("unable to write configuration: %w", err)
	}
	return nil
}
