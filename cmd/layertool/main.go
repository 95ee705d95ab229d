// Command layertool loads layer-tree scenes, runs update passes over them
// and reports the result.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"layertree/pkg/config"
)

const appName = "layertool"

// initializeAppContext prepares the environment after the command line has
// been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		return ctx, nil
	}

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if env.Log, err = env.Cfg.Logging.Prepare(appName); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", env.uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	// Syncing a console fails on most platforms, nothing to report.
	_ = env.Log.Sync()
	return
}

var errWasHandled bool

// exitErrHandler is called before the environment is torn down, so errors
// can still be logged.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "inspects layer trees: z-order lists, dirty bits and compositing",
		Version:         runtime.Version(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
		},
		Commands: []*cli.Command{
			{
				Name:         "dump",
				Usage:        "Runs an update pass over a scene and prints the layer tree",
				OnUsageError: usageErrorHandler,
				Action:       runDump,
				ArgsUsage:    "SCENE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "paint-order", Aliases: []string{"p"}, Usage: "print the paint-order tree instead of the structural one"},
				},
			},
			{
				Name:         "verify",
				Usage:        "Runs an update pass over a scene and checks every tree invariant",
				OnUsageError: usageErrorHandler,
				Action:       runVerify,
				ArgsUsage:    "SCENE",
			},
			{
				Name:         "render",
				Usage:        "Draws the paint order of a scene into a PNG file",
				OnUsageError: usageErrorHandler,
				Action:       runRender,
				ArgsUsage:    "SCENE OUT.png",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-labels", Usage: "do not print layer names"},
					&cli.StringFlag{Name: "compare", Usage: "fail unless the picture matches reference `PNG`"},
					&cli.IntFlag{Name: "tolerance", Value: 2, Usage: "allowed per-channel difference when comparing"},
				},
			},
			{
				Name:         "run",
				Usage:        "Executes a JavaScript scenario against a scene or an empty tree",
				OnUsageError: usageErrorHandler,
				Action:       runScript,
				ArgsUsage:    "SCRIPT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scene", Aliases: []string{"s"}, Usage: "start from the tree described in `SCENE`"},
				},
			},
			{
				Name:         "dumpconfig",
				Usage:        "Dumps either default or actual configuration (YAML)",
				OnUsageError: usageErrorHandler,
				Action:       outputConfiguration,
				ArgsUsage:    "DESTINATION",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// os.Exit is called at the end of main, no deferred functions may follow.
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}
