package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/TomHsieh300/Linux-DRM-Explorer/app"
	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/internal/buildinfo"
	"github.com/TomHsieh300/Linux-DRM-Explorer/internal/statsview"
	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("drm-explorer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: drm-explorer [tearing|vblank-sync|single-buffer-race|bars] [flags]\n")
		fs.PrintDefaults()
	}

	var (
		pageflip  = fs.Bool("pageflip", false, "Same as the vblank-sync mode.")
		singlebuf = fs.Bool("singlebuf", false, "Same as the single-buffer-race mode.")
		simSize   = fs.String("sim-size", "1920x1080", "Simulated display size, WIDTHxHEIGHT.")
		stats     = fs.Bool("statsview", false, "Serve runtime statistics over HTTP (statsview builds only).")
		statsAddr = fs.String("statsview-addr", statsview.DefaultAddress, "Listen address of the statistics server.")
		verbose   = fs.Bool("v", false, "Echo the log to stderr.")
		version   = fs.Bool("version", false, "Print the build version and exit.")
	)
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "Display backend: drm or sim.")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "DRM device node.")
	fs.DurationVar(&cfg.Present.SwapDelay, "swap-delay", cfg.Present.SwapDelay, "Sleep after each immediate swap in tearing mode.")
	fs.DurationVar(&cfg.Present.RaceDelay, "race-delay", cfg.Present.RaceDelay, "Sleep after each repaint in single-buffer-race mode.")
	fs.DurationVar(&cfg.Present.FlipTimeout, "flip-timeout", cfg.Present.FlipTimeout, "Longest wait for a page flip to complete.")
	fs.IntVar(&cfg.Present.Iterations, "frames", 0, "Stop after N frames, or N buffer switches in bars mode (0 = until interrupted).")
	fs.IntVar(&cfg.Present.BarWidth, "bar-width", cfg.Present.BarWidth, "Width of the moving bar in pixels.")
	fs.BoolVar(&cfg.Present.HUD, "hud", cfg.Present.HUD, "Draw the mode and frame counter on screen.")
	fs.IntVar(&cfg.Sim.RefreshHz, "sim-hz", cfg.Sim.RefreshHz, "Simulated refresh rate.")
	fs.BoolVar(&cfg.Sim.Stall, "sim-stall", false, "Simulated pipeline never completes page flips.")
	fs.BoolVar(&cfg.Sim.Scan, "sim-scan", false, "Emulate scanout and count torn frames.")
	fs.BoolVar(&cfg.Window, "window", false, "Preview the simulated scanout in a window (implies -sim-scan).")

	// the mode may come before the flags
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cfg.Mode = args[0]
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *version {
		fmt.Fprintf(stdout, "drm-explorer %s\n", buildinfo.String())
		return 0
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.Mode = fs.Arg(0)
	default:
		fs.Usage()
		return 2
	}
	switch {
	case *pageflip && *singlebuf:
		fmt.Fprintln(stderr, "-pageflip and -singlebuf are exclusive")
		return 2
	case *pageflip:
		cfg.Mode = "vblank-sync"
	case *singlebuf:
		cfg.Mode = "single-buffer-race"
	}

	var err error
	cfg.Sim.Width, cfg.Sim.Height, err = app.ParseSize(*simSize)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintln(stderr, app.Describe(err))
		return app.ExitCode(err)
	}

	if *verbose {
		logger.SetEcho(stderr)
		defer logger.SetEcho(nil)
	}
	if *stats {
		if err := statsview.Launch(*statsAddr, stdout); err != nil {
			fmt.Fprintln(stderr, err)
			if !errors.Is(err, statsview.ErrUnavailable) {
				return 2
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev, err := app.OpenDevice(cfg)
	if err != nil {
		fmt.Fprintln(stderr, app.Describe(err))
		return app.ExitCode(err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Logf("app", "close device: %v", err)
		}
	}()

	present := func(ctx context.Context) error {
		sum, err := app.Run(ctx, dev, cfg, stdout)
		sum.Report(stdout)
		return err
	}
	if cfg.Window {
		err = hal.RunWindow(ctx, dev.(*hal.Sim), present)
	} else {
		err = present(ctx)
	}
	if err != nil {
		fmt.Fprintln(stderr, app.Describe(err))
		if !*verbose {
			logger.Tail(stderr, 10)
		}
		return app.ExitCode(err)
	}
	return 0
}
