package app

import (
	"context"
	"fmt"
	"io"

	"github.com/TomHsieh300/Linux-DRM-Explorer/frame"
	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/internal/easyterm"
	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
)

var barPatterns = [2]frame.Pattern{frame.PatternRGB, frame.PatternGBR}

// runBars paints one test card per surface and binds them in turn, one
// switch per key press, until q, the end of input or ctx.
func runBars(ctx context.Context, pipe hal.Pipeline, surfaces []hal.Surface, cfg Config, out io.Writer) (int, error) {
	var keys <-chan byte
	if cfg.Input != nil {
		var term easyterm.Terminal
		if err := term.Initialise(cfg.Input); err != nil {
			logger.Logf("app", "%v: keys are read a line at a time", err)
		} else if err := term.CBreakMode(); err != nil {
			logger.Logf("app", "cbreak mode: %v", err)
		} else {
			defer term.CanonicalMode()
		}
		keys = term.Keys(ctx)
	}
	return showBars(ctx, pipe, surfaces, keys, cfg.Present.Iterations, out)
}

// showBars does the work of runBars reading key presses from keys. A limit
// above zero stops after that many switches.
func showBars(ctx context.Context, pipe hal.Pipeline, surfaces []hal.Surface, keys <-chan byte, limit int, out io.Writer) (int, error) {
	var p frame.Painter
	for i, s := range surfaces {
		p.Bars(s, barPatterns[i%len(barPatterns)])
	}

	cur := 0
	show := func() error {
		if err := pipe.Bind(surfaces[cur]); err != nil {
			return fmt.Errorf("bind framebuffer %d: %w", surfaces[cur].FramebufferID(), err)
		}
		fmt.Fprintf(out, "displaying buffer [%d] with pattern %v\n", cur, barPatterns[cur%len(barPatterns)])
		return nil
	}
	if err := show(); err != nil {
		return 0, err
	}

	switches := 0
	for limit == 0 || switches < limit {
		select {
		case <-ctx.Done():
			return switches, nil
		case k, ok := <-keys:
			if !ok || k == 'q' || k == 'Q' {
				return switches, nil
			}
			if k == '\r' {
				continue
			}
		}
		cur = (cur + 1) % len(surfaces)
		if err := show(); err != nil {
			return switches, err
		}
		switches++
	}
	return switches, nil
}
