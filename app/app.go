// Package app drives one run: it opens the display, allocates the swap chain
// surfaces, runs the selected mode and tears everything down again in
// reverse order.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/internal/buildinfo"
	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
	"github.com/TomHsieh300/Linux-DRM-Explorer/present"

	"github.com/google/uuid"
)

// initialFill is the byte every new surface is cleared to, a dark grey.
const initialFill = 0x20

// OpenDevice opens the backend named by cfg.
func OpenDevice(cfg Config) (hal.Device, error) {
	switch cfg.Backend {
	case BackendSim:
		sim, err := hal.NewSim(cfg.Sim)
		if err != nil {
			return nil, err
		}
		return sim, nil
	case BackendDRM:
		drm, err := hal.OpenDRM(cfg.Device)
		if err != nil {
			return nil, err
		}
		return drm, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", present.ErrInvalidConfig, cfg.Backend)
}

// Summary describes a finished run.
type Summary struct {
	RunID   uuid.UUID
	Mode    string
	Output  hal.Output
	Elapsed time.Duration
	Stats   present.Stats

	// Switches counts the buffer switches of bars mode.
	Switches int

	// Sim is set when the run used the simulated backend.
	Sim *hal.SimStats
}

// Report writes the summary for the operator.
func (s Summary) Report(w io.Writer) {
	if s.Mode == ModeBars {
		fmt.Fprintf(w, "%s: %d buffer switches in %v\n", s.Mode, s.Switches, s.Elapsed.Round(time.Millisecond))
	} else {
		st := s.Stats
		fmt.Fprintf(w, "%s: %d frames in %v, %d binds, %d flips, %d completions, %d missed vblanks\n",
			s.Mode, st.Iterations, s.Elapsed.Round(time.Millisecond), st.Binds, st.Flips, st.Completions, st.Missed)
	}
	if s.Sim != nil && s.Sim.Scanned > 0 {
		fmt.Fprintf(w, "scanout: %d of %d frames torn\n", s.Sim.Torn, s.Sim.Scanned)
	}
}

// Run executes cfg on dev until ctx is done, the frame limit is reached or an
// error ends it. Surfaces are released in reverse order of creation whatever
// the outcome; dev itself is left open for the caller to close.
func Run(ctx context.Context, dev hal.Device, cfg Config, out io.Writer) (sum Summary, err error) {
	sum = Summary{
		RunID:  uuid.New(),
		Mode:   cfg.Mode,
		Output: dev.Output(),
	}
	logger.Logf("app", "run %s: %s on %v", sum.RunID, cfg.Mode, sum.Output)
	banner(out, cfg, sum)

	res := dev.Resources()
	if outs, oerr := res.Outputs(); oerr != nil {
		logger.Logf("app", "enumerate outputs: %v", oerr)
	} else {
		for i, o := range outs {
			logger.Logf("app", "output %d: %v (connector %d, CRTC %d)", i, o, o.ConnectorID, o.CrtcID)
		}
	}

	n := 2
	if !cfg.Bars() {
		n = cfg.Present.Strategy.Surfaces()
		// the bar has to fit the display before any surface is allocated
		if w := cfg.Present.BarWidth; w >= sum.Output.Width {
			return sum, fmt.Errorf("%w: bar width %d does not fit the %dpx display", present.ErrInvalidConfig, w, sum.Output.Width)
		}
	}
	surfaces, err := allocate(res, sum.Output, n)
	defer func() {
		if rerr := release(res, surfaces); rerr != nil {
			err = errors.Join(err, rerr)
		}
		if sim, ok := dev.(*hal.Sim); ok {
			st := sim.Stats()
			sum.Sim = &st
		}
	}()
	if err != nil {
		return sum, err
	}

	start := time.Now()
	defer func() { sum.Elapsed = time.Since(start) }()

	if cfg.Bars() {
		sum.Switches, err = runBars(ctx, dev.Pipeline(), surfaces, cfg, out)
		return sum, err
	}

	chain, err := present.NewSwapChain(surfaces...)
	if err != nil {
		return sum, err
	}
	e, err := present.New(cfg.Present, dev.Pipeline(), chain)
	if err != nil {
		return sum, err
	}

	defer func() {
		// a contract violation still crashes the program, after the
		// surfaces have been released by the deferred teardown
		if r := recover(); r != nil {
			logPanic(r, e.Stats())
			panic(r)
		}
	}()
	err = e.Run(ctx)
	sum.Stats = e.Stats()
	return sum, err
}

func banner(out io.Writer, cfg Config, sum Summary) {
	o := sum.Output
	fmt.Fprintf(out, "drm-explorer %s, run %s\n", buildinfo.Short(), sum.RunID)
	fmt.Fprintf(out, "display %s (connector %d, CRTC %d): %dx%d @ %d Hz, vblank every %s ms\n",
		o.Name, o.ConnectorID, o.CrtcID, o.Width, o.Height, o.RefreshHz, vblankMillis(o.VblankInterval()))
	if cfg.Bars() {
		fmt.Fprintf(out, "mode %s: RGB and GBR test cards, any key switches, q quits\n", ModeBars)
		return
	}
	fmt.Fprintf(out, "mode %s: %s\n", cfg.Present.Strategy, cfg.Present.Strategy.Description())
}

// allocate creates n display sized surfaces cleared to dark grey. On failure
// the surfaces created so far are returned with the error so that they are
// released with the rest.
func allocate(res hal.Resources, out hal.Output, n int) ([]hal.Surface, error) {
	surfaces := make([]hal.Surface, 0, n)
	for i := 0; i < n; i++ {
		s, err := res.CreateSurface(out.Width, out.Height)
		if err != nil {
			return surfaces, fmt.Errorf("surface %d of %d: %w", i+1, n, err)
		}
		hal.Fill(s, initialFill)
		logger.Logf("app", "surface %d: framebuffer %d, stride %d, %d bytes", i, s.FramebufferID(), s.StrideBytes(), s.SizeBytes())
		surfaces = append(surfaces, s)
	}
	return surfaces, nil
}

// release frees surfaces last to first and attempts every one even when
// some fail.
func release(res hal.Resources, surfaces []hal.Surface) error {
	var errs []error
	for i := len(surfaces) - 1; i >= 0; i-- {
		if err := res.Release(surfaces[i]); err != nil {
			logger.Logf("app", "release surface %d: %v", i, err)
			errs = append(errs, err)
		}
	}
	if n := res.Allocated(); n != 0 {
		logger.Logf("app", "%d surfaces still allocated after teardown", n)
	}
	return errors.Join(errs...)
}
