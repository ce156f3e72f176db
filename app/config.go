package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/present"
)

// Display backends.
const (
	BackendDRM = "drm"
	BackendSim = "sim"
)

// ModeBars shows the static colour bar test cards instead of running a
// presentation strategy.
const ModeBars = "bars"

// Config is everything a run needs. Mode is a strategy name or ModeBars.
type Config struct {
	Mode    string
	Backend string
	Device  string

	Present present.Config
	Sim     hal.SimConfig

	// Window previews the simulated scanout. It needs the sim backend.
	Window bool

	// Input is read for key presses in bars mode.
	Input *os.File
}

// DefaultConfig is the tearing strategy on the primary DRM card.
func DefaultConfig() Config {
	return Config{
		Mode:    present.Tearing.String(),
		Backend: BackendDRM,
		Device:  hal.DefaultDRMDevice,
		Present: present.DefaultConfig(),
		Sim: hal.SimConfig{
			Width:     1920,
			Height:    1080,
			RefreshHz: 60,
		},
		Input: os.Stdin,
	}
}

// Bars reports whether the config selects the colour bar mode.
func (c Config) Bars() bool {
	return c.Mode == ModeBars
}

// Validate resolves Mode into Present.Strategy and checks everything that
// does not depend on the display. The bar width is checked against the
// display once it is open.
func (c *Config) Validate() error {
	if !c.Bars() {
		s, err := present.ParseStrategy(c.Mode)
		if err != nil {
			return err
		}
		c.Present.Strategy = s
	}

	switch c.Backend {
	case BackendDRM:
		if c.Window {
			return fmt.Errorf("%w: the window preview needs the %s backend", present.ErrInvalidConfig, BackendSim)
		}
	case BackendSim:
		if c.Sim.Width <= 0 || c.Sim.Height <= 0 || c.Sim.RefreshHz <= 0 {
			return fmt.Errorf("%w: simulated mode %dx%d@%d", present.ErrInvalidConfig, c.Sim.Width, c.Sim.Height, c.Sim.RefreshHz)
		}
		if c.Window {
			c.Sim.Scan = true
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", present.ErrInvalidConfig, c.Backend)
	}

	p := c.Present
	switch {
	case p.BarWidth <= 0:
		return fmt.Errorf("%w: bar width %d", present.ErrInvalidConfig, p.BarWidth)
	case p.SwapDelay < 0 || p.RaceDelay < 0:
		return fmt.Errorf("%w: delays must not be negative", present.ErrInvalidConfig)
	case p.FlipTimeout <= 0:
		return fmt.Errorf("%w: flip timeout %v", present.ErrInvalidConfig, p.FlipTimeout)
	case p.Iterations < 0:
		return fmt.Errorf("%w: frame count %d", present.ErrInvalidConfig, p.Iterations)
	}
	return nil
}

// ParseSize parses WIDTHxHEIGHT.
func ParseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("%w: size %q is not WIDTHxHEIGHT", present.ErrInvalidConfig, s)
	}
	width, err = strconv.Atoi(ws)
	if err == nil {
		height, err = strconv.Atoi(hs)
	}
	if err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("%w: size %q is not WIDTHxHEIGHT", present.ErrInvalidConfig, s)
	}
	return width, height, nil
}

// vblankMillis formats the refresh period the way the banner prints it.
func vblankMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 2, 64)
}
