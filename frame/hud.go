package frame

import (
	"image/color"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

// HUD placement. The text sits inside the first eighth of the surface and
// clear of its first row, where the simulated scanout samples for tearing.
const (
	hudX         = 8
	hudBaseline  = 16
	hudLineSpace = 12

	// hudMinHeight keeps the text inside the first scan band.
	hudMinHeight = 8 * (hudBaseline + 2*hudLineSpace)
)

var hudColour = color.RGBA{R: 0xff, G: 0xc0, B: 0x20, A: 0xff}

// surfaceDisplay lets tinyfont draw onto a surface.
type surfaceDisplay struct {
	s hal.Surface
}

var _ drivers.Displayer = surfaceDisplay{}

func (d surfaceDisplay) Size() (x, y int16) {
	return int16(d.s.Width()), int16(d.s.Height())
}

func (d surfaceDisplay) SetPixel(x, y int16, c color.RGBA) {
	hal.SetPixel(d.s, int(x), int(y), hal.XRGB8888(c.R, c.G, c.B))
}

func (d surfaceDisplay) Display() error { return nil }

// DrawHUD writes up to two lines of text at the top left of s. Nothing is
// drawn on surfaces too short to keep the text off the sampled rows.
func DrawHUD(s hal.Surface, lines ...string) {
	if s.Height() < hudMinHeight {
		return
	}
	d := surfaceDisplay{s: s}
	for i, line := range lines {
		if i == 2 {
			break
		}
		tinyfont.WriteLine(d, &proggy.TinySZ8pt7b, hudX, int16(hudBaseline+i*hudLineSpace), line, hudColour)
	}
}
