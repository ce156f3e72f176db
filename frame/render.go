package frame

import "github.com/TomHsieh300/Linux-DRM-Explorer/hal"

// Scene colours.
var (
	Background = hal.XRGB8888(0x20, 0x20, 0x20)
	Foreground = hal.XRGB8888(0xff, 0xff, 0xff)
)

// Painter repaints whole surfaces. Every scene it draws is constant down
// each column, which is what makes a torn frame show as a horizontal split.
//
// A Painter keeps a row of scratch memory and is not safe for concurrent use.
type Painter struct {
	row []byte
}

func (p *Painter) scratch(width int) []byte {
	n := width * hal.BytesPerPixel
	if cap(p.row) < n {
		p.row = make([]byte, n)
	}
	return p.row[:n]
}

// Render fills every pixel of s: columns inside [X, X+Width) get the
// foreground colour, everything else the background. Rows are written top
// to bottom, the same order the display engine reads them in.
func (p *Painter) Render(s hal.Surface, st State) {
	row := p.scratch(s.Width())
	for x := 0; x < s.Width(); x++ {
		c := Background
		if x >= st.X && x < st.X+st.Width {
			c = Foreground
		}
		hal.PutPixel(row, x*hal.BytesPerPixel, c)
	}
	p.fill(s, row)
}

func (p *Painter) fill(s hal.Surface, row []byte) {
	for y := 0; y < s.Height(); y++ {
		hal.WriteRow(s, y, row)
	}
}
