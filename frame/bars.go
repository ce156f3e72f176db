package frame

import "github.com/TomHsieh300/Linux-DRM-Explorer/hal"

// Pattern is a static test card of three vertical colour bars.
type Pattern int

const (
	PatternRGB Pattern = iota
	PatternGBR
)

var patternColours = [...][3]uint32{
	PatternRGB: {hal.XRGB8888(0xff, 0, 0), hal.XRGB8888(0, 0xff, 0), hal.XRGB8888(0, 0, 0xff)},
	PatternGBR: {hal.XRGB8888(0, 0xff, 0), hal.XRGB8888(0, 0, 0xff), hal.XRGB8888(0xff, 0, 0)},
}

func (p Pattern) String() string {
	switch p {
	case PatternRGB:
		return "RGB"
	case PatternGBR:
		return "GBR"
	}
	return "unknown"
}

// Bars paints pattern pat over the whole of s, splitting the width in thirds.
func (p *Painter) Bars(s hal.Surface, pat Pattern) {
	if pat < 0 || int(pat) >= len(patternColours) {
		pat = PatternRGB
	}
	cols := patternColours[pat]

	w := s.Width()
	row := p.scratch(w)
	for x := 0; x < w; x++ {
		hal.PutPixel(row, x*hal.BytesPerPixel, cols[x*3/w])
	}
	p.fill(s, row)
}
