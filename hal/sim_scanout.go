package hal

import (
	"bytes"
	"sync"
)

// scanBands is the number of slices one refresh period is scanned in. The
// active surface can change between two bands, never inside one.
const scanBands = 8

// scanout emulates the display engine reading the bound surface top to
// bottom over one refresh period.
type scanout struct {
	width  int
	height int
	pitch  int

	// visible is the frame being assembled, filled[b] records whether band b
	// was read from a bound surface.
	visible []byte
	filled  [scanBands]bool

	mu     sync.Mutex
	latest []byte
	frames int
}

func newScanout(width, height int) *scanout {
	pitch := width * BytesPerPixel
	return &scanout{
		width:   width,
		height:  height,
		pitch:   pitch,
		visible: make([]byte, pitch*height),
		latest:  make([]byte, pitch*height),
	}
}

func bandRows(height, band int) (y0, y1 int) {
	return band * height / scanBands, (band + 1) * height / scanBands
}

// scanBand copies band b of s into the visible frame. A nil surface leaves
// the band dark.
func (sc *scanout) scanBand(s Surface, b int) {
	y0, y1 := bandRows(sc.height, b)
	if s == nil {
		sc.filled[b] = false
		clear(sc.visible[y0*sc.pitch : y1*sc.pitch])
		return
	}
	for y := y0; y < y1; y++ {
		if y >= s.Height() {
			break
		}
		ReadRow(s, y, sc.visible[y*sc.pitch:(y+1)*sc.pitch])
	}
	sc.filled[b] = true
}

// finish publishes the assembled frame and reports whether every band was
// scanned and whether the frame is torn.
func (sc *scanout) finish() (complete, torn bool) {
	complete = true
	for _, f := range sc.filled {
		complete = complete && f
	}
	if complete {
		torn = isTorn(sc.visible, sc.pitch, sc.height)
	}

	sc.mu.Lock()
	sc.visible, sc.latest = sc.latest, sc.visible
	sc.frames++
	sc.mu.Unlock()

	sc.filled = [scanBands]bool{}
	return complete, torn
}

// snapshot copies the most recently completed frame into dst.
func (sc *scanout) snapshot(dst []byte) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	copy(dst, sc.latest)
	return sc.frames
}

// isTorn reports whether the first and last rows of every band match the
// first row of the frame. Every scene drawn here is constant down each
// column, so any mismatch is content from two different frames.
func isTorn(frame []byte, pitch, height int) bool {
	if height == 0 {
		return false
	}
	ref := frame[:pitch]
	for b := 0; b < scanBands; b++ {
		y0, y1 := bandRows(height, b)
		if y1 <= y0 {
			continue
		}
		for _, y := range [2]int{y0, y1 - 1} {
			if !bytes.Equal(frame[y*pitch:(y+1)*pitch], ref) {
				return true
			}
		}
	}
	return false
}
