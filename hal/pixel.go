package hal

import (
	"encoding/binary"
	"sync"
)

// XRGB8888 packs an opaque colour in the 24-bit depth, 32 bpp layout the
// framebuffers are registered with.
func XRGB8888(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func rgbFromXRGB8888(p uint32) (r, g, b uint8) {
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}

// PutPixel stores p at byte offset off of buf in the native byte order of the
// display engine.
func PutPixel(buf []byte, off int, p uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+BytesPerPixel], p)
}

// Pixel loads the pixel at byte offset off of buf.
func Pixel(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+BytesPerPixel])
}

// WriteRow copies row into line y of s. Surfaces implementing sync.Locker are
// locked for the duration of the copy, so a software scanout never sees half
// a row.
func WriteRow(s Surface, y int, row []byte) {
	if l, ok := s.(sync.Locker); ok {
		l.Lock()
		defer l.Unlock()
	}
	n := min(s.Width()*BytesPerPixel, len(row))
	buf := s.Buffer()
	off := y * s.StrideBytes()
	if y < 0 || off+n > len(buf) {
		return
	}
	copy(buf[off:off+n], row[:n])
}

// ReadRow copies line y of s into dst and returns the number of bytes copied.
func ReadRow(s Surface, y int, dst []byte) int {
	if l, ok := s.(sync.Locker); ok {
		l.Lock()
		defer l.Unlock()
	}
	n := min(s.Width()*BytesPerPixel, len(dst))
	buf := s.Buffer()
	off := y * s.StrideBytes()
	if y < 0 || off+n > len(buf) {
		return 0
	}
	return copy(dst[:n], buf[off:off+n])
}

// Fill sets every byte of the surface, padding included, to b.
func Fill(s Surface, b byte) {
	if l, ok := s.(sync.Locker); ok {
		l.Lock()
		defer l.Unlock()
	}
	buf := s.Buffer()
	for i := range buf {
		buf[i] = b
	}
}

// SetPixel stores p at column x of line y of s. Coordinates outside the
// surface are ignored.
func SetPixel(s Surface, x, y int, p uint32) {
	if l, ok := s.(sync.Locker); ok {
		l.Lock()
		defer l.Unlock()
	}
	if x < 0 || x >= s.Width() || y < 0 || y >= s.Height() {
		return
	}
	buf := s.Buffer()
	off := y*s.StrideBytes() + x*BytesPerPixel
	if off+BytesPerPixel > len(buf) {
		return
	}
	PutPixel(buf, off, p)
}
