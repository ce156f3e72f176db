package hal

import "sync"

// simStrideAlign mirrors the row alignment display controllers commonly
// impose on dumb buffers.
const simStrideAlign = 64

type simSurface struct {
	mu     sync.Mutex
	id     uint32
	width  int
	height int
	stride int
	buf    []byte
}

func newSimSurface(id uint32, width, height int) *simSurface {
	stride := alignUp(width*BytesPerPixel, simStrideAlign)
	return &simSurface{
		id:     id,
		width:  width,
		height: height,
		stride: stride,
		buf:    make([]byte, stride*height),
	}
}

func (s *simSurface) Width() int            { return s.width }
func (s *simSurface) Height() int           { return s.height }
func (s *simSurface) StrideBytes() int      { return s.stride }
func (s *simSurface) SizeBytes() int        { return len(s.buf) }
func (s *simSurface) Buffer() []byte        { return s.buf }
func (s *simSurface) FramebufferID() uint32 { return s.id }

// Lock and Unlock guard row copies between the CPU and the emulated scanout.
func (s *simSurface) Lock()   { s.mu.Lock() }
func (s *simSurface) Unlock() { s.mu.Unlock() }

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}
