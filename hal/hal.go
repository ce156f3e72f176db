package hal

import (
	"context"
	"fmt"
	"time"
)

// BytesPerPixel is the size of one XRGB8888 pixel.
const BytesPerPixel = 4

// Surface is CPU-writable pixel memory registered with the display engine as a
// framebuffer.
//
// Buffer is only valid between creation and Resources.Release. Rows are
// StrideBytes apart; pixels are not contiguous across rows.
type Surface interface {
	Width() int
	Height() int
	StrideBytes() int
	SizeBytes() int
	Buffer() []byte
	FramebufferID() uint32
}

// Output is a display output (connector, CRTC and mode) able to scan out a
// Surface.
type Output struct {
	Name        string
	ConnectorID uint32
	CrtcID      uint32
	Width       int
	Height      int
	RefreshHz   int
}

// VblankInterval is the nominal time between two vertical blanking intervals.
func (o Output) VblankInterval() time.Duration {
	if o.RefreshHz <= 0 {
		return 0
	}
	return time.Second / time.Duration(o.RefreshHz)
}

func (o Output) String() string {
	return fmt.Sprintf("%s %dx%d @ %d Hz", o.Name, o.Width, o.Height, o.RefreshHz)
}

// Resources allocates and releases scanout surfaces.
type Resources interface {
	// Outputs lists the usable display outputs.
	Outputs() ([]Output, error)

	// CreateSurface allocates, registers and maps one surface.
	CreateSurface(width, height int) (Surface, error)

	// Release unmaps, unregisters and frees a surface created by CreateSurface.
	Release(s Surface) error

	// Allocated is the number of surfaces not yet released.
	Allocated() int
}

// Completion reports that a deferred commit was realised by the hardware.
type Completion struct {
	FramebufferID uint32

	// Sequence is the vblank counter at completion. It increases by one per
	// vblank, so a delta greater than one between completions means intervals
	// were missed.
	Sequence uint32

	Timestamp time.Duration
}

// CompletionHandler is invoked synchronously by Pipeline.Dispatch.
type CompletionHandler func(Completion)

// Pipeline controls which surface the display output scans out.
type Pipeline interface {
	// Bind makes s the active surface immediately and waits for the hardware
	// to acknowledge.
	Bind(s Surface) error

	// RequestFlip queues s to become the active surface at the next vblank
	// and asks for a completion notification. It fails with ErrFlipPending
	// while a previous request is outstanding.
	RequestFlip(s Surface) error

	// Wait blocks until completion events can be dispatched, the timeout
	// elapses (false, nil) or ctx is done.
	Wait(ctx context.Context, timeout time.Duration) (bool, error)

	// Dispatch reads the pending events and calls h for each completion.
	Dispatch(h CompletionHandler) error
}

// Device is an opened display device with a selected output.
type Device interface {
	Output() Output
	Resources() Resources
	Pipeline() Pipeline
	Close() error
}
