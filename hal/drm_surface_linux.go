//go:build linux

package hal

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

type drmSurface struct {
	width  int
	height int
	pitch  int
	handle uint32
	fbID   uint32
	mem    []byte
}

func (s *drmSurface) Width() int            { return s.width }
func (s *drmSurface) Height() int           { return s.height }
func (s *drmSurface) StrideBytes() int      { return s.pitch }
func (s *drmSurface) SizeBytes() int        { return len(s.mem) }
func (s *drmSurface) Buffer() []byte        { return s.mem }
func (s *drmSurface) FramebufferID() uint32 { return s.fbID }

// CreateSurface allocates a dumb buffer, registers it as a framebuffer and
// maps it. A failing step undoes the ones before it.
func (r drmResources) CreateSurface(width, height int) (Surface, error) {
	d := r.d

	create := drmModeCreateDumb{
		Width:  uint32(width),
		Height: uint32(height),
		Bpp:    32,
	}
	if err := ioctl(d.fd, ioctlModeCreateDumb, unsafe.Pointer(&create)); err != nil {
		return nil, fmt.Errorf("%w: create dumb buffer %dx%d: %v", ErrAllocation, width, height, err)
	}

	s := &drmSurface{
		width:  width,
		height: height,
		pitch:  int(create.Pitch),
		handle: create.Handle,
	}

	// the driver picks the pitch; it may be wider than width*4
	fbCmd := drmModeFBCmd{
		Width:  uint32(width),
		Height: uint32(height),
		Pitch:  create.Pitch,
		Bpp:    32,
		Depth:  24,
		Handle: create.Handle,
	}
	if err := ioctl(d.fd, ioctlModeAddFB, unsafe.Pointer(&fbCmd)); err != nil {
		d.destroyDumb(s.handle)
		return nil, fmt.Errorf("%w: add framebuffer: %v", ErrAllocation, err)
	}
	s.fbID = fbCmd.FBID

	mapReq := drmModeMapDumb{Handle: create.Handle}
	if err := ioctl(d.fd, ioctlModeMapDumb, unsafe.Pointer(&mapReq)); err != nil {
		d.rmFB(s.fbID)
		d.destroyDumb(s.handle)
		return nil, fmt.Errorf("%w: map dumb buffer: %v", ErrAllocation, err)
	}

	mem, err := unix.Mmap(d.fd, int64(mapReq.Offset), int(create.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		d.rmFB(s.fbID)
		d.destroyDumb(s.handle)
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrAllocation, create.Size, err)
	}
	s.mem = mem

	d.mu.Lock()
	d.surfaces[s.fbID] = s
	d.mu.Unlock()
	return s, nil
}

// Release removes the framebuffer, unmaps it and frees the dumb buffer. All
// three steps are attempted; the first error is returned.
func (r drmResources) Release(sf Surface) error {
	d := r.d

	d.mu.Lock()
	s, ok := d.surfaces[sf.FramebufferID()]
	if ok {
		delete(d.surfaces, s.fbID)
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("release: unknown framebuffer %d", sf.FramebufferID())
	}

	var first error
	keep := func(err error) {
		if first == nil && err != nil {
			first = err
		}
	}
	keep(d.rmFB(s.fbID))
	keep(unix.Munmap(s.mem))
	s.mem = nil
	keep(d.destroyDumb(s.handle))
	if first != nil {
		return fmt.Errorf("release framebuffer %d: %w", s.fbID, first)
	}
	return nil
}

func (d *DRM) rmFB(id uint32) error {
	return ioctl(d.fd, ioctlModeRmFB, unsafe.Pointer(&id))
}

func (d *DRM) destroyDumb(handle uint32) error {
	req := drmModeDestroyDumb{Handle: handle}
	return ioctl(d.fd, ioctlModeDestroyDumb, unsafe.Pointer(&req))
}
