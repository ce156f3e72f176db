//go:build linux

package hal

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
	"golang.org/x/sys/unix"
)

// DefaultDRMDevice is the primary card node.
const DefaultDRMDevice = "/dev/dri/card0"

// DRM is a kernel mode setting device driven through dumb buffers and the
// legacy CRTC interface.
type DRM struct {
	f    *os.File
	fd   int
	path string

	out  Output
	mode drmModeModeinfo

	// CRTC state found at open, restored at close
	saved *drmModeCrtc

	mu       sync.Mutex
	surfaces map[uint32]*drmSurface

	closeOnce sync.Once
	closeErr  error
}

// OpenDRM opens the device node at path and selects its first connected
// output and a CRTC able to drive it.
func OpenDRM(path string) (*DRM, error) {
	if path == "" {
		path = DefaultDRMDevice
	}

	// os.OpenFile sets O_CLOEXEC
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrResourceUnavailable, path, err)
	}

	d := &DRM{
		f:        f,
		fd:       int(f.Fd()),
		path:     path,
		surfaces: make(map[uint32]*drmSurface),
	}

	outs, modes, err := d.discover()
	if err != nil {
		f.Close()
		return nil, err
	}
	if len(outs) == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s: no connected display with a usable CRTC", ErrResourceUnavailable, path)
	}
	d.out = outs[0]
	d.mode = modes[0]

	if saved, err := getCrtc(d.fd, d.out.CrtcID); err == nil {
		d.saved = saved
	} else {
		logger.Logf("drm", "cannot save CRTC %d: %v", d.out.CrtcID, err)
	}

	logger.Logf("drm", "%s: connector %d, CRTC %d, mode %v", path, d.out.ConnectorID, d.out.CrtcID, d.out)
	return d, nil
}

func (d *DRM) Output() Output       { return d.out }
func (d *DRM) Resources() Resources { return drmResources{d} }
func (d *DRM) Pipeline() Pipeline   { return drmPipeline{d} }

// Close restores the CRTC configuration found at open and closes the device.
// Surfaces must have been released first.
func (d *DRM) Close() error {
	d.closeOnce.Do(func() {
		if n := d.Resources().Allocated(); n > 0 {
			logger.Logf("drm", "closing %s with %d surfaces still allocated", d.path, n)
		}
		if d.saved != nil {
			if err := d.restore(); err != nil {
				logger.Logf("drm", "restore CRTC %d: %v", d.out.CrtcID, err)
			}
		}
		d.closeErr = d.f.Close()
	})
	return d.closeErr
}

func (d *DRM) restore() error {
	s := d.saved
	if s.ModeValid == 0 || s.FBID == 0 {
		// the CRTC was off; switching it off needs no connector
		req := drmModeCrtc{CrtcID: s.CrtcID}
		return ioctl(d.fd, ioctlModeSetCrtc, unsafe.Pointer(&req))
	}
	return setCrtc(d.fd, s.CrtcID, s.FBID, d.out.ConnectorID, &s.Mode)
}

// discover walks the connectors in kernel order and returns every connected
// one that has a mode and a reachable CRTC, with its preferred mode.
func (d *DRM) discover() ([]Output, []drmModeModeinfo, error) {
	crtcs, connectors, err := getResources(d.fd)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: get resources: %v", ErrResourceUnavailable, d.path, err)
	}

	var outs []Output
	var modes []drmModeModeinfo
	for _, id := range connectors {
		conn, err := getConnector(d.fd, id)
		if err != nil {
			logger.Logf("drm", "connector %d: %v", id, err)
			continue
		}
		if conn.connection != drmModeConnected || len(conn.modes) == 0 {
			continue
		}

		crtcID, err := d.findCrtc(conn, crtcs)
		if err != nil {
			logger.Logf("drm", "connector %d: %v", id, err)
			continue
		}

		m := conn.modes[0]
		outs = append(outs, Output{
			Name:        m.name(),
			ConnectorID: conn.id,
			CrtcID:      crtcID,
			Width:       int(m.Hdisplay),
			Height:      int(m.Vdisplay),
			RefreshHz:   int(m.Vrefresh),
		})
		modes = append(modes, m)
	}
	return outs, modes, nil
}

var errNoCrtc = errors.New("no compatible CRTC")

// findCrtc uses the connector's current encoder, or failing that its first
// encoder, and picks the first CRTC in the encoder's possible_crtcs mask.
func (d *DRM) findCrtc(conn *drmConnector, crtcs []uint32) (uint32, error) {
	var enc *drmModeGetEncoder
	if conn.encoderID != 0 {
		enc, _ = getEncoder(d.fd, conn.encoderID)
	}
	if enc == nil && len(conn.encoders) > 0 {
		var err error
		enc, err = getEncoder(d.fd, conn.encoders[0])
		if err != nil {
			return 0, fmt.Errorf("encoder %d: %w", conn.encoders[0], err)
		}
	}
	if enc == nil {
		return 0, errNoCrtc
	}

	for i, id := range crtcs {
		if i < 32 && enc.PossibleCrtcs&(1<<uint(i)) != 0 {
			return id, nil
		}
	}
	return 0, errNoCrtc
}

type drmResources struct {
	d *DRM
}

func (r drmResources) Outputs() ([]Output, error) {
	outs, _, err := r.d.discover()
	return outs, err
}

func (r drmResources) Allocated() int {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	return len(r.d.surfaces)
}

// isEINTR reports whether err is an interrupted system call.
func isEINTR(err error) bool {
	return errors.Is(err, unix.EINTR)
}
