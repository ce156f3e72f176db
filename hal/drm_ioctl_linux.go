//go:build linux

package hal

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DRM ioctl request numbers, DRM_IOWR('d', nr, struct).
const (
	ioctlModeGetResources = 0xc04064a0
	ioctlModeGetCrtc      = 0xc06864a1
	ioctlModeSetCrtc      = 0xc06864a2
	ioctlModeGetEncoder   = 0xc01464a6
	ioctlModeGetConnector = 0xc05064a7
	ioctlModeAddFB        = 0xc01c64ae
	ioctlModeRmFB         = 0xc00464af
	ioctlModePageFlip     = 0xc01864b0
	ioctlModeCreateDumb   = 0xc02064b2
	ioctlModeMapDumb      = 0xc01064b3
	ioctlModeDestroyDumb  = 0xc00464b4
)

const (
	drmModeConnected    = 1
	drmModePageFlipFlag = 0x01 // DRM_MODE_PAGE_FLIP_EVENT
)

// drm_mode_card_res
type drmModeCardRes struct {
	FbIDPtr         uint64
	CrtcIDPtr       uint64
	ConnectorIDPtr  uint64
	EncoderIDPtr    uint64
	CountFbs        uint32
	CountCrtcs      uint32
	CountConnectors uint32
	CountEncoders   uint32
	MinWidth        uint32
	MaxWidth        uint32
	MinHeight       uint32
	MaxHeight       uint32
}

// drm_mode_modeinfo (68 bytes)
type drmModeModeinfo struct {
	Clock      uint32
	Hdisplay   uint16
	HsyncStart uint16
	HsyncEnd   uint16
	Htotal     uint16
	Hskew      uint16
	Vdisplay   uint16
	VsyncStart uint16
	VsyncEnd   uint16
	Vtotal     uint16
	Vscan      uint16
	Vrefresh   uint32
	Flags      uint32
	Type       uint32
	Name       [32]byte
}

func (m *drmModeModeinfo) name() string {
	for i, b := range m.Name {
		if b == 0 {
			return string(m.Name[:i])
		}
	}
	return string(m.Name[:])
}

// drm_mode_get_connector
type drmModeGetConnector struct {
	EncodersPtr     uint64
	ModesPtr        uint64
	PropsPtr        uint64
	PropValuesPtr   uint64
	CountModes      uint32
	CountProps      uint32
	CountEncoders   uint32
	EncoderID       uint32
	ConnectorID     uint32
	ConnectorType   uint32
	ConnectorTypeID uint32
	Connection      uint32
	MmWidth         uint32
	MmHeight        uint32
	Subpixel        uint32
	Pad             uint32
}

// drm_mode_get_encoder
type drmModeGetEncoder struct {
	EncoderID      uint32
	EncoderType    uint32
	CrtcID         uint32
	PossibleCrtcs  uint32
	PossibleClones uint32
}

// drm_mode_crtc
type drmModeCrtc struct {
	SetConnectorsPtr uint64
	CountConnectors  uint32
	CrtcID           uint32
	FBID             uint32
	X                uint32
	Y                uint32
	GammaSize        uint32
	ModeValid        uint32
	Mode             drmModeModeinfo
}

// drm_mode_fb_cmd
type drmModeFBCmd struct {
	FBID   uint32
	Width  uint32
	Height uint32
	Pitch  uint32
	Bpp    uint32
	Depth  uint32
	Handle uint32
}

// drm_mode_create_dumb
type drmModeCreateDumb struct {
	Height uint32
	Width  uint32
	Bpp    uint32
	Flags  uint32
	Handle uint32
	Pitch  uint32
	Size   uint64
}

// drm_mode_map_dumb
type drmModeMapDumb struct {
	Handle uint32
	Pad    uint32
	Offset uint64
}

// drm_mode_destroy_dumb
type drmModeDestroyDumb struct {
	Handle uint32
}

// drm_mode_crtc_page_flip
type drmModeCrtcPageFlip struct {
	CrtcID   uint32
	FBID     uint32
	Flags    uint32
	Reserved uint32
	UserData uint64
}

// ioctl issues a DRM ioctl, restarting it on EINTR and EAGAIN like
// libdrm's drmIoctl.
func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		if errno == unix.EINTR || errno == unix.EAGAIN {
			continue
		}
		if errno != 0 {
			return errno
		}
		return nil
	}
}

func ptr64[T any](s []T) uint64 {
	if len(s) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&s[0])))
}

func getResources(fd int) (crtcs, connectors []uint32, err error) {
	for {
		var res drmModeCardRes
		if err := ioctl(fd, ioctlModeGetResources, unsafe.Pointer(&res)); err != nil {
			return nil, nil, err
		}

		crtcs = make([]uint32, res.CountCrtcs)
		connectors = make([]uint32, res.CountConnectors)
		want := res
		res = drmModeCardRes{
			CrtcIDPtr:       ptr64(crtcs),
			ConnectorIDPtr:  ptr64(connectors),
			CountCrtcs:      want.CountCrtcs,
			CountConnectors: want.CountConnectors,
		}
		err := ioctl(fd, ioctlModeGetResources, unsafe.Pointer(&res))
		runtime.KeepAlive(crtcs)
		runtime.KeepAlive(connectors)
		if err != nil {
			return nil, nil, err
		}

		// hotplug between the two calls; ask again
		if res.CountCrtcs > want.CountCrtcs || res.CountConnectors > want.CountConnectors {
			continue
		}
		return crtcs[:res.CountCrtcs], connectors[:res.CountConnectors], nil
	}
}

type drmConnector struct {
	id         uint32
	typ        uint32
	typeID     uint32
	connection uint32
	encoderID  uint32
	encoders   []uint32
	modes      []drmModeModeinfo
}

func getConnector(fd int, id uint32) (*drmConnector, error) {
	for {
		conn := drmModeGetConnector{ConnectorID: id}
		if err := ioctl(fd, ioctlModeGetConnector, unsafe.Pointer(&conn)); err != nil {
			return nil, err
		}

		modes := make([]drmModeModeinfo, conn.CountModes)
		encoders := make([]uint32, conn.CountEncoders)
		want := conn
		conn = drmModeGetConnector{
			ConnectorID:   id,
			ModesPtr:      ptr64(modes),
			EncodersPtr:   ptr64(encoders),
			CountModes:    want.CountModes,
			CountEncoders: want.CountEncoders,
		}
		err := ioctl(fd, ioctlModeGetConnector, unsafe.Pointer(&conn))
		runtime.KeepAlive(modes)
		runtime.KeepAlive(encoders)
		if err != nil {
			return nil, err
		}

		if conn.CountModes > want.CountModes || conn.CountEncoders > want.CountEncoders {
			continue
		}
		return &drmConnector{
			id:         id,
			typ:        conn.ConnectorType,
			typeID:     conn.ConnectorTypeID,
			connection: conn.Connection,
			encoderID:  conn.EncoderID,
			encoders:   encoders[:conn.CountEncoders],
			modes:      modes[:conn.CountModes],
		}, nil
	}
}

func getEncoder(fd int, id uint32) (*drmModeGetEncoder, error) {
	enc := drmModeGetEncoder{EncoderID: id}
	if err := ioctl(fd, ioctlModeGetEncoder, unsafe.Pointer(&enc)); err != nil {
		return nil, err
	}
	return &enc, nil
}

func getCrtc(fd int, id uint32) (*drmModeCrtc, error) {
	crtc := drmModeCrtc{CrtcID: id}
	if err := ioctl(fd, ioctlModeGetCrtc, unsafe.Pointer(&crtc)); err != nil {
		return nil, err
	}
	return &crtc, nil
}

func setCrtc(fd int, crtcID, fbID, connectorID uint32, mode *drmModeModeinfo) error {
	conn := []uint32{connectorID}
	req := drmModeCrtc{
		SetConnectorsPtr: ptr64(conn),
		CountConnectors:  1,
		CrtcID:           crtcID,
		FBID:             fbID,
	}
	if mode != nil {
		req.ModeValid = 1
		req.Mode = *mode
	}
	err := ioctl(fd, ioctlModeSetCrtc, unsafe.Pointer(&req))
	runtime.KeepAlive(conn)
	return err
}
