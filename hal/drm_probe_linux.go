//go:build linux

package hal

import (
	"fmt"
	"os"
)

// drm_mode.h DRM_MODE_TYPE_PREFERRED
const drmModeTypePreferred = 1 << 3

// Probe lists every connector of the device at path without changing any
// display state.
func Probe(path string) ([]ConnectorInfo, error) {
	if path == "" {
		path = DefaultDRMDevice
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
	}
	defer f.Close()
	fd := int(f.Fd())

	crtcs, connectors, err := getResources(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: get resources: %v", ErrResourceUnavailable, path, err)
	}

	return collectConnectors(connectors, func(id uint32) (ConnectorInfo, error) {
		conn, err := getConnector(fd, id)
		if err != nil {
			return ConnectorInfo{}, err
		}
		info := ConnectorInfo{
			ID:        conn.id,
			Type:      connectorTypeName(conn.typ),
			TypeIndex: conn.typeID,
			Connected: conn.connection == drmModeConnected,
		}
		for i := range conn.modes {
			m := &conn.modes[i]
			info.Modes = append(info.Modes, ModeInfo{
				Name:      m.name(),
				Width:     int(m.Hdisplay),
				Height:    int(m.Vdisplay),
				RefreshHz: int(m.Vrefresh),
				Preferred: m.Type&drmModeTypePreferred != 0,
			})
		}

		var mask uint32
		for _, encID := range conn.encoders {
			if enc, err := getEncoder(fd, encID); err == nil {
				mask |= enc.PossibleCrtcs
			}
		}
		for i, crtc := range crtcs {
			if i < 32 && mask&(1<<uint(i)) != 0 {
				info.Crtcs = append(info.Crtcs, crtc)
			}
		}
		return info, nil
	}), nil
}
