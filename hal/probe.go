package hal

import (
	"fmt"

	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
)

// ConnectorInfo describes one connector as reported by the kernel, whether
// or not a display is attached to it.
type ConnectorInfo struct {
	ID        uint32
	Type      string
	TypeIndex uint32
	Connected bool
	Modes     []ModeInfo

	// Crtcs lists the CRTCs reachable through the connector's encoders.
	Crtcs []uint32

	// Err is set when the connector could not be read. Only ID is valid then.
	Err error
}

// Name is the connector name the kernel uses in sysfs, eg. HDMI-A-1.
func (c ConnectorInfo) Name() string {
	return fmt.Sprintf("%s-%d", c.Type, c.TypeIndex)
}

// ModeInfo is one display mode of a connector.
type ModeInfo struct {
	Name      string
	Width     int
	Height    int
	RefreshHz int
	Preferred bool
}

func (m ModeInfo) String() string {
	s := fmt.Sprintf("%dx%d@%d", m.Width, m.Height, m.RefreshHz)
	if m.Preferred {
		s += " (preferred)"
	}
	return s
}

// connectorTypes follows DRM_MODE_CONNECTOR_* in drm_mode.h.
var connectorTypes = [...]string{
	"Unknown", "VGA", "DVI-I", "DVI-D", "DVI-A", "Composite", "SVIDEO",
	"LVDS", "Component", "DIN", "DP", "HDMI-A", "HDMI-B", "TV", "eDP",
	"Virtual", "DSI", "DPI", "Writeback", "SPI", "USB",
}

func connectorTypeName(t uint32) string {
	if int(t) < len(connectorTypes) {
		return connectorTypes[t]
	}
	return fmt.Sprintf("type%d", t)
}

// collectConnectors reads every connector in ids. A connector that fails to
// read is logged and kept in the list with its Err set, so one bad connector
// does not hide the others.
func collectConnectors(ids []uint32, read func(id uint32) (ConnectorInfo, error)) []ConnectorInfo {
	infos := make([]ConnectorInfo, 0, len(ids))
	for _, id := range ids {
		info, err := read(id)
		if err != nil {
			logger.Logf("drm", "connector %d: %v", id, err)
			info = ConnectorInfo{ID: id, Err: err}
		}
		infos = append(infos, info)
	}
	return infos
}
