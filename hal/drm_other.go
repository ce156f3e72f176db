//go:build !linux

package hal

import "fmt"

// DefaultDRMDevice is the primary card node.
const DefaultDRMDevice = "/dev/dri/card0"

// DRM is only available on Linux.
type DRM struct {
	Device
}

// OpenDRM always fails outside Linux; use the simulated backend instead.
func OpenDRM(path string) (*DRM, error) {
	return nil, fmt.Errorf("%w: %s: kernel mode setting requires linux", ErrResourceUnavailable, path)
}

// Probe always fails outside Linux.
func Probe(path string) ([]ConnectorInfo, error) {
	return nil, fmt.Errorf("%w: %s: kernel mode setting requires linux", ErrResourceUnavailable, path)
}
