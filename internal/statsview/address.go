package statsview

import (
	"errors"
	"fmt"
	"net"
)

// DefaultAddress is where the server listens when Launch is given no address.
const DefaultAddress = "localhost:12600"

// ErrUnavailable is returned by Launch in builds without the statsview tag.
var ErrUnavailable = errors.New("statsview: not available in this build")

// resolveAddress checks that addr is a host:port pair, defaulting an empty
// one to DefaultAddress.
func resolveAddress(addr string) (string, error) {
	if addr == "" {
		return DefaultAddress, nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("statsview: address %q: %w", addr, err)
	}
	return addr, nil
}
