//go:build !statsview

package statsview

import "io"

// Launch only validates addr without the statsview build tag.
func Launch(addr string, output io.Writer) error {
	if _, err := resolveAddress(addr); err != nil {
		return err
	}
	return ErrUnavailable
}

// Available returns false: the binary was built without the statsview tag.
func Available() bool {
	return false
}
