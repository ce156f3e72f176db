// Package easyterm wraps "github.com/pkg/term/termios" to read single key
// presses from a terminal without waiting for a newline.
package easyterm

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Terminal switches an input terminal between canonical and cbreak mode.
type Terminal struct {
	input *os.File

	canAttr    unix.Termios
	cbreakAttr unix.Termios
	cbreak     bool
}

// Initialise records the current (canonical) attributes of input. It fails
// when input is not a terminal.
func (pt *Terminal) Initialise(input *os.File) error {
	if input == nil {
		return fmt.Errorf("easyterm Terminal requires an input file")
	}
	pt.input = input

	if err := termios.Tcgetattr(pt.input.Fd(), &pt.canAttr); err != nil {
		return fmt.Errorf("easyterm: %s is not a terminal: %w", input.Name(), err)
	}
	pt.cbreakAttr = pt.canAttr
	termios.Cfmakecbreak(&pt.cbreakAttr)
	return nil
}

// CanonicalMode puts the terminal back into normal line mode.
func (pt *Terminal) CanonicalMode() error {
	if !pt.cbreak {
		return nil
	}
	pt.cbreak = false
	return termios.Tcsetattr(pt.input.Fd(), termios.TCIFLUSH, &pt.canAttr)
}

// CBreakMode delivers key presses as they are typed.
func (pt *Terminal) CBreakMode() error {
	if err := termios.Tcsetattr(pt.input.Fd(), termios.TCIFLUSH, &pt.cbreakAttr); err != nil {
		return err
	}
	pt.cbreak = true
	return nil
}

// Keys reads the terminal one byte at a time and sends each byte on the
// returned channel. The channel is closed on end of input or a read error.
// The reading goroutine stays blocked in read until the next key after ctx
// is done.
func (pt *Terminal) Keys(ctx context.Context) <-chan byte {
	ch := make(chan byte)
	go func() {
		defer close(ch)
		var b [1]byte
		for {
			n, err := pt.input.Read(b[:])
			if err != nil {
				return
			}
			if n == 0 {
				continue
			}
			select {
			case ch <- b[0]:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
