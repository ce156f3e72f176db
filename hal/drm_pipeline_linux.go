//go:build linux

package hal

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// pollSlice bounds one poll(2) so that a cancelled context is noticed
// without waiting for the whole timeout.
const pollSlice = 100 * time.Millisecond

type drmPipeline struct {
	d *DRM
}

func (p drmPipeline) Bind(s Surface) error {
	d := p.d
	if err := setCrtc(d.fd, d.out.CrtcID, s.FramebufferID(), d.out.ConnectorID, &d.mode); err != nil {
		return fmt.Errorf("%w: set CRTC %d to framebuffer %d: %v", ErrCommit, d.out.CrtcID, s.FramebufferID(), err)
	}
	return nil
}

// RequestFlip queues a page flip with DRM_MODE_PAGE_FLIP_EVENT. The
// framebuffer id travels as user data and comes back in the event.
func (p drmPipeline) RequestFlip(s Surface) error {
	d := p.d
	req := drmModeCrtcPageFlip{
		CrtcID:   d.out.CrtcID,
		FBID:     s.FramebufferID(),
		Flags:    drmModePageFlipFlag,
		UserData: uint64(s.FramebufferID()),
	}
	err := ioctl(d.fd, ioctlModePageFlip, unsafe.Pointer(&req))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EBUSY):
		return fmt.Errorf("%w: framebuffer %d", ErrFlipPending, s.FramebufferID())
	default:
		return fmt.Errorf("%w: page flip to framebuffer %d: %v", ErrCommit, s.FramebufferID(), err)
	}
}

// Wait polls the device for readability. The calling thread sleeps in the
// kernel; nothing spins.
func (p drmPipeline) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	fds := []unix.PollFd{{Fd: int32(p.d.fd), Events: unix.POLLIN}}

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		left := time.Until(deadline)
		if left <= 0 {
			return false, nil
		}

		n, err := unix.Poll(fds, int(min(left, pollSlice)/time.Millisecond)+1)
		if err != nil {
			if isEINTR(err) {
				continue
			}
			return false, fmt.Errorf("poll %s: %w", p.d.path, err)
		}
		if n > 0 {
			if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
				return false, fmt.Errorf("%w: poll %s: revents %#x", ErrResourceUnavailable, p.d.path, fds[0].Revents)
			}
			return true, nil
		}
	}
}

// Dispatch reads the queued events and hands flip completions to h.
func (p drmPipeline) Dispatch(h CompletionHandler) error {
	var buf [1024]byte
	for {
		n, err := unix.Read(p.d.fd, buf[:])
		if err != nil {
			if isEINTR(err) {
				continue
			}
			return fmt.Errorf("read events %s: %w", p.d.path, err)
		}
		if _, err := decodeEvents(buf[:n], h); err != nil {
			return fmt.Errorf("decode events %s: %w", p.d.path, err)
		}
		return nil
	}
}
