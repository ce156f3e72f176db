package hal

import (
	"encoding/binary"
	"fmt"
	"time"
)

// DRM event types, drm.h.
const (
	drmEventVblank       = 0x01
	drmEventFlipComplete = 0x02
)

const (
	drmEventHeaderSize = 8  // struct drm_event
	drmEventVblankSize = 32 // struct drm_event_vblank
)

// decodeEvents walks a buffer read from a DRM file descriptor and calls h for
// every flip completion in it. Other event types are skipped. The buffer holds
// whole events only; the kernel never splits one across reads.
func decodeEvents(buf []byte, h CompletionHandler) (int, error) {
	order := binary.NativeEndian
	n := 0
	for off := 0; off < len(buf); {
		if len(buf)-off < drmEventHeaderSize {
			return n, fmt.Errorf("short event header at offset %d", off)
		}
		typ := order.Uint32(buf[off:])
		length := int(order.Uint32(buf[off+4:]))
		if length < drmEventHeaderSize || off+length > len(buf) {
			return n, fmt.Errorf("bad event length %d at offset %d", length, off)
		}

		if typ == drmEventFlipComplete && length >= drmEventVblankSize {
			ev := buf[off : off+length]
			userData := order.Uint64(ev[8:])
			sec := order.Uint32(ev[16:])
			usec := order.Uint32(ev[20:])
			seq := order.Uint32(ev[24:])
			h(Completion{
				FramebufferID: uint32(userData),
				Sequence:      seq,
				Timestamp:     time.Duration(sec)*time.Second + time.Duration(usec)*time.Microsecond,
			})
			n++
		}
		off += length
	}
	return n, nil
}
