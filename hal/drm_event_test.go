package hal

import (
	"encoding/binary"
	"testing"
	"time"
)

func vblankEvent(typ uint32, userData uint64, sec, usec, seq uint32) []byte {
	b := make([]byte, drmEventVblankSize)
	order := binary.NativeEndian
	order.PutUint32(b[0:], typ)
	order.PutUint32(b[4:], drmEventVblankSize)
	order.PutUint64(b[8:], userData)
	order.PutUint32(b[16:], sec)
	order.PutUint32(b[20:], usec)
	order.PutUint32(b[24:], seq)
	return b
}

func TestDecodeEvents(t *testing.T) {
	var buf []byte
	buf = append(buf, vblankEvent(drmEventFlipComplete, 41, 3, 500, 1000)...)
	buf = append(buf, vblankEvent(drmEventVblank, 99, 3, 600, 1000)...)
	buf = append(buf, vblankEvent(drmEventFlipComplete, 42, 3, 16700, 1001)...)

	var got []Completion
	n, err := decodeEvents(buf, func(c Completion) { got = append(got, c) })
	if err != nil {
		t.Fatalf("decodeEvents() error = %v", err)
	}
	if n != 2 || len(got) != 2 {
		t.Fatalf("decodeEvents() = %d completions, handler saw %d, want 2", n, len(got))
	}

	want := []Completion{
		{FramebufferID: 41, Sequence: 1000, Timestamp: 3*time.Second + 500*time.Microsecond},
		{FramebufferID: 42, Sequence: 1001, Timestamp: 3*time.Second + 16700*time.Microsecond},
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("completion %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDecodeEventsMalformed(t *testing.T) {
	ev := vblankEvent(drmEventFlipComplete, 1, 0, 0, 1)

	tests := []struct {
		name string
		buf  []byte
	}{
		{"short header", ev[:4]},
		{"truncated event", ev[:20]},
		{"zero length", make([]byte, drmEventHeaderSize)},
	}
	for _, tt := range tests {
		calls := 0
		if _, err := decodeEvents(tt.buf, func(Completion) { calls++ }); err == nil {
			t.Fatalf("%s: decodeEvents() error = nil", tt.name)
		}
		if calls != 0 {
			t.Fatalf("%s: handler called %d times", tt.name, calls)
		}
	}

	if n, err := decodeEvents(nil, func(Completion) {}); n != 0 || err != nil {
		t.Fatalf("decodeEvents(nil) = %d, %v", n, err)
	}
}
