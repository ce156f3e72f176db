package present

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/TomHsieh300/Linux-DRM-Explorer/frame"
	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
)

type memSurface struct {
	id           uint32
	w, h, stride int
	buf          []byte
}

func newMemSurface(id uint32, w, h int) *memSurface {
	stride := w * hal.BytesPerPixel
	return &memSurface{id: id, w: w, h: h, stride: stride, buf: make([]byte, stride*h)}
}

func (s *memSurface) Width() int            { return s.w }
func (s *memSurface) Height() int           { return s.h }
func (s *memSurface) StrideBytes() int      { return s.stride }
func (s *memSurface) SizeBytes() int        { return len(s.buf) }
func (s *memSurface) Buffer() []byte        { return s.buf }
func (s *memSurface) FramebufferID() uint32 { return s.id }

// fakePipeline completes each deferred commit on the first Dispatch after
// it was requested, unless stalled.
type fakePipeline struct {
	bound       uint32
	boundLog    []uint32
	binds       int
	flips       int
	waits       int
	dispatches  int
	outstanding *hal.Completion
	seq         uint32
	seqStep     uint32

	stall   bool
	bindErr error
	flipErr error

	// beforeComplete and afterComplete run around the completion handler.
	beforeComplete func()
	afterComplete  func()
}

func (f *fakePipeline) Bind(s hal.Surface) error {
	if f.bindErr != nil {
		return f.bindErr
	}
	f.binds++
	f.bound = s.FramebufferID()
	f.boundLog = append(f.boundLog, f.bound)
	return nil
}

func (f *fakePipeline) RequestFlip(s hal.Surface) error {
	if f.flipErr != nil {
		return f.flipErr
	}
	if f.outstanding != nil {
		return hal.ErrFlipPending
	}
	f.flips++
	f.outstanding = &hal.Completion{FramebufferID: s.FramebufferID()}
	return nil
}

func (f *fakePipeline) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	f.waits++
	if f.outstanding != nil && !f.stall {
		return true, nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-t.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (f *fakePipeline) Dispatch(h hal.CompletionHandler) error {
	f.dispatches++
	if f.outstanding == nil || f.stall {
		return nil
	}
	step := f.seqStep
	if step == 0 {
		step = 1
	}
	f.seq += step
	c := *f.outstanding
	c.Sequence = f.seq
	f.outstanding = nil
	f.bound = c.FramebufferID

	if f.beforeComplete != nil {
		f.beforeComplete()
	}
	h(c)
	if f.afterComplete != nil {
		f.afterComplete()
	}
	return nil
}

func testConfig(s Strategy) Config {
	cfg := DefaultConfig()
	cfg.Strategy = s
	cfg.HUD = false
	cfg.BarWidth = 16
	return cfg
}

func newTestEngine(t *testing.T, cfg Config, pipe hal.Pipeline) *Engine {
	t.Helper()
	surfaces := []hal.Surface{newMemSurface(10, 64, 8), newMemSurface(11, 64, 8)}
	chain, err := NewSwapChain(surfaces[:cfg.Strategy.Surfaces()]...)
	if err != nil {
		t.Fatalf("NewSwapChain() error = %v", err)
	}
	e, err := New(cfg, pipe, chain)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func expectViolation(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("no panic, want a contract violation")
		}
		if msg := fmt.Sprint(r); !strings.HasPrefix(msg, "present: contract violation:") {
			t.Fatalf("panic %q, want a contract violation", msg)
		}
	}()
	f()
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
		ok   bool
	}{
		{"tearing", Tearing, true},
		{"vblank-sync", VblankSync, true},
		{"Single-Buffer-Race", SingleBufferRace, true},
		{"pageflip", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("ParseStrategy(%q) error = %v, want ok %v", tt.in, err, tt.ok)
		}
		if err != nil {
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("ParseStrategy(%q) error = %v, want ErrInvalidConfig", tt.in, err)
			}
			continue
		}
		if got != tt.want {
			t.Fatalf("ParseStrategy(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got.String() != strings.ToLower(tt.in) {
			t.Fatalf("String() = %q, want %q", got.String(), strings.ToLower(tt.in))
		}
	}
}

func TestSwapChain(t *testing.T) {
	a, b := newMemSurface(1, 8, 8), newMemSurface(2, 8, 8)

	c, err := NewSwapChain(a, b)
	if err != nil {
		t.Fatalf("NewSwapChain(a, b) error = %v", err)
	}
	if c.Front() != a || c.Back() != b {
		t.Fatalf("initial roles wrong")
	}
	c.Swap()
	if c.Front() != b || c.Back() != a || c.FrontIndex() != 1 || c.BackIndex() != 0 {
		t.Fatalf("roles after Swap() wrong")
	}

	single, err := NewSwapChain(a)
	if err != nil {
		t.Fatalf("NewSwapChain(a) error = %v", err)
	}
	single.Swap()
	if single.Front() != a || single.Back() != a {
		t.Fatalf("single surface chain must keep front and back on the same surface")
	}

	if _, err := NewSwapChain(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewSwapChain() error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewSwapChain(a, b, a); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewSwapChain(a, b, a) error = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewSwapChain(a, newMemSurface(3, 4, 8)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("NewSwapChain() with mismatched sizes error = %v, want ErrInvalidConfig", err)
	}
}

func TestPendingCommit(t *testing.T) {
	var p PendingCommit

	p.Set(1, 42)
	if !p.Active() || p.Index() != 1 {
		t.Fatalf("Set() did not mark slot 1 pending")
	}
	expectViolation(t, func() { p.Set(0, 41) })

	// a completion for another framebuffer leaves the commit pending
	p.Complete(hal.Completion{FramebufferID: 41, Sequence: 5})
	if !p.Active() || p.Stray() != 1 {
		t.Fatalf("stray completion: Active() = %v, Stray() = %d", p.Active(), p.Stray())
	}

	p.Complete(hal.Completion{FramebufferID: 42, Sequence: 10})
	if p.Active() || p.Completions() != 1 || p.Missed() != 0 {
		t.Fatalf("after completion: Active() = %v, Completions() = %d, Missed() = %d", p.Active(), p.Completions(), p.Missed())
	}

	p.Set(0, 41)
	p.Complete(hal.Completion{FramebufferID: 41, Sequence: 11})
	p.Set(1, 42)
	p.Complete(hal.Completion{FramebufferID: 42, Sequence: 14})
	if p.Missed() != 2 {
		t.Fatalf("Missed() = %d, want 2", p.Missed())
	}
	if seq, ok := p.LastSequence(); !ok || seq != 14 {
		t.Fatalf("LastSequence() = %d, %v, want 14, true", seq, ok)
	}
}

func TestNewRejectsConfig(t *testing.T) {
	a, b := newMemSurface(1, 64, 8), newMemSurface(2, 64, 8)
	double, _ := NewSwapChain(a, b)
	single, _ := NewSwapChain(a)

	tests := []struct {
		name  string
		cfg   func(*Config)
		chain *SwapChain
	}{
		{"sync on one surface", func(c *Config) { c.Strategy = VblankSync }, single},
		{"race on two surfaces", func(c *Config) { c.Strategy = SingleBufferRace }, double},
		{"bar too wide", func(c *Config) { c.BarWidth = 64 }, double},
		{"no bar", func(c *Config) { c.BarWidth = 0 }, double},
		{"negative delay", func(c *Config) { c.SwapDelay = -time.Millisecond }, double},
		{"no timeout", func(c *Config) { c.Strategy = VblankSync; c.FlipTimeout = 0 }, double},
	}
	for _, tt := range tests {
		cfg := testConfig(Tearing)
		tt.cfg(&cfg)
		if _, err := New(cfg, &fakePipeline{}, tt.chain); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: New() error = %v, want ErrInvalidConfig", tt.name, err)
		}
	}
}

func TestTearingImmediateBinds(t *testing.T) {
	cfg := testConfig(Tearing)
	cfg.Iterations = 100
	pipe := &fakePipeline{}
	e := newTestEngine(t, cfg, pipe)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if pipe.binds != 100 || pipe.flips != 0 {
		t.Fatalf("binds = %d, flips = %d, want 100, 0", pipe.binds, pipe.flips)
	}
	if pipe.waits != 0 || pipe.dispatches != 0 {
		t.Fatalf("completion channel used: waits = %d, dispatches = %d", pipe.waits, pipe.dispatches)
	}
	for i, id := range pipe.boundLog {
		want := uint32(11)
		if i%2 == 1 {
			want = 10
		}
		if id != want {
			t.Fatalf("bind %d to framebuffer %d, want %d", i, id, want)
		}
	}
	if st := e.Stats(); st.Iterations != 100 || st.Binds != 100 {
		t.Fatalf("Stats() = %+v", st)
	}
}

func TestTearingCommitFailure(t *testing.T) {
	cfg := testConfig(Tearing)
	pipe := &fakePipeline{bindErr: fmt.Errorf("%w: EINVAL", hal.ErrCommit)}
	e := newTestEngine(t, cfg, pipe)

	err := e.Run(context.Background())
	if !errors.Is(err, hal.ErrCommit) {
		t.Fatalf("Run() error = %v, want ErrCommit", err)
	}
	if st := e.Stats(); st.Iterations != 1 {
		t.Fatalf("Iterations = %d, want 1", st.Iterations)
	}
}

func TestVblankSyncOneCompletionPerCommit(t *testing.T) {
	cfg := testConfig(VblankSync)
	cfg.Iterations = 100
	pipe := &fakePipeline{}
	e := newTestEngine(t, cfg, pipe)

	pipe.beforeComplete = func() {
		if !e.pending.Active() {
			t.Fatalf("no commit pending while its completion is dispatched")
		}
	}
	pipe.afterComplete = func() {
		if e.pending.Active() {
			t.Fatalf("commit still pending after its completion")
		}
	}

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	st := e.Stats()
	if st.Binds != 1 || st.Flips != 100 || st.Completions != 100 || st.Missed != 0 {
		t.Fatalf("Stats() = %+v, want 1 bind, 100 flips and completions, no misses", st)
	}
	if pipe.dispatches != 100 {
		t.Fatalf("dispatches = %d, want 100", pipe.dispatches)
	}
	// the last confirmed flip is the front buffer
	if pipe.bound != e.chain.Front().FramebufferID() {
		t.Fatalf("bound framebuffer %d, front is %d", pipe.bound, e.chain.Front().FramebufferID())
	}
}

func TestVblankSyncCountsMissedIntervals(t *testing.T) {
	cfg := testConfig(VblankSync)
	cfg.Iterations = 10
	pipe := &fakePipeline{seqStep: 3}
	e := newTestEngine(t, cfg, pipe)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if st := e.Stats(); st.Missed != 9*2 {
		t.Fatalf("Missed = %d, want %d", st.Missed, 9*2)
	}
}

func TestVblankSyncTimeout(t *testing.T) {
	cfg := testConfig(VblankSync)
	cfg.FlipTimeout = 50 * time.Millisecond
	pipe := &fakePipeline{stall: true}
	e := newTestEngine(t, cfg, pipe)

	start := time.Now()
	err := e.Run(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, hal.ErrCompletionTimeout) {
		t.Fatalf("Run() error = %v, want ErrCompletionTimeout", err)
	}
	if errors.Is(err, hal.ErrCommit) {
		t.Fatalf("Run() error = %v, must not read as a commit failure", err)
	}
	if pipe.flips != 1 {
		t.Fatalf("flips = %d, want 1", pipe.flips)
	}
	if elapsed < cfg.FlipTimeout || elapsed > 5*cfg.FlipTimeout {
		t.Fatalf("Run() took %v with a %v timeout", elapsed, cfg.FlipTimeout)
	}
}

func TestVblankSyncFlipPendingIsViolation(t *testing.T) {
	cfg := testConfig(VblankSync)
	pipe := &fakePipeline{flipErr: hal.ErrFlipPending}
	e := newTestEngine(t, cfg, pipe)

	expectViolation(t, func() { _ = e.Run(context.Background()) })
}

func TestVblankSyncCommitFailure(t *testing.T) {
	cfg := testConfig(VblankSync)
	pipe := &fakePipeline{flipErr: fmt.Errorf("%w: EINVAL", hal.ErrCommit)}
	e := newTestEngine(t, cfg, pipe)

	if err := e.Run(context.Background()); !errors.Is(err, hal.ErrCommit) || errors.Is(err, hal.ErrFlipPending) {
		t.Fatalf("Run() error = %v, want a plain ErrCommit", err)
	}
}

func TestRaceRepaintsWithoutCommits(t *testing.T) {
	cfg := testConfig(SingleBufferRace)
	cfg.Iterations = 50
	pipe := &fakePipeline{}
	e := newTestEngine(t, cfg, pipe)

	seen := make(map[int]bool)
	e.OnFrame = func(st frame.State, s hal.Surface) {
		seen[st.Count] = true
		// the whole surface holds this frame's bar
		ms := s.(*memSurface)
		for y := 0; y < ms.h; y++ {
			if p := hal.Pixel(ms.buf, y*ms.stride+st.X*hal.BytesPerPixel); p != frame.Foreground {
				t.Fatalf("frame %d: row %d at x=%d is %#x, want the bar", st.Count, y, st.X, p)
			}
		}
	}

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(seen) != 50 {
		t.Fatalf("%d distinct repaints, want 50", len(seen))
	}
	if pipe.binds != 1 || pipe.flips != 0 || pipe.waits != 0 {
		t.Fatalf("binds = %d, flips = %d, waits = %d, want 1, 0, 0", pipe.binds, pipe.flips, pipe.waits)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	for _, s := range []Strategy{Tearing, VblankSync, SingleBufferRace} {
		cfg := testConfig(s)
		cfg.RaceDelay = time.Millisecond
		pipe := &fakePipeline{}
		e := newTestEngine(t, cfg, pipe)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- e.Run(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("%v: Run() error = %v after cancel, want nil", s, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%v: Run() did not return after cancel", s)
		}
	}
}
