package hal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
)

// SimConfig configures the simulated display device.
type SimConfig struct {
	Width     int
	Height    int
	RefreshHz int

	// Stall makes the pipeline accept deferred commits but never realise or
	// confirm them.
	Stall bool

	// Scan enables the scanout emulation and torn frame counting.
	Scan bool
}

// SimStats counts what the simulated display engine has done.
type SimStats struct {
	Binds       int
	Flips       int
	Completions int
	Vblanks     int
	Scanned     int
	Torn        int
	Surfaces    int
}

// Sim is a display device emulated in memory. One clock goroutine plays
// the part of the display engine: it scans the bound surface, latches
// deferred commits at vblank and queues completion events.
type Sim struct {
	cfg   SimConfig
	out   Output
	start time.Time

	mu       sync.Mutex
	nextID   uint32
	surfaces map[uint32]*simSurface
	bound    *simSurface
	pending  *simSurface
	events   []Completion
	seq      uint32
	stats    SimStats

	ready chan struct{}
	scan  *scanout

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSim starts a simulated device.
func NewSim(cfg SimConfig) (*Sim, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: invalid simulated size %dx%d", ErrResourceUnavailable, cfg.Width, cfg.Height)
	}
	if cfg.RefreshHz <= 0 {
		return nil, fmt.Errorf("%w: invalid simulated refresh %d Hz", ErrResourceUnavailable, cfg.RefreshHz)
	}

	s := &Sim{
		cfg: cfg,
		out: Output{
			Name:        "SIM-1",
			ConnectorID: 1,
			CrtcID:      1,
			Width:       cfg.Width,
			Height:      cfg.Height,
			RefreshHz:   cfg.RefreshHz,
		},
		start:    time.Now(),
		nextID:   1,
		surfaces: make(map[uint32]*simSurface),
		ready:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if cfg.Scan {
		s.scan = newScanout(cfg.Width, cfg.Height)
	}

	go s.run(s.out.VblankInterval())

	logger.Logf("sim", "display engine started: %v", s.out)
	return s, nil
}

func (s *Sim) Output() Output       { return s.out }
func (s *Sim) Resources() Resources { return simResources{s} }
func (s *Sim) Pipeline() Pipeline   { return simPipeline{s} }

// Close stops the display engine.
func (s *Sim) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.done
		logger.Logf("sim", "display engine stopped after %d vblanks", s.Stats().Vblanks)
	})
	return nil
}

// Stats returns a copy of the counters.
func (s *Sim) Stats() SimStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Surfaces = len(s.surfaces)
	return st
}

// Frame copies the most recently scanned frame, packed XRGB8888 rows of
// Output().Width pixels, into dst. It returns false when scanning is
// disabled.
func (s *Sim) Frame(dst []byte) (int, bool) {
	if s.scan == nil {
		return 0, false
	}
	return s.scan.snapshot(dst), true
}

// run is the display engine clock. Each refresh period is split into
// scanBands ticks; a vblank follows the last band.
func (s *Sim) run(period time.Duration) {
	defer close(s.done)

	t := time.NewTicker(period / scanBands)
	defer t.Stop()

	band := 0
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
		}

		if s.scan != nil {
			s.scan.scanBand(s.boundSurface(), band)
		}

		band++
		if band == scanBands {
			band = 0
			s.vblank()
		}
	}
}

func (s *Sim) boundSurface() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound == nil {
		return nil
	}
	return s.bound
}

func (s *Sim) vblank() {
	var complete, torn bool
	if s.scan != nil {
		complete, torn = s.scan.finish()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.stats.Vblanks++
	if complete {
		s.stats.Scanned++
		if torn {
			s.stats.Torn++
		}
	}

	if s.pending == nil || s.cfg.Stall {
		return
	}
	s.bound = s.pending
	s.pending = nil
	s.events = append(s.events, Completion{
		FramebufferID: s.bound.id,
		Sequence:      s.seq,
		Timestamp:     time.Since(s.start),
	})
	s.stats.Completions++

	select {
	case s.ready <- struct{}{}:
	default:
	}
}

func (s *Sim) surface(sf Surface) (*simSurface, error) {
	ss, ok := sf.(*simSurface)
	if !ok || s.surfaces[ss.id] != ss {
		return nil, fmt.Errorf("unknown framebuffer %d", sf.FramebufferID())
	}
	return ss, nil
}

type simResources struct {
	s *Sim
}

func (r simResources) Outputs() ([]Output, error) {
	return []Output{r.s.out}, nil
}

func (r simResources) CreateSurface(width, height int) (Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid size %dx%d", ErrAllocation, width, height)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ss := newSimSurface(r.s.nextID, width, height)
	r.s.nextID++
	r.s.surfaces[ss.id] = ss
	return ss, nil
}

func (r simResources) Release(sf Surface) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ss, err := r.s.surface(sf)
	if err != nil {
		return fmt.Errorf("release: %w", err)
	}
	delete(r.s.surfaces, ss.id)

	// removing the scanned out framebuffer switches the output off
	if r.s.bound == ss {
		r.s.bound = nil
	}
	if r.s.pending == ss {
		r.s.pending = nil
	}

	ss.Lock()
	ss.buf = nil
	ss.Unlock()
	return nil
}

func (r simResources) Allocated() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.surfaces)
}

type simPipeline struct {
	s *Sim
}

func (p simPipeline) Bind(sf Surface) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	ss, err := p.s.surface(sf)
	if err != nil {
		return fmt.Errorf("%w: bind: %v", ErrCommit, err)
	}
	p.s.bound = ss
	p.s.stats.Binds++
	return nil
}

func (p simPipeline) RequestFlip(sf Surface) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	ss, err := p.s.surface(sf)
	if err != nil {
		return fmt.Errorf("%w: flip: %v", ErrCommit, err)
	}
	if p.s.bound == nil {
		return ErrNotBound
	}
	if p.s.pending != nil {
		return ErrFlipPending
	}
	p.s.pending = ss
	p.s.stats.Flips++
	return nil
}

func (p simPipeline) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	p.s.mu.Lock()
	n := len(p.s.events)
	p.s.mu.Unlock()
	if n > 0 {
		return true, nil
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-p.s.ready:
		return true, nil
	case <-t.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-p.s.stop:
		return false, fmt.Errorf("%w: display engine stopped", ErrResourceUnavailable)
	}
}

func (p simPipeline) Dispatch(h CompletionHandler) error {
	p.s.mu.Lock()
	events := p.s.events
	p.s.events = nil
	p.s.mu.Unlock()

	// Wait looks at the queue before the signal, so dropping the signal
	// here never loses an event queued after the unlock
	select {
	case <-p.s.ready:
	default:
	}

	for _, ev := range events {
		h(ev)
	}
	return nil
}
