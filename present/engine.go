package present

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TomHsieh300/Linux-DRM-Explorer/frame"
	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
)

// Config tunes a run of the engine.
type Config struct {
	Strategy Strategy

	// SwapDelay is the sleep after each immediate bind of the tearing
	// strategy. It is meant to be much shorter than a refresh period.
	SwapDelay time.Duration

	// RaceDelay is an optional sleep after each repaint of the single
	// buffer strategy. Zero repaints as fast as possible.
	RaceDelay time.Duration

	// FlipTimeout bounds the wait for a deferred commit to be confirmed.
	FlipTimeout time.Duration

	// Iterations stops the run after that many frames. Zero runs until the
	// context is done.
	Iterations int

	BarWidth int

	// HUD draws the strategy name and frame counter on every frame.
	HUD bool
}

// DefaultConfig matches the demonstration programs.
func DefaultConfig() Config {
	return Config{
		Strategy:    Tearing,
		SwapDelay:   2 * time.Millisecond,
		FlipTimeout: time.Second,
		BarWidth:    frame.DefaultBarWidth,
		HUD:         true,
	}
}

// Stats counts what a run did.
type Stats struct {
	Iterations  int
	Binds       int
	Flips       int
	Completions int
	Missed      int
	Stray       int
}

// Engine presents frames on one pipeline. It owns the swap chain and the
// pending commit for the length of Run.
type Engine struct {
	cfg   Config
	pipe  hal.Pipeline
	chain *SwapChain

	width   int
	state   frame.State
	painter frame.Painter
	pending PendingCommit
	stats   Stats

	// OnFrame, when set, is called after each frame has been drawn and
	// before it is committed.
	OnFrame func(st frame.State, s hal.Surface)
}

// New checks cfg against the swap chain and returns an engine ready to Run.
func New(cfg Config, pipe hal.Pipeline, chain *SwapChain) (*Engine, error) {
	if pipe == nil || chain == nil {
		return nil, fmt.Errorf("%w: missing pipeline or swap chain", ErrInvalidConfig)
	}
	if n := cfg.Strategy.Surfaces(); chain.Len() != n {
		return nil, fmt.Errorf("%w: %v needs %d surface(s), swap chain has %d", ErrInvalidConfig, cfg.Strategy, n, chain.Len())
	}
	width := chain.Front().Width()
	if cfg.BarWidth <= 0 || cfg.BarWidth >= width {
		return nil, fmt.Errorf("%w: bar width %d outside (0, %d)", ErrInvalidConfig, cfg.BarWidth, width)
	}
	if cfg.SwapDelay < 0 || cfg.RaceDelay < 0 {
		return nil, fmt.Errorf("%w: negative delay", ErrInvalidConfig)
	}
	if cfg.Strategy == VblankSync && cfg.FlipTimeout <= 0 {
		return nil, fmt.Errorf("%w: flip timeout must be positive", ErrInvalidConfig)
	}
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("%w: negative iteration count", ErrInvalidConfig)
	}

	return &Engine{
		cfg:   cfg,
		pipe:  pipe,
		chain: chain,
		width: width,
		state: frame.NewState(cfg.BarWidth),
	}, nil
}

// Stats returns the counters of the run so far.
func (e *Engine) Stats() Stats {
	st := e.stats
	st.Completions = e.pending.Completions()
	st.Missed = e.pending.Missed()
	st.Stray = e.pending.Stray()
	return st
}

// Run presents frames until the iteration limit is reached or ctx is done,
// both of which return nil. Any pipeline failure ends the run and is
// returned; nothing is retried.
func (e *Engine) Run(ctx context.Context) error {
	logger.Logf("present", "%v on %d surface(s), %dpx bar", e.cfg.Strategy, e.chain.Len(), e.cfg.BarWidth)

	var err error
	switch e.cfg.Strategy {
	case Tearing:
		err = e.runTearing(ctx)
	case VblankSync:
		err = e.runVblankSync(ctx)
	case SingleBufferRace:
		err = e.runRace(ctx)
	default:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, e.cfg.Strategy)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		logger.Logf("present", "%v stopped after %d frames: %v", e.cfg.Strategy, e.stats.Iterations, err)
		return err
	}
	logger.Logf("present", "%v finished after %d frames", e.cfg.Strategy, e.stats.Iterations)
	return nil
}

func (e *Engine) more() bool {
	return e.cfg.Iterations == 0 || e.stats.Iterations < e.cfg.Iterations
}

// draw paints the next frame into s and advances the animation.
func (e *Engine) draw(s hal.Surface) {
	e.painter.Render(s, e.state)
	if e.cfg.HUD {
		frame.DrawHUD(s, e.cfg.Strategy.String(), fmt.Sprintf("frame %d", e.state.Count))
	}
	if e.OnFrame != nil {
		e.OnFrame(e.state, s)
	}
	e.state.Advance(e.width)
	e.stats.Iterations++
}

func (e *Engine) bind(s hal.Surface) error {
	if err := e.pipe.Bind(s); err != nil {
		return fmt.Errorf("bind framebuffer %d: %w", s.FramebufferID(), err)
	}
	e.stats.Binds++
	return nil
}

func (e *Engine) runTearing(ctx context.Context) error {
	for e.more() {
		if err := ctx.Err(); err != nil {
			return err
		}
		back := e.chain.Back()
		e.draw(back)
		if err := e.bind(back); err != nil {
			return err
		}
		e.chain.Swap()

		if err := sleep(ctx, e.cfg.SwapDelay); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runVblankSync(ctx context.Context) error {
	if err := e.bind(e.chain.Front()); err != nil {
		return err
	}
	// a commit left outstanding by cancellation must land before its
	// surface is torn down
	defer func() {
		if ctx.Err() != nil {
			e.drain()
		}
	}()

	for e.more() {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx, back := e.chain.BackIndex(), e.chain.Back()
		e.draw(back)

		if e.pending.Active() {
			contractViolation("framebuffer %d still pending at the start of a frame", e.chain.Surface(e.pending.Index()).FramebufferID())
		}
		if err := e.pipe.RequestFlip(back); err != nil {
			if errors.Is(err, hal.ErrFlipPending) {
				contractViolation("pipeline refused framebuffer %d: %v", back.FramebufferID(), err)
			}
			return fmt.Errorf("page flip to framebuffer %d: %w", back.FramebufferID(), err)
		}
		e.pending.Set(idx, back.FramebufferID())
		e.stats.Flips++

		if err := e.await(ctx, e.cfg.FlipTimeout); err != nil {
			return err
		}
		e.chain.Swap()
	}
	return nil
}

// await blocks until the pending commit is confirmed. The timeout covers the
// whole wait, however many unrelated events arrive in between.
func (e *Engine) await(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for e.pending.Active() {
		left := time.Until(deadline)
		if left <= 0 {
			return e.timedOut(timeout)
		}
		ready, err := e.pipe.Wait(ctx, left)
		if err != nil {
			return err
		}
		if !ready {
			return e.timedOut(timeout)
		}
		if err := e.pipe.Dispatch(e.pending.Complete); err != nil {
			return fmt.Errorf("dispatch completions: %w", err)
		}
	}
	return nil
}

func (e *Engine) timedOut(timeout time.Duration) error {
	fb := e.chain.Surface(e.pending.Index()).FramebufferID()
	return fmt.Errorf("%w: framebuffer %d not confirmed after %v", hal.ErrCompletionTimeout, fb, timeout)
}

func (e *Engine) drain() {
	if !e.pending.Active() {
		return
	}
	if err := e.await(context.Background(), e.cfg.FlipTimeout); err != nil {
		logger.Logf("present", "outstanding commit not drained: %v", err)
	}
}

func (e *Engine) runRace(ctx context.Context) error {
	s := e.chain.Front()
	if err := e.bind(s); err != nil {
		return err
	}
	for e.more() {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.draw(s)
		if err := sleep(ctx, e.cfg.RaceDelay); err != nil {
			return err
		}
	}
	return nil
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
