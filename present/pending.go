package present

import (
	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
)

// PendingCommit tracks the single outstanding deferred commit and the
// completions that clear it. Complete is the completion handler passed to
// Pipeline.Dispatch; clearing the flag is its only effect on the commit.
type PendingCommit struct {
	active bool
	index  int
	fbID   uint32

	seen        bool
	lastSeq     uint32
	completions int
	missed      int
	stray       int
}

// Set records a deferred commit of slot index. A commit already outstanding
// is a contract violation.
func (p *PendingCommit) Set(index int, fbID uint32) {
	if p.active {
		contractViolation("deferred commit of framebuffer %d while framebuffer %d is pending", fbID, p.fbID)
	}
	p.active = true
	p.index = index
	p.fbID = fbID
}

func (p *PendingCommit) Active() bool { return p.active }

// Index is the swap chain slot of the outstanding commit.
func (p *PendingCommit) Index() int { return p.index }

// Complete handles one completion event.
func (p *PendingCommit) Complete(c hal.Completion) {
	if !p.active || c.FramebufferID != p.fbID {
		p.stray++
		logger.Logf("present", "completion for framebuffer %d with no matching commit", c.FramebufferID)
		return
	}
	p.active = false
	p.completions++

	if p.seen {
		switch delta := c.Sequence - p.lastSeq; {
		case int32(delta) < 0:
			logger.Logf("present", "vblank sequence went backwards: %d after %d", c.Sequence, p.lastSeq)
		case delta > 1:
			p.missed += int(delta - 1)
			logger.Logf("present", "missed %d vblank interval(s) before sequence %d", delta-1, c.Sequence)
		}
	}
	p.seen = true
	p.lastSeq = c.Sequence
}

// Completions is the number of commits confirmed so far.
func (p *PendingCommit) Completions() int { return p.completions }

// Missed is the number of vblank intervals skipped between consecutive
// completions.
func (p *PendingCommit) Missed() int { return p.missed }

// LastSequence is the vblank sequence of the latest completion.
func (p *PendingCommit) LastSequence() (uint32, bool) { return p.lastSeq, p.seen }

// Stray is the number of completions that matched no outstanding commit.
func (p *PendingCommit) Stray() int { return p.stray }
