// Package present runs the presentation strategies: it renders frames into a
// swap chain and hands them to the display pipeline, either immediately or
// through deferred commits confirmed at vblank.
package present

import (
	"fmt"
	"strings"
)

// Strategy selects how rendered frames reach the display.
type Strategy int

const (
	// Tearing binds each new back buffer immediately, wherever the scan
	// happens to be.
	Tearing Strategy = iota

	// VblankSync queues each back buffer as a deferred commit and waits for
	// the hardware to confirm it before touching the other buffer.
	VblankSync

	// SingleBufferRace binds one surface once and keeps repainting it while
	// it is being scanned out.
	SingleBufferRace
)

var strategyNames = [...]string{
	Tearing:          "tearing",
	VblankSync:       "vblank-sync",
	SingleBufferRace: "single-buffer-race",
}

// ParseStrategy accepts the names printed by Strategy.String.
func ParseStrategy(s string) (Strategy, error) {
	for i, n := range strategyNames {
		if strings.EqualFold(s, n) {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q (want one of %s)", ErrInvalidConfig, s, strings.Join(strategyNames[:], ", "))
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// Surfaces is the swap chain length the strategy runs on.
func (s Strategy) Surfaces() int {
	if s == SingleBufferRace {
		return 1
	}
	return 2
}

// Description is a one-line explanation for the operator.
func (s Strategy) Description() string {
	switch s {
	case Tearing:
		return "double buffer, immediate SetCrtc: the white bar splits where a swap lands mid-scan"
	case VblankSync:
		return "double buffer, page flip at vblank: the white bar stays whole"
	case SingleBufferRace:
		return "single buffer, repainted while scanned out: the tear line follows the race between CPU and scanout"
	}
	return s.String()
}
