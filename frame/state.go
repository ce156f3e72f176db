// Package frame produces the content of each presented frame: a vertical bar
// bouncing between the left and right edges of the display.
package frame

// Step is how far the bar moves per frame, in pixels.
const Step = 8

// DefaultBarWidth is the width of the bar in the demonstration programs.
const DefaultBarWidth = 80

// State is the animation state of the bar.
//
// X is the leading edge. X+Width never exceeds the display width once
// Advance has run, and Direction is +1 (moving right) or -1.
type State struct {
	X         int
	Width     int
	Direction int
	Count     int
}

// NewState places a bar of the given width at the left edge, moving right.
func NewState(width int) State {
	return State{Width: width, Direction: 1}
}

// Advance moves the bar one step. A step that reaches or crosses an edge is
// clamped onto it and the direction is reversed for the following call.
func (s *State) Advance(displayWidth int) {
	if s.Direction == 0 {
		s.Direction = 1
	}
	last := max(displayWidth-s.Width, 0)

	s.X += s.Direction * Step
	switch {
	case s.X >= last:
		s.X = last
		s.Direction = -1
	case s.X <= 0:
		s.X = 0
		s.Direction = 1
	}
	s.Count++
}
