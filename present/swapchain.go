package present

import (
	"fmt"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
)

// SwapChain is a fixed set of one or two surfaces with a front index. The
// front surface is the one claimed by the display pipeline; the back surface
// is the one being drawn. With a single surface front and back coincide.
type SwapChain struct {
	slots [2]hal.Surface
	n     int
	front int
}

// NewSwapChain builds a chain over one or two surfaces of the same size.
func NewSwapChain(surfaces ...hal.Surface) (*SwapChain, error) {
	if len(surfaces) < 1 || len(surfaces) > 2 {
		return nil, fmt.Errorf("%w: swap chain of %d surfaces", ErrInvalidConfig, len(surfaces))
	}
	c := &SwapChain{n: len(surfaces)}
	for i, s := range surfaces {
		if s == nil {
			return nil, fmt.Errorf("%w: swap chain slot %d is empty", ErrInvalidConfig, i)
		}
		if s.Width() != surfaces[0].Width() || s.Height() != surfaces[0].Height() {
			return nil, fmt.Errorf("%w: swap chain surfaces differ in size", ErrInvalidConfig)
		}
		c.slots[i] = s
	}
	return c, nil
}

func (c *SwapChain) Len() int { return c.n }

func (c *SwapChain) FrontIndex() int { return c.front }

func (c *SwapChain) BackIndex() int {
	if c.n == 1 {
		return 0
	}
	return 1 - c.front
}

func (c *SwapChain) Front() hal.Surface { return c.slots[c.FrontIndex()] }
func (c *SwapChain) Back() hal.Surface  { return c.slots[c.BackIndex()] }

// Surface returns slot i.
func (c *SwapChain) Surface(i int) hal.Surface { return c.slots[i] }

// Swap exchanges the front and back roles. It does nothing on a single
// surface chain.
func (c *SwapChain) Swap() {
	c.front = c.BackIndex()
}
