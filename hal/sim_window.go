//go:build cgo

package hal

import (
	"context"
	"image"

	"github.com/TomHsieh300/Linux-DRM-Explorer/internal/buildinfo"
	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow shows what the simulated display engine scans out while run
// executes on another goroutine. It blocks until run returns or the window is
// closed; closing the window cancels the context given to run.
//
// The Sim must have been created with Scan enabled.
func RunWindow(ctx context.Context, s *Sim, run func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx) }()

	out := s.Output()
	g := &simWindow{sim: s, done: done}

	w, h := out.Width, out.Height
	for w > 1280 {
		w, h = w/2, h/2
	}
	ebiten.SetWindowTitle("drm-explorer " + out.Name + " (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(w, h)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(g); err != nil {
		logger.Logf("window", "closed: %v", err)
	}
	if g.finished {
		return g.runErr
	}

	// the window went away first
	cancel()
	return <-done
}

type simWindow struct {
	sim  *Sim
	done <-chan error

	finished bool
	runErr   error

	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	shown   int
}

func (g *simWindow) Update() error {
	select {
	case err := <-g.done:
		g.finished = true
		g.runErr = err
		return ebiten.Termination
	default:
	}
	return nil
}

func (g *simWindow) Draw(screen *ebiten.Image) {
	out := g.sim.Output()
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, out.Width, out.Height))
		g.scratch = make([]byte, out.Width*out.Height*BytesPerPixel)
		g.fbImg = ebiten.NewImage(out.Width, out.Height)
	}

	frames, ok := g.sim.Frame(g.scratch)
	if ok && frames != g.shown {
		g.shown = frames
		src := g.scratch
		dst := g.img.Pix
		for i := 0; i+3 < len(src) && i+3 < len(dst); i += BytesPerPixel {
			r, gg, b := rgbFromXRGB8888(Pixel(src, i))
			dst[i+0] = r
			dst[i+1] = gg
			dst[i+2] = b
			dst[i+3] = 0xFF
		}
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *simWindow) Layout(outsideWidth, outsideHeight int) (int, int) {
	out := g.sim.Output()
	return out.Width, out.Height
}
