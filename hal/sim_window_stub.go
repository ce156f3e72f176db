//go:build !cgo

package hal

import (
	"context"
	"errors"
)

func RunWindow(_ context.Context, _ *Sim, _ func(context.Context) error) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
