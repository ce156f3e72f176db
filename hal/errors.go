package hal

import (
	"errors"
	"fmt"
)

var (
	// ErrResourceUnavailable covers a device that cannot be opened and the
	// absence of a connected output or a usable CRTC.
	ErrResourceUnavailable = errors.New("display resource unavailable")

	// ErrAllocation covers surface creation, registration and mapping.
	ErrAllocation = errors.New("surface allocation failed")

	// ErrCommit is an immediate or deferred commit rejected by the pipeline.
	ErrCommit = errors.New("commit rejected")

	// ErrCompletionTimeout is a deferred commit that was never confirmed.
	ErrCompletionTimeout = errors.New("no completion within timeout")

	// ErrFlipPending is a deferred commit requested while another one is
	// still outstanding on the same pipeline.
	ErrFlipPending = fmt.Errorf("%w: deferred commit already pending", ErrCommit)

	// ErrNotBound is a deferred commit requested before any surface was bound.
	ErrNotBound = fmt.Errorf("%w: no surface bound", ErrCommit)
)
