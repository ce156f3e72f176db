package app

import (
	"errors"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
	"github.com/TomHsieh300/Linux-DRM-Explorer/present"
)

// Kind names the class of a run error.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, present.ErrInvalidConfig):
		return "invalid configuration"
	case errors.Is(err, hal.ErrResourceUnavailable):
		return "display unavailable"
	case errors.Is(err, hal.ErrAllocation):
		return "allocation failure"
	case errors.Is(err, hal.ErrCompletionTimeout):
		return "completion timeout (display pipeline stalled or disconnected)"
	case errors.Is(err, hal.ErrCommit):
		return "commit failure"
	}
	return "error"
}

// Describe is the one-line diagnostic printed for a failed run.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	return Kind(err) + ": " + err.Error()
}

// ExitCode maps a run error to the process exit status: 0 for success, 2
// for a configuration error and 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, present.ErrInvalidConfig):
		return 2
	}
	return 1
}
