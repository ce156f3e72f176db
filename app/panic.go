package app

import (
	"runtime/debug"
	"strings"

	"github.com/TomHsieh300/Linux-DRM-Explorer/logger"
	"github.com/TomHsieh300/Linux-DRM-Explorer/present"
)

// logPanic records a panic from the presentation engine, the frame it
// happened on and the stack in the central log.
func logPanic(v any, st present.Stats) {
	logger.Logf("app", "panic after %d frames, %d flips, %d completions: %v", st.Iterations, st.Flips, st.Completions, v)
	for _, line := range strings.Split(string(debug.Stack()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		logger.Log("app", line)
	}
}
