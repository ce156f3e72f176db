package present

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned by New and ParseStrategy.
var ErrInvalidConfig = errors.New("invalid presentation configuration")

// contractViolation aborts the program. It is reached only when the engine
// itself breaks the one outstanding commit rule.
func contractViolation(format string, args ...any) {
	panic(fmt.Sprintf("present: contract violation: "+format, args...))
}
