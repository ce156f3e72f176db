package logger

import "io"

// only one central log for the entire application
var central *logger

// maximum number of entries in the central logger
const maxCentral = 256

func init() {
	central = newLogger(maxCentral)
}

// Log adds an entry to the central logger. An entry identical to the
// previous one is folded into it and counted as a repeat.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(tag, pattern string, args ...interface{}) {
	central.logf(tag, pattern, args...)
}

// Tail writes the last number entries to output.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho writes every new or repeated entry to output as it is logged. A nil
// output stops echoing.
func SetEcho(output io.Writer) {
	central.setEcho(output)
}
