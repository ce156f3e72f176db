// Package statsview is an optional package that is built only when the
// statsview build constraint is present.
//
// It provides an HTTP server running locally offering runtime statistics,
// useful for watching allocation and GC pauses while a presentation strategy
// runs. The underlying functionality is provided by
// "github.com/go-echarts/statsview".
//
// After launch, graphical statistics are viewable at:
//
//	localhost:12600/debug/statsview
//
// unless Launch is given another address.
package statsview
