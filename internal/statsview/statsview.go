//go:build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const path = "/debug/statsview"

// Launch starts the statistics server on addr in a new goroutine and writes
// its URL to output.
func Launch(addr string, output io.Writer) error {
	addr, err := resolveAddress(addr)
	if err != nil {
		return err
	}
	viewer.SetConfiguration(viewer.WithAddr(addr))
	mgr := statsview.New()
	go mgr.Start()

	fmt.Fprintf(output, "stats server available at http://%s%s\n", addr, path)
	return nil
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return true
}
