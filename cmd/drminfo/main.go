// Command drminfo lists the connectors of a DRM device with their modes and
// the CRTCs that can drive them. It never changes the display.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
)

func main() {
	var (
		device = flag.String("device", hal.DefaultDRMDevice, "DRM device node.")
		all    = flag.Bool("all", false, "List every mode, not only the preferred one.")
	)
	flag.Parse()

	infos, err := hal.Probe(*device)
	if err != nil {
		fatalf("drminfo: %v", err)
	}
	write(os.Stdout, *device, infos, *all)
}

func write(w io.Writer, device string, infos []hal.ConnectorInfo, all bool) {
	fmt.Fprintf(w, "%s: %d connectors\n", device, len(infos))
	for _, c := range infos {
		if c.Err != nil {
			fmt.Fprintf(w, "connector %d: unreadable: %v\n", c.ID, c.Err)
			continue
		}
		status := "disconnected"
		if c.Connected {
			status = "connected"
		}
		fmt.Fprintf(w, "connector %d %s: %s, CRTCs %s\n", c.ID, c.Name(), status, joinIDs(c.Crtcs))
		for i, m := range c.Modes {
			if !all && i > 0 && !m.Preferred {
				continue
			}
			fmt.Fprintf(w, "\t%-16s %v\n", m.Name, m)
		}
	}
}

func joinIDs(ids []uint32) string {
	if len(ids) == 0 {
		return "none"
	}
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = fmt.Sprint(id)
	}
	return strings.Join(s, ",")
}

func fatalf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
