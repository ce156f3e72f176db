package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/TomHsieh300/Linux-DRM-Explorer/hal"
)

func TestWrite(t *testing.T) {
	infos := []hal.ConnectorInfo{
		{
			ID: 77, Type: "HDMI-A", TypeIndex: 1, Connected: true,
			Modes: []hal.ModeInfo{
				{Name: "1920x1080", Width: 1920, Height: 1080, RefreshHz: 60, Preferred: true},
				{Name: "1280x720", Width: 1280, Height: 720, RefreshHz: 60},
			},
			Crtcs: []uint32{31, 32},
		},
		{ID: 78, Type: "DP", TypeIndex: 1},
	}

	var sb strings.Builder
	write(&sb, "/dev/dri/card0", infos, false)
	got := sb.String()
	for _, want := range []string{
		"/dev/dri/card0: 2 connectors\n",
		"connector 77 HDMI-A-1: connected, CRTCs 31,32\n",
		"1920x1080@60 (preferred)",
		"connector 78 DP-1: disconnected, CRTCs none\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("write() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "1280x720@60") {
		t.Fatalf("write() listed a non-preferred mode without -all")
	}

	sb.Reset()
	write(&sb, "/dev/dri/card0", infos, true)
	if !strings.Contains(sb.String(), "1280x720@60") {
		t.Fatalf("write() with all = %q, missing 1280x720@60", sb.String())
	}
}

func TestWriteUnreadableConnector(t *testing.T) {
	infos := []hal.ConnectorInfo{
		{ID: 90, Err: errors.New("permission denied")},
		{ID: 91, Type: "eDP", TypeIndex: 1, Connected: true},
	}

	var sb strings.Builder
	write(&sb, "/dev/dri/card1", infos, false)
	got := sb.String()
	for _, want := range []string{
		"/dev/dri/card1: 2 connectors\n",
		"connector 90: unreadable: permission denied\n",
		"connector 91 eDP-1: connected, CRTCs none\n",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("write() = %q, missing %q", got, want)
		}
	}
}
