package hal

import (
	"errors"
	"testing"
)

func TestCollectConnectorsKeepsUnreadable(t *testing.T) {
	errRead := errors.New("ioctl: permission denied")
	read := func(id uint32) (ConnectorInfo, error) {
		if id == 42 {
			return ConnectorInfo{}, errRead
		}
		return ConnectorInfo{ID: id, Type: "HDMI-A", TypeIndex: 1, Connected: true}, nil
	}

	infos := collectConnectors([]uint32{41, 42, 43}, read)
	if len(infos) != 3 {
		t.Fatalf("len(infos) = %d, want 3", len(infos))
	}
	if infos[1].ID != 42 || !errors.Is(infos[1].Err, errRead) {
		t.Fatalf("infos[1] = %+v, want connector 42 with the read error", infos[1])
	}
	for _, i := range []int{0, 2} {
		if infos[i].Err != nil || !infos[i].Connected {
			t.Fatalf("infos[%d] = %+v, want a readable connected connector", i, infos[i])
		}
	}
}

func TestConnectorInfoName(t *testing.T) {
	c := ConnectorInfo{Type: connectorTypeName(11), TypeIndex: 2}
	if got := c.Name(); got != "HDMI-A-2" {
		t.Fatalf("Name() = %q, want HDMI-A-2", got)
	}
	if got := connectorTypeName(99); got != "type99" {
		t.Fatalf("connectorTypeName(99) = %q, want type99", got)
	}
}
