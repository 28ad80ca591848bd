package transport

import (
	"time"

	"github.com/lixenwraith/transit/path"
)

// Template holds the static fields of a transport type, loaded once from
// static data and immutable thereafter
type Template struct {
	Entry     uint32
	Name      string
	DisplayID uint32
	Size      float64

	// Speed overrides the cruise cap, 0 = legacy default
	Speed float64

	PathID uint32

	// Loop marks a route that returns to its start instead of terminating
	Loop bool

	// InstanceBound transports are activated per created partition instance
	// rather than once at world start
	InstanceBound bool

	// LegacyTiming selects the quantized timetable backend
	LegacyTiming bool
}

// Definition is the immutable build product for one transport type: the
// template plus one motion curve per contiguous partition run. Shared by
// all live instances of the type
type Definition struct {
	Template Template
	Curves   []*path.Curve
	Period   time.Duration
}

// Route returns the ordered partition ids the definition visits, one per
// curve. Partitions may repeat when a teleport splits a run in place
func (d *Definition) Route() []uint32 {
	route := make([]uint32, len(d.Curves))
	for i, c := range d.Curves {
		route[i] = c.Partition()
	}
	return route
}

// NextIndex returns the route position following i, wrapping for looping
// routes. ok=false means the route terminates after i
func (d *Definition) NextIndex(i int) (int, bool) {
	if i+1 < len(d.Curves) {
		return i + 1, true
	}
	if d.Template.Loop {
		return 0, true
	}
	return 0, false
}

// FirstIndexForPartition returns the first route position on partition pid
func (d *Definition) FirstIndexForPartition(pid uint32) (int, bool) {
	for i, c := range d.Curves {
		if c.Partition() == pid {
			return i, true
		}
	}
	return 0, false
}
