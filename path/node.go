package path

import (
	"time"

	"github.com/lixenwraith/transit/vmath"
)

// Node is one waypoint of a raw transport path, loaded from static data
// Immutable once loaded
type Node struct {
	Pos       vmath.Vec3
	Partition uint32

	// Delay holds the transport at this node before departing, 0 = pass through
	Delay time.Duration

	// Trigger ids fired on reaching / leaving this node, 0 = none
	ArrivalTrigger   uint32
	DepartureTrigger uint32

	// Teleport forces a curve boundary at this node even within one
	// partition; the transport jumps rather than travels to the next node
	Teleport bool
}
