package event

import "github.com/lixenwraith/transit/vmath"

// Type discriminates simulation events
type Type uint8

const (
	TypeNone Type = iota

	// TypeArrival fires when a transport crosses a path node
	// Trigger carries the node's arrival trigger id, 0 if none
	TypeArrival

	// TypeDeparture fires when a transport resumes from a stop node
	TypeDeparture

	// TypeMigration fires once per completed partition crossing
	// Partition is the destination; Aux is the source partition
	TypeMigration

	// TypeBoarded / TypeUnboarded track passenger registry changes
	TypeBoarded
	TypeUnboarded

	// TypeInvariant reports a defect-class condition (duplicate instance,
	// non-empty registry at teardown, boarding chain bound exceeded)
	TypeInvariant
)

// Event is a fixed-size record pushed by simulation code and consumed by
// the router once per tick (or by an external viewer)
type Event struct {
	Type       Type
	Definition uint32 // transport definition entry
	Transport  uint64 // instance identity
	Partition  uint32
	Aux        uint32 // event-specific: source partition, invariant code
	Trigger    uint32 // trigger id for arrival/departure, 0 if none
	Passenger  uint64 // boarding events
	Pos        vmath.Vec3
}

// Invariant codes carried in Aux for TypeInvariant
const (
	InvariantDuplicateInstance uint32 = iota + 1
	InvariantRegistryNotEmpty
	InvariantChainBoundExceeded
)
