package transport

import (
	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/parameter"
	"github.com/lixenwraith/transit/vmath"
)

// Passenger is any simulate-able entity that can ride a transport
// The entity keeps its own boarding record; the registry owns the
// association. Passenger lifetime is owned by its partition, never by the
// transport carrying it
type Passenger interface {
	ID() uint64

	// Boarding returns the current boarding record, nil when not boarded
	Boarding() *Boarding

	// SetBoarding is called by the registry on board/unboard only
	SetBoarding(*Boarding)

	// CanCrossPartitions reports whether the entity survives relocation to
	// another partition during migration. Entities that cannot are
	// force-unboarded and left behind
	CanCrossPartitions() bool
}

// Boarding is the entity-side record of being carried: identity of the
// carrier plus the transport-relative offset. Held by id, not pointer, so a
// migrated or despawned carrier can never dangle
type Boarding struct {
	TransportID uint64
	Seat        uint8
	Local       vmath.Vec3
	LocalFacing float64
}

// Relocator is the world/object layer's entity movement primitive set
type Relocator interface {
	// RelocateWithinPartition repositions an entity on its current partition
	RelocateWithinPartition(p Passenger, partition uint32, pos vmath.Vec3, facing float64)

	// TeleportAcrossPartition moves an entity to another partition
	// Returns false if the destination refuses the entity
	TeleportAcrossPartition(p Passenger, partition uint32, pos vmath.Vec3, facing float64) bool
}

// TriggerHandler dispatches named path-node triggers to scripting
type TriggerHandler interface {
	// FireTrigger handles a trigger; returns false if unhandled
	FireTrigger(trigger uint32, source uint64, departure bool) bool

	// OnScriptEvent is the generic fallback for unhandled triggers
	OnScriptEvent(trigger uint32, source uint64)
}

// Resolver maps instance identities to live instances
// Implemented by the world; tests use a plain map
type Resolver interface {
	Instance(id uint64) *Instance
}

// IsAboard walks the boarded-on chain from candidate upward and reports
// whether it reaches target. Chains are acyclic by construction, but the
// walk is bounded defensively rather than trusting that
func IsAboard(r Resolver, candidate Passenger, target *Instance) bool {
	cur := candidate
	for i := 0; i < parameter.MaxBoardingDepth; i++ {
		b := cur.Boarding()
		if b == nil {
			return false
		}
		carrier := r.Instance(b.TransportID)
		if carrier == nil {
			return false
		}
		if carrier == target {
			return true
		}
		cur = carrier
	}

	target.reportInvariant(event.InvariantChainBoundExceeded, candidate.ID())
	return false
}
