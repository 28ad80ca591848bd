package transport

import (
	"math"
	"sort"

	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/parameter"
	"github.com/lixenwraith/transit/vmath"
)

type boardingRecord struct {
	passenger   Passenger
	local       vmath.Vec3
	localFacing float64
	seat        uint8
}

// Registry owns the set of passengers boarded on one transport instance
// Mutated only by the owning partition's tick, so it carries no lock;
// the association is non-owning in both directions
type Registry struct {
	owner   *Instance
	records map[uint64]*boardingRecord
}

func newRegistry(owner *Instance) *Registry {
	return &Registry{
		owner:   owner,
		records: make(map[uint64]*boardingRecord),
	}
}

// Board attaches a passenger at the given transport-relative offset
// Fails without state change if the passenger is boarded anywhere or the
// offset exceeds the carrying envelope. Rejection is expected control flow,
// not an error
func (r *Registry) Board(p Passenger, local vmath.Vec3, localFacing float64, seat uint8) bool {
	if p.Boarding() != nil {
		r.owner.statRejections(1)
		return false
	}
	if math.Abs(local.X) > parameter.BoardingEnvelope ||
		math.Abs(local.Y) > parameter.BoardingEnvelope ||
		math.Abs(local.Z) > parameter.BoardingEnvelope {
		r.owner.statRejections(1)
		return false
	}

	r.records[p.ID()] = &boardingRecord{
		passenger:   p,
		local:       local,
		localFacing: vmath.NormalizeOrientation(localFacing),
		seat:        seat,
	}
	p.SetBoarding(&Boarding{
		TransportID: r.owner.id,
		Seat:        seat,
		Local:       local,
		LocalFacing: vmath.NormalizeOrientation(localFacing),
	})

	r.owner.statBoardings(1)
	r.owner.pushEvent(event.Event{
		Type:      event.TypeBoarded,
		Passenger: p.ID(),
	})
	return true
}

// Unboard detaches a passenger from this transport
// Returns false without state change when the passenger is not boarded
// here; calling it again after success is a no-op
func (r *Registry) Unboard(p Passenger) bool {
	b := p.Boarding()
	if b == nil || b.TransportID != r.owner.id {
		return false
	}
	if _, ok := r.records[p.ID()]; !ok {
		return false
	}

	delete(r.records, p.ID())
	p.SetBoarding(nil)

	r.owner.pushEvent(event.Event{
		Type:      event.TypeUnboarded,
		Passenger: p.ID(),
	})
	return true
}

// Len returns the boarded passenger count
func (r *Registry) Len() int { return len(r.records) }

// Empty reports whether no passengers remain
func (r *Registry) Empty() bool { return len(r.records) == 0 }

// Snapshot returns boarded passengers in id order
// Callers iterating while mutating the registry (migration, teardown) must
// use this rather than assuming iteration stability across mutation
func (r *Registry) Snapshot() []Passenger {
	out := make([]Passenger, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.passenger)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// GlobalPositionOf transforms a transport-relative offset into world
// coordinates: rotate by the carrier's orientation, translate by its
// position, sum and normalize orientations
func (r *Registry) GlobalPositionOf(local vmath.Vec3, localFacing float64) (vmath.Vec3, float64) {
	rx, ry := vmath.RotateXY(local.X, local.Y, r.owner.facing)
	global := vmath.Vec3{
		X: r.owner.pos.X + rx,
		Y: r.owner.pos.Y + ry,
		Z: r.owner.pos.Z + local.Z,
	}
	return global, vmath.NormalizeOrientation(localFacing + r.owner.facing)
}

// LocalPositionOf is the inverse transform, recovering the
// transport-relative offset of a world position
func (r *Registry) LocalPositionOf(global vmath.Vec3, globalFacing float64) (vmath.Vec3, float64) {
	dx := global.X - r.owner.pos.X
	dy := global.Y - r.owner.pos.Y
	lx, ly := vmath.RotateXYInverse(dx, dy, r.owner.facing)
	local := vmath.Vec3{X: lx, Y: ly, Z: global.Z - r.owner.pos.Z}
	return local, vmath.NormalizeOrientation(globalFacing - r.owner.facing)
}

// UpdateAll republishes the global position of every boarded passenger
// A passenger that is itself a transport updates its own registry in turn;
// recursion is depth-capped because the data model forbids but does not
// structurally prevent boarding cycles
func (r *Registry) UpdateAll(reloc Relocator) {
	r.updateAll(reloc, 0)
}

func (r *Registry) updateAll(reloc Relocator, depth int) {
	if depth >= parameter.MaxBoardingDepth {
		r.owner.reportInvariant(event.InvariantChainBoundExceeded, r.owner.id)
		return
	}

	for _, rec := range r.records {
		global, facing := r.GlobalPositionOf(rec.local, rec.localFacing)
		if reloc != nil {
			reloc.RelocateWithinPartition(rec.passenger, r.owner.partition, global, facing)
		}
		if nested, ok := rec.passenger.(*Instance); ok {
			nested.pos = global
			nested.facing = facing
			nested.registry.updateAll(reloc, depth+1)
		}
	}
}
