package world

import (
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
)

// Partition is one independently simulated region of the world
// Instances on a partition are mutated only by that partition's tick; the
// mutex guards the membership maps, which migration touches from the source
// partition's tick goroutine
//
// Instances migrating in land in arrivals first and join the simulated set
// on the destination's next world tick, so the source partition's relocation
// work never overlaps a tick that mutates the new instance
type Partition struct {
	id     uint32
	safe   vmath.Vec3
	online atomic.Bool

	mu        sync.Mutex
	instances map[uint64]*transport.Instance
	arrivals  []arrival
}

type arrival struct {
	inst *transport.Instance
	tick int64
}

func newPartition(id uint32, safe vmath.Vec3) *Partition {
	p := &Partition{
		id:        id,
		safe:      safe,
		instances: make(map[uint64]*transport.Instance),
	}
	p.online.Store(true)
	return p
}

func (p *Partition) ID() uint32 { return p.id }

// SafeLocation is the fallback drop point for passengers whose relocation
// fails during migration
func (p *Partition) SafeLocation() vmath.Vec3 { return p.safe }

// Online partitions tick and accept migrations; an offline partition makes
// inbound migrations retry on later ticks
func (p *Partition) Online() bool     { return p.online.Load() }
func (p *Partition) SetOnline(v bool) { p.online.Store(v) }

// Snapshot returns the partition's live instances in id order, including
// arrivals not yet simulated
func (p *Partition) Snapshot() []*transport.Instance {
	p.mu.Lock()
	out := make([]*transport.Instance, 0, len(p.instances)+len(p.arrivals))
	for _, inst := range p.instances {
		out = append(out, inst)
	}
	for _, a := range p.arrivals {
		out = append(out, a.inst)
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// InstanceCount returns the number of live instances on this partition
func (p *Partition) InstanceCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.instances) + len(p.arrivals)
}

// add places an instance directly into the simulated set
// Activation paths only; migration goes through transferIn
func (p *Partition) add(inst *transport.Instance) {
	p.mu.Lock()
	p.instances[inst.ID()] = inst
	p.mu.Unlock()
}

// transferIn hands over a freshly migrated instance, stamped with the world
// tick it arrived on. It is not simulated until a later tick admits it
func (p *Partition) transferIn(inst *transport.Instance, tick int64) {
	p.mu.Lock()
	p.arrivals = append(p.arrivals, arrival{inst: inst, tick: tick})
	p.mu.Unlock()
}

func (p *Partition) remove(id uint64) {
	p.mu.Lock()
	delete(p.instances, id)
	for i, a := range p.arrivals {
		if a.inst.ID() == id {
			p.arrivals = append(p.arrivals[:i], p.arrivals[i+1:]...)
			break
		}
	}
	p.mu.Unlock()
}

// admitArrivals moves arrivals from earlier world ticks into the simulated
// set. Arrivals stamped with the current tick wait one more, so an instance
// is never advanced on the same world tick its migration ran
func (p *Partition) admitArrivals(now int64) {
	p.mu.Lock()
	keep := p.arrivals[:0]
	for _, a := range p.arrivals {
		if a.tick < now {
			p.instances[a.inst.ID()] = a.inst
		} else {
			keep = append(keep, a)
		}
	}
	p.arrivals = keep
	p.mu.Unlock()
}

// snapshot returns the simulated instances in id order so tick processing is
// deterministic and tolerates map mutation mid-tick (migration)
func (p *Partition) snapshot() []*transport.Instance {
	p.mu.Lock()
	out := make([]*transport.Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		out = append(out, inst)
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Tick advances every instance on this partition by diff
// Boundary-reached instances hand off to the directory on this goroutine,
// so migration is a single logical step of the source partition's tick
func (p *Partition) Tick(w *World, diff time.Duration) {
	p.admitArrivals(w.statTicks.Load())

	for _, inst := range p.snapshot() {
		if inst.Partition() != p.id {
			// Migrated away earlier in this tick
			continue
		}
		if !inst.Tick(diff) {
			continue
		}
		if err := w.dir.OnBoundaryReached(w, inst); err != nil {
			if errors.Is(err, ErrPartitionUnavailable) {
				// Old instance stays fully intact; retried next tick
				w.statRetries.Add(1)
				continue
			}
			w.log.Printf("transport %d (definition %d): migration aborted: %v",
				inst.ID(), inst.Definition().Template.Entry, err)
		}
	}
}
