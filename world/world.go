package world

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/path"
	"github.com/lixenwraith/transit/staticdata"
	"github.com/lixenwraith/transit/status"
	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
)

// Options configure a World. All collaborator fields are optional; nil
// means the corresponding side effect is skipped
type Options struct {
	Log       *log.Logger
	Status    *status.Registry
	Events    *event.Queue
	Relocator transport.Relocator
	Triggers  transport.TriggerHandler

	// Parallel ticks partitions on separate goroutines. A single instance
	// is still only ever mutated by its own partition's tick
	Parallel bool
}

// World is the explicitly constructed simulation root: it owns the
// partitions, the directory, and the live instance index, and exposes the
// surface the outer game layer drives
type World struct {
	log      *log.Logger
	status   *status.Registry
	events   *event.Queue
	reloc    transport.Relocator
	triggers transport.TriggerHandler
	parallel bool

	dir *Directory

	pmu        sync.RWMutex
	partitions map[uint32]*Partition

	imu       sync.RWMutex
	instances map[uint64]*transport.Instance

	nextID atomic.Uint64

	statTicks      *atomic.Int64
	statInstances  *atomic.Int64
	statMigrations *atomic.Int64
	statRetries    *atomic.Int64
	statInvariants *atomic.Int64
}

func New(opts Options) *World {
	if opts.Log == nil {
		opts.Log = log.Default()
	}
	if opts.Status == nil {
		opts.Status = status.NewRegistry()
	}
	w := &World{
		log:        opts.Log,
		status:     opts.Status,
		events:     opts.Events,
		reloc:      opts.Relocator,
		triggers:   opts.Triggers,
		parallel:   opts.Parallel,
		dir:        NewDirectory(),
		partitions: make(map[uint32]*Partition),
		instances:  make(map[uint64]*transport.Instance),
	}
	w.statTicks = opts.Status.Ints.Get("sim.ticks")
	w.statInstances = opts.Status.Ints.Get("transport.instances")
	w.statMigrations = opts.Status.Ints.Get("transport.migrations")
	w.statRetries = opts.Status.Ints.Get("transport.migration_retry")
	w.statInvariants = opts.Status.Ints.Get("transport.invariants")
	return w
}

// Directory exposes the migration coordinator, mainly for observability
func (w *World) Directory() *Directory { return w.dir }

// Status returns the metrics registry the world writes to
func (w *World) Status() *status.Registry { return w.status }

// AddPartition creates a partition with the given safe fallback location
func (w *World) AddPartition(id uint32, safe vmath.Vec3) *Partition {
	p := newPartition(id, safe)
	w.pmu.Lock()
	w.partitions[id] = p
	w.pmu.Unlock()
	return p
}

// Partition returns the partition with the given id, nil if absent
func (w *World) Partition(id uint32) *Partition {
	w.pmu.RLock()
	defer w.pmu.RUnlock()
	return w.partitions[id]
}

// Instance resolves a live instance identity; implements transport.Resolver
func (w *World) Instance(id uint64) *transport.Instance {
	w.imu.RLock()
	defer w.imu.RUnlock()
	return w.instances[id]
}

// LoadDefinitions builds and registers a definition per static template
// A malformed path rejects only its own definition; loading continues
func (w *World) LoadDefinitions(src staticdata.Source) error {
	templates, err := src.Templates()
	if err != nil {
		return fmt.Errorf("loading transport templates: %w", err)
	}

	statDefs := w.status.Ints.Get("load.definitions")
	statRejected := w.status.Ints.Get("load.rejected")

	for _, tmpl := range templates {
		nodes, err := src.PathNodesFor(tmpl.PathID)
		if err != nil {
			w.log.Printf("transport %d (%s) rejected: path %d: %v", tmpl.Entry, tmpl.Name, tmpl.PathID, err)
			statRejected.Add(1)
			continue
		}

		builder := path.Builder{Timing: timingFor(tmpl)}
		curves, period, err := builder.Build(nodes, tmpl.Loop)
		if err != nil {
			w.log.Printf("transport %d (%s) rejected: %v", tmpl.Entry, tmpl.Name, err)
			statRejected.Add(1)
			continue
		}

		w.dir.Register(&transport.Definition{
			Template: tmpl,
			Curves:   curves,
			Period:   period,
		})
		statDefs.Add(1)
	}
	return nil
}

func timingFor(tmpl transport.Template) path.Timing {
	if tmpl.LegacyTiming {
		return path.LegacyTimetable{MaxSpeed: tmpl.Speed}
	}
	return path.SpeedProfile{MaxSpeed: tmpl.Speed}
}

// InitializeAll activates continent-spanning transports at world start
// Instance-bound definitions wait for ActivateForPartition
func (w *World) InitializeAll() {
	for _, def := range w.dir.Definitions() {
		if def.Template.InstanceBound {
			continue
		}
		if _, err := w.activate(def, 0); err != nil {
			w.log.Printf("transport %d (%s): activation failed: %v",
				def.Template.Entry, def.Template.Name, err)
		}
	}
}

// ActivateForPartition creates instance-bound transports whose route
// touches the given partition. Called when a partition instance is created
func (w *World) ActivateForPartition(pid uint32) {
	for _, def := range w.dir.Definitions() {
		if !def.Template.InstanceBound {
			continue
		}
		idx, ok := def.FirstIndexForPartition(pid)
		if !ok {
			continue
		}
		if _, live := w.dir.InstanceOn(def.Template.Entry, pid); live {
			continue
		}
		if _, err := w.activate(def, idx); err != nil {
			w.log.Printf("transport %d (%s): activation on partition %d failed: %v",
				def.Template.Entry, def.Template.Name, pid, err)
		}
	}
}

// Tick advances the whole world by one fixed step
func (w *World) Tick(diff time.Duration) {
	w.statTicks.Add(1)

	parts := w.sortedPartitions()
	if !w.parallel {
		for _, p := range parts {
			if p.Online() {
				p.Tick(w, diff)
			}
		}
		return
	}

	var wg sync.WaitGroup
	for _, p := range parts {
		if !p.Online() {
			continue
		}
		wg.Add(1)
		go func(p *Partition) {
			defer wg.Done()
			p.Tick(w, diff)
		}(p)
	}
	wg.Wait()
}

// CurrentGlobalLocationOf returns the effective world position of a
// boarded passenger; ok=false when the passenger is not boarded
func (w *World) CurrentGlobalLocationOf(p transport.Passenger) (vmath.Vec3, float64, bool) {
	b := p.Boarding()
	if b == nil {
		return vmath.Vec3{}, 0, false
	}
	inst := w.Instance(b.TransportID)
	if inst == nil {
		return vmath.Vec3{}, 0, false
	}
	pos, facing := inst.Registry().GlobalPositionOf(b.Local, b.LocalFacing)
	return pos, facing, true
}

func (w *World) sortedPartitions() []*Partition {
	w.pmu.RLock()
	out := make([]*Partition, 0, len(w.partitions))
	for _, p := range w.partitions {
		out = append(out, p)
	}
	w.pmu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (w *World) env() transport.Env {
	return transport.Env{
		Triggers: w.triggers,
		Events:   w.events,
		Status:   w.status,
		Reloc:    w.reloc,
	}
}

// activate spawns a fresh instance for def at route position idx, holding
// the definition's directory entry lock
func (w *World) activate(def *transport.Definition, idx int) (*transport.Instance, error) {
	e := w.dir.entry(def.Template.Entry)
	if e == nil {
		return nil, fmt.Errorf("definition %d: %w", def.Template.Entry, ErrUnknownDefinition)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return w.spawnLocked(e, idx)
}

// spawnLocked creates, places, and indexes an instance on its partition;
// caller holds e.mu. Activation only; migration defers visibility through
// createLocked / transferIn / publishLocked
func (w *World) spawnLocked(e *routeEntry, idx int) (*transport.Instance, error) {
	inst, part, err := w.createLocked(e, idx)
	if err != nil {
		return nil, err
	}
	part.add(inst)
	w.publishLocked(e, inst)
	return inst, nil
}

// createLocked validates and constructs an instance for route position idx
// without making it visible to any partition's tick or to the instance
// index; caller holds e.mu
func (w *World) createLocked(e *routeEntry, idx int) (*transport.Instance, *Partition, error) {
	def := e.def
	pid := def.Curves[idx].Partition()

	part := w.Partition(pid)
	if part == nil || !part.Online() {
		return nil, nil, fmt.Errorf("definition %d: partition %d: %w",
			def.Template.Entry, pid, ErrPartitionUnavailable)
	}
	if dup, ok := e.live[pid]; ok {
		w.statInvariants.Add(1)
		w.pushEvent(event.Event{
			Type:       event.TypeInvariant,
			Definition: def.Template.Entry,
			Transport:  dup,
			Partition:  pid,
			Aux:        event.InvariantDuplicateInstance,
		})
		return nil, nil, fmt.Errorf("definition %d: partition %d: %w",
			def.Template.Entry, pid, ErrDuplicateInstance)
	}

	return transport.NewInstance(w.nextID.Add(1), def, idx, w.env()), part, nil
}

// publishLocked records a created instance in the instance index and the
// definition's live map; caller holds e.mu and has already placed the
// instance on its partition
func (w *World) publishLocked(e *routeEntry, inst *transport.Instance) {
	w.imu.Lock()
	w.instances[inst.ID()] = inst
	w.imu.Unlock()

	e.live[inst.Partition()] = inst.ID()
	w.statInstances.Add(1)
}

// despawnLocked removes an instance from its partition, the instance index
// and the live map; caller holds e.mu and has drained the registry
func (w *World) despawnLocked(e *routeEntry, inst *transport.Instance) {
	if p := w.Partition(inst.Partition()); p != nil {
		p.remove(inst.ID())
	}

	w.imu.Lock()
	delete(w.instances, inst.ID())
	w.imu.Unlock()

	if e.live[inst.Partition()] == inst.ID() {
		delete(e.live, inst.Partition())
	}
	w.statInstances.Add(-1)
}

// teardownLocked retires an instance whose acyclic route is exhausted
// Passengers are force-unboarded in place; their lifetime belongs to the
// partition, not the transport
func (w *World) teardownLocked(e *routeEntry, inst *transport.Instance) {
	for _, p := range inst.Registry().Snapshot() {
		b := p.Boarding()
		if b == nil {
			continue
		}
		gpos, gfacing := inst.Registry().GlobalPositionOf(b.Local, b.LocalFacing)
		inst.Registry().Unboard(p)
		if w.reloc != nil {
			w.reloc.RelocateWithinPartition(p, inst.Partition(), gpos, gfacing)
		}
	}

	if !inst.Registry().Empty() {
		w.reportInvariant(inst, event.InvariantRegistryNotEmpty)
	}

	w.log.Printf("transport %d (%s): route complete on partition %d, retiring instance %d",
		inst.Definition().Template.Entry, inst.Definition().Template.Name,
		inst.Partition(), inst.ID())
	w.despawnLocked(e, inst)
}

func (w *World) reportInvariant(inst *transport.Instance, code uint32) {
	w.statInvariants.Add(1)
	w.pushEvent(event.Event{
		Type:       event.TypeInvariant,
		Definition: inst.Definition().Template.Entry,
		Transport:  inst.ID(),
		Partition:  inst.Partition(),
		Aux:        code,
	})
	w.log.Printf("invariant violation (code %d) on transport instance %d", code, inst.ID())
}

func (w *World) pushEvent(ev event.Event) {
	if w.events != nil {
		w.events.Push(ev)
	}
}
