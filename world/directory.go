package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/transport"
)

var (
	// ErrPartitionUnavailable defers a migration; the old instance remains
	// intact and the crossing is retried on a later tick
	ErrPartitionUnavailable = errors.New("world: destination partition unavailable")

	// ErrDuplicateInstance is a defect: a second live instance for one
	// (definition, partition) pair was requested
	ErrDuplicateInstance = errors.New("world: live instance already exists for definition on partition")

	// ErrUnknownDefinition is a defect: a boundary event arrived for a
	// definition the directory never registered
	ErrUnknownDefinition = errors.New("world: definition not registered")
)

// Directory tracks, per transport definition, the route of partitions it
// visits and the live (partition → instance identity) locations, and
// coordinates the create-new / relocate-passengers / destroy-old sequence
// at partition crossings
//
// The directory is the only state shared across partition tick goroutines
// Access to one definition's entry is serialized by that entry's mutex;
// migrations of different definitions proceed independently
type Directory struct {
	mu      sync.RWMutex
	entries map[uint32]*routeEntry
}

type routeEntry struct {
	mu   sync.Mutex
	def  *transport.Definition
	live map[uint32]uint64 // partition id → instance identity
}

func NewDirectory() *Directory {
	return &Directory{
		entries: make(map[uint32]*routeEntry),
	}
}

// Register publishes a built definition. Called once per definition at
// load, before any instance exists
func (d *Directory) Register(def *transport.Definition) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[def.Template.Entry] = &routeEntry{
		def:  def,
		live: make(map[uint32]uint64),
	}
}

func (d *Directory) entry(defEntry uint32) *routeEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.entries[defEntry]
}

// Definition returns the registered definition for entry, nil if unknown
func (d *Directory) Definition(defEntry uint32) *transport.Definition {
	if e := d.entry(defEntry); e != nil {
		return e.def
	}
	return nil
}

// Definitions returns all registered definitions in entry order
func (d *Directory) Definitions() []*transport.Definition {
	d.mu.RLock()
	out := make([]*transport.Definition, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e.def)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Template.Entry < out[j].Template.Entry
	})
	return out
}

// InstanceOn returns the live instance identity of a definition on a
// partition, if any
func (d *Directory) InstanceOn(defEntry, partition uint32) (uint64, bool) {
	e := d.entry(defEntry)
	if e == nil {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.live[partition]
	return id, ok
}

// Live returns a copy of the live location map of a definition
func (d *Directory) Live(defEntry uint32) map[uint32]uint64 {
	e := d.entry(defEntry)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[uint32]uint64, len(e.live))
	for k, v := range e.live {
		out[k] = v
	}
	return out
}

// OnBoundaryReached handles an instance that finished its partition run
//
// Route order decides the destination. Same-partition hops jump in place;
// exhausted acyclic routes tear the instance down; partition crossings run
// the migration sequence: create the new instance first (the definition is
// never unrepresented), relocate every passenger while the new instance is
// still invisible to the destination's tick, then hand it over and destroy
// the old instance once its registry is empty
func (d *Directory) OnBoundaryReached(w *World, inst *transport.Instance) error {
	def := inst.Definition()
	e := d.entry(def.Template.Entry)
	if e == nil {
		return fmt.Errorf("definition %d: %w", def.Template.Entry, ErrUnknownDefinition)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	next, ok := def.NextIndex(inst.RouteIndex())
	if !ok {
		w.teardownLocked(e, inst)
		return nil
	}

	destPid := def.Curves[next].Partition()
	if destPid == inst.Partition() {
		// Single-partition step of the route: no migration, reposition only
		inst.JumpToCurve(next)
		return nil
	}

	oldPid := inst.Partition()
	newInst, destPart, err := w.createLocked(e, next)
	if err != nil {
		return err
	}

	d.relocatePassengers(w, inst, newInst, oldPid, destPid)

	if !inst.Registry().Empty() {
		// Defect: forced unboarding above must have drained the registry
		// Drain loudly rather than destroying a populated registry
		w.reportInvariant(inst, event.InvariantRegistryNotEmpty)
		for _, p := range inst.Registry().Snapshot() {
			inst.Registry().Unboard(p)
		}
	}

	// Hand over only after relocation: the destination ticks the new
	// instance for the first time on the next world tick
	destPart.transferIn(newInst, w.statTicks.Load())
	w.publishLocked(e, newInst)
	w.despawnLocked(e, inst)

	w.statMigrations.Add(1)
	w.pushEvent(event.Event{
		Type:       event.TypeMigration,
		Definition: def.Template.Entry,
		Transport:  newInst.ID(),
		Partition:  destPid,
		Aux:        oldPid,
		Pos:        newInst.Position(),
	})
	return nil
}

// relocatePassengers moves every passenger of the old instance to the new
// one, or drops it safely. Snapshot order is id order; the loop never
// assumes registry iteration stability across mutation
func (d *Directory) relocatePassengers(w *World, old, repl *transport.Instance, oldPid, destPid uint32) {
	var safe = repl.Position()
	if p := w.Partition(oldPid); p != nil {
		safe = p.SafeLocation()
	}

	for _, pass := range old.Registry().Snapshot() {
		b := pass.Boarding()
		if b == nil {
			continue
		}
		local, localFacing, seat := b.Local, b.LocalFacing, b.Seat
		old.Registry().Unboard(pass)

		if !pass.CanCrossPartitions() {
			// Left behind on the old partition at its last global position
			continue
		}

		gpos, gfacing := repl.Registry().GlobalPositionOf(local, localFacing)
		if w.reloc != nil && w.reloc.TeleportAcrossPartition(pass, destPid, gpos, gfacing) {
			repl.Registry().Board(pass, local, localFacing, seat)
			continue
		}

		// Destination refused the entity: drop to the safe fallback on its
		// current partition, never leave it in limbo
		if w.reloc != nil {
			w.reloc.RelocateWithinPartition(pass, oldPid, safe, gfacing)
		}
	}
}
