package world

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/path"
	"github.com/lixenwraith/transit/staticdata"
	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
)

func TestLoadDefinitionsRejectsBrokenPaths(t *testing.T) {
	src := staticdata.NewMemory()
	src.AddTemplate(transport.Template{Entry: 1, Name: "good", PathID: 10})
	src.AddPath(10, []path.Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
	})
	src.AddTemplate(transport.Template{Entry: 2, Name: "missing path", PathID: 99})
	src.AddTemplate(transport.Template{Entry: 3, Name: "degenerate", PathID: 30})
	src.AddPath(30, []path.Node{
		{Pos: vmath.Vec3{X: 5}, Partition: 1},
		{Pos: vmath.Vec3{X: 5}, Partition: 1},
	})

	w := New(Options{})
	w.AddPartition(1, vmath.Vec3{})
	if err := w.LoadDefinitions(src); err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}

	if got := len(w.Directory().Definitions()); got != 1 {
		t.Errorf("Expected 1 registered definition, got %d", got)
	}
	if got := w.Status().Ints.Get("load.rejected").Load(); got != 2 {
		t.Errorf("Expected 2 rejected definitions, got %d", got)
	}
}

func TestDuplicateInstanceRefused(t *testing.T) {
	queue := event.NewQueue()
	w := New(Options{Events: queue})
	w.AddPartition(1, vmath.Vec3{})

	src := staticdata.NewMemory()
	src.AddTemplate(transport.Template{Entry: 1, Name: "dup", PathID: 10})
	src.AddPath(10, []path.Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
	})
	if err := w.LoadDefinitions(src); err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}
	def := w.Directory().Definition(1)

	if _, err := w.activate(def, 0); err != nil {
		t.Fatalf("First activation failed: %v", err)
	}
	if _, err := w.activate(def, 0); !errors.Is(err, ErrDuplicateInstance) {
		t.Fatalf("Expected ErrDuplicateInstance, got %v", err)
	}

	invariants := 0
	for _, ev := range queue.Consume() {
		if ev.Type == event.TypeInvariant && ev.Aux == event.InvariantDuplicateInstance {
			invariants++
		}
	}
	if invariants != 1 {
		t.Errorf("Expected 1 duplicate-instance invariant event, got %d", invariants)
	}
	if w.Partition(1).InstanceCount() != 1 {
		t.Errorf("Expected the first instance untouched")
	}
}

func TestActivateForPartition(t *testing.T) {
	src := staticdata.NewMemory()
	src.AddTemplate(transport.Template{Entry: 7, Name: "bound", PathID: 70, InstanceBound: true})
	src.AddPath(70, []path.Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 3},
		{Pos: vmath.Vec3{X: 100}, Partition: 3},
	})

	w := New(Options{})
	w.AddPartition(3, vmath.Vec3{})
	if err := w.LoadDefinitions(src); err != nil {
		t.Fatalf("LoadDefinitions failed: %v", err)
	}

	// InitializeAll skips instance-bound definitions
	w.InitializeAll()
	if w.Partition(3).InstanceCount() != 0 {
		t.Fatalf("Expected no instances before partition activation")
	}

	w.ActivateForPartition(3)
	if w.Partition(3).InstanceCount() != 1 {
		t.Errorf("Expected 1 instance after activation")
	}

	// Idempotent: a second activation finds the live instance and skips
	w.ActivateForPartition(3)
	if w.Partition(3).InstanceCount() != 1 {
		t.Errorf("Expected activation to be idempotent")
	}

	// A partition the route never touches activates nothing
	w.AddPartition(4, vmath.Vec3{})
	w.ActivateForPartition(4)
	if w.Partition(4).InstanceCount() != 0 {
		t.Errorf("Expected no instance on an untouched partition")
	}
}

func TestCurrentGlobalLocationOf(t *testing.T) {
	w := newTestWorld(t, &fakeRelocator{}, nil)
	inst := soleInstanceOn(t, w, 1)

	p := &fakePassenger{id: 100, cross: true}

	if _, _, ok := w.CurrentGlobalLocationOf(p); ok {
		t.Errorf("Expected no location for an unboarded passenger")
	}

	inst.Registry().Board(p, vmath.Vec3{X: 2, Z: 1}, 0, 0)

	pos, facing, ok := w.CurrentGlobalLocationOf(p)
	if !ok {
		t.Fatalf("Expected a location for a boarded passenger")
	}
	// Carrier at the route origin facing east: global = origin + local
	want := vmath.V3Add(inst.Position(), vmath.Vec3{X: 2, Z: 1})
	if vmath.V3Dist(pos, want) > 1e-9 {
		t.Errorf("Expected %+v, got %+v", want, pos)
	}
	if math.Abs(facing-inst.Facing()) > 1e-9 {
		t.Errorf("Expected facing %v, got %v", inst.Facing(), facing)
	}
}

func TestParallelTickMatchesSequential(t *testing.T) {
	run := func(parallel bool) vmath.Vec3 {
		w := New(Options{Relocator: &fakeRelocator{}, Triggers: silentTriggers{}, Parallel: parallel})
		w.AddPartition(1, vmath.Vec3{})
		w.AddPartition(2, vmath.Vec3{})
		if err := w.LoadDefinitions(crossingSource()); err != nil {
			t.Fatalf("LoadDefinitions failed: %v", err)
		}
		w.InitializeAll()
		tickFor(w, 10*time.Second)
		return soleInstanceOn(t, w, 1).Position()
	}

	seq := run(false)
	par := run(true)
	if vmath.V3Dist(seq, par) > 1e-9 {
		t.Errorf("Expected identical motion, sequential %+v vs parallel %+v", seq, par)
	}
}

func TestTickCountsTicks(t *testing.T) {
	w := New(Options{})
	tickFor(w, time.Second)
	if got := w.statTicks.Load(); got != 10 {
		t.Errorf("Expected 10 ticks counted, got %d", got)
	}
}
