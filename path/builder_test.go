package path

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/transit/vmath"
)

func TestBuildRejectsEmptyPath(t *testing.T) {
	b := &Builder{}
	if _, _, err := b.Build(nil, false); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("Expected ErrEmptyPath, got %v", err)
	}
}

func TestBuildRejectsShortRun(t *testing.T) {
	// The partition switch at the last node leaves a 1-node run
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 200}, Partition: 2},
	}

	b := &Builder{}
	if _, _, err := b.Build(nodes, false); !errors.Is(err, ErrShortRun) {
		t.Errorf("Expected ErrShortRun, got %v", err)
	}
}

func TestBuildRejectsZeroLength(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 5, Y: 5}, Partition: 1},
		{Pos: vmath.Vec3{X: 5, Y: 5}, Partition: 1},
	}

	b := &Builder{}
	if _, _, err := b.Build(nodes, false); !errors.Is(err, ErrZeroLength) {
		t.Errorf("Expected ErrZeroLength, got %v", err)
	}
}

func TestBuildSplitsOnPartitionChange(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 200}, Partition: 2},
		{Pos: vmath.Vec3{X: 300}, Partition: 2},
	}

	b := &Builder{}
	curves, period, err := b.Build(nodes, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("Expected 2 curves, got %d", len(curves))
	}
	if curves[0].Partition() != 1 || curves[1].Partition() != 2 {
		t.Errorf("Expected partitions 1 and 2, got %d and %d",
			curves[0].Partition(), curves[1].Partition())
	}
	if period != curves[0].Duration()+curves[1].Duration() {
		t.Errorf("Expected period to be the sum of curve durations")
	}
}

func TestBuildSplitsOnTeleport(t *testing.T) {
	// Teleport forces a boundary even without a partition change
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 500}, Partition: 1, Teleport: true},
		{Pos: vmath.Vec3{X: 600}, Partition: 1},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(curves) != 2 {
		t.Fatalf("Expected 2 curves, got %d", len(curves))
	}
	if curves[0].Partition() != curves[1].Partition() {
		t.Errorf("Expected both curves on partition 1")
	}
}

func TestBuildSingleRunLoopIsCyclic(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0, Y: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100, Y: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100, Y: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 0, Y: 100}, Partition: 1},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(curves) != 1 {
		t.Fatalf("Expected 1 curve, got %d", len(curves))
	}

	c := curves[0]
	if !c.Cyclic() {
		t.Errorf("Expected cyclic curve for a single-run loop")
	}
	if c.SegmentCount() != c.PointCount() {
		t.Errorf("Expected closing segment: %d segments for %d points",
			c.SegmentCount(), c.PointCount())
	}
}

func TestBuildMultiRunLoopStaysAcyclic(t *testing.T) {
	// Loop wrapping happens at route level; individual curves stay acyclic
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 200}, Partition: 2},
		{Pos: vmath.Vec3{X: 300}, Partition: 2},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for i, c := range curves {
		if c.Cyclic() {
			t.Errorf("Curve %d: expected acyclic curve in a multi-run loop", i)
		}
	}
}

func TestCurveStartAndEvaluate(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 10, Y: 20}, Partition: 1},
		{Pos: vmath.Vec3{X: 110, Y: 20}, Partition: 1},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	c := curves[0]

	pos, facing := c.Start()
	if pos != nodes[0].Pos {
		t.Errorf("Expected start at %+v, got %+v", nodes[0].Pos, pos)
	}
	if math.Abs(facing) > 1e-9 {
		t.Errorf("Expected facing 0 heading east, got %v", facing)
	}

	end, _, terminal := c.Evaluate(1)
	if end != nodes[1].Pos {
		t.Errorf("Expected end at %+v, got %+v", nodes[1].Pos, end)
	}
	if !terminal {
		t.Errorf("Expected terminal=true at progress 1 on an acyclic curve")
	}

	mid, _, terminal := c.Evaluate(0.5)
	if terminal {
		t.Errorf("Expected terminal=false mid-curve")
	}
	if mid.X <= pos.X || mid.X >= end.X {
		t.Errorf("Expected mid position strictly between endpoints, got %+v", mid)
	}
}

func TestCurveEvaluateCyclicWraps(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0, Y: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100, Y: 0}, Partition: 1},
		{Pos: vmath.Vec3{X: 100, Y: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 0, Y: 100}, Partition: 1},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, true)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	c := curves[0]

	p1, _, terminal := c.Evaluate(0.25)
	if terminal {
		t.Errorf("Expected terminal=false on a cyclic curve")
	}
	p2, _, _ := c.Evaluate(1.25)
	if vmath.V3Dist(p1, p2) > 1e-9 {
		t.Errorf("Expected progress 1.25 to wrap to 0.25: %+v vs %+v", p1, p2)
	}
}

func TestCurveDurationIncludesDwell(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1, Delay: 3 * time.Second},
		{Pos: vmath.Vec3{X: 100}, Partition: 1},
		{Pos: vmath.Vec3{X: 200}, Partition: 1, Delay: 2 * time.Second},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	c := curves[0]
	if c.Duration() != c.Travel()+5*time.Second {
		t.Errorf("Expected duration to add 5s of dwell to travel %v, got %v",
			c.Travel(), c.Duration())
	}
}

func TestCurveTriggerAccessors(t *testing.T) {
	nodes := []Node{
		{Pos: vmath.Vec3{X: 0}, Partition: 1, ArrivalTrigger: 7},
		{Pos: vmath.Vec3{X: 100}, Partition: 1, DepartureTrigger: 9},
	}

	b := &Builder{}
	curves, _, err := b.Build(nodes, false)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	c := curves[0]
	if c.ArrivalTrigger(0) != 7 {
		t.Errorf("Expected arrival trigger 7, got %d", c.ArrivalTrigger(0))
	}
	if c.DepartureTrigger(1) != 9 {
		t.Errorf("Expected departure trigger 9, got %d", c.DepartureTrigger(1))
	}
	if c.ArrivalTrigger(1) != 0 {
		t.Errorf("Expected no arrival trigger on node 1")
	}
}
