package path

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/transit/vmath"
)

// Build-time failures. A failed build rejects the whole definition; loading
// continues for other definitions and no partial state is published
var (
	ErrEmptyPath  = errors.New("path: empty node list")
	ErrShortRun   = errors.New("path: run has fewer than 2 nodes")
	ErrZeroLength = errors.New("path: run has no distinct points")
)

// Builder converts a raw waypoint list into per-partition motion curves
// Zero value uses the canonical speed-profile timing
type Builder struct {
	Timing Timing
}

// Build splits nodes into maximal same-partition runs and constructs one
// Curve per run. A partition switch starts a new run; an explicit teleport
// flag forces a boundary even within one partition. loop marks the route
// as returning to its start: a single-run loop yields one cyclic curve,
// a multi-run loop wraps at route level instead
//
// Returns the curves in route order and the aggregate period (travel plus
// stop delays over the full route)
func (b *Builder) Build(nodes []Node, loop bool) ([]*Curve, time.Duration, error) {
	if len(nodes) == 0 {
		return nil, 0, ErrEmptyPath
	}

	timing := b.Timing
	if timing == nil {
		timing = SpeedProfile{}
	}

	var runs [][]Node
	runStart := 0
	for i := 1; i < len(nodes); i++ {
		if nodes[i].Partition != nodes[i-1].Partition || nodes[i].Teleport {
			runs = append(runs, nodes[runStart:i])
			runStart = i
		}
	}
	runs = append(runs, nodes[runStart:])

	curves := make([]*Curve, 0, len(runs))
	var period time.Duration
	for ri, run := range runs {
		if len(run) < 2 {
			return nil, 0, fmt.Errorf("run %d (partition %d): %w", ri, run[0].Partition, ErrShortRun)
		}

		cyclic := loop && len(runs) == 1
		curve, err := buildRun(run, cyclic, timing)
		if err != nil {
			return nil, 0, fmt.Errorf("run %d (partition %d): %w", ri, run[0].Partition, err)
		}
		curves = append(curves, curve)
		period += curve.Duration()
	}

	return curves, period, nil
}

func buildRun(run []Node, cyclic bool, timing Timing) (*Curve, error) {
	n := len(run)
	c := &Curve{
		partition: run[0].Partition,
		cyclic:    cyclic,
		points:    make([]vmath.Vec3, n),
		delays:    make([]time.Duration, n),
		arrive:    make([]uint32, n),
		depart:    make([]uint32, n),
	}

	distinct := false
	for i, node := range run {
		c.points[i] = node.Pos
		c.delays[i] = node.Delay
		c.arrive[i] = node.ArrivalTrigger
		c.depart[i] = node.DepartureTrigger
		if i > 0 && node.Pos != run[0].Pos {
			distinct = true
		}
	}
	if !distinct {
		return nil, ErrZeroLength
	}

	// The transport halts at delay nodes; acyclic runs also start and end
	// at rest, which anchors the acceleration profile at the run endpoints
	stop := make([]bool, n)
	for i := range run {
		stop[i] = run[i].Delay > 0
	}
	if !cyclic {
		stop[0] = true
		stop[n-1] = true
	}

	c.segTimes = timing.SegmentTimes(c.points, stop, cyclic)
	for _, st := range c.segTimes {
		c.travel += st
	}
	for _, d := range c.delays {
		c.dwell += d
	}
	if c.travel <= 0 {
		return nil, ErrZeroLength
	}
	return c, nil
}
