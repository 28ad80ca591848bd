package path

import (
	"time"

	"github.com/lixenwraith/transit/vmath"
)

// Curve is a precomputed motion curve over one contiguous partition run of
// a transport path. Owned by a transport definition and shared read-only by
// every live instance; never mutated after Build
type Curve struct {
	partition uint32
	cyclic    bool

	points []vmath.Vec3
	delays []time.Duration
	arrive []uint32
	depart []uint32

	// segTimes[i] is travel time for the segment leaving point i
	// Cyclic curves carry one extra closing segment back to point 0
	segTimes []time.Duration
	travel   time.Duration
	dwell    time.Duration
}

func (c *Curve) Partition() uint32 { return c.partition }
func (c *Curve) Cyclic() bool      { return c.cyclic }
func (c *Curve) PointCount() int   { return len(c.points) }

// SegmentCount is PointCount-1, plus the closing segment when cyclic
func (c *Curve) SegmentCount() int {
	if c.cyclic {
		return len(c.points)
	}
	return len(c.points) - 1
}

func (c *Curve) Point(i int) vmath.Vec3 {
	return c.points[i%len(c.points)]
}

func (c *Curve) Delay(i int) time.Duration {
	return c.delays[i%len(c.delays)]
}

func (c *Curve) ArrivalTrigger(i int) uint32 {
	return c.arrive[i%len(c.arrive)]
}

func (c *Curve) DepartureTrigger(i int) uint32 {
	return c.depart[i%len(c.depart)]
}

func (c *Curve) SegmentTime(i int) time.Duration {
	return c.segTimes[i]
}

// Travel is time in motion over the whole curve, excluding stop delays
func (c *Curve) Travel() time.Duration { return c.travel }

// Duration is travel time plus all stop delays
func (c *Curve) Duration() time.Duration { return c.travel + c.dwell }

// Start returns the curve origin and initial facing
func (c *Curve) Start() (vmath.Vec3, float64) {
	pos, facing := c.EvaluateAt(0, 0)
	return pos, facing
}

// EvaluateAt returns position and facing for local fraction u in [0,1] of
// segment seg. Deterministic and continuous in position and first
// derivative across segment boundaries
func (c *Curve) EvaluateAt(seg int, u float64) (vmath.Vec3, float64) {
	nSeg := c.SegmentCount()
	if nSeg <= 0 {
		return c.points[0], 0
	}
	if seg < 0 {
		seg = 0
	}
	if seg >= nSeg {
		seg = nSeg - 1
	}
	if u < 0 {
		u = 0
	}
	if u > 1 {
		u = 1
	}

	p0, p1, p2, p3 := c.controls(seg)
	pos := vmath.CatmullRom(p0, p1, p2, p3, u)
	der := vmath.CatmullRomDerivative(p0, p1, p2, p3, u)

	// Chord direction as fallback when the derivative degenerates
	fallback := vmath.FacingOf(vmath.V3Sub(p2, p1), 0)
	return pos, vmath.FacingOf(der, fallback)
}

// Evaluate maps progress in [0,1] over travel time to position and facing
// Cyclic curves wrap out-of-range progress; acyclic curves clamp to the
// final segment and report terminal=true
func (c *Curve) Evaluate(progress float64) (vmath.Vec3, float64, bool) {
	if c.travel <= 0 {
		pos, facing := c.EvaluateAt(0, 0)
		return pos, facing, !c.cyclic
	}

	terminal := false
	if c.cyclic {
		progress = progress - float64(int(progress)) // wrap into [0,1)
		if progress < 0 {
			progress += 1
		}
	} else if progress >= 1 {
		progress = 1
		terminal = true
	} else if progress < 0 {
		progress = 0
	}

	target := time.Duration(progress * float64(c.travel))
	var elapsed time.Duration
	for i := 0; i < c.SegmentCount(); i++ {
		st := c.segTimes[i]
		if target < elapsed+st || i == c.SegmentCount()-1 {
			u := 1.0
			if st > 0 {
				u = float64(target-elapsed) / float64(st)
			}
			pos, facing := c.EvaluateAt(i, u)
			return pos, facing, terminal
		}
		elapsed += st
	}

	pos, facing := c.EvaluateAt(c.SegmentCount()-1, 1)
	return pos, facing, terminal
}

// controls selects the four Catmull-Rom control points bracketing seg,
// wrapping for cyclic curves and clamping at acyclic ends
func (c *Curve) controls(seg int) (p0, p1, p2, p3 vmath.Vec3) {
	n := len(c.points)
	at := func(i int) vmath.Vec3 {
		if c.cyclic {
			return c.points[((i%n)+n)%n]
		}
		if i < 0 {
			i = 0
		}
		if i >= n {
			i = n - 1
		}
		return c.points[i]
	}
	return at(seg - 1), at(seg), at(seg + 1), at(seg + 2)
}
