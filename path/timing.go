package path

import (
	"math"
	"time"

	"github.com/lixenwraith/transit/parameter"
	"github.com/lixenwraith/transit/vmath"
)

// Timing converts a run's control points into per-segment travel times
//
// Two backends exist for historical reasons: the continuous speed profile is
// canonical; the legacy timetable reproduces the old 100ms-grid dwell tables
// and is kept selectable per template for worlds tuned against it
type Timing interface {
	// SegmentTimes returns one duration per curve segment
	// stop[i] marks nodes the transport halts at; for a cyclic run the
	// last entry times the closing segment back to point 0
	SegmentTimes(points []vmath.Vec3, stop []bool, cyclic bool) []time.Duration
}

// SpeedProfile times segments analytically: constant acceleration away from
// a stop, constant deceleration into the next, cruise speed cap between
// Zero fields fall back to the legacy physical constants
type SpeedProfile struct {
	Accel    float64 // units/s²
	MaxSpeed float64 // units/s
}

func (sp SpeedProfile) params() (a, vmax float64) {
	a, vmax = sp.Accel, sp.MaxSpeed
	if a <= 0 {
		a = parameter.TransportAccel
	}
	if vmax <= 0 {
		vmax = parameter.TransportCruiseSpeed
	}
	return a, vmax
}

func (sp SpeedProfile) SegmentTimes(points []vmath.Vec3, stop []bool, cyclic bool) []time.Duration {
	a, vmax := sp.params()
	secs := segmentSeconds(points, stop, cyclic, a, vmax)
	out := make([]time.Duration, len(secs))
	for i, s := range secs {
		out[i] = time.Duration(s * float64(time.Second))
	}
	return out
}

// LegacyTimetable applies the same acceleration profile but quantizes node
// passing times onto a fixed sampling grid, as the original dwell-table
// generator did
type LegacyTimetable struct {
	Accel    float64
	MaxSpeed float64
	Step     time.Duration // 0 = TimetableStep
}

func (lt LegacyTimetable) SegmentTimes(points []vmath.Vec3, stop []bool, cyclic bool) []time.Duration {
	a, vmax := lt.Accel, lt.MaxSpeed
	if a <= 0 {
		a = parameter.TransportAccel
	}
	if vmax <= 0 {
		vmax = parameter.TransportCruiseSpeed
	}
	step := lt.Step
	if step <= 0 {
		step = parameter.TimetableStep
	}

	secs := segmentSeconds(points, stop, cyclic, a, vmax)

	// Quantize cumulative node times to the grid, keeping them monotonic
	// so a non-degenerate segment never collapses to zero
	out := make([]time.Duration, len(secs))
	var exact float64
	var prev time.Duration
	for i, s := range secs {
		exact += s
		q := time.Duration(math.Round(exact*float64(time.Second)/float64(step))) * step
		if s > 0 && q <= prev {
			q = prev + step
		}
		out[i] = q - prev
		prev = q
	}
	return out
}

// segmentSeconds computes per-segment travel time in seconds
//
// Between two consecutive stops the transport accelerates at a up to vmax,
// cruises, then decelerates symmetrically. Runs without any stop cruise at
// vmax throughout (steady-state loops)
func segmentSeconds(points []vmath.Vec3, stop []bool, cyclic bool, a, vmax float64) []float64 {
	n := len(points)
	segs := n - 1
	if cyclic {
		segs = n
	}
	if segs <= 0 {
		return nil
	}

	dist := make([]float64, segs)
	anyStop := false
	for i := 0; i < segs; i++ {
		dist[i] = vmath.V3Dist(points[i], points[(i+1)%n])
	}
	for i := 0; i < n; i++ {
		if stop != nil && i < len(stop) && stop[i] {
			anyStop = true
		}
	}

	out := make([]float64, segs)

	if !anyStop {
		for i := range dist {
			out[i] = dist[i] / vmax
		}
		return out
	}

	isStop := func(node int) bool {
		node = node % n
		return node < len(stop) && stop[node]
	}

	// Walk legs: maximal segment sequences between consecutive stops
	// For cyclic runs the walk starts at the first stop and wraps
	start := 0
	if cyclic {
		for i := 0; i < n; i++ {
			if isStop(i) {
				start = i
				break
			}
		}
	}

	var legDist []float64
	var legSegs []int
	flush := func() {
		d := 0.0
		for _, ld := range legDist {
			d += ld
		}
		t := legSeconds(d, a, vmax)
		s := 0.0
		tPrev := 0.0
		for k, ld := range legDist {
			s += ld
			var tNode float64
			if s >= d {
				tNode = t
			} else {
				tFrom := rampSeconds(s, a, vmax)
				tTo := rampSeconds(d-s, a, vmax)
				if tFrom <= tTo {
					tNode = tFrom
				} else {
					tNode = t - tTo
				}
			}
			out[legSegs[k]] = tNode - tPrev
			tPrev = tNode
		}
		legDist = legDist[:0]
		legSegs = legSegs[:0]
	}

	for k := 0; k < segs; k++ {
		seg := (start + k) % segs
		legDist = append(legDist, dist[seg])
		legSegs = append(legSegs, seg)
		if isStop(seg + 1) {
			flush()
		}
	}
	if len(legSegs) > 0 {
		flush()
	}
	return out
}

// rampSeconds is the time to cover distance s starting from rest at
// acceleration a, capped at vmax
func rampSeconds(s, a, vmax float64) float64 {
	rampDist := vmax * vmax / (2 * a)
	if s <= rampDist {
		return math.Sqrt(2 * s / a)
	}
	return vmax/a + (s-rampDist)/vmax
}

// legSeconds is the total stop-to-stop time over distance d
func legSeconds(d, a, vmax float64) float64 {
	if d <= 0 {
		return 0
	}
	if d <= vmax*vmax/a {
		// Ramps meet before reaching cruise speed
		return 2 * math.Sqrt(d/a)
	}
	return 2*vmax/a + (d-vmax*vmax/a)/vmax
}
