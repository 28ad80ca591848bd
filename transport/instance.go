package transport

import (
	"sync/atomic"
	"time"

	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/parameter"
	"github.com/lixenwraith/transit/path"
	"github.com/lixenwraith/transit/status"
	"github.com/lixenwraith/transit/vmath"
)

// State of the per-instance motion machine
type State uint8

const (
	// StateTransiting advances along the current curve segment
	StateTransiting State = iota

	// StateStopped counts down a node's stop delay before departing
	StateStopped

	// StateArrived is terminal for this partition run: the instance awaits
	// directory-driven migration or teardown (acyclic routes only)
	StateArrived
)

func (s State) String() string {
	switch s {
	case StateTransiting:
		return "transiting"
	case StateStopped:
		return "stopped"
	case StateArrived:
		return "arrived"
	}
	return "unknown"
}

// Env injects the world-layer collaborators an instance needs
// All fields are optional; nil collaborators are skipped
type Env struct {
	Triggers TriggerHandler
	Events   *event.Queue
	Status   *status.Registry
	Reloc    Relocator
}

// Instance is one live, simulated occurrence of a definition on one
// partition. Owned and ticked by exactly that partition; the directory is
// the only other code that touches it, and only during migration on the
// owning partition's tick
type Instance struct {
	id  uint64
	def *Definition
	env Env

	routeIndex int
	curve      *path.Curve
	partition  uint32

	state         State
	segment       int
	segElapsed    time.Duration
	stopRemaining time.Duration
	atNode        int

	pos    vmath.Vec3
	facing float64

	// Republish batching: passengers get fresh global positions only when
	// the carrier has moved past the thresholds, checked on a fixed cadence
	repubTimer    time.Duration
	lastPub       vmath.Vec3
	lastPubFacing float64

	registry *Registry

	// Boarding record when this instance is itself carried (vehicle on a
	// ferry); nil for top-level transports
	boarding *Boarding

	statBoard, statReject, statInvariant *atomic.Int64
}

// NewInstance creates a live instance positioned at the start of the
// definition's routeIndex-th curve
func NewInstance(id uint64, def *Definition, routeIndex int, env Env) *Instance {
	in := &Instance{
		id:  id,
		def: def,
		env: env,
	}
	in.registry = newRegistry(in)
	if env.Status != nil {
		in.statBoard = env.Status.Ints.Get("transport.boardings")
		in.statReject = env.Status.Ints.Get("transport.rejections")
		in.statInvariant = env.Status.Ints.Get("transport.invariants")
	}
	in.resetToCurve(routeIndex)
	return in
}

func (in *Instance) ID() uint64              { return in.id }
func (in *Instance) Definition() *Definition { return in.def }
func (in *Instance) Partition() uint32       { return in.partition }
func (in *Instance) RouteIndex() int         { return in.routeIndex }
func (in *Instance) State() State            { return in.state }
func (in *Instance) Position() vmath.Vec3    { return in.pos }
func (in *Instance) Facing() float64         { return in.facing }
func (in *Instance) Registry() *Registry     { return in.registry }

// StopRemaining is the time left at the current stop node, 0 otherwise
func (in *Instance) StopRemaining() time.Duration { return in.stopRemaining }

// Passenger implementation for nested boarding (a transport riding a
// larger transport). Transports never cross partitions as passengers;
// migration is the directory's job
func (in *Instance) Boarding() *Boarding      { return in.boarding }
func (in *Instance) SetBoarding(b *Boarding)  { in.boarding = b }
func (in *Instance) CanCrossPartitions() bool { return false }

// Tick advances the instance by diff and returns true when the instance
// has reached the end of its partition run and requests migration
//
// Boundary tie-break is deterministic: accumulated time equal to a segment
// boundary advances past it, so replaying the same tick sequence from the
// same state always yields the same node-crossing count
func (in *Instance) Tick(diff time.Duration) bool {
	if in.state == StateArrived {
		// Migration could not complete on an earlier tick; ask again
		return true
	}

	remaining := diff
	for remaining > 0 {
		switch in.state {
		case StateStopped:
			if in.stopRemaining > remaining {
				in.stopRemaining -= remaining
				remaining = 0
				continue
			}
			remaining -= in.stopRemaining
			in.stopRemaining = 0
			in.state = StateTransiting
			in.fireTrigger(in.atNode, true)

		case StateTransiting:
			need := in.curve.SegmentTime(in.segment) - in.segElapsed
			if need > remaining {
				in.segElapsed += remaining
				remaining = 0
				continue
			}
			remaining -= need
			in.crossNode()
			if in.state == StateArrived {
				remaining = 0
			}
		}
	}

	in.updatePosition()
	in.maybeRepublish(diff)

	return in.state == StateArrived
}

// crossNode fires the arrival at the node just reached and selects the
// next state. Each node crossing fires its trigger at most once
func (in *Instance) crossNode() {
	arrived := in.segment + 1
	if arrived >= in.curve.PointCount() {
		// Closing segment of a cyclic curve wraps to the origin
		arrived = 0
	}

	in.atNode = arrived
	in.segment = arrived
	in.segElapsed = 0
	in.fireTrigger(arrived, false)

	if !in.curve.Cyclic() && arrived == in.curve.PointCount()-1 {
		in.state = StateArrived
		in.segment = in.curve.SegmentCount() - 1
		in.segElapsed = in.curve.SegmentTime(in.segment)
		return
	}

	if delay := in.curve.Delay(arrived); delay > 0 {
		in.state = StateStopped
		in.stopRemaining = delay
		return
	}
	in.state = StateTransiting
}

func (in *Instance) updatePosition() {
	switch in.state {
	case StateArrived:
		in.pos = in.curve.Point(in.curve.PointCount() - 1)
	case StateStopped:
		in.pos, in.facing = in.curve.EvaluateAt(in.segment, 0)
	case StateTransiting:
		st := in.curve.SegmentTime(in.segment)
		u := 0.0
		if st > 0 {
			u = float64(in.segElapsed) / float64(st)
		}
		in.pos, in.facing = in.curve.EvaluateAt(in.segment, u)
	}
}

// maybeRepublish pushes fresh global positions to passengers when the
// carrier moved past the spatial/angular thresholds since the last publish
// Checked on a fixed cadence independent of the motion tick; approximate
// positions between publishes are acceptable downstream
func (in *Instance) maybeRepublish(diff time.Duration) {
	in.repubTimer -= diff
	if in.repubTimer > 0 {
		return
	}
	// Re-arm keeping the overshoot so the cadence holds across tick sizes
	// that do not divide it
	in.repubTimer += parameter.RepublishCadence
	if in.repubTimer < 0 {
		in.repubTimer = parameter.RepublishCadence
	}

	if vmath.V3DistManhattan(in.pos, in.lastPub) > parameter.RepublishPositionDelta ||
		vmath.OrientationDelta(in.facing, in.lastPubFacing) > parameter.RepublishOrientationDelta {
		in.registry.UpdateAll(in.env.Reloc)
		in.lastPub = in.pos
		in.lastPubFacing = in.facing
	}
}

// JumpToCurve relocates the instance to the start of another curve of its
// definition within the same partition (teleport-split paths). Passengers
// move with the carrier
func (in *Instance) JumpToCurve(routeIndex int) {
	in.resetToCurve(routeIndex)
	in.registry.UpdateAll(in.env.Reloc)
}

func (in *Instance) resetToCurve(routeIndex int) {
	in.routeIndex = routeIndex
	in.curve = in.def.Curves[routeIndex]
	in.partition = in.curve.Partition()
	in.segment = 0
	in.segElapsed = 0
	in.atNode = 0
	in.pos, in.facing = in.curve.Start()
	in.lastPub = in.pos
	in.lastPubFacing = in.facing
	in.repubTimer = parameter.RepublishCadence

	if delay := in.curve.Delay(0); delay > 0 {
		in.state = StateStopped
		in.stopRemaining = delay
	} else {
		in.state = StateTransiting
		in.stopRemaining = 0
	}
}

// fireTrigger dispatches the node's trigger, falling back to the generic
// script-event path when unhandled, and publishes an observer event
func (in *Instance) fireTrigger(node int, departure bool) {
	var trigger uint32
	evType := event.TypeArrival
	if departure {
		trigger = in.curve.DepartureTrigger(node)
		evType = event.TypeDeparture
	} else {
		trigger = in.curve.ArrivalTrigger(node)
	}

	in.pushEvent(event.Event{
		Type:    evType,
		Trigger: trigger,
		Pos:     in.curve.Point(node),
	})

	if trigger == 0 || in.env.Triggers == nil {
		return
	}
	if !in.env.Triggers.FireTrigger(trigger, in.id, departure) {
		in.env.Triggers.OnScriptEvent(trigger, in.id)
	}
}

func (in *Instance) pushEvent(ev event.Event) {
	if in.env.Events == nil {
		return
	}
	ev.Definition = in.def.Template.Entry
	ev.Transport = in.id
	ev.Partition = in.partition
	if ev.Pos == (vmath.Vec3{}) {
		ev.Pos = in.pos
	}
	in.env.Events.Push(ev)
}

// reportInvariant records a defect-class condition without aborting the
// simulation; only the affected instance's processing is degraded
func (in *Instance) reportInvariant(code uint32, subject uint64) {
	if in.statInvariant != nil {
		in.statInvariant.Add(1)
	}
	in.pushEvent(event.Event{
		Type:      event.TypeInvariant,
		Aux:       code,
		Passenger: subject,
	})
}

func (in *Instance) statBoardings(n int64) {
	if in.statBoard != nil {
		in.statBoard.Add(n)
	}
}

func (in *Instance) statRejections(n int64) {
	if in.statReject != nil {
		in.statReject.Add(n)
	}
}
