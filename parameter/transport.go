package parameter

import "time"

// Physical model for transport movement
// Values match the legacy acceleration profile: unit acceleration up to a
// capped cruise speed, dwell timing sampled on a 100ms grid
const (
	// TransportAccel is the constant acceleration near stops, units/s²
	TransportAccel = 1.0

	// TransportCruiseSpeed caps travel speed between stops, units/s
	TransportCruiseSpeed = 30.0

	// TimetableStep is the sampling grid of the legacy timetable backend
	TimetableStep = 100 * time.Millisecond
)

// Passenger carrying constraints
const (
	// BoardingEnvelope bounds |x|, |y|, |z| of a local boarding offset
	BoardingEnvelope = 50.0

	// SeatUnseated marks a passenger without an assigned seat
	SeatUnseated uint8 = 255

	// MaxBoardingDepth bounds nested-boarding recursion and chain walks
	// The data model forbids cycles but does not structurally prevent them
	MaxBoardingDepth = 16
)

// Passenger global-position republish batching
// Positions are approximate between republishes; downstream consumers only
// need them for server-side range checks
const (
	// RepublishCadence is how often movement thresholds are checked
	RepublishCadence = 500 * time.Millisecond

	// RepublishPositionDelta is the Manhattan-sum movement threshold
	RepublishPositionDelta = 1.0

	// RepublishOrientationDelta is the angular movement threshold, radians
	RepublishOrientationDelta = 0.01
)
