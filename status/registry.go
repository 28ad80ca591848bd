package status

import "sync/atomic"

// Registry is the central metrics facade
// Simulation code caches pointers during init; tick loops write directly
// to atomics. Well-known keys:
//
//	sim.ticks                 total world ticks
//	transport.instances       live instance count
//	transport.boardings       successful Board calls
//	transport.rejections      rejected Board calls
//	transport.migrations      completed partition crossings
//	transport.migration_retry migrations deferred to a later tick
//	transport.invariants      defect-class conditions observed
//	load.definitions          definitions built at load
//	load.rejected             definitions rejected at load
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

// NewRegistry creates an initialized Registry
func NewRegistry() *Registry {
	return &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// TotalCount returns total metrics across all types
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count()
}
