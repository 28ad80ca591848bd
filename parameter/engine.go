package parameter

// EventQueueSize is the ring buffer capacity for simulation events
// Must be a power of two for mask-based indexing
const EventQueueSize = 1024

// EventBufferMask wraps ring indices without modulo
const EventBufferMask = EventQueueSize - 1
