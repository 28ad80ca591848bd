package event

import "testing"

type countingHandler struct {
	types    []Type
	received []Event
}

func (h *countingHandler) HandleEvent(ev Event) { h.received = append(h.received, ev) }
func (h *countingHandler) EventTypes() []Type   { return h.types }

func TestRouterDispatch(t *testing.T) {
	q := NewQueue()
	r := NewRouter(q)

	arrivals := &countingHandler{types: []Type{TypeArrival}}
	all := &countingHandler{types: []Type{TypeArrival, TypeDeparture, TypeMigration}}
	r.Register(arrivals)
	r.Register(all)

	q.Push(Event{Type: TypeArrival, Transport: 1})
	q.Push(Event{Type: TypeDeparture, Transport: 2})
	q.Push(Event{Type: TypeBoarded, Transport: 3})

	r.DispatchAll()

	if len(arrivals.received) != 1 {
		t.Errorf("Expected 1 arrival, got %d", len(arrivals.received))
	}
	if len(all.received) != 2 {
		t.Errorf("Expected 2 events for the broad handler, got %d", len(all.received))
	}
	if all.received[0].Transport != 1 || all.received[1].Transport != 2 {
		t.Errorf("Expected FIFO dispatch order")
	}

	// The boarded event had no handler and was discarded with the batch
	if q.Len() != 0 {
		t.Errorf("Expected queue drained after dispatch")
	}
}

func TestRouterHasHandlers(t *testing.T) {
	r := NewRouter(NewQueue())
	if r.HasHandlers(TypeArrival) {
		t.Errorf("Expected no handlers before registration")
	}
	r.Register(&countingHandler{types: []Type{TypeArrival}})
	if !r.HasHandlers(TypeArrival) {
		t.Errorf("Expected a handler after registration")
	}
	if r.HasHandlers(TypeMigration) {
		t.Errorf("Expected no handler for unregistered type")
	}
}
