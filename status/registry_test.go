package status

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestMetricMapGetCachesPointer(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()

	a := m.Get("transport.instances")
	b := m.Get("transport.instances")
	if a != b {
		t.Errorf("Expected the same pointer for repeated Get")
	}

	a.Add(3)
	if b.Load() != 3 {
		t.Errorf("Expected writes visible through both pointers")
	}
	if m.Count() != 1 {
		t.Errorf("Expected 1 metric, got %d", m.Count())
	}
}

func TestMetricMapRangeSorted(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()
	for _, k := range []string{"c", "a", "b"} {
		m.Get(k)
	}

	var keys []string
	m.Range(func(key string, _ *atomic.Int64) {
		keys = append(keys, key)
	})
	want := []string{"a", "b", "c"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("Position %d: expected %q, got %q", i, k, keys[i])
		}
	}
}

func TestMetricMapConcurrentGet(t *testing.T) {
	m := NewMetricMap[atomic.Int64]()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Get("shared").Add(1)
			}
		}()
	}
	wg.Wait()

	if got := m.Get("shared").Load(); got != 1600 {
		t.Errorf("Expected 1600, got %d", got)
	}
}

func TestAtomicFloat(t *testing.T) {
	var f AtomicFloat
	f.Set(1.5)
	if got := f.Get(); got != 1.5 {
		t.Errorf("Expected 1.5, got %v", got)
	}
	if got := f.Add(0.25); got != 1.75 {
		t.Errorf("Expected 1.75 after add, got %v", got)
	}
}

func TestRegistryTotalCount(t *testing.T) {
	r := NewRegistry()
	r.Ints.Get("sim.ticks")
	r.Ints.Get("transport.instances")
	r.Bools.Get("sim.running")
	r.Floats.Get("sim.load")

	if got := r.TotalCount(); got != 4 {
		t.Errorf("Expected 4 metrics, got %d", got)
	}
}
