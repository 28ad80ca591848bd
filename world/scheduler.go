package world

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler drives the world on a fixed tick without busy-wait
// Each tick runs to completion; there is no cancellation mid-tick
type Scheduler struct {
	world    *World
	interval time.Duration

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	tickCount atomic.Uint64
}

// NewScheduler creates a scheduler ticking the world every interval
func NewScheduler(w *World, interval time.Duration) *Scheduler {
	return &Scheduler{
		world:    w,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start launches the tick loop goroutine
func (s *Scheduler) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already running")
	}
	s.wg.Add(1)
	go s.run()
	return nil
}

// Stop halts the loop and waits for the current tick to complete
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.running.Store(false)
}

// TickCount returns the number of completed ticks
func (s *Scheduler) TickCount() uint64 {
	return s.tickCount.Load()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			// Fixed timestep: simulation time advances by the interval
			// regardless of wall-clock jitter
			s.world.Tick(s.interval)
			s.tickCount.Add(1)
		}
	}
}
