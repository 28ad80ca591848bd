package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/lixenwraith/transit/config"
	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/staticdata"
	"github.com/lixenwraith/transit/status"
	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
	"github.com/lixenwraith/transit/world"
)

// noopRelocator satisfies the world-layer movement primitives for a
// standalone run without a surrounding object layer
type noopRelocator struct{}

func (noopRelocator) RelocateWithinPartition(transport.Passenger, uint32, vmath.Vec3, float64) {}
func (noopRelocator) TeleportAcrossPartition(transport.Passenger, uint32, vmath.Vec3, float64) bool {
	return true
}

// logTriggers routes path-node triggers to the log in place of scripting
type logTriggers struct {
	logger *log.Logger
}

func (t logTriggers) FireTrigger(trigger uint32, source uint64, departure bool) bool {
	kind := "arrival"
	if departure {
		kind = "departure"
	}
	t.logger.Printf("trigger %d (%s) fired by instance %d", trigger, kind, source)
	return true
}

func (t logTriggers) OnScriptEvent(trigger uint32, source uint64) {
	t.logger.Printf("script event %d from instance %d", trigger, source)
}

func main() {
	logger := log.New(os.Stderr, "transit: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var src staticdata.Source
	if cfg.DBPath != "" {
		db, err := staticdata.Open(cfg.DBPath)
		if err != nil {
			logger.Fatalf("static data: %v", err)
		}
		defer db.Close()

		problems, err := db.CheckIntegrity()
		if err != nil {
			logger.Fatalf("static data integrity: %v", err)
		}
		for _, p := range problems {
			logger.Printf("static data: %s", p)
		}
		src = db
	} else {
		logger.Printf("no TRANSIT_DB set, using built-in demo dataset")
		src = staticdata.Demo()
	}

	reg := status.NewRegistry()
	queue := event.NewQueue()
	w := world.New(world.Options{
		Log:       logger,
		Status:    reg,
		Events:    queue,
		Relocator: noopRelocator{},
		Triggers:  logTriggers{logger: logger},
		Parallel:  cfg.Parallel,
	})

	for _, pid := range cfg.Partitions {
		w.AddPartition(pid, vmath.Vec3{})
	}

	if err := w.LoadDefinitions(src); err != nil {
		logger.Fatalf("loading definitions: %v", err)
	}
	w.InitializeAll()
	for _, pid := range cfg.Partitions {
		w.ActivateForPartition(pid)
	}

	sched := world.NewScheduler(w, cfg.TickInterval)
	if err := sched.Start(); err != nil {
		logger.Fatalf("scheduler: %v", err)
	}

	logger.Printf("simulation running: %d partitions, tick %v", len(cfg.Partitions), cfg.TickInterval)

	statusTicker := time.NewTicker(cfg.StatusInterval)
	defer statusTicker.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-statusTicker.C:
			dumpStatus(logger, reg)
			// Drain observer events so the ring never wraps unseen
			for _, ev := range queue.Consume() {
				if ev.Type == event.TypeMigration {
					logger.Printf("instance %d of definition %d migrated %d -> %d",
						ev.Transport, ev.Definition, ev.Aux, ev.Partition)
				}
			}
		case sig := <-sigChan:
			logger.Printf("received %v, shutting down", sig)
			sched.Stop()
			dumpStatus(logger, reg)
			return
		}
	}
}

func dumpStatus(logger *log.Logger, reg *status.Registry) {
	var line string
	reg.Ints.Range(func(key string, ptr *atomic.Int64) {
		line += fmt.Sprintf(" %s=%d", key, ptr.Load())
	})
	logger.Printf("status:%s", line)
}
