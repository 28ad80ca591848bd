package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/transit/config"
	"github.com/lixenwraith/transit/event"
	"github.com/lixenwraith/transit/staticdata"
	"github.com/lixenwraith/transit/status"
	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
	"github.com/lixenwraith/transit/world"
)

const (
	feedLines = 6
	// World units mapped into a pane; demo routes fit in this box
	worldExtent = 170.0
)

type noopRelocator struct{}

func (noopRelocator) RelocateWithinPartition(transport.Passenger, uint32, vmath.Vec3, float64) {}
func (noopRelocator) TeleportAcrossPartition(transport.Passenger, uint32, vmath.Vec3, float64) bool {
	return true
}

type silentTriggers struct{}

func (silentTriggers) FireTrigger(uint32, uint64, bool) bool { return true }
func (silentTriggers) OnScriptEvent(uint32, uint64)          {}

type Viewer struct {
	screen        tcell.Screen
	width, height int

	cfg   config.Config
	world *world.World
	queue *event.Queue

	feed []string

	audioInit bool
}

func NewViewer(cfg config.Config) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	v := &Viewer{
		screen: screen,
		cfg:    cfg,
		queue:  event.NewQueue(),
	}
	v.width, v.height = screen.Size()

	if cfg.Sound {
		if err := v.initAudio(); err != nil {
			// Non-fatal, viewer can run without sound
			log.Printf("Audio initialization failed: %v", err)
		}
	}

	return v, nil
}

func (v *Viewer) initAudio() error {
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		v.audioInit = true
	}
	return err
}

// playChime plays a short tone; arrivals ring higher than departures
func (v *Viewer) playChime(freq float64) {
	if !v.audioInit {
		return
	}
	sampleRate := beep.SampleRate(44100)
	duration := sampleRate.N(60 * time.Millisecond)
	sine, _ := generators.SineTone(sampleRate, freq)
	speaker.Play(beep.Take(duration, sine))
}

func (v *Viewer) setupWorld() error {
	var src staticdata.Source
	if v.cfg.DBPath != "" {
		db, err := staticdata.Open(v.cfg.DBPath)
		if err != nil {
			return err
		}
		src = db
	} else {
		src = staticdata.Demo()
	}

	v.world = world.New(world.Options{
		Log:       log.New(os.Stderr, "", 0),
		Status:    status.NewRegistry(),
		Events:    v.queue,
		Relocator: noopRelocator{},
		Triggers:  silentTriggers{},
		Parallel:  v.cfg.Parallel,
	})
	for _, pid := range v.cfg.Partitions {
		v.world.AddPartition(pid, vmath.Vec3{})
	}
	if err := v.world.LoadDefinitions(src); err != nil {
		return err
	}
	v.world.InitializeAll()
	for _, pid := range v.cfg.Partitions {
		v.world.ActivateForPartition(pid)
	}
	return nil
}

func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			if ev.Rune() == 'q' {
				return false
			}
		}
	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
	}
	return true
}

// drainEvents consumes observer events into the feed and rings chimes
func (v *Viewer) drainEvents() {
	for _, ev := range v.queue.Consume() {
		switch ev.Type {
		case event.TypeArrival:
			v.playChime(880)
			v.pushFeed(fmt.Sprintf("arrival    transport %d at (%.0f, %.0f) on partition %d",
				ev.Transport, ev.Pos.X, ev.Pos.Y, ev.Partition))
		case event.TypeDeparture:
			v.playChime(660)
			v.pushFeed(fmt.Sprintf("departure  transport %d from partition %d", ev.Transport, ev.Partition))
		case event.TypeMigration:
			v.pushFeed(fmt.Sprintf("migration  transport %d moved %d -> %d", ev.Transport, ev.Aux, ev.Partition))
		case event.TypeBoarded:
			v.pushFeed(fmt.Sprintf("boarded    passenger %d onto transport %d", ev.Passenger, ev.Transport))
		case event.TypeUnboarded:
			v.pushFeed(fmt.Sprintf("unboarded  passenger %d from transport %d", ev.Passenger, ev.Transport))
		case event.TypeInvariant:
			v.pushFeed(fmt.Sprintf("INVARIANT  code %d transport %d", ev.Aux, ev.Transport))
		}
	}
}

func (v *Viewer) pushFeed(line string) {
	v.feed = append(v.feed, line)
	if len(v.feed) > feedLines {
		v.feed = v.feed[len(v.feed)-feedLines:]
	}
}

func (v *Viewer) draw() {
	v.screen.Clear()

	paneHeight := v.height - feedLines - 1
	if paneHeight < 3 || len(v.cfg.Partitions) == 0 {
		v.screen.Show()
		return
	}
	paneWidth := v.width / len(v.cfg.Partitions)

	for i, pid := range v.cfg.Partitions {
		x0 := i * paneWidth
		v.drawPane(pid, x0, paneWidth, paneHeight)
	}

	feedStyle := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for i, line := range v.feed {
		drawText(v.screen, 0, paneHeight+1+i, feedStyle, line)
	}

	v.screen.Show()
}

func (v *Viewer) drawPane(pid uint32, x0, w, h int) {
	p := v.world.Partition(pid)
	if p == nil {
		return
	}

	border := tcell.StyleDefault.Foreground(tcell.ColorGray)
	for y := 0; y < h; y++ {
		v.screen.SetContent(x0, y, '|', nil, border)
	}
	title := fmt.Sprintf(" partition %d (%d) ", pid, p.InstanceCount())
	drawText(v.screen, x0+2, 0, tcell.StyleDefault.Bold(true), title)

	for _, inst := range p.Snapshot() {
		pos := inst.Position()
		x := x0 + 1 + int(pos.X/worldExtent*float64(w-2))
		y := 1 + int(pos.Y/worldExtent*float64(h-2))
		if x <= x0 || x >= x0+w || y < 1 || y >= h {
			continue
		}

		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		if inst.State() == transport.StateStopped {
			style = tcell.StyleDefault.Foreground(tcell.ColorYellow)
		}
		glyph := '@'
		if name := inst.Definition().Template.Name; len(name) > 0 {
			glyph = rune(name[0])
		}
		v.screen.SetContent(x, y, glyph, nil, style)

		label := fmt.Sprintf("%d:%s", inst.ID(), inst.State())
		drawText(v.screen, x+2, y, tcell.StyleDefault.Foreground(tcell.ColorGray), label)
	}
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}

func (v *Viewer) run() {
	ticker := time.NewTicker(v.cfg.TickInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- v.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}

		case <-ticker.C:
			v.world.Tick(v.cfg.TickInterval)
			v.drainEvents()
			v.draw()
		}
	}
}

func (v *Viewer) cleanup() {
	if v.audioInit {
		speaker.Close()
	}
	v.screen.Fini()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	viewer, err := NewViewer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := viewer.setupWorld(); err != nil {
		viewer.cleanup()
		fmt.Fprintf(os.Stderr, "Failed to set up simulation: %v\n", err)
		os.Exit(1)
	}
	defer viewer.cleanup()

	viewer.run()
}
