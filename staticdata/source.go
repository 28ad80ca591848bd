package staticdata

import (
	"fmt"
	"sort"
	"time"

	"github.com/lixenwraith/transit/path"
	"github.com/lixenwraith/transit/transport"
	"github.com/lixenwraith/transit/vmath"
)

// Source provides the static transport data the simulation is built from
// The core owns no file format; persisted definitions and paths arrive
// through this interface
type Source interface {
	// Templates returns every transport template, in undefined order
	Templates() ([]transport.Template, error)

	// PathNodesFor returns the ordered waypoint list of a path
	PathNodesFor(pathID uint32) ([]path.Node, error)
}

// Memory is an in-process Source, used by tests and demo setups
type Memory struct {
	templates map[uint32]transport.Template
	paths     map[uint32][]path.Node
}

func NewMemory() *Memory {
	return &Memory{
		templates: make(map[uint32]transport.Template),
		paths:     make(map[uint32][]path.Node),
	}
}

// AddTemplate registers a template, replacing any previous one
func (m *Memory) AddTemplate(t transport.Template) {
	m.templates[t.Entry] = t
}

// AddPath registers a path's nodes in order
func (m *Memory) AddPath(pathID uint32, nodes []path.Node) {
	m.paths[pathID] = nodes
}

func (m *Memory) Templates() ([]transport.Template, error) {
	out := make([]transport.Template, 0, len(m.templates))
	for _, t := range m.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entry < out[j].Entry })
	return out, nil
}

func (m *Memory) PathNodesFor(pathID uint32) ([]path.Node, error) {
	nodes, ok := m.paths[pathID]
	if !ok {
		return nil, fmt.Errorf("path %d: not found", pathID)
	}
	return nodes, nil
}

// Demo returns a small two-partition world: a looping coastal ferry on
// partition 1 and an acyclic zeppelin route crossing from partition 1 to
// partition 2 with a dwell at the tower stop
func Demo() *Memory {
	m := NewMemory()

	m.AddTemplate(transport.Template{
		Entry: 100, Name: "coastal ferry", DisplayID: 1, Size: 1.0,
		PathID: 10, Loop: true,
	})
	m.AddPath(10, []path.Node{
		{Pos: vmath.Vec3{X: 10, Y: 10}, Partition: 1, Delay: 5 * time.Second},
		{Pos: vmath.Vec3{X: 110, Y: 15}, Partition: 1},
		{Pos: vmath.Vec3{X: 150, Y: 80}, Partition: 1, Delay: 5 * time.Second},
		{Pos: vmath.Vec3{X: 60, Y: 110}, Partition: 1},
	})

	m.AddTemplate(transport.Template{
		Entry: 200, Name: "zeppelin", DisplayID: 2, Size: 2.0,
		PathID: 20, Loop: true,
	})
	m.AddPath(20, []path.Node{
		{Pos: vmath.Vec3{X: 20, Y: 140, Z: 40}, Partition: 1, Delay: 8 * time.Second},
		{Pos: vmath.Vec3{X: 140, Y: 150, Z: 60}, Partition: 1},
		{Pos: vmath.Vec3{X: 30, Y: 30, Z: 60}, Partition: 2},
		{Pos: vmath.Vec3{X: 120, Y: 60, Z: 40}, Partition: 2, Delay: 8 * time.Second},
		{Pos: vmath.Vec3{X: 60, Y: 130, Z: 55}, Partition: 2},
	})

	return m
}
