package instanced

import (
	"fmt"

	"github.com/gogpu/instanced/gpucore"
)

// ShapeGroup is an ordered list of (Shape, AttributeBuffer) pairs drawn
// together, for scenes that mix geometries.
//
// Update syncs every member buffer once; Draw then issues the members'
// draw calls in push order without syncing again. Members are independent
// and never share buffers.
type ShapeGroup struct {
	members []*InstanceGroup
}

// NewShapeGroup returns an empty group.
func NewShapeGroup() *ShapeGroup {
	return &ShapeGroup{}
}

// Push appends a pair and returns the member wrapping it.
func (g *ShapeGroup) Push(shape *Shape, buf *AttributeBuffer) *InstanceGroup {
	m := NewInstanceGroupFromBuffer(shape, buf)
	g.members = append(g.members, m)
	return m
}

// PushGroup appends an existing instance group as a member.
func (g *ShapeGroup) PushGroup(m *InstanceGroup) {
	g.members = append(g.members, m)
}

// Len returns the number of members.
func (g *ShapeGroup) Len() int { return len(g.members) }

// Member returns member i in push order.
func (g *ShapeGroup) Member(i int) *InstanceGroup { return g.members[i] }

// Update steps every member's simulation and then syncs every member
// buffer, in push order.
func (g *ShapeGroup) Update() error {
	for i, m := range g.members {
		if err := m.Update(); err != nil {
			return fmt.Errorf("shape group member %d: %w", i, err)
		}
	}
	for i, m := range g.members {
		if err := m.attrs.Sync(); err != nil {
			return fmt.Errorf("shape group member %d: %w", i, err)
		}
	}
	return nil
}

// Draw issues one instanced draw call per member in push order. Buffers
// are drawn as of the last Update.
func (g *ShapeGroup) Draw(frame gpucore.Frame, programs Programs) error {
	for i, m := range g.members {
		if err := m.drawSynced(frame, programs); err != nil {
			return fmt.Errorf("shape group member %d: %w", i, err)
		}
	}
	return nil
}

// RotateAxis composes a rotation into every member buffer.
func (g *ShapeGroup) RotateAxis(axis int, angle float32) {
	for _, m := range g.members {
		m.RotateAxis(axis, angle)
	}
}

// Release releases every member.
func (g *ShapeGroup) Release() {
	for _, m := range g.members {
		m.Release()
	}
	g.members = nil
}

var (
	_ Object  = (*ShapeGroup)(nil)
	_ Rotator = (*ShapeGroup)(nil)
)
