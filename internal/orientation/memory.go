package orientation

import "rollcube/client/internal/grid"

// MemoryGroup is a transform group with no renderer behind it. The headless
// client and the tests both use it.
type MemoryGroup struct {
	rotation grid.Vec3
	up       grid.Vec3
}

func NewMemoryGroup() *MemoryGroup {
	return &MemoryGroup{up: grid.Vec3{Y: 1}}
}

func (g *MemoryGroup) Rotation() grid.Vec3 { return g.rotation }

func (g *MemoryGroup) SetRotation(r grid.Vec3) { g.rotation = r }

func (g *MemoryGroup) Up() grid.Vec3 { return g.up }

func (g *MemoryGroup) SetUp(up grid.Vec3) { g.up = up }

// MemoryGroups returns a full headless group set.
func MemoryGroups() Groups {
	return Groups{
		World:  NewMemoryGroup(),
		Lights: NewMemoryGroup(),
		Camera: NewMemoryGroup(),
	}
}
