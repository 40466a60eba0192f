package game

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
)

// IsBetween returns true if v lies on the closed segment between a and b. The order of a and b does not
// matter.
func IsBetween(a, b, v float64) bool {
	return v >= min(a, b) && v <= max(a, b)
}

// Inside returns true if every axis of point lies between the matching axes of the two corners.
func Inside(cornerA, cornerB, point mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if !IsBetween(cornerA[i], cornerB[i], point[i]) {
			return false
		}
	}
	return true
}

// Region is an axis-aligned box of blocks. Min is lower than or equal to Max on every axis.
type Region struct {
	Min, Max cube.Pos
}

// NewRegion creates a Region spanning the two corners passed, in any order.
func NewRegion(a, b cube.Pos) Region {
	return Region{
		Min: cube.Pos{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])},
		Max: cube.Pos{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])},
	}
}

// Contains returns true if the block position is inside the region, edges included.
func (r Region) Contains(pos cube.Pos) bool {
	return Inside(r.Min.Vec3(), r.Max.Vec3(), pos.Vec3())
}

// ContainsVec3 returns true if the point is inside the blocks spanned by the region.
func (r Region) ContainsVec3(v mgl64.Vec3) bool {
	return r.Contains(cube.PosFromVec3(v))
}

// Grow returns a copy of the region expanded by n blocks on every side.
func (r Region) Grow(n int) Region {
	return Region{
		Min: r.Min.Sub(cube.Pos{n, n, n}),
		Max: r.Max.Add(cube.Pos{n, n, n}),
	}
}

// Size returns the number of blocks the region spans on every axis.
func (r Region) Size() cube.Pos {
	return r.Max.Sub(r.Min).Add(cube.Pos{1, 1, 1})
}

// WithFloor returns a copy of the region whose bottom is raised to y. The floor never drops below the
// bottom of the region nor rises above its top.
func (r Region) WithFloor(y int) Region {
	r.Min[1] = max(r.Min[1], min(y, r.Max[1]))
	return r
}

// String ...
func (r Region) String() string {
	return fmt.Sprintf("%v -> %v", r.Min, r.Max)
}
