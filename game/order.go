package game

import (
	"cmp"
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/exp/slices"
)

// SortByAngle sorts items in a single sweep around the observer. The block directly beneath the observer's
// feet always sorts last, blocks at the level of the feet sort before blocks at any other level, and the
// rest is ordered by the angle on the XZ plane measured counter-clockwise from the +X axis. Ties are broken
// by height, highest first, and then by horizontal distance, closest first. The sort is stable.
func SortByAngle[T any](observer mgl64.Vec3, items []T, pos func(T) cube.Pos) {
	feet := cube.PosFromVec3(observer)
	beneath := feet.Side(cube.FaceDown)

	slices.SortStableFunc(items, func(a, b T) int {
		pa, pb := pos(a), pos(b)
		if c := compareBool(pa == beneath, pb == beneath); c != 0 {
			return c
		}
		if c := compareBool(pa[1] != feet[1], pb[1] != feet[1]); c != 0 {
			return c
		}
		if c := cmp.Compare(Azimuth(observer, pa), Azimuth(observer, pb)); c != 0 {
			return c
		}
		if c := cmp.Compare(pb[1], pa[1]); c != 0 {
			return c
		}
		return cmp.Compare(HorizontalDistance(observer, pa.Vec3Centre()), HorizontalDistance(observer, pb.Vec3Centre()))
	})
}

// Azimuth returns the angle in [0, 2π) between the +X axis and the direction from the observer to the
// centre of pos, projected on the XZ plane.
func Azimuth(observer mgl64.Vec3, pos cube.Pos) float64 {
	centre := pos.Vec3Centre()
	dx, dz := centre.X()-observer.X(), centre.Z()-observer.Z()
	if dx == 0 && dz == 0 {
		return 0
	}

	// The cross and dot products against the reference axis (1, 0) reduce to dz and dx.
	angle := math.Atan2(dz, dx)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	return angle
}

// compareBool orders false before true.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}
