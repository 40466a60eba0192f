package bot

import (
	"context"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tedious-mc/tedious/game"
)

// Goal is a destination for the Navigator.
type Goal interface {
	// Target returns the position the navigator heads for.
	Target(from mgl64.Vec3) mgl64.Vec3
	// Reached returns true if pos satisfies the goal.
	Reached(pos mgl64.Vec3) bool
}

// GoalNear is reached within Radius blocks of Pos.
type GoalNear struct {
	Pos    mgl64.Vec3
	Radius float64
}

func (g GoalNear) Target(mgl64.Vec3) mgl64.Vec3 { return g.Pos }

func (g GoalNear) Reached(pos mgl64.Vec3) bool {
	return pos.Sub(g.Pos).Len() <= g.Radius
}

// GoalXZ is reached in the column of X and Z, at any height.
type GoalXZ struct {
	X, Z int
}

func (g GoalXZ) Target(from mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(g.X) + 0.5, from.Y(), float64(g.Z) + 0.5}
}

func (g GoalXZ) Reached(pos mgl64.Vec3) bool {
	p := cube.PosFromVec3(pos)
	return p.X() == g.X && p.Z() == g.Z
}

// GoalLookAtBlock is reached when the block at Pos is within Reach blocks of the eyes of the bot.
type GoalLookAtBlock struct {
	Pos   cube.Pos
	Reach float64
}

func (g GoalLookAtBlock) Target(from mgl64.Vec3) mgl64.Vec3 {
	centre := g.Pos.Vec3Centre()
	// Stop next to the block rather than inside of it.
	dir := mgl64.Vec3{from.X() - centre.X(), 0, from.Z() - centre.Z()}
	if dir.Len() == 0 {
		return mgl64.Vec3{centre.X(), from.Y(), centre.Z()}
	}
	dir = dir.Normalize().Mul(min(g.Reach-1, game.HorizontalDistance(from, centre)))
	return mgl64.Vec3{centre.X() + dir.X(), from.Y(), centre.Z() + dir.Z()}
}

func (g GoalLookAtBlock) Reached(pos mgl64.Vec3) bool {
	return pos.Add(mgl64.Vec3{0, EyeHeight}).Sub(g.Pos.Vec3Centre()).Len() <= g.Reach
}

const (
	// EyeHeight is the height of the eyes of the bot above its feet.
	EyeHeight = 1.62
	// Reach is the distance from the eyes within which blocks can be interacted with.
	Reach = 4.5
)

// Navigator moves the bot to goals.
type Navigator interface {
	// Goto moves the bot until the goal is reached. It returns an error if the goal cannot be reached or
	// the context is done before it is.
	Goto(ctx context.Context, g Goal) error
	// Stop stops the current movement, if any.
	Stop()
}
