package bot

import (
	"context"
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tedious-mc/tedious/inventory"
)

// Block is a snapshot of a block in the world.
type Block struct {
	Pos cube.Pos
	// Name is the block identifier without the namespace, e.g. "stone".
	Name string
	// Tag is the mining material of the block, such as "mineable/pickaxe".
	Tag string
	// Diggable is false for air, liquids and unbreakable blocks.
	Diggable bool
}

// Air returns true if the block holds nothing.
func (b Block) Air() bool {
	return b.Name == "" || b.Name == "air"
}

// Entity is a snapshot of an entity other than the bot itself.
type Entity struct {
	ID uint64
	// Type is the entity identifier without the namespace, e.g. "zombie".
	Type string
	Pos  mgl64.Vec3
}

// DroppedItem is an item entity lying on the ground.
type DroppedItem struct {
	ID    uint64
	Name  string
	Count int
	Pos   mgl64.Vec3
}

// Status holds the vital values of the bot.
type Status struct {
	Pos      mgl64.Vec3
	Health   float64
	Food     float64
	XPLevel  int
	XPTotal  float64
	Spawned  bool
	Username string
}

// String ...
func (s Status) String() string {
	return fmt.Sprintf("pos=(%.1f, %.1f, %.1f) health=%.1f food=%.1f level=%d", s.Pos[0], s.Pos[1], s.Pos[2], s.Health, s.Food, s.XPLevel)
}

// Client is the world client the behaviors act through. Every method that waits on the server takes a
// context and returns once the server confirmed the action or the context is done.
type Client interface {
	inventory.Holder

	// Name returns the username of the bot.
	Name() string
	// Position returns the position of the feet of the bot.
	Position() mgl64.Vec3
	Status() Status

	// Block returns the block at the position passed. Unloaded blocks are air.
	Block(pos cube.Pos) Block
	// CanReach returns true if the block at pos is within interaction range.
	CanReach(pos cube.Pos) bool
	Entities() []Entity
	DroppedItems() []DroppedItem

	// UseItem starts using the item in the hand passed, such as eating food.
	UseItem(ctx context.Context, hand inventory.Hand) error
	// ReleaseItem stops using the item currently in use.
	ReleaseItem(ctx context.Context) error
	// Consume waits until the item in use has been consumed.
	Consume(ctx context.Context) error
	BreakBlock(ctx context.Context, pos cube.Pos) error
	// PlaceBlock places the held block against the face of the block at pos.
	PlaceBlock(ctx context.Context, against cube.Pos, face cube.Face) error
	OpenContainer(ctx context.Context, pos cube.Pos) (inventory.Container, error)
	LookAt(ctx context.Context, pos mgl64.Vec3) error
	Attack(ctx context.Context, id uint64) error

	// Chat sends a chat message, or runs a command if msg starts with a slash.
	Chat(msg string) error
	// WaitTicks waits n game ticks.
	WaitTicks(ctx context.Context, n int) error
	// WaitForRelocation waits until the server moves the bot.
	WaitForRelocation(ctx context.Context) error
}

// Conn is a Client backed by a live connection.
type Conn interface {
	Client
	// Handle sets the handler that events of the connection are passed to.
	Handle(h Handler)
	// Respawn respawns the bot after it died.
	Respawn(ctx context.Context) error
	// Done is closed once the connection is closed.
	Done() <-chan struct{}
	// Close disconnects from the server.
	Close() error
}
