// Package entity tracks the entities the server shows to the bot.
package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// playerEyeHeight is the offset between the position the server sends for players and their feet.
const playerEyeHeight = 1.62

// Entity is an entity in the world of the bot.
type Entity struct {
	// mu protects all the following fields.
	mu sync.Mutex
	// typ is the entity identifier without the namespace, e.g. "zombie", or "item" for dropped items.
	typ string
	// position is the position of the feet of the entity.
	position mgl64.Vec3
	// lastPosition is the position of the entity before the last move.
	lastPosition mgl64.Vec3
	// player is true if the entity is a player. The position of players is sent at eye height.
	player bool

	item      string
	itemCount int
}

// NewEntity creates an entity at the position passed.
func NewEntity(typ string, position mgl64.Vec3, player bool) *Entity {
	if player {
		position[1] -= playerEyeHeight
	}
	return &Entity{typ: typ, position: position, lastPosition: position, player: player}
}

// NewItem creates a dropped item entity.
func NewItem(name string, count int, position mgl64.Vec3) *Entity {
	return &Entity{typ: "item", position: position, lastPosition: position, item: name, itemCount: count}
}

func (e *Entity) Type() string {
	return e.typ
}

// Item returns the name and count of a dropped item. ok is false for other entities.
func (e *Entity) Item() (name string, count int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.item, e.itemCount, e.item != ""
}

// Position returns the position of the entity.
func (e *Entity) Position() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// LastPosition returns the last position of the entity.
func (e *Entity) LastPosition() mgl64.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPosition
}

// Move moves the entity to the position sent by the server.
func (e *Entity) Move(pos mgl64.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastPosition = e.position
	e.position = pos
	if e.player {
		e.position[1] -= playerEyeHeight
	}
}
