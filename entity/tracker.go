package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Tracker holds the entities shown to the bot by runtime ID.
type Tracker struct {
	mu       sync.RWMutex
	entities map[uint64]*Entity
	// runtimeIDs maps unique IDs, which the server uses to remove entities, to runtime IDs.
	runtimeIDs map[int64]uint64
}

func NewTracker() *Tracker {
	return &Tracker{entities: make(map[uint64]*Entity), runtimeIDs: make(map[int64]uint64)}
}

// Add starts tracking an entity.
func (t *Tracker) Add(uid int64, rid uint64, e *Entity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entities[rid] = e
	t.runtimeIDs[uid] = rid
}

// Remove stops tracking the entity with the unique ID passed and returns it.
func (t *Tracker) Remove(uid int64) (uint64, *Entity, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rid, ok := t.runtimeIDs[uid]
	if !ok {
		return 0, nil, false
	}
	e := t.entities[rid]
	delete(t.runtimeIDs, uid)
	delete(t.entities, rid)
	return rid, e, e != nil
}

// Entity returns the entity with the runtime ID passed.
func (t *Tracker) Entity(rid uint64) (*Entity, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entities[rid]
	return e, ok
}

// Move moves the entity with the runtime ID passed. Entities that are not tracked are ignored.
func (t *Tracker) Move(rid uint64, pos mgl64.Vec3) {
	if e, ok := t.Entity(rid); ok {
		e.Move(pos)
	}
}

// Each calls f for every entity tracked.
func (t *Tracker) Each(f func(rid uint64, e *Entity)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for rid, e := range t.entities {
		f(rid, e)
	}
}

// Len returns the number of entities tracked.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entities)
}

// Clear stops tracking every entity, such as when the bot changes dimension.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.entities)
	clear(t.runtimeIDs)
}
