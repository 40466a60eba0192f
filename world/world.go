// Package world keeps the blocks around the bot, decoded from the chunks the server sends.
package world

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sirupsen/logrus"
)

// ChunkSource holds the block runtime IDs of a chunk. It is implemented by CachedChunk.
type ChunkSource interface {
	Block(x uint8, y int16, z uint8, layer uint8) (rid uint32)
}

// World is a view of the chunks loaded by the bot. Blocks updated after a chunk was received are kept
// apart from the chunk, which may be shared with other worlds through the chunk cache.
type World struct {
	mu sync.RWMutex

	lastCleanPos protocol.ChunkPos

	chunks map[protocol.ChunkPos]ChunkSource
	// exemptedChunks were received since the last clean and are not removed by it yet.
	exemptedChunks map[protocol.ChunkPos]struct{}
	blockUpdates   map[protocol.ChunkPos]map[cube.Pos]world.Block

	log *logrus.Logger
}

func New(log *logrus.Logger) *World {
	return &World{
		chunks:         make(map[protocol.ChunkPos]ChunkSource),
		exemptedChunks: make(map[protocol.ChunkPos]struct{}),
		blockUpdates:   make(map[protocol.ChunkPos]map[cube.Pos]world.Block),
		log:            log,
	}
}

// AddChunk adds a chunk to the world, replacing the chunk and the block updates previously held at the
// same position.
func (w *World) AddChunk(chunkPos protocol.ChunkPos, c ChunkSource) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if old, ok := w.chunks[chunkPos]; ok {
		if cached, ok := old.(*CachedChunk); ok {
			cached.Unsubscribe()
		}
		delete(w.blockUpdates, chunkPos)
	}
	w.chunks[chunkPos] = c
	w.exemptedChunks[chunkPos] = struct{}{}
}

// Chunk returns the chunk at the position passed, or nil if it is not loaded.
func (w *World) Chunk(pos protocol.ChunkPos) ChunkSource {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chunks[pos]
}

// Loaded returns true if the chunk holding the block position passed is loaded.
func (w *World) Loaded(pos cube.Pos) bool {
	return w.Chunk(chunkPosOf(pos)) != nil
}

// Block returns the block at the position passed. Blocks in chunks that are not loaded are air.
func (w *World) Block(pos cube.Pos) world.Block {
	if pos.OutOfBounds(world.Overworld.Range()) {
		return block.Air{}
	}
	chunkPos := chunkPosOf(pos)

	w.mu.RLock()
	if b, ok := w.blockUpdates[chunkPos][pos]; ok {
		w.mu.RUnlock()
		return b
	}
	c := w.chunks[chunkPos]
	w.mu.RUnlock()

	if c == nil {
		return block.Air{}
	}
	rid := c.Block(uint8(pos[0]&15), int16(pos[1]), uint8(pos[2]&15), 0)
	if b, ok := world.BlockByRuntimeID(rid); ok {
		return b
	}
	return block.Air{}
}

// SetBlock sets the block at the position passed.
func (w *World) SetBlock(pos cube.Pos, b world.Block) {
	if pos.OutOfBounds(world.Overworld.Range()) {
		return
	}
	chunkPos := chunkPosOf(pos)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.blockUpdates[chunkPos] == nil {
		w.blockUpdates[chunkPos] = make(map[cube.Pos]world.Block)
	}
	w.blockUpdates[chunkPos][pos] = b
}

// CleanChunks removes the chunks outside the radius around pos, except for those received since the last
// clean.
func (w *World) CleanChunks(radius int32, pos protocol.ChunkPos) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if pos == w.lastCleanPos {
		return
	}
	w.lastCleanPos = pos

	var removed int
	for chunkPos, c := range w.chunks {
		_, exempted := w.exemptedChunks[chunkPos]
		inRange := chunkInRange(radius, chunkPos, pos)

		if exempted && inRange {
			delete(w.exemptedChunks, chunkPos)
		} else if !exempted && !inRange {
			if cached, ok := c.(*CachedChunk); ok {
				cached.Unsubscribe()
			}
			delete(w.chunks, chunkPos)
			delete(w.blockUpdates, chunkPos)
			removed++
		}
	}
	if removed > 0 && w.log != nil {
		w.log.Debugf("removed %d chunks out of range of %v (radius %d)", removed, pos, radius)
	}
}

// PurgeChunks removes all chunks from the world.
func (w *World) PurgeChunks() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for chunkPos, c := range w.chunks {
		if cached, ok := c.(*CachedChunk); ok {
			cached.Unsubscribe()
		}
		delete(w.chunks, chunkPos)
	}
	clear(w.exemptedChunks)
	clear(w.blockUpdates)
}

func chunkPosOf(pos cube.Pos) protocol.ChunkPos {
	return protocol.ChunkPos{int32(pos[0]) >> 4, int32(pos[2]) >> 4}
}

// chunkInRange returns true if the chunk position is within the given radius of the chunk position.
func chunkInRange(radius int32, chunkPos, pos protocol.ChunkPos) bool {
	diffX, diffZ := pos[0]-chunkPos[0], pos[1]-chunkPos[1]
	dist := math32.Sqrt(float32(diffX*diffX) + float32(diffZ*diffZ))

	return int32(dist) <= radius
}
