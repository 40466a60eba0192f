package world

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/getsentry/sentry-go"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/tedious-mc/tedious/worker"
	"github.com/zeebo/xxh3"
)

// Chunks with the same payload are decoded once and shared between worlds, which matters when several bots
// are connected to the same server.
var (
	chunkCache = make(map[xxh3.Uint128]*CachedChunk)
	cMu        sync.Mutex
)

func init() {
	go clearCacheWorker()
}

// Cache decodes the chunk of the packet on a worker and adds it to the world once done. If every worker is
// busy, the chunk is decoded on the calling goroutine. It returns false if the chunk is sent in sub-chunk
// request mode, which is not supported.
func Cache(w *World, pk *packet.LevelChunk) bool {
	if pk.SubChunkCount == protocol.SubChunkRequestModeLimitless || pk.SubChunkCount == protocol.SubChunkRequestModeLimited {
		return false
	}
	if !worker.Submit(func() { cacheChunk(w, pk) }) {
		cacheChunk(w, pk)
	}
	return true
}

// CachedChunk is a decoded chunk shared by every world that received the same payload.
type CachedChunk struct {
	subs atomic.Int64
	c    *chunk.Chunk
}

func (sc *CachedChunk) Subscribe() {
	sc.subs.Add(1)
}

func (sc *CachedChunk) Unsubscribe() {
	sc.subs.Add(-1)
}

func (sc *CachedChunk) Block(x uint8, y int16, z uint8, layer uint8) (rid uint32) {
	return sc.c.Block(x, y, z, layer)
}

func cacheChunk(w *World, pk *packet.LevelChunk) {
	hash := xxh3.Hash128(pk.RawPayload)

	// The lock is held while decoding so that two workers never decode the same payload.
	cMu.Lock()
	defer cMu.Unlock()

	cached, found := chunkCache[hash]
	if !found {
		c, err := chunk.NetworkDecode(AirRuntimeID, pk.RawPayload, int(pk.SubChunkCount), world.Overworld.Range())
		if err != nil {
			if w.log != nil {
				w.log.Debugf("failed to decode chunk %v: %v", pk.Position, err)
			}
			c = chunk.New(AirRuntimeID, world.Overworld.Range())
		}
		c.Compact()

		cached = &CachedChunk{c: c}
		chunkCache[hash] = cached
	}
	cached.Subscribe()
	w.AddChunk(pk.Position, cached)
}

func clearCacheWorker() {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	defer func() {
		if err := recover(); err != nil {
			hub := sentry.CurrentHub().Clone()
			hub.Recover(err)
			hub.Flush(time.Second * 5)
		}
	}()

	for range t.C {
		cMu.Lock()
		for chunkHash, cachedChunk := range chunkCache {
			if cachedChunk.subs.Load() <= 0 {
				delete(chunkCache, chunkHash)
			}
		}
		cMu.Unlock()
	}
}
