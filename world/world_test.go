package world

import (
	"testing"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
)

// fixedChunk holds the same block everywhere.
type fixedChunk uint32

func (c fixedChunk) Block(uint8, int16, uint8, uint8) uint32 {
	return uint32(c)
}

func TestBlockFromChunk(t *testing.T) {
	w := New(nil)
	if _, ok := w.Block(cube.Pos{1, 64, 1}).(block.Air); !ok {
		t.Fatalf("expected air outside of loaded chunks")
	}

	w.AddChunk(protocol.ChunkPos{0, 0}, fixedChunk(world.BlockRuntimeID(block.Stone{})))
	if name, _, _ := Describe(w.Block(cube.Pos{1, 64, 1})); name != "stone" {
		t.Fatalf("expected stone, got %s", name)
	}
	if !w.Loaded(cube.Pos{15, 0, 15}) || w.Loaded(cube.Pos{16, 0, 0}) {
		t.Fatalf("unexpected loaded chunks")
	}
	if _, ok := w.Block(cube.Pos{1, 400, 1}).(block.Air); !ok {
		t.Fatalf("expected air out of the height range")
	}
}

func TestSetBlockOverridesChunk(t *testing.T) {
	w := New(nil)
	w.AddChunk(protocol.ChunkPos{-1, 0}, fixedChunk(world.BlockRuntimeID(block.Stone{})))

	pos := cube.Pos{-3, 10, 4}
	w.SetBlock(pos, block.Air{})
	if _, ok := w.Block(pos).(block.Air); !ok {
		t.Fatalf("expected the block update to override the chunk")
	}
	if name, _, _ := Describe(w.Block(pos.Side(cube.FaceUp))); name != "stone" {
		t.Fatalf("expected the rest of the chunk to be left alone, got %s", name)
	}

	// A new chunk at the same position drops the block updates.
	w.AddChunk(protocol.ChunkPos{-1, 0}, fixedChunk(world.BlockRuntimeID(block.Stone{})))
	if name, _, _ := Describe(w.Block(pos)); name != "stone" {
		t.Fatalf("expected the block updates to be dropped, got %s", name)
	}
}

func TestCleanChunks(t *testing.T) {
	w := New(nil)
	w.AddChunk(protocol.ChunkPos{0, 0}, fixedChunk(0))
	w.AddChunk(protocol.ChunkPos{10, 0}, fixedChunk(0))

	// The first clean only clears the exemption of the chunks in range.
	w.CleanChunks(2, protocol.ChunkPos{1, 0})
	w.CleanChunks(2, protocol.ChunkPos{8, 0})
	if w.Chunk(protocol.ChunkPos{0, 0}) != nil {
		t.Fatalf("expected the chunk out of range to be removed")
	}
	if w.Chunk(protocol.ChunkPos{10, 0}) == nil {
		t.Fatalf("expected the chunk in range to be kept")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		b        world.Block
		name     string
		tag      string
		diggable bool
	}{
		{block.Stone{}, "stone", "mineable/pickaxe", true},
		{block.Dirt{}, "dirt", "mineable/shovel", true},
		{block.Sand{}, "sand", "mineable/shovel", true},
		{block.Bedrock{}, "bedrock", "", false},
		{block.Air{}, "air", "", false},
	}
	for _, tt := range tests {
		name, tag, diggable := Describe(tt.b)
		if name != tt.name || tag != tt.tag || diggable != tt.diggable {
			t.Errorf("Describe(%s) = %s, %s, %v, expected %s, %s, %v", tt.name, name, tag, diggable, tt.name, tt.tag, tt.diggable)
		}
	}
}
