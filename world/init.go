package world

import (
	_ "unsafe"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/df-mc/dragonfly/server/world/chunk"
	"github.com/tedious-mc/tedious/berror"
)

// AirRuntimeID is the runtime ID of air. The bot sends it as the new block when it breaks one.
var AirRuntimeID uint32

// The registry is otherwise only finalised once a dragonfly world is created, which the bot never does.
//
//go:linkname finaliseBlockRegistry github.com/df-mc/dragonfly/server/world.finaliseBlockRegistry
func finaliseBlockRegistry()

func init() {
	finaliseBlockRegistry()

	rid, ok := chunk.StateToRuntimeID("minecraft:air", nil)
	if !ok {
		panic(berror.New("block registry holds no runtime ID for air"))
	}
	if _, ok := world.BlockByRuntimeID(rid); !ok {
		panic(berror.New("air (runtime ID %d) does not resolve to a block", rid))
	}
	AirRuntimeID = rid
}
