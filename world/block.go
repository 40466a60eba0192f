package world

import (
	"strings"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/world"
)

// probeTools are the tools tried, in order, to find out what a block is mined with.
var probeTools = []struct {
	tag  string
	tool item.Tool
}{
	{"mineable/pickaxe", item.Pickaxe{Tier: item.ToolTierDiamond}},
	{"mineable/axe", item.Axe{Tier: item.ToolTierDiamond}},
	{"mineable/shovel", item.Shovel{Tier: item.ToolTierDiamond}},
	{"mineable/hoe", item.Hoe{Tier: item.ToolTierDiamond}},
	{"wool", item.Shears{}},
}

// Describe returns the name of the block without the namespace, the mining material tag of the block and
// whether it can be broken at all.
func Describe(b world.Block) (name, tag string, diggable bool) {
	n, _ := b.EncodeBlock()
	name = strings.TrimPrefix(n, "minecraft:")
	if name == "air" {
		return name, "", false
	}
	if _, ok := b.(world.Liquid); ok {
		return name, "", false
	}
	br, ok := b.(block.Breakable)
	if !ok {
		return name, "", false
	}
	info := br.BreakInfo()
	if info.Hardness < 0 {
		return name, "", false
	}
	if info.Effective != nil {
		for _, t := range probeTools {
			if info.Effective(t.tool) {
				return name, t.tag, true
			}
		}
	}
	return name, "", true
}
