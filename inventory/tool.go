package inventory

import (
	"strings"

	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/world"
	"golang.org/x/exp/slices"
)

// ToolCategory is the kind of tool a block is mined with.
type ToolCategory string

const (
	Pickaxe ToolCategory = "pickaxe"
	Axe     ToolCategory = "axe"
	Shovel  ToolCategory = "shovel"
	Hoe     ToolCategory = "hoe"
	Shears  ToolCategory = "shears"
)

// tierOrder lists tool tiers from the most to the least capable.
var tierOrder = []item.ToolTier{
	item.ToolTierNetherite,
	item.ToolTierGold,
	item.ToolTierDiamond,
	item.ToolTierIron,
	item.ToolTierStone,
	item.ToolTierWood,
}

// CategoryOf maps a block's mining material tag, such as "mineable/axe" or "wool", to the category of
// tool that mines it. Unknown tags fall back to the pickaxe.
func CategoryOf(tag string) ToolCategory {
	switch c := ToolCategory(strings.TrimPrefix(tag, "mineable/")); c {
	case Pickaxe, Axe, Shovel, Hoe, Shears:
		return c
	case "wool", "leaves", "cobweb":
		return Shears
	}
	return Pickaxe
}

// Tiers returns the item names of every tool in the category, best first.
func (c ToolCategory) Tiers() []string {
	if c == Shears {
		return []string{itemName(item.Shears{})}
	}
	names := make([]string, 0, len(tierOrder))
	for _, t := range tierOrder {
		names = append(names, itemName(c.tool(t)))
	}
	return names
}

// IsTool returns true if the item with the name passed is a tool of any category.
func IsTool(name string) bool {
	for _, c := range []ToolCategory{Pickaxe, Axe, Shovel, Hoe, Shears} {
		if c.Rank(name) >= 0 {
			return true
		}
	}
	return false
}

// Rank returns the position of the item in the tier list of the category, or -1 if it is not a tool of
// the category.
func (c ToolCategory) Rank(name string) int {
	return slices.Index(c.Tiers(), name)
}

func (c ToolCategory) tool(t item.ToolTier) world.Item {
	switch c {
	case Axe:
		return item.Axe{Tier: t}
	case Shovel:
		return item.Shovel{Tier: t}
	case Hoe:
		return item.Hoe{Tier: t}
	}
	return item.Pickaxe{Tier: t}
}

func itemName(i world.Item) string {
	name, _ := i.EncodeItem()
	return TrimNamespace(name)
}
