package action

import (
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/world"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
)

// Filter is a set of block or item names. A nil Filter matches everything.
type Filter map[string]struct{}

// NewFilter ...
func NewFilter(names ...string) Filter {
	f := make(Filter, len(names))
	for _, n := range names {
		f[n] = struct{}{}
	}
	return f
}

// Match returns true if the name is in the set, or if the Filter is nil.
func (f Filter) Match(name string) bool {
	if f == nil {
		return true
	}
	_, ok := f[name]
	return ok
}

// ExpandTargets turns target patterns into a Filter. A pattern containing a '*' matches every name of the
// registry that contains the rest of the pattern, so "*_ore" and "*ore" both match "iron_ore". Other
// patterns are taken as they are.
func ExpandTargets(patterns []string, registry []string) Filter {
	f := make(Filter)
	for _, p := range patterns {
		if !strings.Contains(p, "*") {
			f[inventory.TrimNamespace(p)] = struct{}{}
			continue
		}
		key := strings.ReplaceAll(inventory.TrimNamespace(p), "*", "")
		for _, name := range registry {
			if strings.Contains(name, key) {
				f[name] = struct{}{}
			}
		}
	}
	return f
}

// RegistryNames returns the names of every item known to the game, without the namespace.
func RegistryNames() []string {
	items := world.Items()
	names := make([]string, 0, len(items))
	for _, it := range items {
		name, _ := it.EncodeItem()
		names = append(names, inventory.TrimNamespace(name))
	}
	return names
}

// HarvestConfig configures a Harvester. It does not change while the harvester runs.
type HarvestConfig struct {
	// Targets are the names of the blocks to mine.
	Targets Filter
	// Region bounds every block the harvester mines and every item it picks up.
	Region game.Region
	// Radius is the search radius around the bot on every axis.
	Radius int
	// MinFreeSlots is the number of empty inventory slots below which items are stored in a box.
	MinFreeSlots int
	// Container is the name, or part of the name, of the item placed to store items, e.g. "shulker_box".
	Container string
	// DurabilityFloor is the fraction of durability at or below which a tool is not used anymore.
	DurabilityFloor float64
	// Progressive makes the harvester mine the region layer by layer, from the top down.
	Progressive bool
	// StoreExclude lists the items never stored in the box, besides tools and the held item.
	StoreExclude []string
	// Delay is the number of ticks waited after every block broken.
	Delay int
	// FastTravelCommand, if not empty, is sent after reaching the column of a target above the bot.
	FastTravelCommand string
	// TravelTimeout bounds every trip of the harvester.
	TravelTimeout time.Duration
}

// AttackConfig configures the Attack behavior.
type AttackConfig struct {
	// Enemies are the entity types attacked.
	Enemies []string
	// Delay is the number of ticks waited after every attack.
	Delay int
	// Weapon is the item held while attacking.
	Weapon string
}

// EatConfig configures the AutoEat behavior.
type EatConfig struct {
	Foods []string
	// FoodThreshold and HealthThreshold trigger eating when either value drops below them.
	FoodThreshold   float64
	HealthThreshold float64
	OffHand         bool
	// Timeout bounds a single eat. It defaults to twice the eating time.
	Timeout time.Duration
}

// TreeChopConfig configures the TreeChop behavior, which fells logs along a straight line.
type TreeChopConfig struct {
	Trees  []string
	Delay  int
	Tool   string
	Length int
	// StepX and StepZ are the offset between two trees.
	StepX, StepZ int
	// OffsetY is the height of the logs relative to the feet of the bot.
	OffsetY int
}
