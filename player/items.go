package player

import (
	"github.com/df-mc/dragonfly/server/item"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/tedious-mc/tedious/inventory"
)

// stack converts an item instance sent by the server to an inventory stack.
func (p *Player) stack(it protocol.ItemInstance) inventory.Stack {
	if it.Stack.NetworkID == 0 || it.Stack.Count == 0 {
		return inventory.Stack{}
	}
	name, ok := p.items[it.Stack.NetworkID]
	if !ok {
		p.log.Debugf("unknown item network ID %d", it.Stack.NetworkID)
		return inventory.Stack{Count: int(it.Stack.Count), NetworkID: it.StackNetworkID}
	}
	s := inventory.Stack{
		Name:      name,
		Count:     int(it.Stack.Count),
		NetworkID: it.StackNetworkID,
	}
	if damage, ok := it.Stack.NBTData["Damage"].(int32); ok {
		s.Damage = int(damage)
	}
	s.MaxDurability = maxDurability(name)
	return s
}

// maxDurability returns the durability of a new item with the name passed, or zero if it does not wear out.
func maxDurability(name string) int {
	it, ok := world.ItemByName("minecraft:"+name, 0)
	if !ok {
		return 0
	}
	if d, ok := it.(item.Durable); ok {
		return d.DurabilityInfo().MaxDurability
	}
	return 0
}

// heldItem returns the dragonfly item stack of the item in the main hand, used to work out how long it takes
// to break blocks.
func heldItem(s inventory.Stack) item.Stack {
	if s.Empty() {
		return item.Stack{}
	}
	it, ok := world.ItemByName("minecraft:"+s.Name, 0)
	if !ok {
		return item.Stack{}
	}
	return item.NewStack(it, s.Count)
}
