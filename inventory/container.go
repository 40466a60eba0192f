package inventory

import "context"

// Hand is the hand an item is equipped into.
type Hand uint8

const (
	MainHand Hand = iota
	OffHand
)

// Container is an open window of another inventory, such as a chest, a shulker box or the ender chest.
type Container interface {
	// Slots returns a snapshot of the slots of the container.
	Slots() []Stack
	// Exchange swaps the contents of a container slot with a slot of the bot's inventory. Either side may
	// be empty.
	Exchange(ctx context.Context, containerSlot, inventorySlot int) error
	// Deposit moves the whole stack in an inventory slot into the first free container slot.
	Deposit(ctx context.Context, inventorySlot int) error
	// Close closes the window.
	Close(ctx context.Context) error
}

// Holder is something that holds an Inventory and can swap its items around.
type Holder interface {
	Inventory() *Inventory
	// Equip moves the item in the inventory slot passed into the hand.
	Equip(ctx context.Context, slot int, hand Hand) error
	// OpenEnderChest opens an ender chest within reach.
	OpenEnderChest(ctx context.Context) (Container, error)
}
