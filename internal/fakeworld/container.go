package fakeworld

import (
	"context"
	"errors"
	"sync"

	"github.com/tedious-mc/tedious/inventory"
)

// Container is an in-memory inventory.Container.
type Container struct {
	mu    sync.Mutex
	inv   *inventory.Inventory
	slots []inventory.Stack

	Opened int
	Closed int
}

// NewContainer creates an empty container with size slots.
func NewContainer(size int, stacks ...inventory.Stack) *Container {
	slots := make([]inventory.Stack, size)
	copy(slots, stacks)
	return &Container{slots: slots}
}

func (c *Container) open(inv *inventory.Inventory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inv = inv
	c.Opened++
}

func (c *Container) Slots() []inventory.Stack {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]inventory.Stack(nil), c.slots...)
}

func (c *Container) Exchange(_ context.Context, containerSlot, inventorySlot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if containerSlot < 0 || containerSlot >= len(c.slots) {
		return errors.New("container slot out of range")
	}
	a, b := c.slots[containerSlot], c.inv.Slot(inventorySlot)
	c.slots[containerSlot] = b
	c.inv.SetSlot(inventorySlot, a)
	return nil
}

func (c *Container) Deposit(_ context.Context, inventorySlot int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.slots {
		if s.Empty() {
			c.slots[i] = c.inv.Slot(inventorySlot)
			c.inv.SetSlot(inventorySlot, inventory.Stack{})
			return nil
		}
	}
	return errors.New("container is full")
}

func (c *Container) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed++
	return nil
}

// Count returns the number of non-empty slots.
func (c *Container) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	for _, s := range c.slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}
