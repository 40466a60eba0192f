package inventory

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// mockHolder swaps items around in memory, the way the server would.
type mockHolder struct {
	inv     *Inventory
	chest   *mockContainer
	equips  []int
	chestOK bool
}

func (m *mockHolder) Inventory() *Inventory {
	return m.inv
}

func (m *mockHolder) Equip(_ context.Context, slot int, _ Hand) error {
	m.equips = append(m.equips, slot)
	if slot < SizeHotbar {
		m.inv.SetHeldSlot(slot)
		return nil
	}
	held := m.inv.HeldSlot()
	a, b := m.inv.Slot(held), m.inv.Slot(slot)
	m.inv.SetSlot(held, b)
	m.inv.SetSlot(slot, a)
	return nil
}

func (m *mockHolder) OpenEnderChest(context.Context) (Container, error) {
	if !m.chestOK {
		return nil, errors.New("no ender chest within reach")
	}
	m.chest.opened++
	return m.chest, nil
}

type mockContainer struct {
	inv    *Inventory
	slots  []Stack
	opened int
	closed int
}

func (c *mockContainer) Slots() []Stack {
	return append([]Stack(nil), c.slots...)
}

func (c *mockContainer) Exchange(_ context.Context, containerSlot, inventorySlot int) error {
	a, b := c.slots[containerSlot], c.inv.Slot(inventorySlot)
	c.slots[containerSlot] = b
	c.inv.SetSlot(inventorySlot, a)
	return nil
}

func (c *mockContainer) Deposit(_ context.Context, inventorySlot int) error {
	for i, s := range c.slots {
		if s.Empty() {
			c.slots[i] = c.inv.Slot(inventorySlot)
			c.inv.SetSlot(inventorySlot, Stack{})
			return nil
		}
	}
	return errors.New("container is full")
}

func (c *mockContainer) Close(context.Context) error {
	c.closed++
	return nil
}

func newMockHolder(chestSlots ...Stack) *mockHolder {
	inv := New()
	slots := make([]Stack, 27)
	copy(slots, chestSlots)
	return &mockHolder{inv: inv, chest: &mockContainer{inv: inv, slots: slots}, chestOK: true}
}

func tool(name string, damage int) Stack {
	return Stack{Name: name, Count: 1, Damage: damage, MaxDurability: 100}
}
