package inventory

import (
	"sync"

	"github.com/tedious-mc/tedious/assert"
)

const (
	SizePlayer = 36
	SizeHotbar = 9
)

// Inventory mirrors the main inventory of the bot. It is written by the connection when the server sends
// inventory updates and read by behaviors, so all access is synchronised.
type Inventory struct {
	mu       sync.RWMutex
	slots    [SizePlayer]Stack
	offHand  Stack
	heldSlot int
}

// New returns an empty inventory holding the first hotbar slot.
func New() *Inventory {
	return &Inventory{}
}

func (inv *Inventory) Slot(slot int) Stack {
	validateSlot(slot)

	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.slots[slot]
}

func (inv *Inventory) SetSlot(slot int, s Stack) {
	validateSlot(slot)

	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.slots[slot] = s
}

// Slots returns a copy of every slot.
func (inv *Inventory) Slots() []Stack {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return append([]Stack(nil), inv.slots[:]...)
}

func (inv *Inventory) HeldSlot() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.heldSlot
}

func (inv *Inventory) SetHeldSlot(slot int) {
	assert.IsTrue(slot >= 0 && slot < SizeHotbar, "held slot %d is invalid (expecting 0-8)", slot)

	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.heldSlot = slot
}

// Holding returns the stack in the main hand.
func (inv *Inventory) Holding() Stack {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.slots[inv.heldSlot]
}

func (inv *Inventory) OffHand() Stack {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.offHand
}

func (inv *Inventory) SetOffHand(s Stack) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.offHand = s
}

// EmptySlots returns the number of main inventory slots that hold nothing.
func (inv *Inventory) EmptySlots() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var n int
	for _, s := range inv.slots {
		if s.Empty() {
			n++
		}
	}
	return n
}

// First returns the first slot whose stack satisfies f.
func (inv *Inventory) First(f func(Stack) bool) (int, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	for slot, s := range inv.slots {
		if !s.Empty() && f(s) {
			return slot, true
		}
	}
	return -1, false
}

// FirstEmpty returns the first slot holding nothing.
func (inv *Inventory) FirstEmpty() (int, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	for slot, s := range inv.slots {
		if s.Empty() {
			return slot, true
		}
	}
	return -1, false
}

// Count returns the total number of items named name.
func (inv *Inventory) Count(name string) int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var n int
	for _, s := range inv.slots {
		if !s.Empty() && s.Name == name {
			n += s.Count
		}
	}
	return n
}

func validateSlot(slot int) {
	assert.IsTrue(slot >= 0 && slot < SizePlayer, "slot %d is invalid for player inventory (expecting 0-35)", slot)
}
