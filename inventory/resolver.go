package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/game"
)

// Resolver picks the tools used to break blocks.
type Resolver struct {
	h   Holder
	log *logrus.Logger
}

// NewResolver creates a Resolver working on the inventory of the Holder passed.
func NewResolver(h Holder, log *logrus.Logger) *Resolver {
	return &Resolver{h: h, log: log}
}

// SelectTool equips the best tool for blocks with the material tag passed that has more than floor of
// its durability left and returns the slot it is in. When the inventory holds no such tool, a better one
// is exchanged from the ender chest. If no tool qualifies a transient error is returned and the held item
// is left as it is.
func (r *Resolver) SelectTool(ctx context.Context, tag string, floor float64) (int, error) {
	c := CategoryOf(tag)
	if slot, ok, err := r.selectLocal(ctx, c, floor); ok || err != nil {
		return slot, err
	}

	if err := r.exchange(ctx, c, floor); err != nil {
		r.log.WithField("tool", c).Debugf("ender chest exchange failed: %v", err)
	} else if slot, ok, err := r.selectLocal(ctx, c, floor); ok || err != nil {
		return slot, err
	}
	return -1, berror.New(game.ErrorNoTool, string(c))
}

// selectLocal equips the best qualifying tool already in the inventory.
func (r *Resolver) selectLocal(ctx context.Context, c ToolCategory, floor float64) (int, bool, error) {
	inv := r.h.Inventory()
	held := inv.HeldSlot()

	for _, name := range c.Tiers() {
		qualifies := func(s Stack) bool { return s.Name == name && s.RemainingFraction() > floor }
		if s := inv.Slot(held); !s.Empty() && qualifies(s) {
			return held, true, nil
		}
		slot, ok := inv.First(qualifies)
		if !ok {
			continue
		}
		if err := r.h.Equip(ctx, slot, MainHand); err != nil {
			return -1, false, fmt.Errorf("equip %s: %w", name, err)
		}
		r.log.Debugf("equipped %v", inv.Holding())
		return inv.HeldSlot(), true, nil
	}
	return -1, false, nil
}

// exchange swaps the worn or inferior tool of the category for a qualifying one stored in the ender
// chest.
func (r *Resolver) exchange(ctx context.Context, c ToolCategory, floor float64) (err error) {
	cont, err := r.h.OpenEnderChest(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := cont.Close(ctx); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close ender chest: %w", closeErr))
		}
	}()

	slots := cont.Slots()
	from, ok := bestTool(slots, c, floor)
	if !ok {
		return fmt.Errorf("no usable %s in the ender chest", c)
	}
	to := r.exchangeSlot(c)
	if err := cont.Exchange(ctx, from, to); err != nil {
		return fmt.Errorf("exchange ender chest slot %d with slot %d: %w", from, to, err)
	}
	r.log.Debugf("took %v out of the ender chest into slot %d", slots[from], to)
	return nil
}

// exchangeSlot returns the inventory slot a tool from the ender chest should be put in: the slot of the
// tool it replaces if there is one, otherwise an empty slot, otherwise the held slot.
func (r *Resolver) exchangeSlot(c ToolCategory) int {
	inv := r.h.Inventory()
	if slot, ok := inv.First(func(s Stack) bool { return c.Rank(s.Name) >= 0 }); ok {
		return slot
	}
	if inv.Holding().Empty() {
		return inv.HeldSlot()
	}
	if slot, ok := inv.FirstEmpty(); ok {
		return slot
	}
	return inv.HeldSlot()
}

// bestTool returns the slot of the highest tier tool of the category with more than floor durability left.
func bestTool(slots []Stack, c ToolCategory, floor float64) (int, bool) {
	for _, name := range c.Tiers() {
		for i, s := range slots {
			if !s.Empty() && s.Name == name && s.RemainingFraction() > floor {
				return i, true
			}
		}
	}
	return -1, false
}
