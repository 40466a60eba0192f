package inventory

import (
	"context"
	"math/rand"
	"testing"

	"github.com/tedious-mc/tedious/berror"
)

func TestSelectToolKeepsHeldTool(t *testing.T) {
	m := newMockHolder()
	m.inv.SetSlot(0, tool("diamond_pickaxe", 10))

	slot, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/pickaxe", 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != 0 || len(m.equips) != 0 {
		t.Fatalf("expected the held tool to be kept without equipping, got slot %d and equips %v", slot, m.equips)
	}
}

func TestSelectToolSkipsToolAtFloor(t *testing.T) {
	m := newMockHolder()
	m.inv.SetSlot(0, tool("diamond_pickaxe", 90))
	m.inv.SetSlot(5, tool("iron_pickaxe", 50))

	slot, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/pickaxe", 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != 5 || m.inv.Holding().Name != "iron_pickaxe" {
		t.Fatalf("expected the iron pickaxe in slot 5 to be equipped, got slot %d holding %v", slot, m.inv.Holding())
	}
}

func TestSelectToolPrefersHigherTier(t *testing.T) {
	m := newMockHolder()
	m.inv.SetSlot(1, tool("stone_axe", 0))
	m.inv.SetSlot(20, tool("netherite_axe", 0))

	if _, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/axe", 0.1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.inv.Holding().Name != "netherite_axe" {
		t.Fatalf("expected the netherite axe to be held, got %v", m.inv.Holding())
	}
}

func TestSelectToolExchangesWithEnderChest(t *testing.T) {
	m := newMockHolder(Stack{}, Stack{}, Stack{}, tool("iron_pickaxe", 0))
	m.inv.SetSlot(0, tool("diamond_pickaxe", 95))

	slot, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/pickaxe", 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot != 0 || m.inv.Holding().Name != "iron_pickaxe" {
		t.Fatalf("expected the iron pickaxe from the ender chest to be held, got slot %d holding %v", slot, m.inv.Holding())
	}
	if m.chest.slots[3].Name != "diamond_pickaxe" {
		t.Fatalf("expected the worn tool to be stored in the ender chest, got %v", m.chest.slots[3])
	}
	if m.chest.opened != 1 || m.chest.closed != 1 {
		t.Fatalf("expected the ender chest to be opened and closed once, got %d/%d", m.chest.opened, m.chest.closed)
	}
}

func TestSelectToolNoSuitableTool(t *testing.T) {
	m := newMockHolder(tool("wooden_pickaxe", 100))
	m.inv.SetSlot(0, Stack{Name: "dirt", Count: 64})

	_, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/pickaxe", 0.1)
	if err == nil {
		t.Fatalf("expected an error when no tool qualifies")
	}
	if berror.IsFatal(err) {
		t.Fatalf("a missing tool must not be fatal: %v", err)
	}
	if m.inv.Holding().Name != "dirt" {
		t.Fatalf("the held item must not change, got %v", m.inv.Holding())
	}
	if m.chest.closed != 1 {
		t.Fatalf("the ender chest must be closed after a failed exchange")
	}

	m.chestOK = false
	if _, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/pickaxe", 0.1); err == nil || berror.IsFatal(err) {
		t.Fatalf("expected a transient error without an ender chest, got %v", err)
	}
}

func TestSelectToolNeverReturnsToolAtOrBelowFloor(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	names := Pickaxe.Tiers()

	for i := 0; i < 300; i++ {
		m := newMockHolder()
		floor := float64(rng.Intn(10)) / 10
		qualifying := false
		for slot := 0; slot < SizePlayer; slot++ {
			if rng.Intn(4) != 0 {
				continue
			}
			s := tool(names[rng.Intn(len(names))], rng.Intn(101))
			m.inv.SetSlot(slot, s)
			if s.RemainingFraction() > floor {
				qualifying = true
			}
		}

		slot, err := NewResolver(m, quietLogger()).SelectTool(context.Background(), "mineable/pickaxe", floor)
		if !qualifying {
			if err == nil {
				t.Fatalf("expected no tool to be selected with floor %v", floor)
			}
			continue
		}
		if err != nil {
			t.Fatalf("expected a tool to be selected with floor %v: %v", floor, err)
		}
		if got := m.inv.Slot(slot); got.RemainingFraction() <= floor {
			t.Fatalf("selected %v at or below the floor %v", got, floor)
		}
	}
}
