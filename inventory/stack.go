package inventory

import (
	"fmt"
	"strings"

	"github.com/tedious-mc/tedious/game"
)

// Stack is a snapshot of the items held in a single slot.
type Stack struct {
	// Name is the item identifier without the "minecraft:" namespace, e.g. "diamond_pickaxe".
	Name  string
	Count int
	// Damage is the amount of durability already used up.
	Damage int
	// MaxDurability is zero for items that do not wear out.
	MaxDurability int
	// NetworkID is the stack network ID assigned by the server, used to move the stack between windows.
	NetworkID int32
}

// Empty returns true if the slot holds nothing.
func (s Stack) Empty() bool {
	return s.Count <= 0 || s.Name == "" || s.Name == "air"
}

// RemainingFraction returns the share of durability left on the item, rounded to two decimals. Items
// without durability always return 1.
func (s Stack) RemainingFraction() float64 {
	if s.MaxDurability <= 0 {
		return 1
	}
	return game.Round64(float64(s.MaxDurability-s.Damage)/float64(s.MaxDurability), 2)
}

// String ...
func (s Stack) String() string {
	if s.Empty() {
		return "empty"
	}
	if s.MaxDurability > 0 {
		return fmt.Sprintf("%dx %s (%d/%d)", s.Count, s.Name, s.MaxDurability-s.Damage, s.MaxDurability)
	}
	return fmt.Sprintf("%dx %s", s.Count, s.Name)
}

// TrimNamespace strips the "minecraft:" prefix from an identifier.
func TrimNamespace(name string) string {
	return strings.TrimPrefix(name, "minecraft:")
}
