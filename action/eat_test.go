package action

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tedious-mc/tedious/internal/fakeworld"
	"github.com/tedious-mc/tedious/inventory"
)

func eatConfig() EatConfig {
	return EatConfig{Foods: []string{"bread", "cooked_beef"}, FoodThreshold: 14, HealthThreshold: 10}
}

func TestEatThresholds(t *testing.T) {
	tests := []struct {
		name         string
		health, food float64
		eat          bool
	}{
		{"full", 5, 20, false},
		{"hungry", 20, 10, true},
		{"hurt", 8, 18, true},
		{"fine", 20, 18, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := fakeworld.New(mgl64.Vec3{})
			w.SetVitals(tt.health, tt.food)
			w.Inventory().SetSlot(4, inventory.Stack{Name: "bread", Count: 3})

			ate, err := Eat(context.Background(), w, eatConfig(), quietLogger().WithField("action", "AutoEat"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ate != tt.eat {
				t.Fatalf("expected eat=%v, got %v", tt.eat, ate)
			}
			if tt.eat && w.Inventory().Count("bread") != 2 {
				t.Fatalf("expected a bread to be eaten, %d left", w.Inventory().Count("bread"))
			}
		})
	}
}

func TestEatOffHand(t *testing.T) {
	w := fakeworld.New(mgl64.Vec3{})
	w.SetVitals(20, 5)
	w.Inventory().SetSlot(3, inventory.Stack{Name: "cooked_beef", Count: 8})

	conf := eatConfig()
	conf.OffHand = true
	if ate, err := Eat(context.Background(), w, conf, quietLogger().WithField("action", "AutoEat")); err != nil || !ate {
		t.Fatalf("expected to eat, got %v %v", ate, err)
	}
	if w.Inventory().OffHand().Name != "cooked_beef" {
		t.Fatalf("expected the food to be moved to the off hand, got %v", w.Inventory().OffHand())
	}
}

func TestEatNoFood(t *testing.T) {
	w := fakeworld.New(mgl64.Vec3{})
	w.SetVitals(20, 5)

	if ate, err := Eat(context.Background(), w, eatConfig(), quietLogger().WithField("action", "AutoEat")); err != nil || ate {
		t.Fatalf("expected nothing to be eaten, got %v %v", ate, err)
	}
}

func TestEatTimeout(t *testing.T) {
	w := fakeworld.New(mgl64.Vec3{})
	w.SetVitals(20, 5)
	w.EatFails = true
	w.Give(inventory.Stack{Name: "bread", Count: 3})

	conf := eatConfig()
	conf.Timeout = time.Millisecond * 20
	ate, err := Eat(context.Background(), w, conf, quietLogger().WithField("action", "AutoEat"))
	if err != nil || ate {
		t.Fatalf("expected the eat to be cancelled without error, got %v %v", ate, err)
	}
	if w.Released != 1 || w.Using() {
		t.Fatalf("expected the item to be released after the timeout")
	}
}

func TestEatTaskIsBounded(t *testing.T) {
	w := fakeworld.New(mgl64.Vec3{})
	w.SetVitals(20, 5)
	w.FoodPerEat = 0
	w.Give(inventory.Stack{Name: "bread", Count: 10})

	if _, err := EatTask(w, eatConfig(), quietLogger())(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Eaten != maxConsecutiveEats {
		t.Fatalf("expected %d items to be eaten, got %d", maxConsecutiveEats, w.Eaten)
	}
	if n := w.Inventory().Count("bread"); n != 10-maxConsecutiveEats {
		t.Fatalf("expected %d bread left, got %d", 10-maxConsecutiveEats, n)
	}
}
