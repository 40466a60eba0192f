package action

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/inventory"
	"github.com/tedious-mc/tedious/scheduler"
	"golang.org/x/exp/slices"
)

const (
	// eatTicks is the number of ticks it takes to eat food.
	eatTicks = 32
	// maxFood is the food level at which the bot cannot eat anymore.
	maxFood = 20
	// maxConsecutiveEats bounds the number of items eaten in a row by the AutoEat task.
	maxConsecutiveEats = 5
)

// Eat eats a single food item if the food level or the health of the bot dropped below its threshold. An
// eat that does not complete in time is cancelled. It returns true if an item was eaten.
func Eat(ctx context.Context, c bot.Client, conf EatConfig, log *logrus.Entry) (bool, error) {
	st := c.Status()
	log.Debugf("health=%.1f food=%.1f", st.Health, st.Food)
	if st.Food >= maxFood {
		return false, nil
	}
	if st.Food >= conf.FoodThreshold && st.Health >= conf.HealthThreshold {
		return false, nil
	}

	hand := inventory.MainHand
	inv := c.Inventory()
	held := inv.Holding()
	if conf.OffHand {
		hand, held = inventory.OffHand, inv.OffHand()
	}
	isFood := func(s inventory.Stack) bool { return slices.Contains(conf.Foods, s.Name) }

	if held.Empty() || !isFood(held) {
		slot, ok := inv.First(isFood)
		if !ok {
			log.Info("no food left in the inventory")
			return false, nil
		}
		if err := c.Equip(ctx, slot, hand); err != nil {
			log.Debugf("failed to equip food: %v", err)
			return false, nil
		}
	}

	if err := c.UseItem(ctx, hand); err != nil {
		log.Debugf("failed to start eating: %v", err)
		return false, nil
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = eatTicks * 2 * time.Second / 20
	}
	err := waitFor(ctx, "eating", timeout, c.Consume)
	if err == nil {
		return true, nil
	}
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err := c.ReleaseItem(ctx); err != nil {
		log.Debugf("failed to stop eating: %v", err)
	}
	log.Debugf("cancelled eating: %v", err)
	return false, nil
}

// EatTask returns a task that eats until the bot is not hungry anymore, at most five items in a row.
func EatTask(c bot.Client, conf EatConfig, log *logrus.Logger) scheduler.Task {
	entry := log.WithField("action", "AutoEat")
	return func(ctx context.Context) (scheduler.Status, error) {
		for i := 0; i < maxConsecutiveEats; i++ {
			ate, err := Eat(ctx, c, conf, entry)
			if err != nil {
				return scheduler.StatusContinue, err
			}
			if !ate {
				break
			}
		}
		return scheduler.StatusContinue, nil
	}
}
