package action

import (
	"context"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/inventory"
	"github.com/tedious-mc/tedious/scheduler"
	"golang.org/x/exp/slices"
)

// attackDistance is the furthest an enemy may be from the bot to be attacked.
const attackDistance = 6

// Attack attacks the nearest enemy within reach once and waits for the configured delay. It returns true
// if an enemy was attacked.
func Attack(ctx context.Context, c bot.Client, conf AttackConfig, log *logrus.Entry) (bool, error) {
	holdItem(ctx, c, conf.Weapon, log)

	pos := c.Position()
	var (
		target bot.Entity
		found  bool
		best   = float64(attackDistance)
	)
	for _, e := range c.Entities() {
		if !slices.Contains(conf.Enemies, e.Type) {
			continue
		}
		if dist := e.Pos.Sub(pos).Len(); dist <= best {
			target, best, found = e, dist, true
		}
	}

	if found {
		log.Debugf("attacking %s at %v with %v", target.Type, target.Pos, c.Inventory().Holding())
		if err := c.LookAt(ctx, target.Pos.Add(mgl64.Vec3{0, 1})); err != nil {
			log.Debugf("failed to look at %s: %v", target.Type, err)
		}
		if err := c.Attack(ctx, target.ID); err != nil {
			log.Debugf("failed to attack %s: %v", target.Type, err)
		}
	}
	if err := c.WaitTicks(ctx, conf.Delay); err != nil {
		return found, err
	}
	return found, nil
}

// AttackTask returns a task that keeps attacking until no enemy is left within reach.
func AttackTask(c bot.Client, conf AttackConfig, log *logrus.Logger) scheduler.Task {
	entry := log.WithField("action", "Attack")
	return func(ctx context.Context) (scheduler.Status, error) {
		for {
			engaged, err := Attack(ctx, c, conf, entry)
			if err != nil {
				return scheduler.StatusContinue, err
			}
			if !engaged {
				return scheduler.StatusContinue, nil
			}
		}
	}
}

// holdItem makes sure an item named name is in the main hand, if the inventory has one.
func holdItem(ctx context.Context, c bot.Client, name string, log *logrus.Entry) {
	inv := c.Inventory()
	if name == "" || inv.Holding().Name == name {
		return
	}
	slot, ok := inv.First(func(s inventory.Stack) bool { return s.Name == name })
	if !ok {
		log.Debugf("no %s in the inventory", name)
		return
	}
	if err := c.Equip(ctx, slot, inventory.MainHand); err != nil {
		log.Debugf("failed to equip %s: %v", name, err)
	}
}
