package settings

import (
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/samber/lo"
	"github.com/tedious-mc/tedious/action"
	"github.com/tedious-mc/tedious/auth"
	"github.com/tedious-mc/tedious/command"
	"github.com/tedious-mc/tedious/game"
	"golang.org/x/exp/slices"
)

// HarvestConfig returns the config of the DigBlocks behavior. Target patterns are expanded against the
// registry passed.
func (c Config) HarvestConfig(registry []string) action.HarvestConfig {
	d := c.Dig
	return action.HarvestConfig{
		Targets:           action.ExpandTargets(d.Targets, registry),
		Region:            game.NewRegion(toPos(d.From), toPos(d.To)),
		Radius:            d.Radius,
		MinFreeSlots:      d.MinFreeSlots,
		Container:         d.Container,
		DurabilityFloor:   d.DurabilityFloor,
		Progressive:       d.Progressive,
		StoreExclude:      c.storeExclude(),
		Delay:             d.Delay,
		FastTravelCommand: d.FastTravelCommand,
		TravelTimeout:     time.Duration(d.TravelTimeout) * time.Second,
	}
}

// storeExclude returns the items never stored by DigBlocks: the configured ones, the foods AutoEat eats and
// the weapon Attack holds.
func (c Config) storeExclude() []string {
	keep := append(slices.Clone(c.Dig.StoreExclude), c.AutoEat.Foods...)
	if c.Attack.Weapon != "" {
		keep = append(keep, c.Attack.Weapon)
	}
	return lo.Uniq(keep)
}

func (c Config) AttackConfig() action.AttackConfig {
	return action.AttackConfig{Enemies: c.Attack.Enemies, Delay: c.Attack.Delay, Weapon: c.Attack.Weapon}
}

func (c Config) EatConfig() action.EatConfig {
	return action.EatConfig{
		Foods:           c.AutoEat.Foods,
		FoodThreshold:   c.AutoEat.FoodThreshold,
		HealthThreshold: c.AutoEat.HealthThreshold,
		OffHand:         c.AutoEat.OffHand,
	}
}

func (c Config) TreeChopConfig() action.TreeChopConfig {
	t := c.TreeChop
	return action.TreeChopConfig{
		Trees:   t.Trees,
		Delay:   t.Delay,
		Tool:    t.Tool,
		Length:  t.Length,
		StepX:   t.StepX,
		StepZ:   t.StepZ,
		OffsetY: t.OffsetY,
	}
}

// CommandConfig returns the config of the chat commands and notifications.
func (c Config) CommandConfig() command.Config {
	ch := c.Chat
	conf := command.Config{
		Channel:     ch.Channel,
		Commands:    ch.Commands,
		Gate:        command.Gate{Mode: command.GateMode(ch.Mode), Names: ch.Players},
		ReplyPrefix: ch.ReplyPrefix,
		DrawCommand: ch.DrawCommand,
		CSafe: command.CSafeConfig{
			Command:  ch.CSafe.Command,
			Response: ch.CSafe.Response,
			Want:     ch.CSafe.Want,
			Retries:  ch.CSafe.Retries,
		},
	}
	for _, p := range ch.Pause {
		conf.Notifications = append(conf.Notifications, command.Notification{Pattern: p, Kind: command.NotifyPause})
	}
	for _, p := range ch.Resume {
		conf.Notifications = append(conf.Notifications, command.Notification{Pattern: p, Kind: command.NotifyResume})
	}
	if ch.AutoAccept.Pattern != "" {
		conf.Notifications = append(conf.Notifications, command.Notification{
			Pattern: ch.AutoAccept.Pattern,
			Kind:    command.NotifyReply,
			Reply:   ch.AutoAccept.Command,
		})
	}
	return conf
}

// AuthConfig returns the config of the token provider, caching tokens at tokenPath.
func (c Config) AuthConfig(tokenPath string) auth.Config {
	return auth.Config{
		ClientID:       c.Auth.ClientID,
		EntitlementURL: c.Auth.EntitlementURL,
		CachePath:      tokenPath,
	}
}

func toPos(v []int) cube.Pos {
	var p cube.Pos
	copy(p[:], v)
	return p
}
