package session

import (
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/action"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/scheduler"
	"github.com/tedious-mc/tedious/settings"
)

// Catalog builds the behaviors named in the settings for a single connection.
type Catalog struct {
	conf     settings.Config
	c        bot.Client
	nav      bot.Navigator
	log      *logrus.Logger
	registry func() []string
}

// NewCatalog creates a Catalog building behaviors acting through c and nav. registry returns the item
// names that dig target patterns are expanded against.
func NewCatalog(conf settings.Config, c bot.Client, nav bot.Navigator, registry func() []string, log *logrus.Logger) *Catalog {
	return &Catalog{conf: conf, c: c, nav: nav, log: log, registry: registry}
}

func (cat *Catalog) Names() []string {
	return settings.ActionNames()
}

// Build creates a fresh task for the behavior named. A DigBlocks task starts its search from scratch.
func (cat *Catalog) Build(name string) (scheduler.Task, error) {
	switch name {
	case settings.ActionAttack:
		return action.AttackTask(cat.c, cat.conf.AttackConfig(), cat.log), nil
	case settings.ActionAutoEat:
		return action.EatTask(cat.c, cat.conf.EatConfig(), cat.log), nil
	case settings.ActionDigBlocks:
		return action.NewHarvester(cat.conf.HarvestConfig(cat.registry()), cat.c, cat.nav, cat.log).Task(), nil
	case settings.ActionTreeChop:
		return action.TreeChopTask(cat.c, cat.conf.TreeChopConfig(), cat.log), nil
	}
	return nil, berror.New(game.ErrorUnknownAction, name)
}
