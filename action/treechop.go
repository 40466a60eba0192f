package action

import (
	"context"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/scheduler"
	"golang.org/x/exp/slices"
)

// ChopTrees breaks the logs found along a straight line from the bot, one tree every step. It returns the
// number of logs broken.
func ChopTrees(ctx context.Context, c bot.Client, conf TreeChopConfig, log *logrus.Entry) (int, error) {
	feet := cube.PosFromVec3(c.Position())

	var logs []cube.Pos
	for i := 1; i < conf.Length; i++ {
		pos := feet.Add(cube.Pos{conf.StepX * i, conf.OffsetY, conf.StepZ * i})
		if slices.Contains(conf.Trees, c.Block(pos).Name) {
			logs = append(logs, pos)
		}
	}
	log.Debugf("found %d logs", len(logs))

	holdItem(ctx, c, conf.Tool, log)

	var n int
	for _, pos := range logs {
		if err := c.BreakBlock(ctx, pos); err != nil {
			if ctx.Err() != nil {
				return n, ctx.Err()
			}
			log.Warnf("failed to break log at %v: %v", pos, err)
			continue
		}
		n++
		if err := c.WaitTicks(ctx, conf.Delay); err != nil {
			return n, err
		}
	}
	return n, c.WaitTicks(ctx, conf.Delay)
}

// TreeChopTask returns a task that chops the trees in front of the bot on every invocation.
func TreeChopTask(c bot.Client, conf TreeChopConfig, log *logrus.Logger) scheduler.Task {
	entry := log.WithField("action", "TreeChop")
	return func(ctx context.Context) (scheduler.Status, error) {
		_, err := ChopTrees(ctx, c, conf, entry)
		return scheduler.StatusContinue, err
	}
}
