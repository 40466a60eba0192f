package action

import (
	"context"
	"time"

	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
)

// Travel moves the bot to the goal, giving up after timeout. On timeout the navigator is stopped. The
// error returned is always transient.
func Travel(ctx context.Context, nav bot.Navigator, g bot.Goal, timeout time.Duration) error {
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := nav.Goto(tctx, g); err != nil {
		if tctx.Err() != nil {
			nav.Stop()
			return berror.New(game.ErrorTimeout, "travel")
		}
		return berror.New("travel to %+v: %w", g, err)
	}
	return nil
}

// waitFor waits for f to return within timeout. The error returned is always transient.
func waitFor(ctx context.Context, what string, timeout time.Duration, f func(ctx context.Context) error) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := f(wctx); err != nil {
		if wctx.Err() != nil {
			return berror.New(game.ErrorTimeout, what)
		}
		return berror.New("%s: %w", what, err)
	}
	return nil
}
