// Package navigator moves the bot towards goals.
package navigator

import (
	"context"
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
)

const (
	// WalkSpeed is the distance covered in a tick when walking.
	WalkSpeed = 0.215
	// stuckTicks is the number of ticks without moving after which a goal is given up.
	stuckTicks = 20
)

// errStopped is returned by Goto when Stop was called.
var errStopped = errors.New("navigation stopped")

// Body is the part of the bot the Walker moves.
type Body interface {
	Position() mgl64.Vec3
	// Move moves the bot to pos, facing the direction passed. It is applied on the next tick.
	Move(ctx context.Context, pos mgl64.Vec3, yaw, pitch float32) error
	WaitTicks(ctx context.Context, n int) error
}

// Walker walks in a straight line towards goals. It does not avoid obstacles: a goal it cannot walk
// straight to fails once the bot stops moving.
type Walker struct {
	body  Body
	speed float64
	log   *logrus.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	// gen identifies the Goto in progress, so that a finished Goto does not clear the cancel func of a newer one.
	gen uint64
}

// New creates a Walker moving the Body passed at walking speed.
func New(body Body, log *logrus.Logger) *Walker {
	return &Walker{body: body, speed: WalkSpeed, log: log.WithField("component", "navigator")}
}

// Goto walks towards the goal until it is reached. A Goto in progress is stopped first.
func (w *Walker) Goto(ctx context.Context, g bot.Goal) error {
	ctx, gen := w.begin(ctx)
	defer w.end(gen)

	var (
		last  = w.body.Position()
		still int
	)
	for {
		pos := w.body.Position()
		if g.Reached(pos) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			if context.Cause(ctx) == errStopped {
				return berror.New("goto %+v: %w", g, errStopped)
			}
			return err
		}

		if pos.Sub(last).Len() < 1e-4 {
			still++
		} else {
			still = 0
		}
		if still > stuckTicks {
			w.log.Debugf("no progress towards %v for %d ticks", g.Target(pos), stuckTicks)
			return berror.New("goto %+v: stuck at %v", g, pos)
		}
		last = pos

		target := g.Target(pos)
		diff := target.Sub(pos)
		dist := diff.Len()
		if dist < 1e-4 {
			return berror.New("goto %+v: target %v reached but goal is not", g, target)
		}
		next := target
		if dist > w.speed {
			next = pos.Add(diff.Mul(w.speed / dist))
		}
		yaw, _ := game.LookRotation(pos, target)
		if err := w.body.Move(ctx, next, yaw, 0); err != nil {
			return err
		}
		if err := w.body.WaitTicks(ctx, 1); err != nil && ctx.Err() == nil {
			return err
		}
	}
}

// Stop stops the Goto in progress, if any.
func (w *Walker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Walker) begin(ctx context.Context) (context.Context, uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
	ctx, cancel := context.WithCancelCause(ctx)
	w.gen++
	w.cancel = func() { cancel(errStopped) }
	return ctx, w.gen
}

func (w *Walker) end(gen uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.gen == gen && w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

var _ bot.Navigator = (*Walker)(nil)
