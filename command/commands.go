package command

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/utils"
)

// Command is a chat command, issued as "//<name> <args>".
type Command struct {
	Name        string
	Usage       string
	Description string
	Run         func(ctx context.Context, d *Dispatcher, req Request) error

	re *regexp.Regexp
}

func builtin() []*Command {
	return []*Command{
		{Name: "work", Description: "start the run loop", Run: work},
		{Name: "stop", Description: "stop the run loop", Run: stop},
		{Name: "state", Description: "report position, health, food and experience", Run: state},
		{Name: "listAction", Description: "list the registered and available actions", Run: listAction},
		{Name: "addAction", Usage: "<name>", Description: "register an action", Run: addAction},
		{Name: "removeAction", Usage: "<name>", Description: "unregister an action", Run: removeAction},
		{Name: "exec", Usage: "<text>", Description: "send a chat line", Run: exec},
		{Name: "draw", Description: "run the draw command", Run: draw},
		{Name: "csafe", Description: "make sure the safety toggle is on", Run: csafe},
		{Name: "exit", Description: "disconnect", Run: exit},
		{Name: "help", Description: "list the commands", Run: help},
	}
}

func work(ctx context.Context, d *Dispatcher, _ Request) error {
	if d.sched.Running() {
		d.Reply("already working")
		return nil
	}
	d.paused.Store(false)
	if err := d.sched.Start(ctx); err != nil {
		return err
	}
	d.Reply("start working")
	return nil
}

func stop(ctx context.Context, d *Dispatcher, _ Request) error {
	d.paused.Store(false)
	if !d.sched.Running() {
		d.Reply("not working")
		return nil
	}
	d.sched.Stop()
	d.Reply("stop working")

	waitCtx, cancel := context.WithTimeout(ctx, d.conf.StopTimeout)
	defer cancel()
	if err := d.sched.Wait(waitCtx); err != nil {
		return berror.New(game.ErrorTimeout, "the run loop to stop")
	}
	d.log.Debug("run loop stopped")
	return nil
}

func state(_ context.Context, d *Dispatcher, _ Request) error {
	st := d.c.Status()
	d.Reply("%s %s", st, utils.PrettyParams("working", d.sched.Running(), "actions", strings.Join(d.sched.Names(), ",")))
	return nil
}

func listAction(_ context.Context, d *Dispatcher, _ Request) error {
	d.Reply("registered: [%s] available: [%s]", strings.Join(d.sched.Names(), ", "), strings.Join(d.catalog.Names(), ", "))
	return nil
}

func addAction(_ context.Context, d *Dispatcher, req Request) error {
	if req.Args == "" {
		return fmt.Errorf("usage: //addAction <name>")
	}
	if d.sched.Running() {
		return berror.New(game.ErrorSchedulerRunning)
	}
	t, err := d.catalog.Build(req.Args)
	if err != nil {
		return err
	}
	if err := d.sched.Add(req.Args, t); err != nil {
		return err
	}
	d.Reply("added %s", req.Args)
	return nil
}

func removeAction(_ context.Context, d *Dispatcher, req Request) error {
	if req.Args == "" {
		return fmt.Errorf("usage: //removeAction <name>")
	}
	if err := d.sched.Remove(req.Args); err != nil {
		return err
	}
	d.Reply("removed %s", req.Args)
	return nil
}

func exec(_ context.Context, d *Dispatcher, req Request) error {
	if req.Args == "" {
		return fmt.Errorf("usage: //exec <text>")
	}
	return d.c.Chat(req.Args)
}

func draw(_ context.Context, d *Dispatcher, _ Request) error {
	if d.conf.DrawCommand == "" {
		return fmt.Errorf("no draw command configured")
	}
	return d.c.Chat(d.conf.DrawCommand)
}

func csafe(ctx context.Context, d *Dispatcher, _ Request) error {
	line, err := d.Probe(ctx)
	if err != nil {
		return err
	}
	d.Reply("csafe: %s", line)
	return nil
}

func exit(_ context.Context, d *Dispatcher, req Request) error {
	d.paused.Store(false)
	d.sched.Stop()
	d.Reply("bye")
	d.handler().HandleExit(req.Sender)
	return nil
}

func help(_ context.Context, d *Dispatcher, _ Request) error {
	d.Reply("%s", strings.Join(lo.Map(d.commands, func(cmd *Command, _ int) string {
		if cmd.Usage != "" {
			return "//" + cmd.Name + " " + cmd.Usage
		}
		return "//" + cmd.Name
	}), ", "))
	return nil
}
