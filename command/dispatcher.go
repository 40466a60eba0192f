package command

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/scheduler"
	"go.uber.org/atomic"
)

// Client is the part of the bot the commands talk to.
type Client interface {
	Chat(msg string) error
	Status() bot.Status
}

// Catalog builds the behaviors that can be added to the scheduler by name.
type Catalog interface {
	// Names returns the names of every behavior that can be built.
	Names() []string
	// Build creates a fresh task for the behavior named.
	Build(name string) (scheduler.Task, error)
}

// Config configures a Dispatcher.
type Config struct {
	// Channel, if not empty, is the tag a line must start with to be taken as a command, e.g. "Channel"
	// for "[Channel][-] <Alice> //stop".
	Channel string
	// Commands lists the commands enabled. Every command is enabled if it is empty.
	Commands []string
	Gate     Gate
	// ReplyPrefix is put in front of every reply.
	ReplyPrefix string
	// DrawCommand is sent by the draw command.
	DrawCommand string
	CSafe       CSafeConfig
	// Notifications are the server messages reacted to regardless of who sent them.
	Notifications []Notification
	// StopTimeout bounds how long the stop command waits for the run loop to end.
	StopTimeout time.Duration
}

// Request is a command issued by an operator.
type Request struct {
	Sender string
	Args   string
}

// Dispatcher turns chat lines into commands and notifications acting on a scheduler.
type Dispatcher struct {
	conf    Config
	c       Client
	sched   *scheduler.Scheduler
	catalog Catalog
	log     *logrus.Entry

	commands      []*Command
	notifications []compiledNotification

	wMu     sync.Mutex
	waiters map[*waiter]struct{}

	// paused is true while the run loop is stopped because of a notification.
	paused atomic.Bool

	hMutex sync.RWMutex
	h      Handler

	wg sync.WaitGroup
}

// New creates a Dispatcher for the commands enabled in the Config.
func New(conf Config, c Client, sched *scheduler.Scheduler, catalog Catalog, log *logrus.Logger) (*Dispatcher, error) {
	if conf.StopTimeout <= 0 {
		conf.StopTimeout = time.Second * 30
	}
	d := &Dispatcher{
		conf:    conf,
		c:       c,
		sched:   sched,
		catalog: catalog,
		log:     log.WithField("component", "command"),
		waiters: make(map[*waiter]struct{}),
		h:       NopHandler{},
	}

	prefix := `^(?:\[[^\]]*\])*`
	if conf.Channel != "" {
		prefix = `^\[` + regexp.QuoteMeta(conf.Channel) + `\](?:\[[^\]]*\])*`
	}
	for _, cmd := range builtin() {
		if len(conf.Commands) > 0 && !lo.Contains(conf.Commands, cmd.Name) {
			continue
		}
		cmd.re = regexp.MustCompile(prefix + `\s*<([^>]+)>\s*//` + regexp.QuoteMeta(cmd.Name) + `(?:\s+(.*))?\s*$`)
		d.commands = append(d.commands, cmd)
	}
	for _, name := range conf.Commands {
		if d.lookup(name) == nil {
			return nil, fmt.Errorf("unknown command %q", name)
		}
	}

	for _, n := range conf.Notifications {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return nil, fmt.Errorf("notification pattern %q: %w", n.Pattern, err)
		}
		d.notifications = append(d.notifications, compiledNotification{Notification: n, re: re})
	}
	if conf.CSafe.Command != "" {
		if _, err := regexp.Compile(conf.CSafe.Response); err != nil {
			return nil, fmt.Errorf("csafe response pattern %q: %w", conf.CSafe.Response, err)
		}
	}
	return d, nil
}

// Handle sets the handler of the Dispatcher.
func (d *Dispatcher) Handle(h Handler) {
	if h == nil {
		h = NopHandler{}
	}
	d.hMutex.Lock()
	defer d.hMutex.Unlock()
	d.h = h
}

func (d *Dispatcher) handler() Handler {
	d.hMutex.RLock()
	defer d.hMutex.RUnlock()
	return d.h
}

// Commands returns the commands enabled.
func (d *Dispatcher) Commands() []*Command {
	return d.commands
}

// HandleLine processes a chat line. Commands run on their own goroutine so that they can wait for later
// chat lines; use Wait to block until they are done.
func (d *Dispatcher) HandleLine(ctx context.Context, line string) {
	d.deliver(line)

	for _, cmd := range d.commands {
		m := cmd.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		req := Request{Sender: strings.TrimSpace(m[1]), Args: strings.TrimSpace(m[2])}
		if !d.conf.Gate.Allowed(req.Sender) {
			d.log.Infof("ignoring //%s from %s", cmd.Name, req.Sender)
			return
		}
		d.log.Infof("%s issued //%s %s", req.Sender, cmd.Name, req.Args)
		d.run(ctx, cmd, req)
		return
	}

	for _, n := range d.notifications {
		if n.re.MatchString(line) {
			d.notify(ctx, n.Notification)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, cmd *Command, req Request) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				d.log.Errorf("//%s panicked: %v", cmd.Name, err)
				hub := sentry.CurrentHub().Clone()
				hub.Recover(berror.New("command %s crashed: %v", cmd.Name, err))
				hub.Flush(time.Second * 5)
			}
		}()

		if err := cmd.Run(ctx, d, req); err != nil {
			d.log.Warnf("//%s failed: %v", cmd.Name, err)
			d.Reply("%s failed: %v", cmd.Name, err)
		}
	}()
}

// Wait blocks until every command started has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Reply sends a chat message.
func (d *Dispatcher) Reply(format string, args ...any) {
	if err := d.c.Chat(d.conf.ReplyPrefix + fmt.Sprintf(format, args...)); err != nil {
		d.log.Debugf("failed to reply: %v", err)
	}
}

// Pause stops the run loop and remembers to start it again on Resume. It does nothing if the loop is not
// running.
func (d *Dispatcher) Pause() {
	if !d.sched.Running() {
		return
	}
	d.sched.Stop()
	d.paused.Store(true)
	d.log.Info("run loop paused")
}

// Resume starts the run loop again if it was stopped by Pause. The loop is left alone if an operator
// stopped it.
func (d *Dispatcher) Resume(ctx context.Context) {
	if !d.paused.CompareAndSwap(true, false) {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, d.conf.StopTimeout)
	defer cancel()
	if err := d.sched.Wait(waitCtx); err != nil {
		d.log.Warnf("run loop did not stop in time: %v", err)
		return
	}
	if err := d.sched.Start(ctx); err != nil {
		d.log.Warnf("failed to resume the run loop: %v", err)
		return
	}
	d.log.Info("run loop resumed")
}

// Paused returns true while the run loop is stopped by Pause.
func (d *Dispatcher) Paused() bool {
	return d.paused.Load()
}

func (d *Dispatcher) lookup(name string) *Command {
	for _, cmd := range d.commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}
