// Package session keeps the bot connected: it dials the server, wires the behaviors, the scheduler and the
// chat commands to every connection and reconnects when the connection is lost.
package session

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/sandertv/go-raknet"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/action"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/command"
	"github.com/tedious-mc/tedious/scheduler"
	"github.com/tedious-mc/tedious/settings"
	"github.com/tedious-mc/tedious/viewer"
)

// Connector dials the server and returns a connection that has not spawned yet.
type Connector func(ctx context.Context) (bot.Conn, error)

// NavigatorFunc returns the navigator moving the bot of the connection passed.
type NavigatorFunc func(c bot.Conn) bot.Navigator

// Session runs the bot over as many connections as the reconnect policy allows.
type Session struct {
	conf    settings.Config
	connect Connector
	nav     NavigatorFunc
	log     *logrus.Logger

	ctrl Control

	// probe checks that the server is up before a reconnection attempt.
	probe    func(ctx context.Context) error
	registry func() []string

	mu   sync.Mutex
	live *link
}

// link is everything wired to the current connection.
type link struct {
	conn  bot.Conn
	sched *scheduler.Scheduler
	d     *command.Dispatcher
}

// New creates a Session. The config must have been validated.
func New(conf settings.Config, connect Connector, nav NavigatorFunc, log *logrus.Logger) *Session {
	s := &Session{
		conf:     conf,
		connect:  connect,
		nav:      nav,
		log:      log,
		registry: sync.OnceValue(action.RegistryNames),
	}
	s.probe = s.ping
	return s
}

// Control returns the flags of the session.
func (s *Session) Control() *Control {
	return &s.ctrl
}

// Run connects to the server and keeps the bot running until the session is finished, the reconnect
// policy gives up or the context is done.
func (s *Session) Run(ctx context.Context) error {
	policy := s.conf.Reconnect
	delay := time.Duration(policy.Delay) * time.Second
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil || s.ctrl.Finished() {
			s.log.Info("session finished")
			return nil
		}
		s.log.Warnf("connection ended: %v", err)
		if !policy.Enabled {
			return err
		}

		n := int(s.ctrl.attempts.Inc())
		if n > policy.MaxAttempts {
			return berror.Connectivity("gave up after %d reconnection attempts: %w", policy.MaxAttempts, err)
		}
		s.log.Infof("reconnecting in %v (attempt %d/%d)", delay, n, policy.MaxAttempts)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		if err := s.probe(ctx); err != nil {
			s.log.Warnf("server did not answer: %v", err)
		}
	}
}

func (s *Session) ping(ctx context.Context) error {
	if s.conf.Server.Address == "" {
		return nil
	}
	addr := net.JoinHostPort(s.conf.Server.Address, strconv.Itoa(s.conf.Server.Port))
	timeout := time.Second * 5
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < timeout {
		timeout = time.Until(deadline)
	}
	_, err := raknet.PingTimeout(addr, timeout)
	return err
}

// runOnce runs the bot over a single connection and returns why the connection ended.
func (s *Session) runOnce(ctx context.Context) error {
	conn, err := s.connect(ctx)
	if err != nil {
		return berror.Connectivity("connect: %w", err)
	}
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(s.log)
	nav := s.nav(conn)
	cat := NewCatalog(s.conf, conn, nav, s.registry, s.log)
	for _, name := range s.conf.Actions {
		t, err := cat.Build(name)
		if err != nil {
			_ = conn.Close()
			return err
		}
		if err := sched.Add(name, t); err != nil {
			_ = conn.Close()
			return err
		}
	}
	d, err := command.New(s.conf.CommandConfig(), conn, sched, cat, s.log)
	if err != nil {
		_ = conn.Close()
		return err
	}

	h := &connHandler{s: s, ctx: connCtx, conn: conn, sched: sched, d: d, log: s.log.WithField("component", "session")}
	sched.Handle(h)
	d.Handle(h)
	s.setLink(&link{conn: conn, sched: sched, d: d})
	conn.Handle(h)

	select {
	case <-conn.Done():
	case <-ctx.Done():
		_ = conn.Close()
	}
	s.ctrl.connected.Store(false)
	s.setLink(nil)

	cancel()
	sched.Stop()
	nav.Stop()
	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer waitCancel()
	if err := sched.Wait(waitCtx); err != nil {
		s.log.Warnf("run loop did not stop: %v", err)
	}
	d.Wait()
	h.wg.Wait()

	return berror.Connectivity("disconnected: %s", h.reason())
}

func (s *Session) setLink(l *link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live = l
}

func (s *Session) current() *link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Snapshot returns the state of the bot shown by the viewer.
func (s *Session) Snapshot() viewer.Snapshot {
	snap := viewer.Snapshot{Time: time.Now(), Attempts: s.ctrl.Attempts()}
	l := s.current()
	if l == nil {
		return snap
	}
	st := l.conn.Status()
	snap.Connected = s.ctrl.Connected()
	snap.Username = st.Username
	snap.Pos = [3]float64(st.Pos)
	snap.Health, snap.Food, snap.XPLevel = st.Health, st.Food, st.XPLevel
	snap.Working = l.sched.Running()
	snap.Actions = l.sched.Names()
	snap.HeldSlot = l.conn.Inventory().HeldSlot()
	snap.Inventory = viewer.Slots(l.conn.Inventory())
	return snap
}

// connHandler reacts to the events of a single connection.
type connHandler struct {
	bot.NopHandler

	s     *Session
	ctx   context.Context
	conn  bot.Conn
	sched *scheduler.Scheduler
	d     *command.Dispatcher
	log   *logrus.Entry

	mu         sync.Mutex
	disconnect string

	wg sync.WaitGroup
}

func (h *connHandler) HandleSpawn() {
	h.s.ctrl.attempts.Store(0)
	h.s.ctrl.connected.Store(true)
	h.log.Infof("spawned as %s: %s", h.conn.Name(), h.conn.Status())
	if err := h.sched.Start(h.ctx); err != nil {
		h.log.Debugf("run loop not started: %v", err)
	}
}

func (h *connHandler) HandleChat(line string) {
	h.d.HandleLine(h.ctx, line)
}

// HandleDeath pauses the run loop and respawns. The loop resumes on the resume notification, or right
// away if none is configured.
func (h *connHandler) HandleDeath() {
	h.log.Warn("died")
	h.d.Pause()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.conn.Respawn(h.ctx); err != nil {
			h.log.Errorf("respawn failed: %v", err)
			return
		}
		if len(h.s.conf.Chat.Resume) == 0 {
			h.d.Resume(h.ctx)
		}
	}()
}

func (h *connHandler) HandleItemCollected(item bot.DroppedItem) {
	h.log.Debugf("collected %d %s", item.Count, item.Name)
}

func (h *connHandler) HandleDisconnect(reason string) {
	h.mu.Lock()
	h.disconnect = reason
	h.mu.Unlock()
	h.log.Warnf("disconnected: %s", reason)
}

func (h *connHandler) reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disconnect == "" {
		return "connection closed"
	}
	return h.disconnect
}

func (h *connHandler) HandleTaskError(name string, err error) {
	h.d.Reply("%v", err)
	if berror.KindOf(err) == berror.KindConnectivity {
		_ = h.conn.Close()
	}
}

func (h *connHandler) HandleFinish() {
	if !h.s.conf.FinishWhenDone {
		return
	}
	h.log.Info("every action finished, disconnecting")
	h.finish()
}

func (h *connHandler) HandleExit(sender string) {
	h.log.Infof("%s asked to disconnect", sender)
	h.finish()
}

func (h *connHandler) finish() {
	h.s.ctrl.Finish()
	h.HandleDisconnect("finish")
	_ = h.conn.Close()
}

var (
	_ bot.Handler       = (*connHandler)(nil)
	_ scheduler.Handler = (*connHandler)(nil)
	_ command.Handler   = (*connHandler)(nil)
	_ viewer.Source     = (*Session)(nil)
	_ command.Catalog   = (*Catalog)(nil)
)
