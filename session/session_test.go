package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/internal/fakeworld"
	"github.com/tedious-mc/tedious/inventory"
	"github.com/tedious-mc/tedious/settings"
	"go.uber.org/atomic"
	"golang.org/x/exp/slices"
)

// fakeConn is a connection to a fake world. It spawns as soon as a handler is set.
type fakeConn struct {
	*fakeworld.World

	mu sync.Mutex
	h  bot.Handler

	done      chan struct{}
	closeOnce sync.Once
	respawns  atomic.Int32

	// onSpawn is run on its own goroutine after the spawn was handled.
	onSpawn func(c *fakeConn)
}

func newFakeConn(onSpawn func(c *fakeConn)) *fakeConn {
	return &fakeConn{
		World:   fakeworld.New(mgl64.Vec3{0.5, 64, 0.5}),
		done:    make(chan struct{}),
		onSpawn: onSpawn,
	}
}

func (c *fakeConn) Handle(h bot.Handler) {
	c.mu.Lock()
	c.h = h
	c.mu.Unlock()

	h.HandleSpawn()
	if c.onSpawn != nil {
		go c.onSpawn(c)
	}
}

func (c *fakeConn) handler() bot.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.h
}

func (c *fakeConn) Respawn(context.Context) error {
	c.respawns.Inc()
	return nil
}

func (c *fakeConn) Done() <-chan struct{} {
	return c.done
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) exit() {
	c.handler().HandleChat("<Alice> //exit")
}

func testConfig() settings.Config {
	conf := settings.DefaultConfig()
	conf.Server.Address = ""
	conf.Actions = nil
	conf.Chat.Players = []string{"Alice"}
	conf.Reconnect.Delay = 0
	conf.Reconnect.MaxAttempts = 2
	return conf
}

type testSession struct {
	*Session
	connects atomic.Int32
	probes   atomic.Int32
}

// newTestSession creates a Session handing out the connections passed in order.
func newTestSession(conf settings.Config, conns ...*fakeConn) *testSession {
	log := logrus.New()
	log.SetOutput(io.Discard)

	ts := &testSession{}
	ts.Session = New(conf, func(context.Context) (bot.Conn, error) {
		n := int(ts.connects.Inc())
		if n > len(conns) {
			return nil, errors.New("connection refused")
		}
		return conns[n-1], nil
	}, func(c bot.Conn) bot.Navigator {
		return c.(*fakeConn).World
	}, log)
	ts.registry = func() []string { return nil }
	ts.probe = func(context.Context) error {
		ts.probes.Inc()
		return nil
	}
	return ts
}

func run(t *testing.T, s *testSession) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	err := s.Run(ctx)
	if ctx.Err() != nil {
		t.Fatalf("session did not end in time")
	}
	return err
}

// eventually polls f until it returns true or two seconds passed.
func eventually(f func() bool) bool {
	deadline := time.Now().Add(time.Second * 2)
	for time.Now().Before(deadline) {
		if f() {
			return true
		}
		time.Sleep(time.Millisecond * 5)
	}
	return false
}

func TestReconnectGivesUp(t *testing.T) {
	s := newTestSession(testConfig())

	err := run(t, s)
	if err == nil {
		t.Fatalf("expected the session to give up")
	}
	if berror.KindOf(err) != berror.KindConnectivity {
		t.Fatalf("expected a connectivity error, got %v", err)
	}
	if s.connects.Load() != 3 {
		t.Fatalf("expected 1 connection and 2 reconnection attempts, got %d", s.connects.Load())
	}
	if s.probes.Load() != 2 {
		t.Fatalf("expected the server to be probed before every attempt, got %d", s.probes.Load())
	}
}

func TestReconnectDisabled(t *testing.T) {
	conf := testConfig()
	conf.Reconnect.Enabled = false
	s := newTestSession(conf)

	if err := run(t, s); err == nil {
		t.Fatalf("expected the connection error")
	}
	if s.connects.Load() != 1 {
		t.Fatalf("expected a single connection, got %d", s.connects.Load())
	}
}

func TestExitFinishesSession(t *testing.T) {
	conn := newFakeConn((*fakeConn).exit)
	s := newTestSession(testConfig(), conn)

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Control().Finished() {
		t.Fatalf("expected the session to be finished")
	}
	if s.connects.Load() != 1 {
		t.Fatalf("expected no reconnection after exit, got %d connections", s.connects.Load())
	}
	if !slices.Contains(conn.ChatLog(), "bye") {
		t.Fatalf("expected a goodbye, got %v", conn.ChatLog())
	}
}

func TestFinishWhenDone(t *testing.T) {
	conf := testConfig()
	conf.FinishWhenDone = true
	conf.Actions = []string{settings.ActionDigBlocks}
	conf.Dig.From = []int{0, 64, 0}
	conf.Dig.To = []int{1, 64, 1}
	conn := newFakeConn(nil)
	s := newTestSession(conf, conn)

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Control().Finished() || s.connects.Load() != 1 {
		t.Fatalf("expected the session to finish on the first connection, got %d", s.connects.Load())
	}
}

func TestReconnectAfterDisconnect(t *testing.T) {
	first := newFakeConn(func(c *fakeConn) {
		c.handler().HandleDisconnect("kicked")
		_ = c.Close()
	})
	second := newFakeConn(nil)
	s := newTestSession(testConfig(), first, second)

	attempts := -1
	second.onSpawn = func(c *fakeConn) {
		attempts = s.Control().Attempts()
		c.exit()
	}

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.connects.Load() != 2 || s.probes.Load() != 1 {
		t.Fatalf("expected a single reconnection, got %d connections and %d probes", s.connects.Load(), s.probes.Load())
	}
	if attempts != 0 {
		t.Fatalf("expected the attempts to be reset on spawn, got %d", attempts)
	}
}

func TestDeathRespawnsAndResumes(t *testing.T) {
	conf := testConfig()
	conf.Actions = []string{settings.ActionAutoEat}

	var resumed bool
	var s *testSession
	conn := newFakeConn(func(c *fakeConn) {
		c.handler().HandleDeath()
		resumed = eventually(func() bool {
			l := s.current()
			return c.respawns.Load() == 1 && l != nil && !l.d.Paused() && l.sched.Running()
		})
		c.exit()
	})
	s = newTestSession(conf, conn)

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conn.respawns.Load() != 1 {
		t.Fatalf("expected a respawn, got %d", conn.respawns.Load())
	}
	if !resumed {
		t.Fatalf("expected the run loop to resume after the respawn")
	}
}

func TestDeathWaitsForResumeNotification(t *testing.T) {
	conf := testConfig()
	conf.Actions = []string{settings.ActionAutoEat}
	conf.Chat.Resume = []string{`back to work$`}

	var pausedAfterRespawn, resumed bool
	var s *testSession
	conn := newFakeConn(func(c *fakeConn) {
		c.handler().HandleDeath()
		eventually(func() bool { return c.respawns.Load() == 1 })
		time.Sleep(time.Millisecond * 50)
		pausedAfterRespawn = s.current().d.Paused()

		c.handler().HandleChat("[Server] back to work")
		resumed = eventually(func() bool {
			l := s.current()
			return !l.d.Paused() && l.sched.Running()
		})
		c.exit()
	})
	s = newTestSession(conf, conn)

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pausedAfterRespawn {
		t.Fatalf("expected the run loop to stay paused until the notification")
	}
	if !resumed {
		t.Fatalf("expected the notification to resume the run loop")
	}
}

// A fatal task error stops the run loop and is reported in chat.
func TestTaskErrorIsReported(t *testing.T) {
	conf := testConfig()
	conf.Actions = []string{settings.ActionDigBlocks}
	conf.Dig.From = []int{0, 64, 0}
	conf.Dig.To = []int{1, 64, 1}

	var chats []string
	conn := newFakeConn(func(c *fakeConn) {
		eventually(func() bool { return len(c.ChatLog()) > 0 })
		chats = c.ChatLog()
		c.exit()
	})
	conn.SetBlock(cube.Pos{1, 64, 0}, "stone")
	for i := 0; i < inventory.SizePlayer; i++ {
		conn.Give(inventory.Stack{Name: "dirt", Count: 64})
	}
	s := newTestSession(conf, conn)

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.ContainsFunc(chats, func(msg string) bool {
		return strings.HasPrefix(msg, "DigBlocks: ") && strings.Contains(msg, game.ErrorNoBox)
	}) {
		t.Fatalf("expected the failure of DigBlocks in chat, got %v", chats)
	}
}

func TestSnapshot(t *testing.T) {
	var connected bool
	var s *testSession
	conn := newFakeConn(func(c *fakeConn) {
		snap := s.Snapshot()
		connected = snap.Connected && snap.Username == "tedious" && snap.Health == 20
		c.exit()
	})
	s = newTestSession(testConfig(), conn)

	if err := run(t, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !connected {
		t.Fatalf("expected the snapshot to show the connection")
	}
	if snap := s.Snapshot(); snap.Connected {
		t.Fatalf("expected a disconnected snapshot once the session ended, got %+v", snap)
	}
}

func TestCatalog(t *testing.T) {
	conn := newFakeConn(nil)
	cat := NewCatalog(testConfig(), conn, conn.World, func() []string { return nil }, logrus.New())

	for _, name := range cat.Names() {
		task, err := cat.Build(name)
		if err != nil || task == nil {
			t.Fatalf("expected %s to be built, got %v", name, err)
		}
	}
	if _, err := cat.Build("Fly"); err == nil {
		t.Fatalf("expected an unknown action to fail")
	}
}
