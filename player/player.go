// Package player implements the bot as a client of a Bedrock Edition server.
package player

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/text"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/entity"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
	botworld "github.com/tedious-mc/tedious/world"
	"go.uber.org/atomic"
	"golang.org/x/oauth2"
)

const (
	// tickDuration is the duration of a game tick.
	tickDuration = time.Second / 20
)

// Config holds the settings used to connect to a server.
type Config struct {
	// Address is the address of the server, e.g. "127.0.0.1:19132".
	Address string
	// TokenSource provides the Microsoft Live token the bot logs in with. The bot joins offline mode
	// servers without authentication if it is nil.
	TokenSource oauth2.TokenSource
}

// Player is the bot connected to a server. It keeps the state of the world around it up to date from the
// packets the server sends and implements bot.Conn.
type Player struct {
	log  *logrus.Logger
	conn ServerConn

	rid  uint64
	uid  int64
	name string
	xuid string
	// items maps the network IDs of the items of the server to their names.
	items map[int32]string

	world    *botworld.World
	entities *entity.Tracker
	inv      *inventory.Inventory

	mu         sync.Mutex
	pos        mgl64.Vec3
	yaw, pitch float32
	health     float64
	food       float64
	xpLevel    int
	xpTotal    float64
	// raw holds the item instances of the inventory slots as sent by the server. They are sent back in
	// transactions.
	raw        [inventory.SizePlayer]protocol.ItemInstance
	rawOffHand protocol.ItemInstance
	using      bool
	usingHand  inventory.Hand

	tickMu sync.Mutex
	tick   uint64
	tickCh chan struct{}

	relocated chan struct{}
	respawned chan struct{}

	wMu     sync.Mutex
	windows map[byte]*window
	opened  chan *window

	requestID atomic.Int32
	rMu       sync.Mutex
	requests  map[int32]chan protocol.ItemStackResponse

	hMutex    sync.RWMutex
	h         bot.Handler
	spawnOnce sync.Once

	closing   atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the server and spawns the bot. The Player returned starts playing once a handler is
// set with Handle.
func Dial(ctx context.Context, conf Config, log *logrus.Logger) (*Player, error) {
	conn, err := minecraft.Dialer{TokenSource: conf.TokenSource}.DialContext(ctx, "raknet", conf.Address)
	if err != nil {
		return nil, berror.Connectivity("dial %s: %w", conf.Address, err)
	}
	if err := conn.DoSpawnContext(ctx); err != nil {
		_ = conn.Close()
		return nil, berror.Connectivity("spawn: %w", err)
	}
	return New(conn, log), nil
}

// New creates a Player over a connection that has spawned already, and starts processing its packets.
func New(conn ServerConn, log *logrus.Logger) *Player {
	data := conn.GameData()
	identity := conn.IdentityData()

	p := &Player{
		log:  log,
		conn: conn,

		rid:   data.EntityRuntimeID,
		uid:   data.EntityUniqueID,
		name:  identity.DisplayName,
		xuid:  identity.XUID,
		items: make(map[int32]string, len(data.Items)),

		world:    botworld.New(log),
		entities: entity.NewTracker(),
		inv:      inventory.New(),

		pos:    game.Vec32To64(data.PlayerPosition).Sub(mgl64.Vec3{0, bot.EyeHeight}),
		yaw:    data.Yaw,
		pitch:  data.Pitch,
		health: 20,
		food:   20,

		tickCh:    make(chan struct{}),
		relocated: make(chan struct{}, 1),
		respawned: make(chan struct{}, 1),

		windows:  make(map[byte]*window),
		opened:   make(chan *window, 1),
		requests: make(map[int32]chan protocol.ItemStackResponse),

		h:    bot.NopHandler{},
		done: make(chan struct{}),
	}
	p.requestID.Store(1)
	for _, it := range data.Items {
		p.items[int32(it.RuntimeID)] = inventory.TrimNamespace(it.Name)
	}

	go p.readLoop()
	go p.tickLoop()
	return p
}

// Handle sets the handler that events are passed to. The first handler set is told about the spawn.
func (p *Player) Handle(h bot.Handler) {
	if h == nil {
		h = bot.NopHandler{}
	}
	p.hMutex.Lock()
	p.h = h
	p.hMutex.Unlock()

	p.spawnOnce.Do(h.HandleSpawn)
}

func (p *Player) handler() bot.Handler {
	p.hMutex.RLock()
	defer p.hMutex.RUnlock()
	return p.h
}

// Done is closed once the connection is closed.
func (p *Player) Done() <-chan struct{} {
	return p.done
}

// Close disconnects from the server.
func (p *Player) Close() error {
	p.closing.Store(true)
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		err = p.conn.Close()
		p.world.PurgeChunks()
	})
	return err
}

func (p *Player) readLoop() {
	defer func() {
		if err := recover(); err != nil {
			p.log.Errorf("packet loop crashed: %v\n%s", err, debug.Stack())
			hub := sentry.CurrentHub().Clone()
			hub.Recover(berror.Connectivity("packet loop crashed: %v", err))
			hub.Flush(time.Second * 5)
		}
		_ = p.Close()
	}()

	for {
		pk, err := p.conn.ReadPacket()
		if err != nil {
			if !p.closing.Load() {
				p.handler().HandleDisconnect(disconnectReason(err))
			}
			return
		}
		p.handlePacket(pk)
	}
}

// disconnectReason returns the message shown to the bot when the server closed the connection.
func disconnectReason(err error) string {
	var disc minecraft.DisconnectError
	if errors.As(err, &disc) {
		return text.Clean(disc.Error())
	}
	return strings.TrimPrefix(err.Error(), "disconnected by server: ")
}

// notConnected returns the error returned by actions once the connection is closed.
func notConnected() error {
	return berror.Connectivity(game.ErrorNotConnected)
}

func (p *Player) Name() string {
	return p.name
}

// Position returns the position of the feet of the bot.
func (p *Player) Position() mgl64.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

func (p *Player) eyes() mgl64.Vec3 {
	return p.Position().Add(mgl64.Vec3{0, bot.EyeHeight})
}

func (p *Player) Status() bot.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bot.Status{
		Pos:      p.pos,
		Health:   p.health,
		Food:     p.food,
		XPLevel:  p.xpLevel,
		XPTotal:  p.xpTotal,
		Spawned:  p.health > 0,
		Username: p.name,
	}
}

func (p *Player) Inventory() *inventory.Inventory {
	return p.inv
}

var (
	_ bot.Conn = (*Player)(nil)
)
