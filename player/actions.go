package player

import (
	"context"
	"strings"
	"time"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/entity"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
	botworld "github.com/tedious-mc/tedious/world"
)

const (
	// consumeTicks is the number of ticks it takes to eat or drink an item.
	consumeTicks = 32
	// confirmTicks is the number of ticks the server has to confirm a block change.
	confirmTicks = 10
)

func (p *Player) write(pk packet.Packet) error {
	select {
	case <-p.done:
		return notConnected()
	default:
	}
	if err := p.conn.WritePacket(pk); err != nil {
		return berror.Connectivity("write %T: %w", pk, err)
	}
	return nil
}

// Chat sends a chat message, or runs a command if msg starts with a slash.
func (p *Player) Chat(msg string) error {
	if strings.HasPrefix(msg, "/") {
		return p.write(&packet.CommandRequest{
			CommandLine: msg,
			CommandOrigin: protocol.CommandOrigin{
				Origin: protocol.CommandOriginPlayer,
				UUID:   uuid.New(),
			},
		})
	}
	return p.write(&packet.Text{
		TextType:   packet.TextTypeChat,
		SourceName: p.name,
		Message:    msg,
		XUID:       p.xuid,
	})
}

// tickLoop sends the input of the player to the server every tick.
func (p *Player) tickLoop() {
	t := time.NewTicker(tickDuration)
	defer t.Stop()

	var last mgl64.Vec3
	for {
		select {
		case <-p.done:
			return
		case <-t.C:
		}
		p.mu.Lock()
		pos, yaw, pitch := p.pos, p.yaw, p.pitch
		p.mu.Unlock()

		p.tickMu.Lock()
		p.tick++
		tick := p.tick
		p.tickMu.Unlock()

		eyes := pos.Add(mgl64.Vec3{0, bot.EyeHeight})
		_ = p.write(&packet.PlayerAuthInput{
			Pitch:     pitch,
			Yaw:       yaw,
			HeadYaw:   yaw,
			Position:  game.Vec64To32(eyes),
			Delta:     game.Vec64To32(pos.Sub(last)),
			InputData: protocol.NewBitset(packet.PlayerAuthInputBitsetSize),
			InputMode: packet.InputModeMouse,
			PlayMode:  packet.PlayModeNormal,
			Tick:      tick,
		})
		last = pos
		p.signalTick()
	}
}

// signalTick wakes up everything waiting for the next tick.
func (p *Player) signalTick() {
	p.tickMu.Lock()
	close(p.tickCh)
	p.tickCh = make(chan struct{})
	p.tickMu.Unlock()
}

// WaitTicks waits n game ticks.
func (p *Player) WaitTicks(ctx context.Context, n int) error {
	for range n {
		p.tickMu.Lock()
		ch := p.tickCh
		p.tickMu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return notConnected()
		case <-ch:
		}
	}
	return nil
}

// WaitForRelocation waits until the server moves the bot.
func (p *Player) WaitForRelocation(ctx context.Context) error {
	select {
	case <-p.relocated:
	default:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return notConnected()
	case <-p.relocated:
		return nil
	}
}

// Move moves the bot to the position passed and rotates it. The position is sent to the server with the
// input of the next tick.
func (p *Player) Move(ctx context.Context, pos mgl64.Vec3, yaw, pitch float32) error {
	p.mu.Lock()
	p.pos, p.yaw, p.pitch = pos, yaw, pitch
	p.mu.Unlock()
	return p.WaitTicks(ctx, 1)
}

// LookAt rotates the head of the bot towards the position passed.
func (p *Player) LookAt(ctx context.Context, pos mgl64.Vec3) error {
	yaw, pitch := game.LookRotation(p.eyes(), pos)
	p.mu.Lock()
	p.yaw, p.pitch = yaw, pitch
	p.mu.Unlock()
	return p.WaitTicks(ctx, 1)
}

func (p *Player) swing() error {
	return p.write(&packet.Animate{ActionType: packet.AnimateActionSwingArm, EntityRuntimeID: p.rid})
}

// Attack hits the entity with the runtime ID passed.
func (p *Player) Attack(ctx context.Context, id uint64) error {
	e, ok := p.entities.Entity(id)
	if !ok {
		return berror.New("entity %d is not in sight", id)
	}
	if err := p.LookAt(ctx, e.Position()); err != nil {
		return err
	}
	if err := p.swing(); err != nil {
		return err
	}
	held := p.inv.HeldSlot()
	return p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.UseItemOnEntityTransactionData{
			TargetEntityRuntimeID: id,
			ActionType:            protocol.UseItemOnEntityActionAttack,
			HotBarSlot:            int32(held),
			HeldItem:              p.rawSlot(held),
			Position:              game.Vec64To32(p.Position()),
			ClickedPosition:       mgl32.Vec3{},
		},
	})
}

// UseItem starts using the item in the hand passed.
func (p *Player) UseItem(ctx context.Context, hand inventory.Hand) error {
	held := p.inv.HeldSlot()
	it := p.rawSlot(held)
	if hand == inventory.OffHand {
		p.mu.Lock()
		it = p.rawOffHand
		p.mu.Unlock()
	}
	p.mu.Lock()
	p.using, p.usingHand = true, hand
	p.mu.Unlock()

	return p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.UseItemTransactionData{
			ActionType:       protocol.UseItemActionClickAir,
			TriggerType:      protocol.TriggerTypePlayerInput,
			BlockFace:        -1,
			HotBarSlot:       int32(held),
			HeldItem:         it,
			Position:         game.Vec64To32(p.eyes()),
			ClientPrediction: protocol.ClientPredictionSuccess,
		},
	})
}

// ReleaseItem stops using the item currently in use.
func (p *Player) ReleaseItem(context.Context) error {
	p.mu.Lock()
	using := p.using
	p.using = false
	p.mu.Unlock()
	if !using {
		return nil
	}
	held := p.inv.HeldSlot()
	return p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.ReleaseItemTransactionData{
			ActionType:   protocol.ReleaseItemActionRelease,
			HotBarSlot:   int32(held),
			HeldItem:     p.rawSlot(held),
			HeadPosition: game.Vec64To32(p.eyes()),
		},
	})
}

// Consume waits until the item in use has been eaten or drunk, and returns once the server took it from the
// hand.
func (p *Player) Consume(ctx context.Context) error {
	p.mu.Lock()
	using, hand := p.using, p.usingHand
	p.mu.Unlock()
	if !using {
		return berror.New("no item is being used")
	}
	before := p.handStack(hand)

	if err := p.WaitTicks(ctx, consumeTicks); err != nil {
		return err
	}
	held := p.inv.HeldSlot()
	if err := p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.ReleaseItemTransactionData{
			ActionType:   protocol.ReleaseItemActionConsume,
			HotBarSlot:   int32(held),
			HeldItem:     p.rawSlot(held),
			HeadPosition: game.Vec64To32(p.eyes()),
		},
	}); err != nil {
		return err
	}
	p.mu.Lock()
	p.using = false
	p.mu.Unlock()

	for range confirmTicks {
		if p.handStack(hand) != before {
			return nil
		}
		if err := p.WaitTicks(ctx, 1); err != nil {
			return err
		}
	}
	return berror.New(game.ErrorTimeout, "the item to be consumed")
}

func (p *Player) handStack(hand inventory.Hand) inventory.Stack {
	if hand == inventory.OffHand {
		return p.inv.OffHand()
	}
	return p.inv.Holding()
}

// BreakBlock mines the block at the position passed and waits until the server confirmed it is gone.
func (p *Player) BreakBlock(ctx context.Context, pos cube.Pos) error {
	b := p.world.Block(pos)
	if _, _, diggable := botworld.Describe(b); !diggable {
		return berror.New("the block at %v cannot be broken", pos)
	}
	if err := p.LookAt(ctx, pos.Vec3Centre()); err != nil {
		return err
	}
	bp := protocol.BlockPos{int32(pos[0]), int32(pos[1]), int32(pos[2])}
	face := p.faceTowards(pos)
	if err := p.write(&packet.PlayerAction{
		EntityRuntimeID: p.rid,
		ActionType:      protocol.PlayerActionStartBreak,
		BlockPosition:   bp,
		BlockFace:       int32(face),
	}); err != nil {
		return err
	}

	ticks := int(block.BreakDuration(b, heldItem(p.inv.Holding())) / tickDuration)
	for i := 0; i < ticks; i++ {
		if i%4 == 0 {
			if err := p.swing(); err != nil {
				return err
			}
		}
		if err := p.WaitTicks(ctx, 1); err != nil {
			_ = p.write(&packet.PlayerAction{EntityRuntimeID: p.rid, ActionType: protocol.PlayerActionAbortBreak, BlockPosition: bp})
			return err
		}
	}

	held := p.inv.HeldSlot()
	if err := p.write(&packet.PlayerAction{
		EntityRuntimeID: p.rid,
		ActionType:      protocol.PlayerActionStopBreak,
		BlockPosition:   bp,
		BlockFace:       int32(face),
	}); err != nil {
		return err
	}
	if err := p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.UseItemTransactionData{
			ActionType:     protocol.UseItemActionBreakBlock,
			TriggerType:    protocol.TriggerTypePlayerInput,
			BlockPosition:  bp,
			BlockFace:      int32(face),
			HotBarSlot:     int32(held),
			HeldItem:       p.rawSlot(held),
			Position:       game.Vec64To32(p.Position()),
			BlockRuntimeID: botworld.AirRuntimeID,
		},
	}); err != nil {
		return err
	}
	return p.waitBlock(ctx, pos, func(b bot.Block) bool { return b.Air() }, "the block to break")
}

// PlaceBlock places the held block against the face of the block at against.
func (p *Player) PlaceBlock(ctx context.Context, against cube.Pos, face cube.Face) error {
	held := p.inv.HeldSlot()
	if p.inv.Holding().Empty() {
		return berror.New("nothing to place")
	}
	target := against.Side(face)
	if err := p.LookAt(ctx, against.Vec3Centre()); err != nil {
		return err
	}
	if err := p.swing(); err != nil {
		return err
	}
	if err := p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.UseItemTransactionData{
			ActionType:       protocol.UseItemActionClickBlock,
			TriggerType:      protocol.TriggerTypePlayerInput,
			BlockPosition:    protocol.BlockPos{int32(against[0]), int32(against[1]), int32(against[2])},
			BlockFace:        int32(face),
			HotBarSlot:       int32(held),
			HeldItem:         p.rawSlot(held),
			Position:         game.Vec64To32(p.Position()),
			ClickedPosition:  mgl32.Vec3{0.5, 0.5, 0.5},
			ClientPrediction: protocol.ClientPredictionSuccess,
		},
	}); err != nil {
		return err
	}
	return p.waitBlock(ctx, target, func(b bot.Block) bool { return !b.Air() }, "the block to be placed")
}

// waitBlock polls the block at pos for a few ticks until f returns true.
func (p *Player) waitBlock(ctx context.Context, pos cube.Pos, f func(bot.Block) bool, what string) error {
	for range confirmTicks {
		if f(p.Block(pos)) {
			return nil
		}
		if err := p.WaitTicks(ctx, 1); err != nil {
			return err
		}
	}
	return berror.New(game.ErrorTimeout, what)
}

// faceTowards returns the face of the block at pos that faces the bot.
func (p *Player) faceTowards(pos cube.Pos) cube.Face {
	d := p.eyes().Sub(pos.Vec3Centre())
	ax, ay, az := abs(d.X()), abs(d.Y()), abs(d.Z())
	switch {
	case ay >= ax && ay >= az:
		if d.Y() > 0 {
			return cube.FaceUp
		}
		return cube.FaceDown
	case ax >= az:
		if d.X() > 0 {
			return cube.FaceEast
		}
		return cube.FaceWest
	default:
		if d.Z() > 0 {
			return cube.FaceSouth
		}
		return cube.FaceNorth
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// Respawn respawns the bot after it died.
func (p *Player) Respawn(ctx context.Context) error {
	select {
	case <-p.respawned:
	default:
	}
	if err := p.write(&packet.Respawn{State: packet.RespawnStateClientReadyToSpawn, EntityRuntimeID: p.rid}); err != nil {
		return err
	}
	if err := p.write(&packet.PlayerAction{EntityRuntimeID: p.rid, ActionType: protocol.PlayerActionRespawn, BlockFace: -1}); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return notConnected()
	case <-p.respawned:
	}
	p.mu.Lock()
	p.health = 20
	p.mu.Unlock()
	return nil
}

// Block returns the block at the position passed.
func (p *Player) Block(pos cube.Pos) bot.Block {
	name, tag, diggable := botworld.Describe(p.world.Block(pos))
	return bot.Block{Pos: pos, Name: name, Tag: tag, Diggable: diggable}
}

// CanReach returns true if the centre of the block at pos is within reach of the eyes of the bot.
func (p *Player) CanReach(pos cube.Pos) bool {
	return p.eyes().Sub(pos.Vec3Centre()).Len() <= bot.Reach
}

// Entities returns the entities around the bot, dropped items excluded.
func (p *Player) Entities() []bot.Entity {
	var entities []bot.Entity
	p.entities.Each(func(rid uint64, e *entity.Entity) {
		if _, _, ok := e.Item(); ok {
			return
		}
		entities = append(entities, bot.Entity{ID: rid, Type: e.Type(), Pos: e.Position()})
	})
	return entities
}

// DroppedItems returns the item entities lying around the bot.
func (p *Player) DroppedItems() []bot.DroppedItem {
	var items []bot.DroppedItem
	p.entities.Each(func(rid uint64, e *entity.Entity) {
		if name, count, ok := e.Item(); ok {
			items = append(items, bot.DroppedItem{ID: rid, Name: name, Count: count, Pos: e.Position()})
		}
	})
	return items
}
