package player

import (
	"fmt"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/sandertv/gophertunnel/minecraft/text"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/entity"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
	botworld "github.com/tedious-mc/tedious/world"
)

// handlePacket updates the state of the player with a packet sent by the server.
func (p *Player) handlePacket(pk packet.Packet) {
	switch pk := pk.(type) {
	case *packet.Text:
		p.handleText(pk)
	case *packet.MovePlayer:
		pos := game.Vec32To64(pk.Position)
		if pk.EntityRuntimeID != p.rid {
			p.entities.Move(pk.EntityRuntimeID, pos)
			return
		}
		p.relocate(pos.Sub(mgl64.Vec3{0, bot.EyeHeight}), pk.Yaw, pk.Pitch)
	case *packet.SetHealth:
		p.setHealth(float64(pk.Health), -1)
	case *packet.UpdateAttributes:
		if pk.EntityRuntimeID == p.rid {
			p.handleAttributes(pk.Attributes)
		}
	case *packet.AddActor:
		p.entities.Add(pk.EntityUniqueID, pk.EntityRuntimeID, entity.NewEntity(inventory.TrimNamespace(pk.EntityType), game.Vec32To64(pk.Position), false))
	case *packet.AddPlayer:
		p.entities.Add(pk.AbilityData.EntityUniqueID, pk.EntityRuntimeID, entity.NewEntity("player", game.Vec32To64(pk.Position), true))
	case *packet.AddItemActor:
		s := p.stack(pk.Item)
		p.entities.Add(pk.EntityUniqueID, pk.EntityRuntimeID, entity.NewItem(s.Name, s.Count, game.Vec32To64(pk.Position)))
	case *packet.RemoveActor:
		p.entities.Remove(pk.EntityUniqueID)
	case *packet.MoveActorAbsolute:
		p.entities.Move(pk.EntityRuntimeID, game.Vec32To64(pk.Position))
	case *packet.TakeItemActor:
		if pk.TakerEntityRuntimeID != p.rid {
			return
		}
		e, ok := p.entities.Entity(pk.ItemEntityRuntimeID)
		if !ok {
			return
		}
		if name, count, ok := e.Item(); ok {
			p.handler().HandleItemCollected(bot.DroppedItem{ID: pk.ItemEntityRuntimeID, Name: name, Count: count, Pos: e.Position()})
		}
	case *packet.LevelChunk:
		if !botworld.Cache(p.world, pk) {
			p.log.Debugf("ignoring chunk %v sent in sub-chunk request mode", pk.Position)
		}
	case *packet.UpdateBlock:
		if pk.Layer != 0 {
			return
		}
		b, ok := world.BlockByRuntimeID(pk.NewBlockRuntimeID)
		if !ok {
			p.log.Debugf("unknown block runtime ID %d at %v", pk.NewBlockRuntimeID, pk.Position)
			return
		}
		p.world.SetBlock(cube.Pos{int(pk.Position[0]), int(pk.Position[1]), int(pk.Position[2])}, b)
	case *packet.NetworkChunkPublisherUpdate:
		p.world.CleanChunks(int32(pk.Radius>>4)+1, protocol.ChunkPos{pk.Position[0] >> 4, pk.Position[2] >> 4})
	case *packet.ChangeDimension:
		p.world.PurgeChunks()
		p.entities.Clear()
		p.relocate(game.Vec32To64(pk.Position).Sub(mgl64.Vec3{0, bot.EyeHeight}), 0, 0)
	case *packet.InventoryContent:
		p.handleInventoryContent(pk)
	case *packet.InventorySlot:
		p.handleInventorySlot(pk)
	case *packet.MobEquipment:
		if pk.EntityRuntimeID == p.rid && pk.WindowID == protocol.WindowIDInventory && int(pk.HotBarSlot) < inventory.SizeHotbar {
			p.inv.SetHeldSlot(int(pk.HotBarSlot))
		}
	case *packet.PlayerHotBar:
		if pk.WindowID == protocol.WindowIDInventory && pk.SelectHotBarSlot && int(pk.SelectedHotBarSlot) < inventory.SizeHotbar {
			p.inv.SetHeldSlot(int(pk.SelectedHotBarSlot))
		}
	case *packet.ContainerOpen:
		p.handleContainerOpen(pk)
	case *packet.ContainerClose:
		p.wMu.Lock()
		delete(p.windows, pk.WindowID)
		p.wMu.Unlock()
	case *packet.ItemStackResponse:
		p.handleStackResponses(pk.Responses)
	case *packet.Respawn:
		if pk.State != packet.RespawnStateReadyToSpawn {
			return
		}
		p.relocate(game.Vec32To64(pk.Position).Sub(mgl64.Vec3{0, bot.EyeHeight}), 0, 0)
		select {
		case p.respawned <- struct{}{}:
		default:
		}
	case *packet.Disconnect:
		p.closing.Store(true)
		p.handler().HandleDisconnect(text.Clean(pk.Message))
		_ = p.Close()
	}
}

// handleText passes a chat line to the handler. Lines of players are formatted as "<name> message".
func (p *Player) handleText(pk *packet.Text) {
	msg := text.Clean(pk.Message)
	switch pk.TextType {
	case packet.TextTypeChat, packet.TextTypeWhisper:
		if pk.SourceName == p.name {
			return
		}
		if pk.SourceName != "" {
			msg = fmt.Sprintf("<%s> %s", text.Clean(pk.SourceName), msg)
		}
	case packet.TextTypeTranslation, packet.TextTypeRaw, packet.TextTypeSystem, packet.TextTypeAnnouncement:
	default:
		return
	}
	if msg != "" {
		p.handler().HandleChat(msg)
	}
}

func (p *Player) relocate(pos mgl64.Vec3, yaw, pitch float32) {
	p.mu.Lock()
	p.pos, p.yaw, p.pitch = pos, yaw, pitch
	p.mu.Unlock()

	select {
	case p.relocated <- struct{}{}:
	default:
	}
	p.handler().HandleRelocation(pos)
}

func (p *Player) handleAttributes(attributes []protocol.Attribute) {
	health, food := -1.0, -1.0
	for _, a := range attributes {
		switch a.Name {
		case "minecraft:health":
			health = float64(a.Value)
		case "minecraft:player.hunger":
			food = float64(a.Value)
		case "minecraft:player.level":
			p.mu.Lock()
			p.xpLevel = int(a.Value)
			p.mu.Unlock()
		case "minecraft:player.experience":
			p.mu.Lock()
			p.xpTotal = float64(a.Value)
			p.mu.Unlock()
		}
	}
	if health >= 0 || food >= 0 {
		p.setHealth(health, food)
	}
}

// setHealth updates the health and food level of the player. Negative values are left unchanged. The
// handler is told about a death when the health drops to zero.
func (p *Player) setHealth(health, food float64) {
	p.mu.Lock()
	alive := p.health > 0
	if health >= 0 {
		p.health = health
	}
	if food >= 0 {
		p.food = food
	}
	health, food = p.health, p.food
	p.mu.Unlock()

	h := p.handler()
	h.HandleHealth(health, food)
	if alive && health <= 0 {
		h.HandleDeath()
	}
}

func (p *Player) handleInventoryContent(pk *packet.InventoryContent) {
	switch pk.WindowID {
	case protocol.WindowIDInventory:
		p.mu.Lock()
		for i, it := range pk.Content {
			if i >= inventory.SizePlayer {
				break
			}
			p.raw[i] = it
		}
		p.mu.Unlock()
		for i, it := range pk.Content {
			if i >= inventory.SizePlayer {
				break
			}
			p.inv.SetSlot(i, p.stack(it))
		}
	case protocol.WindowIDOffHand:
		if len(pk.Content) > 0 {
			p.setOffHand(pk.Content[0])
		}
	default:
		if w, ok := p.window(byte(pk.WindowID)); ok {
			w.setContent(pk.Content, p.stack)
		}
	}
}

func (p *Player) handleInventorySlot(pk *packet.InventorySlot) {
	switch pk.WindowID {
	case protocol.WindowIDInventory:
		if pk.Slot >= inventory.SizePlayer {
			return
		}
		p.setSlot(int(pk.Slot), pk.NewItem)
	case protocol.WindowIDOffHand:
		p.setOffHand(pk.NewItem)
	default:
		if w, ok := p.window(byte(pk.WindowID)); ok {
			w.setSlot(int(pk.Slot), pk.NewItem, p.stack)
		}
	}
}

func (p *Player) setSlot(slot int, it protocol.ItemInstance) {
	p.mu.Lock()
	p.raw[slot] = it
	p.mu.Unlock()
	p.inv.SetSlot(slot, p.stack(it))
}

func (p *Player) setOffHand(it protocol.ItemInstance) {
	p.mu.Lock()
	p.rawOffHand = it
	p.mu.Unlock()
	p.inv.SetOffHand(p.stack(it))
}

// rawSlot returns the item instance held in an inventory slot.
func (p *Player) rawSlot(slot int) protocol.ItemInstance {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.raw[slot]
}
