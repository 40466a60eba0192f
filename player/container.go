package player

import (
	"context"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
)

// enderChestRadius is the distance around the bot searched for an ender chest.
const enderChestRadius = 4

// window is a container window opened by the server.
type window struct {
	p  *Player
	id byte
	// container is the container ID used to refer to the slots of the window in item stack requests.
	container byte

	mu     sync.Mutex
	slots  []inventory.Stack
	raw    []protocol.ItemInstance
	loaded chan struct{}
	once   sync.Once
}

func (w *window) setContent(content []protocol.ItemInstance, conv func(protocol.ItemInstance) inventory.Stack) {
	w.mu.Lock()
	w.raw = append([]protocol.ItemInstance(nil), content...)
	w.slots = make([]inventory.Stack, len(content))
	for i, it := range content {
		w.slots[i] = conv(it)
	}
	w.mu.Unlock()
	w.once.Do(func() { close(w.loaded) })
}

func (w *window) setSlot(slot int, it protocol.ItemInstance, conv func(protocol.ItemInstance) inventory.Stack) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot < 0 || slot >= len(w.slots) {
		return
	}
	w.raw[slot] = it
	w.slots[slot] = conv(it)
}

// Slots returns a snapshot of the slots of the container.
func (w *window) Slots() []inventory.Stack {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]inventory.Stack(nil), w.slots...)
}

func (w *window) slot(slot int) (inventory.Stack, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if slot < 0 || slot >= len(w.slots) {
		return inventory.Stack{}, false
	}
	return w.slots[slot], true
}

// Exchange swaps the contents of a container slot with a slot of the inventory of the bot.
func (w *window) Exchange(ctx context.Context, containerSlot, inventorySlot int) error {
	cs, ok := w.slot(containerSlot)
	if !ok {
		return berror.New("container slot %d does not exist", containerSlot)
	}
	is := w.p.inv.Slot(inventorySlot)
	if cs.Empty() && is.Empty() {
		return nil
	}
	src := w.p.slotInfo(inventorySlot, is)
	dst := protocol.StackRequestSlotInfo{
		Container:      protocol.FullContainerName{ContainerID: w.container},
		Slot:           byte(containerSlot),
		StackNetworkID: cs.NetworkID,
	}

	var action protocol.StackRequestAction
	switch {
	case cs.Empty():
		action = place(is.Count, src, dst)
	case is.Empty():
		action = place(cs.Count, dst, src)
	default:
		action = &protocol.SwapStackRequestAction{Source: src, Destination: dst}
	}
	if err := w.p.request(ctx, action); err != nil {
		return err
	}
	w.mu.Lock()
	w.slots[containerSlot] = is
	w.mu.Unlock()
	w.p.inv.SetSlot(inventorySlot, cs)
	return nil
}

// Deposit moves the stack in an inventory slot into the first free slot of the container.
func (w *window) Deposit(ctx context.Context, inventorySlot int) error {
	for i, s := range w.Slots() {
		if s.Empty() {
			return w.Exchange(ctx, i, inventorySlot)
		}
	}
	return berror.New("the container is full")
}

// Close closes the window.
func (w *window) Close(context.Context) error {
	w.p.wMu.Lock()
	delete(w.p.windows, w.id)
	w.p.wMu.Unlock()
	return w.p.write(&packet.ContainerClose{WindowID: w.id})
}

func place(count int, src, dst protocol.StackRequestSlotInfo) *protocol.PlaceStackRequestAction {
	a := &protocol.PlaceStackRequestAction{}
	a.Count = byte(count)
	a.Source = src
	a.Destination = dst
	return a
}

// slotInfo returns the slot info referring to an inventory slot in item stack requests.
func (p *Player) slotInfo(slot int, s inventory.Stack) protocol.StackRequestSlotInfo {
	container := byte(protocol.ContainerCombinedHotBarAndInventory)
	if slot < inventory.SizeHotbar {
		container = protocol.ContainerHotBar
	}
	return protocol.StackRequestSlotInfo{
		Container:      protocol.FullContainerName{ContainerID: container},
		Slot:           byte(slot),
		StackNetworkID: s.NetworkID,
	}
}

func (p *Player) window(id byte) (*window, bool) {
	p.wMu.Lock()
	defer p.wMu.Unlock()
	w, ok := p.windows[id]
	return w, ok
}

func (p *Player) handleContainerOpen(pk *packet.ContainerOpen) {
	if pk.WindowID == protocol.WindowIDInventory {
		return
	}
	pos := cube.Pos{int(pk.ContainerPosition[0]), int(pk.ContainerPosition[1]), int(pk.ContainerPosition[2])}
	container := byte(protocol.ContainerLevelEntity)
	if strings.Contains(p.Block(pos).Name, "shulker_box") {
		container = protocol.ContainerShulkerBox
	}
	w := &window{p: p, id: pk.WindowID, container: container, loaded: make(chan struct{})}

	p.wMu.Lock()
	p.windows[pk.WindowID] = w
	p.wMu.Unlock()

	select {
	case p.opened <- w:
	default:
		p.log.Debugf("window %d was opened without being requested", pk.WindowID)
	}
}

// OpenContainer opens the container block at the position passed and waits until its content is known.
func (p *Player) OpenContainer(ctx context.Context, pos cube.Pos) (inventory.Container, error) {
	select {
	case <-p.opened:
	default:
	}
	if err := p.LookAt(ctx, pos.Vec3Centre()); err != nil {
		return nil, err
	}
	held := p.inv.HeldSlot()
	if err := p.write(&packet.InventoryTransaction{
		TransactionData: &protocol.UseItemTransactionData{
			ActionType:       protocol.UseItemActionClickBlock,
			TriggerType:      protocol.TriggerTypePlayerInput,
			BlockPosition:    protocol.BlockPos{int32(pos[0]), int32(pos[1]), int32(pos[2])},
			BlockFace:        int32(p.faceTowards(pos)),
			HotBarSlot:       int32(held),
			HeldItem:         p.rawSlot(held),
			Position:         game.Vec64To32(p.Position()),
			ClientPrediction: protocol.ClientPredictionFailure,
		},
	}); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, tickDuration*40)
	defer cancel()

	var w *window
	select {
	case <-ctx.Done():
		return nil, berror.New(game.ErrorBoxNotOpened, pos, ctx.Err())
	case <-p.done:
		return nil, notConnected()
	case w = <-p.opened:
	}
	select {
	case <-ctx.Done():
		return nil, berror.New(game.ErrorBoxNotOpened, pos, ctx.Err())
	case <-p.done:
		return nil, notConnected()
	case <-w.loaded:
	}
	return w, nil
}

// OpenEnderChest opens the closest ender chest within reach.
func (p *Player) OpenEnderChest(ctx context.Context) (inventory.Container, error) {
	origin := cube.PosFromVec3(p.Position())
	var (
		found bool
		best  cube.Pos
		dist  float64
	)
	for x := -enderChestRadius; x <= enderChestRadius; x++ {
		for y := -enderChestRadius; y <= enderChestRadius; y++ {
			for z := -enderChestRadius; z <= enderChestRadius; z++ {
				pos := origin.Add(cube.Pos{x, y, z})
				if p.Block(pos).Name != "ender_chest" || !p.CanReach(pos) {
					continue
				}
				if d := p.eyes().Sub(pos.Vec3Centre()).Len(); !found || d < dist {
					found, best, dist = true, pos, d
				}
			}
		}
	}
	if !found {
		return nil, berror.New(game.ErrorNoEnderChest)
	}
	return p.OpenContainer(ctx, best)
}

// Equip moves the item in an inventory slot into the hand passed.
func (p *Player) Equip(ctx context.Context, slot int, hand inventory.Hand) error {
	if hand == inventory.OffHand {
		src := p.slotInfo(slot, p.inv.Slot(slot))
		off := p.inv.OffHand()
		dst := protocol.StackRequestSlotInfo{
			Container:      protocol.FullContainerName{ContainerID: protocol.ContainerOffhand},
			Slot:           1,
			StackNetworkID: off.NetworkID,
		}
		var action protocol.StackRequestAction = &protocol.SwapStackRequestAction{Source: src, Destination: dst}
		if off.Empty() {
			action = place(p.inv.Slot(slot).Count, src, dst)
		}
		if err := p.request(ctx, action); err != nil {
			return err
		}
		s := p.inv.Slot(slot)
		p.inv.SetSlot(slot, off)
		p.inv.SetOffHand(s)
		return nil
	}

	if slot >= inventory.SizeHotbar {
		held := p.inv.HeldSlot()
		s, h := p.inv.Slot(slot), p.inv.Slot(held)
		var action protocol.StackRequestAction = &protocol.SwapStackRequestAction{
			Source:      p.slotInfo(slot, s),
			Destination: p.slotInfo(held, h),
		}
		if h.Empty() {
			action = place(s.Count, p.slotInfo(slot, s), p.slotInfo(held, h))
		}
		if err := p.request(ctx, action); err != nil {
			return err
		}
		p.inv.SetSlot(slot, h)
		p.inv.SetSlot(held, s)
		slot = held
	}

	p.inv.SetHeldSlot(slot)
	return p.write(&packet.MobEquipment{
		EntityRuntimeID: p.rid,
		NewItem:         p.rawSlot(slot),
		InventorySlot:   byte(slot),
		HotBarSlot:      byte(slot),
		WindowID:        protocol.WindowIDInventory,
	})
}

// request sends an item stack request and waits for the server to accept it.
func (p *Player) request(ctx context.Context, actions ...protocol.StackRequestAction) error {
	id := p.requestID.Add(-2)
	ch := make(chan protocol.ItemStackResponse, 1)

	p.rMu.Lock()
	p.requests[id] = ch
	p.rMu.Unlock()
	defer func() {
		p.rMu.Lock()
		delete(p.requests, id)
		p.rMu.Unlock()
	}()

	if err := p.write(&packet.ItemStackRequest{Requests: []protocol.ItemStackRequest{{RequestID: id, Actions: actions}}}); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, tickDuration*40)
	defer cancel()
	select {
	case <-ctx.Done():
		return berror.New(game.ErrorTimeout+": %w", "an inventory transaction", ctx.Err())
	case <-p.done:
		return notConnected()
	case resp := <-ch:
		if resp.Status != protocol.ItemStackResponseStatusOK {
			return berror.New("inventory transaction %d rejected with status %d", id, resp.Status)
		}
		p.applyResponse(resp)
		return nil
	}
}

func (p *Player) handleStackResponses(responses []protocol.ItemStackResponse) {
	p.rMu.Lock()
	defer p.rMu.Unlock()
	for _, resp := range responses {
		if ch, ok := p.requests[resp.RequestID]; ok {
			select {
			case ch <- resp:
			default:
			}
		}
	}
}

// applyResponse updates the stack network IDs of the slots changed by an accepted request.
func (p *Player) applyResponse(resp protocol.ItemStackResponse) {
	for _, info := range resp.ContainerInfo {
		for _, slot := range info.SlotInfo {
			switch info.Container.ContainerID {
			case protocol.ContainerHotBar, protocol.ContainerCombinedHotBarAndInventory, protocol.ContainerInventory:
				if int(slot.Slot) >= inventory.SizePlayer {
					continue
				}
				s := p.inv.Slot(int(slot.Slot))
				s.NetworkID = slot.StackNetworkID
				s.Count = int(slot.Count)
				if s.Count == 0 {
					s = inventory.Stack{}
				}
				p.inv.SetSlot(int(slot.Slot), s)
			}
		}
	}
}
