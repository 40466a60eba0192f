package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/df-mc/dragonfly/server/block"
	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sandertv/gophertunnel/minecraft"
	"github.com/sandertv/gophertunnel/minecraft/protocol"
	"github.com/sandertv/gophertunnel/minecraft/protocol/login"
	"github.com/sandertv/gophertunnel/minecraft/protocol/packet"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/inventory"
)

const (
	pickaxeID = 5
	breadID   = 6
)

type fakeConn struct {
	mu      sync.Mutex
	written []packet.Packet
	onWrite func(pk packet.Packet)

	fail      chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{fail: make(chan error, 1), closed: make(chan struct{})}
}

func (c *fakeConn) ReadPacket() (packet.Packet, error) {
	select {
	case err := <-c.fail:
		return nil, err
	case <-c.closed:
		return nil, errors.New("use of closed network connection")
	}
}

func (c *fakeConn) WritePacket(pk packet.Packet) error {
	c.mu.Lock()
	c.written = append(c.written, pk)
	f := c.onWrite
	c.mu.Unlock()
	if f != nil {
		f(pk)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) GameData() minecraft.GameData {
	return minecraft.GameData{
		EntityUniqueID:  1,
		EntityRuntimeID: 1,
		PlayerPosition:  mgl32.Vec3{0.5, 64 + bot.EyeHeight, 0.5},
		Items: []protocol.ItemEntry{
			{Name: "minecraft:diamond_pickaxe", RuntimeID: pickaxeID},
			{Name: "minecraft:bread", RuntimeID: breadID},
		},
	}
}

func (c *fakeConn) IdentityData() login.IdentityData {
	return login.IdentityData{DisplayName: "Tedious", XUID: "1234"}
}

func (c *fakeConn) setOnWrite(f func(pk packet.Packet)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onWrite = f
}

// find returns the packets written of the type of T.
func find[T packet.Packet](c *fakeConn) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found []T
	for _, pk := range c.written {
		if v, ok := pk.(T); ok {
			found = append(found, v)
		}
	}
	return found
}

type recorder struct {
	bot.NopHandler

	mu        sync.Mutex
	chat      []string
	health    [][2]float64
	deaths    int
	collected []bot.DroppedItem
	reasons   []string
}

func (r *recorder) HandleChat(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat = append(r.chat, line)
}

func (r *recorder) HandleHealth(health, food float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.health = append(r.health, [2]float64{health, food})
}

func (r *recorder) HandleDeath() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deaths++
}

func (r *recorder) HandleItemCollected(item bot.DroppedItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collected = append(r.collected, item)
}

func (r *recorder) HandleDisconnect(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reasons = append(r.reasons, reason)
}

func newTestPlayer(t *testing.T) (*Player, *fakeConn, *recorder) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	conn := newFakeConn()
	p := New(conn, log)
	r := &recorder{}
	p.Handle(r)
	t.Cleanup(func() { _ = p.Close() })
	return p, conn, r
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	t.Cleanup(cancel)
	return ctx
}

func instance(id int32, networkID int32, count uint16) protocol.ItemInstance {
	return protocol.ItemInstance{
		StackNetworkID: networkID,
		Stack: protocol.ItemStack{
			ItemType: protocol.ItemType{NetworkID: id},
			Count:    count,
		},
	}
}

func TestSpawnPosition(t *testing.T) {
	p, _, _ := newTestPlayer(t)
	if pos := p.Position(); pos.Sub(mgl64.Vec3{0.5, 64, 0.5}).Len() > 1e-4 {
		t.Fatalf("expected the feet at (0.5, 64, 0.5), got %v", pos)
	}
	if p.Name() != "Tedious" {
		t.Fatalf("expected the name Tedious, got %q", p.Name())
	}
}

func TestChatLines(t *testing.T) {
	p, _, r := newTestPlayer(t)

	p.handlePacket(&packet.Text{TextType: packet.TextTypeChat, SourceName: "Alice", Message: "§ahello"})
	p.handlePacket(&packet.Text{TextType: packet.TextTypeChat, SourceName: "Tedious", Message: "my own line"})
	p.handlePacket(&packet.Text{TextType: packet.TextTypeRaw, Message: "Alice joined the game"})
	p.handlePacket(&packet.Text{TextType: packet.TextTypeTip, Message: "ignored"})

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.chat) != 2 || r.chat[0] != "<Alice> hello" || r.chat[1] != "Alice joined the game" {
		t.Fatalf("unexpected chat lines: %q", r.chat)
	}
}

func TestChatSendsCommands(t *testing.T) {
	p, conn, _ := newTestPlayer(t)

	if err := p.Chat("/tp Alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Chat("hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	commands := find[*packet.CommandRequest](conn)
	if len(commands) != 1 || commands[0].CommandLine != "/tp Alice" {
		t.Fatalf("expected one command request, got %v", commands)
	}
	texts := find[*packet.Text](conn)
	if len(texts) != 1 || texts[0].Message != "hello" || texts[0].SourceName != "Tedious" {
		t.Fatalf("expected one chat message, got %v", texts)
	}
}

func TestHealthAndDeath(t *testing.T) {
	p, _, r := newTestPlayer(t)

	p.handlePacket(&packet.UpdateAttributes{EntityRuntimeID: 1, Attributes: []protocol.Attribute{
		{AttributeValue: protocol.AttributeValue{Name: "minecraft:health", Value: 12}},
		{AttributeValue: protocol.AttributeValue{Name: "minecraft:player.hunger", Value: 7}},
		{AttributeValue: protocol.AttributeValue{Name: "minecraft:player.level", Value: 3}},
	}})
	if s := p.Status(); s.Health != 12 || s.Food != 7 || s.XPLevel != 3 {
		t.Fatalf("unexpected status %v", s)
	}

	p.handlePacket(&packet.SetHealth{Health: 0})
	p.handlePacket(&packet.SetHealth{Health: 0})

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deaths != 1 {
		t.Fatalf("expected a single death, got %d", r.deaths)
	}
	if len(r.health) != 3 || r.health[0] != [2]float64{12, 7} {
		t.Fatalf("unexpected health updates %v", r.health)
	}
}

func TestInventoryContent(t *testing.T) {
	p, _, _ := newTestPlayer(t)

	content := make([]protocol.ItemInstance, inventory.SizePlayer)
	pickaxe := instance(pickaxeID, 10, 1)
	pickaxe.Stack.NBTData = map[string]any{"Damage": int32(100)}
	content[2] = pickaxe
	content[20] = instance(breadID, 11, 5)
	p.handlePacket(&packet.InventoryContent{WindowID: protocol.WindowIDInventory, Content: content})
	p.handlePacket(&packet.InventorySlot{WindowID: protocol.WindowIDOffHand, NewItem: instance(breadID, 12, 2)})

	s := p.Inventory().Slot(2)
	if s.Name != "diamond_pickaxe" || s.Damage != 100 || s.NetworkID != 10 {
		t.Fatalf("unexpected pickaxe stack %+v", s)
	}
	if s.MaxDurability <= s.Damage {
		t.Fatalf("expected the pickaxe to have durability left, got %+v", s)
	}
	if n := p.Inventory().Count("bread"); n != 5 {
		t.Fatalf("expected 5 bread in the inventory, got %d", n)
	}
	if off := p.Inventory().OffHand(); off.Name != "bread" || off.Count != 2 {
		t.Fatalf("unexpected off hand %+v", off)
	}

	p.handlePacket(&packet.PlayerHotBar{WindowID: protocol.WindowIDInventory, SelectedHotBarSlot: 2, SelectHotBarSlot: true})
	if h := p.Inventory().Holding(); h.Name != "diamond_pickaxe" {
		t.Fatalf("expected to hold the pickaxe, got %+v", h)
	}
}

func TestEntities(t *testing.T) {
	p, _, r := newTestPlayer(t)

	p.handlePacket(&packet.AddActor{EntityUniqueID: 10, EntityRuntimeID: 10, EntityType: "minecraft:zombie", Position: mgl32.Vec3{3, 64, 3}})
	p.handlePacket(&packet.AddItemActor{EntityUniqueID: 11, EntityRuntimeID: 11, Item: instance(breadID, 0, 3), Position: mgl32.Vec3{1, 64, 1}})

	entities := p.Entities()
	if len(entities) != 1 || entities[0].Type != "zombie" || entities[0].ID != 10 {
		t.Fatalf("unexpected entities %v", entities)
	}
	items := p.DroppedItems()
	if len(items) != 1 || items[0].Name != "bread" || items[0].Count != 3 {
		t.Fatalf("unexpected dropped items %v", items)
	}

	p.handlePacket(&packet.MoveActorAbsolute{EntityRuntimeID: 10, Position: mgl32.Vec3{4, 64, 4}})
	if pos := p.Entities()[0].Pos; pos != (mgl64.Vec3{4, 64, 4}) {
		t.Fatalf("expected the zombie to move, got %v", pos)
	}

	p.handlePacket(&packet.TakeItemActor{ItemEntityRuntimeID: 11, TakerEntityRuntimeID: 1})
	p.handlePacket(&packet.RemoveActor{EntityUniqueID: 11})
	if len(p.DroppedItems()) != 0 {
		t.Fatalf("expected the item to be removed")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.collected) != 1 || r.collected[0].Name != "bread" {
		t.Fatalf("unexpected collected items %v", r.collected)
	}
}

func TestRelocation(t *testing.T) {
	p, _, _ := newTestPlayer(t)
	ctx := testContext(t)

	errs := make(chan error, 1)
	go func() { errs <- p.WaitForRelocation(ctx) }()
	time.Sleep(time.Millisecond * 20)
	p.handlePacket(&packet.MovePlayer{EntityRuntimeID: 1, Position: mgl32.Vec3{10.5, 70 + bot.EyeHeight, -3.5}, Mode: packet.MoveModeTeleport})

	if err := <-errs; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos := p.Position(); pos.Sub(mgl64.Vec3{10.5, 70, -3.5}).Len() > 1e-4 {
		t.Fatalf("unexpected position %v", pos)
	}
}

func TestWaitTicksSendsInput(t *testing.T) {
	p, conn, _ := newTestPlayer(t)
	if err := p.WaitTicks(testContext(t), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	inputs := find[*packet.PlayerAuthInput](conn)
	if len(inputs) < 2 {
		t.Fatalf("expected at least 2 inputs, got %d", len(inputs))
	}
	if inputs[1].Tick <= inputs[0].Tick {
		t.Fatalf("expected ticks to increase, got %d and %d", inputs[0].Tick, inputs[1].Tick)
	}
}

func TestEquipHotBar(t *testing.T) {
	p, conn, _ := newTestPlayer(t)
	if err := p.Equip(testContext(t), 3, inventory.MainHand); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Inventory().HeldSlot() != 3 {
		t.Fatalf("expected held slot 3, got %d", p.Inventory().HeldSlot())
	}
	equipment := find[*packet.MobEquipment](conn)
	if len(equipment) != 1 || equipment[0].HotBarSlot != 3 {
		t.Fatalf("unexpected mob equipment packets %v", equipment)
	}
}

func TestUpdateBlock(t *testing.T) {
	p, _, _ := newTestPlayer(t)
	pos := cube.Pos{1, 64, 2}
	if !p.Block(pos).Air() {
		t.Fatalf("expected air in an unloaded chunk")
	}
	p.handlePacket(&packet.UpdateBlock{Position: protocol.BlockPos{1, 64, 2}, NewBlockRuntimeID: world.BlockRuntimeID(block.Stone{})})

	b := p.Block(pos)
	if b.Name != "stone" || !b.Diggable {
		t.Fatalf("unexpected block %+v", b)
	}
	if !p.CanReach(pos) {
		t.Fatalf("expected %v to be within reach", pos)
	}
	if p.CanReach(cube.Pos{10, 64, 10}) {
		t.Fatalf("expected (10, 64, 10) to be out of reach")
	}
}

func TestContainerExchange(t *testing.T) {
	p, conn, _ := newTestPlayer(t)
	ctx := testContext(t)

	conn.setOnWrite(func(pk packet.Packet) {
		switch pk := pk.(type) {
		case *packet.InventoryTransaction:
			data, ok := pk.TransactionData.(*protocol.UseItemTransactionData)
			if !ok || data.ActionType != protocol.UseItemActionClickBlock {
				return
			}
			go func() {
				p.handlePacket(&packet.ContainerOpen{WindowID: 5, ContainerPosition: data.BlockPosition})
				p.handlePacket(&packet.InventoryContent{WindowID: 5, Content: []protocol.ItemInstance{instance(breadID, 20, 3), {}}})
			}()
		case *packet.ItemStackRequest:
			id := pk.Requests[0].RequestID
			go p.handlePacket(&packet.ItemStackResponse{Responses: []protocol.ItemStackResponse{{Status: protocol.ItemStackResponseStatusOK, RequestID: id}}})
		}
	})

	c, err := p.OpenContainer(ctx, cube.Pos{1, 64, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slots := c.Slots(); len(slots) != 2 || slots[0].Name != "bread" {
		t.Fatalf("unexpected container slots %v", slots)
	}

	if err := c.Exchange(ctx, 0, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s := p.Inventory().Slot(1); s.Name != "bread" || s.Count != 3 {
		t.Fatalf("expected the bread in slot 1, got %+v", s)
	}
	if !c.Slots()[0].Empty() {
		t.Fatalf("expected container slot 0 to be empty")
	}

	requests := find[*packet.ItemStackRequest](conn)
	if len(requests) != 1 {
		t.Fatalf("expected 1 item stack request, got %d", len(requests))
	}
	place, ok := requests[0].Requests[0].Actions[0].(*protocol.PlaceStackRequestAction)
	if !ok || place.Count != 3 || place.Source.Container.ContainerID != protocol.ContainerLevelEntity {
		t.Fatalf("unexpected stack request action %#v", requests[0].Requests[0].Actions[0])
	}

	if err := c.Close(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(find[*packet.ContainerClose](conn)) != 1 {
		t.Fatalf("expected the window to be closed")
	}
}

func TestOpenEnderChestMissing(t *testing.T) {
	p, _, _ := newTestPlayer(t)
	if _, err := p.OpenEnderChest(testContext(t)); err == nil {
		t.Fatalf("expected an error without an ender chest around")
	}
}

func TestDisconnect(t *testing.T) {
	p, conn, r := newTestPlayer(t)
	conn.fail <- errors.New("disconnected by server: kicked for spamming")

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("expected the player to be closed")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reasons) != 1 || r.reasons[0] != "kicked for spamming" {
		t.Fatalf("unexpected disconnect reasons %q", r.reasons)
	}
	if err := p.Chat("hello"); err == nil {
		t.Fatalf("expected chat to fail once disconnected")
	}
}
