// Package fakeworld provides an in-memory world client and navigator for tests. Actions take effect
// immediately and are recorded so tests can assert on them.
package fakeworld

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/inventory"
)

// World implements bot.Client and bot.Navigator.
type World struct {
	mu sync.Mutex

	pos      mgl64.Vec3
	health   float64
	food     float64
	xpLevel  int
	blocks   map[cube.Pos]bot.Block
	entities map[uint64]bot.Entity
	drops    map[uint64]bot.DroppedItem
	inv      *inventory.Inventory
	nextID   uint64

	containers map[cube.Pos]*Container
	// EnderChest is opened by OpenEnderChest. A nil EnderChest makes OpenEnderChest fail.
	EnderChest *Container

	relocated chan struct{}
	using     bool

	// Reach is the interaction range used by CanReach.
	Reach float64
	// DropOnBreak makes broken blocks drop themselves as an item.
	DropOnBreak bool
	// EatFails makes Consume block until its context is done.
	EatFails bool
	// FoodPerEat is added to the food level for every item consumed.
	FoodPerEat float64
	// NavigationFails makes every Goto fail.
	NavigationFails bool
	// OnChat is called with every chat message sent, after it was recorded.
	OnChat func(msg string)

	Chats    []string
	Broken   []cube.Pos
	Placed   []cube.Pos
	Goals    []bot.Goal
	Attacks  []uint64
	Looks    []mgl64.Vec3
	Equips   []int
	Released int
	Eaten    int
	Stops    int
	Ticks    int
}

// New creates a world with the bot standing at pos with full health and food.
func New(pos mgl64.Vec3) *World {
	return &World{
		pos:        pos,
		health:     20,
		food:       20,
		blocks:     make(map[cube.Pos]bot.Block),
		entities:   make(map[uint64]bot.Entity),
		drops:      make(map[uint64]bot.DroppedItem),
		containers: make(map[cube.Pos]*Container),
		inv:        inventory.New(),
		relocated:  make(chan struct{}, 1),
		Reach:      4.5,
		FoodPerEat: 4,
	}
}

// SetBlock places a diggable block mined with a pickaxe.
func (w *World) SetBlock(pos cube.Pos, name string) {
	w.SetBlockTag(pos, name, "mineable/pickaxe")
}

// SetBlockTag places a diggable block with the material tag passed.
func (w *World) SetBlockTag(pos cube.Pos, name, tag string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = bot.Block{Pos: pos, Name: name, Tag: tag, Diggable: true}
}

// Fill places blocks named name in every position of the box spanned by a and b.
func (w *World) Fill(a, b cube.Pos, name string) {
	for x := min(a[0], b[0]); x <= max(a[0], b[0]); x++ {
		for y := min(a[1], b[1]); y <= max(a[1], b[1]); y++ {
			for z := min(a[2], b[2]); z <= max(a[2], b[2]); z++ {
				w.SetBlock(cube.Pos{x, y, z}, name)
			}
		}
	}
}

// SetContainer places a container block at pos.
func (w *World) SetContainer(pos cube.Pos, name string, c *Container) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.blocks[pos] = bot.Block{Pos: pos, Name: name, Tag: "mineable/pickaxe", Diggable: true}
	w.containers[pos] = c
}

// SetVitals sets the health and food level of the bot.
func (w *World) SetVitals(health, food float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.health, w.food = health, food
}

// AddEntity adds an entity and returns its ID.
func (w *World) AddEntity(typ string, pos mgl64.Vec3) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextID++
	w.entities[w.nextID] = bot.Entity{ID: w.nextID, Type: typ, Pos: pos}
	return w.nextID
}

// AddDrop adds a dropped item and returns its ID.
func (w *World) AddDrop(name string, count int, pos mgl64.Vec3) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.addDrop(name, count, pos)
}

func (w *World) addDrop(name string, count int, pos mgl64.Vec3) uint64 {
	w.nextID++
	w.drops[w.nextID] = bot.DroppedItem{ID: w.nextID, Name: name, Count: count, Pos: pos}
	return w.nextID
}

// Give puts a stack in the first empty inventory slot and returns the slot.
func (w *World) Give(s inventory.Stack) int {
	slot, ok := w.inv.FirstEmpty()
	if !ok {
		panic("fakeworld: inventory is full")
	}
	w.inv.SetSlot(slot, s)
	return slot
}

// Teleport moves the bot as the server would, waking up WaitForRelocation.
func (w *World) Teleport(pos mgl64.Vec3) {
	w.mu.Lock()
	w.pos = pos
	w.mu.Unlock()

	select {
	case w.relocated <- struct{}{}:
	default:
	}
}

// Using returns true while an item is being used.
func (w *World) Using() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.using
}

func (w *World) Name() string {
	return "tedious"
}

func (w *World) Position() mgl64.Vec3 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos
}

func (w *World) Status() bot.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return bot.Status{Pos: w.pos, Health: w.health, Food: w.food, XPLevel: w.xpLevel, Spawned: true, Username: "tedious"}
}

func (w *World) Block(pos cube.Pos) bot.Block {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.block(pos)
}

func (w *World) block(pos cube.Pos) bot.Block {
	if b, ok := w.blocks[pos]; ok {
		return b
	}
	return bot.Block{Pos: pos, Name: "air"}
}

func (w *World) CanReach(pos cube.Pos) bool {
	eyes := w.Position().Add(mgl64.Vec3{0, bot.EyeHeight})
	return eyes.Sub(pos.Vec3Centre()).Len() <= w.Reach
}

func (w *World) Entities() []bot.Entity {
	w.mu.Lock()
	defer w.mu.Unlock()

	entities := make([]bot.Entity, 0, len(w.entities))
	for _, e := range w.entities {
		entities = append(entities, e)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].ID < entities[j].ID })
	return entities
}

func (w *World) DroppedItems() []bot.DroppedItem {
	w.mu.Lock()
	defer w.mu.Unlock()

	drops := make([]bot.DroppedItem, 0, len(w.drops))
	for _, d := range w.drops {
		drops = append(drops, d)
	}
	sort.Slice(drops, func(i, j int) bool { return drops[i].ID < drops[j].ID })
	return drops
}

func (w *World) Inventory() *inventory.Inventory {
	return w.inv
}

func (w *World) Equip(_ context.Context, slot int, hand inventory.Hand) error {
	w.mu.Lock()
	w.Equips = append(w.Equips, slot)
	w.mu.Unlock()

	if hand == inventory.OffHand {
		s := w.inv.Slot(slot)
		w.inv.SetSlot(slot, w.inv.OffHand())
		w.inv.SetOffHand(s)
		return nil
	}
	if slot < inventory.SizeHotbar {
		w.inv.SetHeldSlot(slot)
		return nil
	}
	held := w.inv.HeldSlot()
	a, b := w.inv.Slot(held), w.inv.Slot(slot)
	w.inv.SetSlot(held, b)
	w.inv.SetSlot(slot, a)
	return nil
}

func (w *World) OpenEnderChest(context.Context) (inventory.Container, error) {
	if w.EnderChest == nil {
		return nil, errors.New("no ender chest within reach")
	}
	w.EnderChest.open(w.inv)
	return w.EnderChest, nil
}

func (w *World) UseItem(_ context.Context, _ inventory.Hand) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.using = true
	return nil
}

func (w *World) ReleaseItem(context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.using = false
	w.Released++
	return nil
}

func (w *World) Consume(ctx context.Context) error {
	if w.EatFails {
		<-ctx.Done()
		return ctx.Err()
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.using {
		return errors.New("not using an item")
	}
	w.using = false
	w.Eaten++
	w.food = min(20, w.food+w.FoodPerEat)

	held := w.inv.HeldSlot()
	if s := w.inv.Slot(held); !s.Empty() {
		s.Count--
		if s.Count == 0 {
			s = inventory.Stack{}
		}
		w.inv.SetSlot(held, s)
	}
	return nil
}

func (w *World) BreakBlock(ctx context.Context, pos cube.Pos) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	b := w.block(pos)
	if b.Air() || !b.Diggable {
		return fmt.Errorf("block at %v cannot be broken", pos)
	}
	delete(w.blocks, pos)
	delete(w.containers, pos)
	w.Broken = append(w.Broken, pos)
	if w.DropOnBreak {
		w.addDrop(b.Name, 1, pos.Vec3Middle())
	}
	return nil
}

func (w *World) PlaceBlock(_ context.Context, against cube.Pos, face cube.Face) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	target := against.Side(face)
	if w.block(against).Air() {
		return fmt.Errorf("cannot place against air at %v", against)
	}
	if !w.block(target).Air() {
		return fmt.Errorf("%v is occupied", target)
	}
	held := w.inv.HeldSlot()
	s := w.inv.Slot(held)
	if s.Empty() {
		return errors.New("not holding anything")
	}

	w.blocks[target] = bot.Block{Pos: target, Name: s.Name, Tag: "mineable/pickaxe", Diggable: true}
	if strings.HasSuffix(s.Name, "shulker_box") || s.Name == "chest" {
		w.containers[target] = NewContainer(27)
	}
	w.Placed = append(w.Placed, target)

	s.Count--
	if s.Count == 0 {
		s = inventory.Stack{}
	}
	w.inv.SetSlot(held, s)
	return nil
}

func (w *World) OpenContainer(_ context.Context, pos cube.Pos) (inventory.Container, error) {
	w.mu.Lock()
	c, ok := w.containers[pos]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no container at %v", pos)
	}
	c.open(w.inv)
	return c, nil
}

// ContainerAt returns the container placed at pos, if any.
func (w *World) ContainerAt(pos cube.Pos) (*Container, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.containers[pos]
	return c, ok
}

func (w *World) LookAt(_ context.Context, pos mgl64.Vec3) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Looks = append(w.Looks, pos)
	return nil
}

func (w *World) Attack(_ context.Context, id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.entities[id]; !ok {
		return fmt.Errorf("no entity with id %d", id)
	}
	w.Attacks = append(w.Attacks, id)
	return nil
}

func (w *World) Chat(msg string) error {
	w.mu.Lock()
	w.Chats = append(w.Chats, msg)
	onChat := w.OnChat
	w.mu.Unlock()

	if onChat != nil {
		onChat(msg)
	}
	return nil
}

// ChatLog returns a copy of the chat messages sent.
func (w *World) ChatLog() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.Chats...)
}

func (w *World) WaitTicks(ctx context.Context, n int) error {
	w.mu.Lock()
	w.Ticks += n
	w.mu.Unlock()
	return ctx.Err()
}

func (w *World) WaitForRelocation(ctx context.Context) error {
	select {
	case <-w.relocated:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Goto moves the bot straight to the target of the goal and picks up the items dropped close to where it
// arrives.
func (w *World) Goto(ctx context.Context, g bot.Goal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.Goals = append(w.Goals, g)
	if w.NavigationFails {
		return errors.New("no path")
	}
	w.pos = g.Target(w.pos)
	if !g.Reached(w.pos) {
		return fmt.Errorf("goal %#v cannot be reached", g)
	}

	for id, d := range w.drops {
		if d.Pos.Sub(w.pos).Len() > 1.5 {
			continue
		}
		if w.pickUp(d) {
			delete(w.drops, id)
		}
	}
	return nil
}

func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.Stops++
}

func (w *World) pickUp(d bot.DroppedItem) bool {
	if slot, ok := w.inv.First(func(s inventory.Stack) bool { return s.Name == d.Name && s.Count+d.Count <= 64 }); ok {
		s := w.inv.Slot(slot)
		s.Count += d.Count
		w.inv.SetSlot(slot, s)
		return true
	}
	if slot, ok := w.inv.FirstEmpty(); ok {
		w.inv.SetSlot(slot, inventory.Stack{Name: d.Name, Count: d.Count})
		return true
	}
	return false
}

var (
	_ bot.Client    = (*World)(nil)
	_ bot.Navigator = (*World)(nil)
)
