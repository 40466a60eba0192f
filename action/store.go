package action

import (
	"cmp"
	"context"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
	"golang.org/x/exp/slices"
)

// boxSize is the number of slots of a box.
const boxSize = 27

type storeStage uint8

const (
	storeCheck storeStage = iota
	storeEquip
	storePlace
	storeOpen
	storeDeposit
	storeClose
)

// storeState is the progress of storing items in a box. The open box is kept so that a resumed harvester
// never opens it a second time.
type storeState struct {
	stage  storeStage
	boxPos cube.Pos
	box    inventory.Container
}

func (h *Harvester) storeItems(ctx context.Context) (bool, error) {
	st := &h.store
	for {
		switch st.stage {
		case storeCheck:
			if free := h.c.Inventory().EmptySlots(); free >= h.conf.MinFreeSlots {
				h.finishStore()
				return true, nil
			}
			st.stage = storeEquip
		case storeEquip:
			inv := h.c.Inventory()
			slot, ok := inv.First(h.isBox)
			if !ok {
				return false, berror.Exhausted(game.ErrorNoBox)
			}
			if err := h.c.Equip(ctx, slot, inventory.MainHand); err != nil {
				h.log.Warnf("failed to equip the box: %v", err)
				return true, nil
			}
			st.stage = storePlace
		case storePlace:
			pos, err := h.placeBox(ctx)
			if err != nil {
				return false, err
			}
			h.log.Debugf("placed a box at %v", pos)
			st.boxPos, st.stage = pos, storeOpen
		case storeOpen:
			box, err := h.c.OpenContainer(ctx, st.boxPos)
			if err != nil {
				return false, berror.Exhausted(game.ErrorBoxNotOpened, st.boxPos, err)
			}
			st.box, st.stage = box, storeDeposit
		case storeDeposit:
			h.deposit(ctx, st.box)
			st.stage = storeClose
		case storeClose:
			if err := st.box.Close(ctx); err != nil {
				h.log.Warnf("failed to close the box: %v", err)
			}
			h.finishStore()
			return true, nil
		}
	}
}

func (h *Harvester) finishStore() {
	h.store = storeState{}
	h.phase = PhaseFindNear
}

func (h *Harvester) isBox(s inventory.Stack) bool {
	return h.conf.Container != "" && strings.Contains(s.Name, h.conf.Container)
}

// placeBox places the held box on top of a solid block near the bot and returns the position of the box.
func (h *Harvester) placeBox(ctx context.Context) (cube.Pos, error) {
	pos := h.c.Position()
	feet := cube.PosFromVec3(pos)
	r := h.conf.Radius

	candidates := FindBlocks(h.c, nil, cube.Pos{r, 2, r}, h.conf.Region.Grow(1), false)
	candidates = slices.DeleteFunc(candidates, func(b bot.Block) bool {
		above := b.Pos.Side(cube.FaceUp)
		if strings.Contains(b.Name, h.conf.Container) || !h.c.CanReach(b.Pos) {
			return true
		}
		// The box must not end up inside the bot.
		if above == feet || above == feet.Side(cube.FaceUp) {
			return true
		}
		return !h.c.Block(above).Air()
	})
	slices.SortStableFunc(candidates, func(a, b bot.Block) int {
		return cmp.Compare(pos.Sub(a.Pos.Vec3Centre()).Len(), pos.Sub(b.Pos.Vec3Centre()).Len())
	})

	for _, b := range candidates {
		if err := h.c.PlaceBlock(ctx, b.Pos, cube.FaceUp); err != nil {
			if ctx.Err() != nil {
				return cube.Pos{}, ctx.Err()
			}
			h.log.Debugf("failed to place the box on %v: %v", b.Pos, err)
			continue
		}
		above := b.Pos.Side(cube.FaceUp)
		if placed := h.c.Block(above); strings.Contains(placed.Name, h.conf.Container) {
			return above, nil
		}
	}
	return cube.Pos{}, berror.Exhausted(game.ErrorNoBoxPlacement)
}

// deposit moves every stack that is not kept into the box, up to the size of the box. The held item, tools,
// boxes and the excluded items are kept.
func (h *Harvester) deposit(ctx context.Context, box inventory.Container) {
	inv := h.c.Inventory()
	held := inv.HeldSlot()

	var n int
	for slot, s := range inv.Slots() {
		if n >= boxSize {
			break
		}
		if s.Empty() || slot == held || h.isBox(s) || inventory.IsTool(s.Name) || slices.Contains(h.conf.StoreExclude, s.Name) {
			continue
		}
		if err := box.Deposit(ctx, slot); err != nil {
			h.log.Warnf("failed to deposit %v: %v", s, err)
			break
		}
		n++
	}
	h.log.Infof("stored %d stacks", n)
}
