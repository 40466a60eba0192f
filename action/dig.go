package action

import (
	"cmp"
	"context"
	"math"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/sirupsen/logrus"
	"github.com/tedious-mc/tedious/berror"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
	"github.com/tedious-mc/tedious/inventory"
	"github.com/tedious-mc/tedious/scheduler"
	"golang.org/x/exp/slices"
)

const (
	// digYieldInterval is the number of blocks broken between two yields.
	digYieldInterval = 10
	// pickYieldInterval is the number of items picked up between two yields.
	pickYieldInterval = 5
	// maxPicks bounds the number of items picked up after a round of digging.
	maxPicks = 15

	defaultTravelTimeout = time.Second * 20
	relocationTimeout    = time.Second * 10
)

// Phase is the point a Harvester resumes from.
type Phase uint8

const (
	PhaseFindNear Phase = iota
	PhaseFindHigh
	PhaseGridWalk
	PhaseDig
	PhaseSettle
	PhaseCollect
	PhaseStore
	PhaseFinished
)

// String ...
func (p Phase) String() string {
	switch p {
	case PhaseFindNear:
		return "find near"
	case PhaseFindHigh:
		return "find high"
	case PhaseGridWalk:
		return "grid walk"
	case PhaseDig:
		return "dig"
	case PhaseSettle:
		return "settle"
	case PhaseCollect:
		return "collect"
	case PhaseStore:
		return "store"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

// Harvester mines the target blocks of a region, picks up what they drop and stores the loot in boxes it
// places. Its progress is kept between calls to Step, so it can be interrupted at every yield and resumed
// where it left off.
type Harvester struct {
	conf  HarvestConfig
	c     bot.Client
	nav   bot.Navigator
	tools *inventory.Resolver
	log   *logrus.Entry

	phase Phase
	// floorY is the lowest layer scanned in progressive mode.
	floorY int

	targets []bot.Block
	next    int
	dug     int

	picks   int
	skipped map[uint64]struct{}

	tiles []cube.Pos
	tile  int
	// visited holds the columns of high targets already travelled to since targets were last found.
	visited map[[2]int]struct{}

	store storeState
}

// NewHarvester creates a Harvester that starts by looking for targets around the bot.
func NewHarvester(conf HarvestConfig, c bot.Client, nav bot.Navigator, log *logrus.Logger) *Harvester {
	if conf.TravelTimeout <= 0 {
		conf.TravelTimeout = defaultTravelTimeout
	}
	return &Harvester{
		conf:   conf,
		c:      c,
		nav:    nav,
		tools:  inventory.NewResolver(c, log),
		log:    log.WithField("action", "DigBlocks"),
		floorY: conf.Region.Max[1],
	}
}

// Phase returns the phase the next call to Step resumes from.
func (h *Harvester) Phase() Phase {
	return h.phase
}

// Task returns the Harvester as a scheduler task. The task finishes once every search strategy came up
// empty.
func (h *Harvester) Task() scheduler.Task {
	return func(ctx context.Context) (scheduler.Status, error) {
		progress, err := h.Step(ctx)
		if err != nil {
			return scheduler.StatusContinue, err
		}
		if !progress {
			return scheduler.StatusFinished, nil
		}
		return scheduler.StatusContinue, nil
	}
}

// Step advances the harvester until its next yield point. It returns true if it made progress or yielded
// so that other behaviors can run, and false once every search strategy came up empty. Errors returned are
// fatal for the invocation.
func (h *Harvester) Step(ctx context.Context) (bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return true, err
		}

		var (
			yield bool
			err   error
		)
		switch h.phase {
		case PhaseFindNear:
			yield, err = h.findNear()
		case PhaseFindHigh:
			yield, err = h.findHigh(ctx)
		case PhaseGridWalk:
			yield, err = h.gridWalk(ctx)
		case PhaseDig:
			yield, err = h.dig(ctx)
		case PhaseSettle:
			yield, err = h.settle(ctx)
		case PhaseCollect:
			yield, err = h.collect(ctx)
		case PhaseStore:
			yield, err = h.storeItems(ctx)
		case PhaseFinished:
			return false, nil
		}
		if err != nil {
			return true, err
		}
		if yield {
			return true, nil
		}
	}
}

// region returns the part of the region currently scanned.
func (h *Harvester) region() game.Region {
	if h.conf.Progressive {
		return h.conf.Region.WithFloor(h.floorY)
	}
	return h.conf.Region
}

func (h *Harvester) findNear() (bool, error) {
	r := h.conf.Radius
	targets := FindBlocks(h.c, h.conf.Targets, cube.Pos{r, r, r}, h.region(), true)
	targets = slices.DeleteFunc(targets, func(b bot.Block) bool { return !b.Diggable })
	h.log.Debugf("found %d targets", len(targets))

	if len(targets) == 0 {
		h.phase = PhaseFindHigh
		return false, nil
	}
	h.visited = nil
	game.SortByAngle(h.c.Position(), targets, func(b bot.Block) cube.Pos { return b.Pos })
	h.targets, h.next, h.dug = targets, 0, 0
	h.phase = PhaseDig
	return false, nil
}

// findHigh looks for targets over the full height of the region above the bot, ignoring reach, and moves
// to the column of the first one it can get to.
func (h *Harvester) findHigh(ctx context.Context) (bool, error) {
	pos := h.c.Position()
	feetY := int(math.Floor(pos.Y()))
	r := h.conf.Radius

	high := FindBlocks(h.c, h.conf.Targets, cube.Pos{r, h.conf.Region.Max[1] - feetY + 1, r}, h.region(), false)
	high = slices.DeleteFunc(high, func(b bot.Block) bool { return b.Pos.Y() < feetY || !b.Diggable })
	slices.SortStableFunc(high, func(a, b bot.Block) int {
		return cmp.Compare(game.HorizontalDistance(pos, a.Pos.Vec3Centre()), game.HorizontalDistance(pos, b.Pos.Vec3Centre()))
	})
	h.log.Debugf("found %d high targets", len(high))

	for _, t := range high {
		column := [2]int{t.Pos.X(), t.Pos.Z()}
		if _, ok := h.visited[column]; ok {
			continue
		}
		if h.visited == nil {
			h.visited = make(map[[2]int]struct{})
		}
		h.visited[column] = struct{}{}
		if err := Travel(ctx, h.nav, bot.GoalXZ{X: t.Pos.X(), Z: t.Pos.Z()}, h.conf.TravelTimeout); err != nil {
			h.log.Debugf("walk to high target %v failed: %v", t.Pos, err)
			continue
		}
		h.log.Debugf("arrived below high target %v", t.Pos)
		if h.conf.FastTravelCommand != "" {
			err := waitFor(ctx, "fast travel", relocationTimeout, func(ctx context.Context) error {
				if err := h.c.Chat(h.conf.FastTravelCommand); err != nil {
					return err
				}
				return h.c.WaitForRelocation(ctx)
			})
			if err != nil {
				h.log.Debugf("fast travel failed: %v", err)
			}
		}
		h.phase = PhaseFindNear
		return true, nil
	}
	h.phase = PhaseGridWalk
	return false, nil
}

// gridWalk visits the next tile of the region and moves close to the nearest target found from there. Once
// every tile was visited without finding anything, the harvester moves down a layer in progressive mode or
// finishes.
func (h *Harvester) gridWalk(ctx context.Context) (bool, error) {
	if h.tiles == nil {
		h.tiles, h.tile = GridTiles(h.region()), 0
	}
	if h.tile >= len(h.tiles) {
		h.tiles, h.tile = nil, 0
		if h.conf.Progressive && h.floorY > h.conf.Region.Min[1] {
			h.floorY--
			h.visited = nil
			h.log.Infof("layer exhausted, descending to y=%d", h.floorY)
			h.phase = PhaseFindNear
			return true, nil
		}
		h.log.Info(game.ErrorNoTarget)
		h.phase = PhaseFinished
		return false, nil
	}

	tile := h.tiles[h.tile]
	h.tile++
	h.log.Debugf("walking to tile %d/%d at %v", h.tile, len(h.tiles), tile)
	if err := Travel(ctx, h.nav, bot.GoalXZ{X: tile.X(), Z: tile.Z()}, h.conf.TravelTimeout); err != nil {
		h.log.Debugf("walk to tile failed: %v", err)
	}

	pos := h.c.Position()
	r := h.conf.Radius
	found := FindBlocks(h.c, h.conf.Targets, cube.Pos{r, h.conf.Region.Size()[1], r}, h.region(), false)
	found = slices.DeleteFunc(found, func(b bot.Block) bool { return !b.Diggable })
	if len(found) == 0 {
		return true, nil
	}

	closest := slices.MinFunc(found, func(a, b bot.Block) int {
		return cmp.Compare(a.Pos.Vec3Centre().Sub(pos).Len(), b.Pos.Vec3Centre().Sub(pos).Len())
	})
	if err := Travel(ctx, h.nav, bot.GoalLookAtBlock{Pos: closest.Pos, Reach: bot.Reach}, h.conf.TravelTimeout); err != nil {
		h.log.Debugf("walk to closest target %v failed: %v", closest.Pos, err)
	}
	h.phase = PhaseFindNear
	return true, nil
}

func (h *Harvester) dig(ctx context.Context) (bool, error) {
	for h.next < len(h.targets) {
		t := h.targets[h.next]
		h.next++

		// The world may have changed since the scan.
		b := h.c.Block(t.Pos)
		if b.Name != t.Name || !b.Diggable || !h.c.CanReach(t.Pos) {
			continue
		}
		if _, err := h.tools.SelectTool(ctx, b.Tag, h.conf.DurabilityFloor); err != nil {
			if berror.IsFatal(err) {
				return false, err
			}
			h.log.Debugf("keeping the held item: %v", err)
		}
		if err := h.c.BreakBlock(ctx, t.Pos); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			h.log.Warnf("failed to break %s at %v: %v", t.Name, t.Pos, err)
			continue
		}
		h.dug++
		h.log.Debugf("dug %s at %v", t.Name, t.Pos)
		if h.conf.Delay > 0 {
			if err := h.c.WaitTicks(ctx, h.conf.Delay); err != nil {
				return false, err
			}
		}
		if h.dug%digYieldInterval == 0 && h.next < len(h.targets) {
			return true, nil
		}
	}

	if h.dug > 0 {
		h.tiles, h.tile = nil, 0
	}
	h.targets = nil
	h.phase = PhaseSettle
	return false, nil
}

// settle waits for falling blocks and items to come to rest.
func (h *Harvester) settle(ctx context.Context) (bool, error) {
	if err := h.c.WaitTicks(ctx, max(h.conf.Delay*2, 10)); err != nil {
		return false, err
	}
	h.picks, h.skipped = 0, make(map[uint64]struct{})
	h.phase = PhaseCollect
	return false, nil
}

func (h *Harvester) collect(ctx context.Context) (bool, error) {
	for h.picks < maxPicks {
		if h.c.Inventory().EmptySlots() == 0 {
			break
		}
		drop, ok := h.nearestDrop()
		if !ok {
			break
		}
		h.picks++
		h.skipped[drop.ID] = struct{}{}

		if err := Travel(ctx, h.nav, bot.GoalNear{Pos: drop.Pos, Radius: 0.5}, h.conf.TravelTimeout); err != nil {
			h.log.Debugf("failed to reach %s at %v: %v", drop.Name, drop.Pos, err)
		}
		if err := h.c.WaitTicks(ctx, max(h.conf.Delay*2, 2)); err != nil {
			return false, err
		}
		if h.picks%pickYieldInterval == 0 {
			return true, nil
		}
	}
	h.store = storeState{}
	h.phase = PhaseStore
	return false, nil
}

// nearestDrop returns the closest item lying in the region, or right next to it, within the search radius.
func (h *Harvester) nearestDrop() (bot.DroppedItem, bool) {
	pos := h.c.Position()
	area := h.conf.Region.Grow(1)

	var (
		nearest bot.DroppedItem
		best    = math.MaxFloat64
	)
	for _, d := range h.c.DroppedItems() {
		if _, ok := h.skipped[d.ID]; ok || !area.ContainsVec3(d.Pos) {
			continue
		}
		dist := d.Pos.Sub(pos).Len()
		if dist <= float64(h.conf.Radius) && dist < best {
			nearest, best = d, dist
		}
	}
	return nearest, best != math.MaxFloat64
}
