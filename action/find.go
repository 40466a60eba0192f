package action

import (
	"math"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/tedious-mc/tedious/bot"
	"github.com/tedious-mc/tedious/game"
)

// gridOffset is the width of a tile of the grid walk.
const gridOffset = 16

// FindBlocks scans the cuboid of radius blocks around the bot on every axis and returns the non-air
// blocks whose position lies inside region and whose name matches the filter. If reachable is true, blocks
// the bot cannot reach are left out. The blocks are returned in no particular order.
func FindBlocks(c bot.Client, filter Filter, radius cube.Pos, region game.Region, reachable bool) []bot.Block {
	centre := cube.PosFromVec3(c.Position())

	// Scanning the intersection of the cuboid and the region yields the same blocks as scanning the cuboid
	// and checking every position against the region.
	var lo, hi cube.Pos
	for i := 0; i < 3; i++ {
		lo[i] = max(centre[i]-radius[i], region.Min[i])
		hi[i] = min(centre[i]+radius[i], region.Max[i])
	}

	var found []bot.Block
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				pos := cube.Pos{x, y, z}
				b := c.Block(pos)
				if b.Air() || !filter.Match(b.Name) {
					continue
				}
				if reachable && !c.CanReach(pos) {
					continue
				}
				found = append(found, b)
			}
		}
	}
	return found
}

// GridTiles partitions the region into tiles of 16 by 16 blocks and returns the position at the centre of
// every tile, clipped to the region, in row-major order. The number of tiles is ⌈sizeX/16⌉ × ⌈sizeZ/16⌉.
func GridTiles(region game.Region) []cube.Pos {
	size := region.Size()
	nx := int(math.Ceil(float64(size[0]) / gridOffset))
	nz := int(math.Ceil(float64(size[2]) / gridOffset))

	tiles := make([]cube.Pos, 0, nx*nz)
	for iz := 0; iz < nz; iz++ {
		for ix := 0; ix < nx; ix++ {
			tiles = append(tiles, cube.Pos{
				min(region.Min[0]+ix*gridOffset+gridOffset/2, region.Max[0]),
				region.Max[1],
				min(region.Min[2]+iz*gridOffset+gridOffset/2, region.Max[2]),
			})
		}
	}
	return tiles
}
