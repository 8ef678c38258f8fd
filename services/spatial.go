package services

import (
	"math"

	"github.com/zyedidia/generic/mapset"

	"runedeep/server/models"
)

// edgeEpsilon keeps a box flush against a wall from reading the wall's tile
const edgeEpsilon = 0.001

// IsWalkable reports whether an axis-aligned box lies entirely on in-bounds
// walkable tiles. Every tile the box spans is checked, which includes the four
// corner tiles; boxes wider than a tile cannot straddle a wall.
func IsWalkable(m *models.GameMap, x, y, width, height float64) bool {
	if m == nil || m.TileSize <= 0 {
		return false
	}
	if x < 0 || y < 0 {
		return false
	}

	ts := float64(m.TileSize)
	minX := int(math.Floor(x / ts))
	minY := int(math.Floor(y / ts))
	maxX := int(math.Floor((x + width - edgeEpsilon) / ts))
	maxY := int(math.Floor((y + height - edgeEpsilon) / ts))

	for ty := minY; ty <= maxY; ty++ {
		for tx := minX; tx <= maxX; tx++ {
			if !m.InBounds(tx, ty) || !m.Tiles[ty][tx].Walkable() {
				return false
			}
		}
	}
	return true
}

// EntityWalkable checks an entity's current bounding box
func EntityWalkable(m *models.GameMap, e models.Entity) bool {
	return IsWalkable(m, e.X, e.Y, e.Width, e.Height)
}

// subSteps splits a displacement into pieces no longer than half a tile
func subSteps(m *models.GameMap, dx, dy float64) int {
	if m == nil || m.TileSize <= 0 {
		return 1
	}
	limit := float64(m.TileSize) / 2
	n := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy)) / limit))
	return max(n, 1)
}

// slide moves the entity in sub-steps of at most half a tile. Each sub-step
// attempts the full move, then each axis alone. It returns whether the entity
// moved at all.
func slide(m *models.GameMap, e *models.Entity, dx, dy float64) bool {
	if dx == 0 && dy == 0 {
		return false
	}
	n := subSteps(m, dx, dy)
	sx, sy := dx/float64(n), dy/float64(n)

	moved := false
	for i := 0; i < n; i++ {
		if !slideOnce(m, e, sx, sy) {
			break
		}
		moved = true
	}
	return moved
}

func slideOnce(m *models.GameMap, e *models.Entity, dx, dy float64) bool {
	if IsWalkable(m, e.X+dx, e.Y+dy, e.Width, e.Height) {
		e.X += dx
		e.Y += dy
		return true
	}

	moved := false
	if dx != 0 && IsWalkable(m, e.X+dx, e.Y, e.Width, e.Height) {
		e.X += dx
		moved = true
	}
	if dy != 0 && IsWalkable(m, e.X, e.Y+dy, e.Width, e.Height) {
		e.Y += dy
		moved = true
	}
	return moved
}

// sweep moves the entity along (dx, dy) in sub-steps and reports false at the
// first sub-step that touches a blocked tile, leaving the entity there.
func sweep(m *models.GameMap, e *models.Entity, dx, dy float64) bool {
	n := subSteps(m, dx, dy)
	sx, sy := dx/float64(n), dy/float64(n)
	for i := 0; i < n; i++ {
		e.X += sx
		e.Y += sy
		if !EntityWalkable(m, *e) {
			return false
		}
	}
	return true
}

// fits reports whether the box is walkable and, when reach is given, whether
// its centre tile is in reach
func fits(m *models.GameMap, reach *mapset.Set[models.Point], x, y, width, height float64) bool {
	if !IsWalkable(m, x, y, width, height) {
		return false
	}
	return reach == nil || reach.Has(m.PointAt(x+width/2, y+height/2))
}

// nearestWalkable returns a top-left position for a box of the given size as
// close as possible to (x, y), searching tile rings outward. A non-nil reach
// limits results to boxes centred on those tiles. The second result is false
// when the map has no room for the box at all.
func nearestWalkable(m *models.GameMap, reach *mapset.Set[models.Point], x, y, width, height float64) (float64, float64, bool) {
	if m == nil || m.TileSize <= 0 {
		return x, y, false
	}
	if fits(m, reach, x, y, width, height) {
		return x, y, true
	}

	ts := float64(m.TileSize)
	cx := int(math.Floor((x + width/2) / ts))
	cy := int(math.Floor((y + height/2) / ts))
	maxRing := m.Width
	if m.Height > maxRing {
		maxRing = m.Height
	}

	for r := 1; r <= maxRing; r++ {
		for ty := cy - r; ty <= cy+r; ty++ {
			for tx := cx - r; tx <= cx+r; tx++ {
				if abs(tx-cx) != r && abs(ty-cy) != r {
					continue
				}
				px := float64(tx)*ts + (ts-width)/2
				py := float64(ty)*ts + (ts-height)/2
				if fits(m, reach, px, py, width, height) {
					return px, py, true
				}
			}
		}
	}
	return x, y, false
}

// Helper function to calculate absolute value
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
